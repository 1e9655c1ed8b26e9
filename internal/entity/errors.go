package entity

import "errors"

var (
	// Version errors
	ErrVersionNotFound = errors.New("version not found")
	ErrSessionMismatch = errors.New("version belongs to another session")

	// History errors
	ErrHistoryNotFound = errors.New("history item not found")

	// Preset errors
	ErrPresetNotFound = errors.New("preset not found")
	ErrPresetExists   = errors.New("preset with this name already exists")

	// General errors
	ErrInvalidInput   = errors.New("invalid input")
	ErrEventsDisabled = errors.New("event bus is not configured")
)
