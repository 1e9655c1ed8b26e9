package store

import "errors"

var (
	ErrNotFound     = errors.New("entry not found")
	ErrStoreClosed  = errors.New("store is not open")
	ErrUnconfigured = errors.New("store backend is not configured")
	ErrInvalidEntry = errors.New("invalid entry")
	ErrDuplicate    = errors.New("entry with the same key already exists")

	// ErrCapacityViolation means eviction could not bring a group back under
	// capacity although none of its entries were pinned. It signals a bug,
	// never a user error.
	ErrCapacityViolation = errors.New("store capacity invariant violated")

	// ErrImportFormat rejects a snapshot wholesale; nothing is applied.
	ErrImportFormat = errors.New("invalid import snapshot")
)
