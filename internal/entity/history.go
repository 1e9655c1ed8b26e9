package entity

import (
	"fmt"
	"strings"
)

const MaxPromptLength = 2000

// HistoryItem is one AI edit prompt the user has sent.
type HistoryItem struct {
	Prompt    string   `json:"prompt"`
	PresetIDs []string `json:"preset_ids,omitempty"`
}

func (h *HistoryItem) Validate() error {
	h.Prompt = strings.TrimSpace(h.Prompt)
	if h.Prompt == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	if len(h.Prompt) > MaxPromptLength {
		return fmt.Errorf("%w: prompt longer than %d characters", ErrInvalidInput, MaxPromptLength)
	}
	return nil
}

func (h HistoryItem) Clone() HistoryItem {
	c := h
	if h.PresetIDs != nil {
		c.PresetIDs = append([]string(nil), h.PresetIDs...)
	}
	return c
}

type RecordPromptRequest struct {
	Prompt    string   `json:"prompt" binding:"required"`
	PresetIDs []string `json:"preset_ids"`
}
