package entity

import (
	"fmt"
	"strings"

	"github.com/renatodap/snapmod-sub000/internal/pkg/filters"
)

const MaxPresetNameLength = 60

// CustomPreset is a user-saved look: a filter vector, an AI prompt, or both.
type CustomPreset struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Prompt      string         `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Filters     filters.Vector `json:"filters" yaml:"filters"`
}

// Validate normalises the preset. Filter values are clamped, not rejected.
func (p *CustomPreset) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Prompt = strings.TrimSpace(p.Prompt)
	if p.Name == "" {
		return fmt.Errorf("%w: preset name is required", ErrInvalidInput)
	}
	if len(p.Name) > MaxPresetNameLength {
		return fmt.Errorf("%w: preset name longer than %d characters", ErrInvalidInput, MaxPresetNameLength)
	}
	if len(p.Prompt) > MaxPromptLength {
		return fmt.Errorf("%w: prompt longer than %d characters", ErrInvalidInput, MaxPromptLength)
	}
	p.Filters = p.Filters.Clamp()
	return nil
}

// Key is the case-insensitive name presets are de-duplicated by.
func (p CustomPreset) Key() string {
	return strings.ToLower(strings.TrimSpace(p.Name))
}

type PresetRequest struct {
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	Prompt      string             `json:"prompt"`
	Filters     map[string]float64 `json:"filters"`
}

type CombineRequest struct {
	PresetIDs []string `json:"preset_ids"`
	Custom    []string `json:"custom_ids"`
}

type CombineResponse struct {
	Prompt string `json:"prompt"`
	Count  int    `json:"count"`
}
