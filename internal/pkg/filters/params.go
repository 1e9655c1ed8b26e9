// Package filters holds the filter vector model together with its preview
// (display-layer) and exact (per-pixel) transforms.
package filters

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrUnknownField = errors.New("unknown filter field")

type Field string

const (
	Brightness  Field = "brightness"
	Exposure    Field = "exposure"
	Contrast    Field = "contrast"
	Highlights  Field = "highlights"
	Shadows     Field = "shadows"
	Saturation  Field = "saturation"
	Vibrance    Field = "vibrance"
	Temperature Field = "temperature"
	Tint        Field = "tint"
	Clarity     Field = "clarity"
	Sharpness   Field = "sharpness"
	Vignette    Field = "vignette"
)

type Group string

const (
	GroupTone    Group = "tone"
	GroupColor   Group = "color"
	GroupDetail  Group = "detail"
	GroupEffects Group = "effects"
)

// Param describes one slider: its range, default and the panel it belongs to.
type Param struct {
	Field   Field   `json:"field"`
	Label   string  `json:"label"`
	Group   Group   `json:"group"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Default float64 `json:"default"`
}

var Params = []Param{
	{Field: Brightness, Label: "Brightness", Group: GroupTone, Min: -100, Max: 100, Step: 1},
	{Field: Exposure, Label: "Exposure", Group: GroupTone, Min: -100, Max: 100, Step: 1},
	{Field: Contrast, Label: "Contrast", Group: GroupTone, Min: -100, Max: 100, Step: 1},
	{Field: Highlights, Label: "Highlights", Group: GroupTone, Min: -100, Max: 100, Step: 1},
	{Field: Shadows, Label: "Shadows", Group: GroupTone, Min: -100, Max: 100, Step: 1},
	{Field: Saturation, Label: "Saturation", Group: GroupColor, Min: -100, Max: 100, Step: 1},
	{Field: Vibrance, Label: "Vibrance", Group: GroupColor, Min: -100, Max: 100, Step: 1},
	{Field: Temperature, Label: "Temperature", Group: GroupColor, Min: -100, Max: 100, Step: 1},
	{Field: Tint, Label: "Tint", Group: GroupColor, Min: -100, Max: 100, Step: 1},
	{Field: Clarity, Label: "Clarity", Group: GroupDetail, Min: -100, Max: 100, Step: 1},
	{Field: Sharpness, Label: "Sharpness", Group: GroupDetail, Min: 0, Max: 100, Step: 1},
	{Field: Vignette, Label: "Vignette", Group: GroupEffects, Min: 0, Max: 100, Step: 1},
}

// ParamFor returns the metadata for f.
func ParamFor(f Field) (Param, bool) {
	for _, p := range Params {
		if p.Field == f {
			return p, true
		}
	}
	return Param{}, false
}

// ParseField resolves a case-insensitive field name.
func ParseField(name string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := ParamFor(f); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// GroupParams returns the parameters of one panel in display order.
func GroupParams(g Group) []Param {
	var out []Param
	for _, p := range Params {
		if p.Group == g {
			out = append(out, p)
		}
	}
	return out
}

// Vector is the editing state of one photo. The zero value is the identity.
type Vector struct {
	Brightness  float64 `json:"brightness" yaml:"brightness"`
	Exposure    float64 `json:"exposure" yaml:"exposure"`
	Contrast    float64 `json:"contrast" yaml:"contrast"`
	Highlights  float64 `json:"highlights" yaml:"highlights"`
	Shadows     float64 `json:"shadows" yaml:"shadows"`
	Saturation  float64 `json:"saturation" yaml:"saturation"`
	Vibrance    float64 `json:"vibrance" yaml:"vibrance"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Tint        float64 `json:"tint" yaml:"tint"`
	Clarity     float64 `json:"clarity" yaml:"clarity"`
	Sharpness   float64 `json:"sharpness" yaml:"sharpness"`
	Vignette    float64 `json:"vignette" yaml:"vignette"`
}

// Default returns the identity vector.
func Default() Vector {
	var v Vector
	for _, p := range Params {
		*v.ref(p.Field) = p.Default
	}
	return v
}

// Reset is an alias of Default kept for the "reset all" control.
func Reset() Vector { return Default() }

func (v *Vector) ref(f Field) *float64 {
	switch f {
	case Brightness:
		return &v.Brightness
	case Exposure:
		return &v.Exposure
	case Contrast:
		return &v.Contrast
	case Highlights:
		return &v.Highlights
	case Shadows:
		return &v.Shadows
	case Saturation:
		return &v.Saturation
	case Vibrance:
		return &v.Vibrance
	case Temperature:
		return &v.Temperature
	case Tint:
		return &v.Tint
	case Clarity:
		return &v.Clarity
	case Sharpness:
		return &v.Sharpness
	case Vignette:
		return &v.Vignette
	}
	return nil
}

// Get returns the value of f, or 0 for an unknown field.
func (v Vector) Get(f Field) float64 {
	if p := v.ref(f); p != nil {
		return *p
	}
	return 0
}

// Set returns a copy of v with f set to value clamped into the field's range.
// Unknown fields leave the vector unchanged.
func (v Vector) Set(f Field, value float64) Vector {
	p, ok := ParamFor(f)
	if !ok {
		return v
	}
	*v.ref(f) = p.clamp(value)
	return v
}

// Clamp re-clamps every field into its declared range.
func (v Vector) Clamp() Vector {
	for _, p := range Params {
		ref := v.ref(p.Field)
		*ref = p.clamp(*ref)
	}
	return v
}

// IsModified reports whether any field differs from its default.
func (v Vector) IsModified() bool {
	for _, p := range Params {
		if v.Get(p.Field) != p.Default {
			return true
		}
	}
	return false
}

// Map converts the vector to field/value pairs.
func (v Vector) Map() map[Field]float64 {
	out := make(map[Field]float64, len(Params))
	for _, p := range Params {
		out[p.Field] = v.Get(p.Field)
	}
	return out
}

// FromMap builds a clamped vector from untrusted name/value pairs.
func FromMap(values map[string]float64) (Vector, error) {
	v := Default()
	for name, value := range values {
		f, err := ParseField(name)
		if err != nil {
			return Vector{}, err
		}
		v = v.Set(f, value)
	}
	return v, nil
}

func (p Param) clamp(value float64) float64 {
	switch {
	case math.IsNaN(value):
		return p.Default
	case value < p.Min:
		return p.Min
	case value > p.Max:
		return p.Max
	}
	return value
}
