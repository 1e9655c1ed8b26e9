package filters

import (
	"strconv"
	"strings"
)

type EffectKind string

const (
	EffectBrightness EffectKind = "brightness"
	EffectContrast   EffectKind = "contrast"
	EffectSaturate   EffectKind = "saturate"
	EffectHueRotate  EffectKind = "hue-rotate"
	EffectSepia      EffectKind = "sepia"
)

// Effect is one display-layer operation. Amount is a factor, except for
// hue-rotate where it is in degrees.
type Effect struct {
	Kind   EffectKind `json:"kind"`
	Amount float64    `json:"amount"`
}

func (e Effect) String() string {
	amount := strconv.FormatFloat(e.Amount, 'f', -1, 64)
	if e.Kind == EffectHueRotate {
		return string(e.Kind) + "(" + amount + "deg)"
	}
	return string(e.Kind) + "(" + amount + ")"
}

// Composition is the result of the preview transform. None is the explicit
// "no effect" marker and is never combined with a non-empty Effects list.
type Composition struct {
	None    bool     `json:"none"`
	Effects []Effect `json:"effects,omitempty"`
}

// CSS renders the composition as a CSS filter property value.
func (c Composition) CSS() string {
	if c.None || len(c.Effects) == 0 {
		return "none"
	}
	parts := make([]string, len(c.Effects))
	for i, e := range c.Effects {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// Preview maps v to cheap compositable effects for live slider feedback.
// Exposure, highlights, shadows, vibrance, clarity and vignette have no
// display-layer approximation and only show up in the exact transform.
func Preview(v Vector) Composition {
	v = v.Clamp()

	var effects []Effect
	if v.Brightness != 0 {
		effects = append(effects, Effect{Kind: EffectBrightness, Amount: 1 + v.Brightness/100})
	}
	if v.Contrast != 0 {
		effects = append(effects, Effect{Kind: EffectContrast, Amount: 1 + v.Contrast/100})
	}
	if v.Saturation != 0 {
		effects = append(effects, Effect{Kind: EffectSaturate, Amount: 1 + v.Saturation/100})
	}
	if v.Temperature != 0 {
		effects = append(effects, Effect{Kind: EffectHueRotate, Amount: v.Temperature * 1.8})
	}
	if v.Tint > 0 {
		effects = append(effects, Effect{Kind: EffectSepia, Amount: v.Tint / 200})
	}
	// sharpening cannot be expressed as a display filter, a mild contrast
	// boost stands in for it
	if v.Sharpness > 0 {
		effects = append(effects, Effect{Kind: EffectContrast, Amount: 1 + v.Sharpness/200})
	}

	if len(effects) == 0 {
		return Composition{None: true}
	}
	return Composition{Effects: effects}
}
