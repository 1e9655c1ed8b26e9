// Package presets holds the built-in AI style presets and the rules for
// combining several presets into one edit instruction.
package presets

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPreset = errors.New("unknown preset")

type Category string

const (
	CategoryArtistic  Category = "artistic"
	CategoryLighting  Category = "lighting"
	CategoryVintage   Category = "vintage"
	CategoryPortrait  Category = "portrait"
	CategoryCinematic Category = "cinematic"
)

type Preset struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Category Category `json:"category" yaml:"category"`
	Prompt   string   `json:"prompt" yaml:"prompt"`
}

const (
	combineHeader = "Apply the following edits to the image:"
	combineFooter = "Blend all of these effects naturally into a single cohesive image."
)

var builtin = []Preset{
	{ID: "watercolor", Name: "Watercolor", Category: CategoryArtistic,
		Prompt: "Transform this photo into a soft watercolor painting with gentle color bleeds and visible paper texture."},
	{ID: "oil-painting", Name: "Oil Painting", Category: CategoryArtistic,
		Prompt: "Repaint this image as a classical oil painting with rich impasto brush strokes."},
	{ID: "pencil-sketch", Name: "Pencil Sketch", Category: CategoryArtistic,
		Prompt: "Convert this photo into a detailed graphite pencil sketch with cross-hatched shading."},
	{ID: "golden-hour", Name: "Golden Hour", Category: CategoryLighting,
		Prompt: "Relight the scene with warm, low golden hour sunlight and long soft shadows."},
	{ID: "studio-light", Name: "Studio Light", Category: CategoryLighting,
		Prompt: "Relight the subject with clean three-point studio lighting against a neutral backdrop."},
	{ID: "neon-night", Name: "Neon Night", Category: CategoryLighting,
		Prompt: "Turn the scene into a rainy night lit by pink and cyan neon signs."},
	{ID: "film-70s", Name: "70s Film", Category: CategoryVintage,
		Prompt: "Give the photo the look of 1970s film stock with faded warm tones and fine grain."},
	{ID: "polaroid", Name: "Polaroid", Category: CategoryVintage,
		Prompt: "Make the image look like an instant Polaroid print with soft contrast and a slight color cast."},
	{ID: "black-white", Name: "Classic B&W", Category: CategoryVintage,
		Prompt: "Convert to a high-contrast black and white photograph with deep blacks."},
	{ID: "skin-retouch", Name: "Natural Retouch", Category: CategoryPortrait,
		Prompt: "Subtly retouch the portrait: even out skin tone and reduce blemishes while keeping natural texture."},
	{ID: "bokeh", Name: "Portrait Bokeh", Category: CategoryPortrait,
		Prompt: "Keep the subject sharp and blur the background with creamy circular bokeh."},
	{ID: "teal-orange", Name: "Teal & Orange", Category: CategoryCinematic,
		Prompt: "Color grade the image with a cinematic teal and orange look."},
	{ID: "noir", Name: "Film Noir", Category: CategoryCinematic,
		Prompt: "Restyle the scene as a moody 1940s film noir still with hard shadows."},
}

// Builtin returns a copy of the built-in catalogue.
func Builtin() []Preset {
	out := make([]Preset, len(builtin))
	copy(out, builtin)
	return out
}

func Find(id string) (Preset, error) {
	for _, p := range builtin {
		if p.ID == id {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, id)
}

// Resolve looks up every id in order.
func Resolve(ids []string) ([]Preset, error) {
	out := make([]Preset, 0, len(ids))
	for _, id := range ids {
		p, err := Find(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func ByCategory(category Category) []Preset {
	var out []Preset
	for _, p := range builtin {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Combine merges the prompts of the given presets, see CombinePrompts.
func Combine(ps []Preset) string {
	prompts := make([]string, len(ps))
	for i, p := range ps {
		prompts[i] = p.Prompt
	}
	return CombinePrompts(prompts...)
}

// CombinePrompts turns several edit instructions into one. No prompts yield
// an empty string and a single prompt is returned unmodified. Two or more are
// numbered in order and followed by a request to blend them.
func CombinePrompts(prompts ...string) string {
	switch len(prompts) {
	case 0:
		return ""
	case 1:
		return prompts[0]
	}

	var b strings.Builder
	b.WriteString(combineHeader)
	for i, p := range prompts {
		fmt.Fprintf(&b, "\n%d. %s", i+1, strings.TrimSpace(p))
	}
	b.WriteString("\n")
	b.WriteString(combineFooter)
	return b.String()
}
