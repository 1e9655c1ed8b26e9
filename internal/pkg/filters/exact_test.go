package filters

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillImageWithColor fills the whole image with one colour
func fillImageWithColor(img *image.NRGBA, c color.NRGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

// gradientImage builds a deterministic image covering dark, mid and bright
// tones with varying saturation and alpha
func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 255) / max(w-1, 1)),
				G: uint8((y * 255) / max(h-1, 1)),
				B: uint8(((x + y) * 97) % 256),
				A: uint8(128 + (x*y)%128),
			})
		}
	}
	return img
}

func meanLuminance(img *image.NRGBA) float64 {
	var sum float64
	n := 0
	for i := 0; i+3 < len(img.Pix); i += 4 {
		sum += luminance(float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2]))
		n++
	}
	return sum / float64(n)
}

func pixelLuminance(img *image.NRGBA, x, y int) float64 {
	c := img.NRGBAAt(x, y)
	return luminance(float64(c.R), float64(c.G), float64(c.B))
}

func TestApplyExactIdentity(t *testing.T) {
	img := gradientImage(37, 23)
	want := append([]uint8(nil), img.Pix...)

	ApplyExact(img, Default())

	assert.Equal(t, want, img.Pix)
}

func TestApplyExactMidGrayBrightness(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	fillImageWithColor(img, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	ApplyExact(img, Default().Set(Brightness, 20))

	assert.Equal(t, color.NRGBA{R: 179, G: 179, B: 179, A: 255}, img.NRGBAAt(2, 2))
}

func TestApplyExactSinglePasses(t *testing.T) {
	tests := []struct {
		name   string
		input  color.NRGBA
		vector Vector
		want   color.NRGBA
	}{
		{
			name:   "brightness clamps at white",
			input:  color.NRGBA{R: 200, G: 250, B: 10, A: 255},
			vector: Vector{Brightness: 100},
			want:   color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		},
		{
			name:   "exposure scales",
			input:  color.NRGBA{R: 100, G: 50, B: 10, A: 255},
			vector: Vector{Exposure: 50},
			want:   color.NRGBA{R: 150, G: 75, B: 15, A: 255},
		},
		{
			name:   "contrast anchored at midpoint",
			input:  color.NRGBA{R: 200, G: 128, B: 56, A: 255},
			vector: Vector{Contrast: 50},
			// factor = 259*305/(255*209) ~ 1.48222
			want: color.NRGBA{R: 235, G: 128, B: 21, A: 255},
		},
		{
			name:   "full desaturation goes to luminance",
			input:  color.NRGBA{R: 200, G: 100, B: 50, A: 255},
			vector: Vector{Saturation: -100},
			want:   color.NRGBA{R: 124, G: 124, B: 124, A: 255},
		},
		{
			name:   "warm temperature",
			input:  color.NRGBA{R: 100, G: 100, B: 100, A: 255},
			vector: Vector{Temperature: 100},
			want:   color.NRGBA{R: 150, G: 100, B: 70, A: 255},
		},
		{
			name:   "cool temperature",
			input:  color.NRGBA{R: 100, G: 100, B: 100, A: 255},
			vector: Vector{Temperature: -100},
			want:   color.NRGBA{R: 70, G: 100, B: 150, A: 255},
		},
		{
			name:   "magenta tint",
			input:  color.NRGBA{R: 100, G: 100, B: 100, A: 255},
			vector: Vector{Tint: 100},
			want:   color.NRGBA{R: 130, G: 80, B: 130, A: 255},
		},
		{
			name:   "green tint",
			input:  color.NRGBA{R: 100, G: 100, B: 100, A: 255},
			vector: Vector{Tint: -100},
			want:   color.NRGBA{R: 80, G: 140, B: 80, A: 255},
		},
		{
			name:   "highlights lift bright pixels",
			input:  color.NRGBA{R: 255, G: 255, B: 255, A: 255},
			vector: Vector{Highlights: -100},
			want:   color.NRGBA{R: 205, G: 205, B: 205, A: 255},
		},
		{
			name:   "highlights ignore dark pixels",
			input:  color.NRGBA{R: 40, G: 40, B: 40, A: 255},
			vector: Vector{Highlights: 100},
			want:   color.NRGBA{R: 40, G: 40, B: 40, A: 255},
		},
		{
			name:   "shadows lift black",
			input:  color.NRGBA{R: 0, G: 0, B: 0, A: 255},
			vector: Vector{Shadows: 100},
			want:   color.NRGBA{R: 50, G: 50, B: 50, A: 255},
		},
		{
			name:   "clarity pushes away from midtone",
			input:  color.NRGBA{R: 228, G: 228, B: 228, A: 255},
			vector: Vector{Clarity: 100},
			want:   color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		},
		{
			name:   "vibrance leaves gray untouched",
			input:  color.NRGBA{R: 90, G: 90, B: 90, A: 255},
			vector: Vector{Vibrance: 100},
			want:   color.NRGBA{R: 90, G: 90, B: 90, A: 255},
		},
		{
			name:   "alpha is never modified",
			input:  color.NRGBA{R: 128, G: 128, B: 128, A: 17},
			vector: Vector{Brightness: 20},
			want:   color.NRGBA{R: 179, G: 179, B: 179, A: 17},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
			fillImageWithColor(img, tt.input)

			ApplyExact(img, tt.vector)

			assert.Equal(t, tt.want, img.NRGBAAt(1, 1))
		})
	}
}

func TestVibranceFavoursMutedPixels(t *testing.T) {
	muted := color.NRGBA{R: 140, G: 120, B: 110, A: 255}
	vivid := color.NRGBA{R: 240, G: 40, B: 20, A: 255}

	spread := func(c color.NRGBA) int {
		img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		img.SetNRGBA(0, 0, c)
		ApplyExact(img, Vector{Vibrance: 50})
		out := img.NRGBAAt(0, 0)
		return int(max(out.R, out.G, out.B)) - int(min(out.R, out.G, out.B))
	}

	mutedGain := float64(spread(muted)) / 30
	vividGain := float64(spread(vivid)) / 220
	assert.Greater(t, mutedGain, vividGain)
}

func TestMonotonicBrightness(t *testing.T) {
	levels := []float64{-100, -60, -20, 0, 15, 40, 100}

	prev := -1.0
	for _, b := range levels {
		img := gradientImage(32, 32)
		ApplyExact(img, Default().Set(Brightness, b))
		mean := meanLuminance(img)
		assert.GreaterOrEqual(t, mean, prev, "brightness %v", b)
		prev = mean
	}
}

func TestVignetteDarkensCornersOnly(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	fillImageWithColor(img, color.NRGBA{R: 200, G: 180, B: 160, A: 255})
	before := img.NRGBAAt(5, 5)
	cornerBefore := pixelLuminance(img, 0, 0)

	ApplyExact(img, Vector{Vignette: 50})

	assert.Equal(t, before, img.NRGBAAt(5, 5))
	assert.LessOrEqual(t, pixelLuminance(img, 0, 0), cornerBefore)
	// the top-left corner sits exactly maxDistance away from the centre
	assert.Equal(t, color.NRGBA{R: 100, G: 90, B: 80, A: 255}, img.NRGBAAt(0, 0))
}

func TestSharpenUniformImageIsStable(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 6, 6))
	fillImageWithColor(img, color.NRGBA{R: 90, G: 120, B: 30, A: 255})
	want := append([]uint8(nil), img.Pix...)

	ApplyExact(img, Vector{Sharpness: 100})

	assert.Equal(t, want, img.Pix)
}

func TestSharpenEnhancesEdgesAndKeepsBorder(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 5, 5))
	fillImageWithColor(img, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	img.SetNRGBA(2, 2, color.NRGBA{R: 140, G: 140, B: 140, A: 255})
	img.SetNRGBA(0, 2, color.NRGBA{R: 10, G: 10, B: 10, A: 255})

	ApplyExact(img, Vector{Sharpness: 50})

	// centre: conv = 5*140 - 4*100 = 300, blended halfway from 140
	assert.Equal(t, uint8(220), img.NRGBAAt(2, 2).R)
	// neighbour: conv = 500 - 140 - 300 = 60, blended halfway from 100
	assert.Equal(t, uint8(80), img.NRGBAAt(2, 1).R)
	// border pixel is not convolved
	assert.Equal(t, uint8(10), img.NRGBAAt(0, 2).R)
}

func TestApplyExactOnSubImage(t *testing.T) {
	parent := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	fillImageWithColor(parent, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	sub, ok := parent.SubImage(image.Rect(2, 2, 6, 6)).(*image.NRGBA)
	require.True(t, ok)

	ApplyExact(sub, Vector{Brightness: 20})

	assert.Equal(t, uint8(179), parent.NRGBAAt(3, 3).R)
	assert.Equal(t, uint8(128), parent.NRGBAAt(0, 0).R)
	assert.Equal(t, uint8(128), parent.NRGBAAt(7, 7).R)
}

func TestApplyExactNilImage(t *testing.T) {
	assert.NotPanics(t, func() { ApplyExact(nil, Vector{Brightness: 10}) })
}
