package filters

import (
	"image"
	"math"
)

// ApplyExact runs every filter pass over img in place. Alpha is never touched.
//
// Passes 1-10 work on float intermediates one pixel at a time and round only
// at write-back. Sharpness then convolves a copy of the rounded buffer and
// vignette darkens radially. Each pass is skipped when its parameter is at
// the default, so the identity vector leaves img unchanged.
func ApplyExact(img *image.NRGBA, v Vector) {
	if img == nil {
		return
	}
	v = v.Clamp()
	if !v.IsModified() {
		return
	}

	b := img.Bounds()
	if perPixelActive(v) {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := img.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x++ {
				p := img.Pix[i : i+3 : i+3]
				r, g, bl := adjustPixel(float64(p[0]), float64(p[1]), float64(p[2]), v)
				p[0], p[1], p[2] = toByte(r), toByte(g), toByte(bl)
				i += 4
			}
		}
	}

	if v.Sharpness > 0 {
		sharpen(img, v.Sharpness/100)
	}
	if v.Vignette > 0 {
		vignette(img, v.Vignette/100)
	}
}

func perPixelActive(v Vector) bool {
	return v.Brightness != 0 || v.Exposure != 0 || v.Contrast != 0 ||
		v.Highlights != 0 || v.Shadows != 0 || v.Saturation != 0 ||
		v.Vibrance != 0 || v.Temperature != 0 || v.Tint != 0 || v.Clarity != 0
}

// adjustPixel applies passes 1-10 in order; each pass reads the previous
// pass's output.
func adjustPixel(r, g, b float64, v Vector) (float64, float64, float64) {
	if v.Brightness != 0 {
		shift := v.Brightness * 2.55
		r, g, b = clamp(r+shift), clamp(g+shift), clamp(b+shift)
	}

	if v.Exposure != 0 {
		scale := 1 + v.Exposure/100
		r, g, b = clamp(r*scale), clamp(g*scale), clamp(b*scale)
	}

	if v.Contrast != 0 {
		factor := 259 * (v.Contrast + 255) / (255 * (259 - v.Contrast))
		r = clamp(factor*(r-128) + 128)
		g = clamp(factor*(g-128) + 128)
		b = clamp(factor*(b-128) + 128)
	}

	if v.Highlights != 0 || v.Shadows != 0 {
		// a pixel is either above or below the midpoint, so one luminance
		// sample serves both passes
		l := luminance(r, g, b)
		if v.Highlights != 0 && l > 128 {
			adj := v.Highlights / 100 * 50 * ((l - 128) / 127)
			r, g, b = clamp(r+adj), clamp(g+adj), clamp(b+adj)
		}
		if v.Shadows != 0 && l < 128 {
			adj := v.Shadows / 100 * 50 * ((128 - l) / 128)
			r, g, b = clamp(r+adj), clamp(g+adj), clamp(b+adj)
		}
	}

	if v.Saturation != 0 {
		r, g, b = pullGray(r, g, b, 1+v.Saturation/100)
	}

	// vibrance measures saturation on the already saturation-adjusted triple
	if v.Vibrance != 0 {
		current := math.Max(r, math.Max(g, b)) - math.Min(r, math.Min(g, b))
		r, g, b = pullGray(r, g, b, 1+(v.Vibrance/100)*(1-current/255))
	}

	if t := v.Temperature / 100; t > 0 {
		r, b = clamp(r+t*50), clamp(b-t*30)
	} else if t < 0 {
		r, b = clamp(r+t*30), clamp(b-t*50)
	}

	if t := v.Tint / 100; t > 0 {
		r, g, b = clamp(r+t*30), clamp(g-t*20), clamp(b+t*30)
	} else if t < 0 {
		r, g, b = clamp(r+t*20), clamp(g-t*40), clamp(b+t*20)
	}

	if v.Clarity != 0 {
		adj := (luminance(r, g, b) - 128) * (v.Clarity / 100) * 0.5
		r, g, b = clamp(r+adj), clamp(g+adj), clamp(b+adj)
	}

	return r, g, b
}

func pullGray(r, g, b, factor float64) (float64, float64, float64) {
	gray := luminance(r, g, b)
	return clamp(gray + (r-gray)*factor),
		clamp(gray + (g-gray)*factor),
		clamp(gray + (b-gray)*factor)
}

var sharpenKernel = [3][3]float64{
	{0, -1, 0},
	{-1, 5, -1},
	{0, -1, 0},
}

// sharpen blends a 3x3 sharpening convolution into img by amount. The
// convolution reads an unmodified copy so neighbouring writes do not
// compound; the outer 1-pixel border is left as is.
func sharpen(img *image.NRGBA, amount float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return
	}

	src := make([]uint8, len(img.Pix))
	copy(src, img.Pix)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			for c := 0; c < 3; c++ {
				var sum float64
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						k := sharpenKernel[ky+1][kx+1]
						if k == 0 {
							continue
						}
						j := img.PixOffset(b.Min.X+x+kx, b.Min.Y+y+ky)
						sum += k * float64(src[j+c])
					}
				}
				orig := float64(src[i+c])
				img.Pix[i+c] = toByte(orig + (sum-orig)*amount)
			}
		}
	}
}

// vignette darkens pixels proportionally to their distance from the centre;
// the factor is exactly 1 at the centre and 1-strength at the corners.
func vignette(img *image.NRGBA, strength float64) {
	b := img.Bounds()
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
	maxDistance := math.Hypot(cx, cy)
	if maxDistance == 0 {
		return
	}

	for y := 0; y < b.Dy(); y++ {
		i := img.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < b.Dx(); x++ {
			factor := 1 - (math.Hypot(float64(x)-cx, float64(y)-cy)/maxDistance)*strength
			p := img.Pix[i : i+3 : i+3]
			p[0] = toByte(float64(p[0]) * factor)
			p[1] = toByte(float64(p[1]) * factor)
			p[2] = toByte(float64(p[2]) * factor)
			i += 4
		}
	}
}

func luminance(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func toByte(v float64) uint8 {
	return uint8(math.Round(clamp(v)))
}
