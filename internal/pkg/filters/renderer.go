package filters

import (
	"context"
	"image"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// Result is one finished exact render.
type Result struct {
	Data      []byte
	MimeType  string
	Width     int
	Height    int
	Thumbnail []byte
	Duration  time.Duration
}

type RendererOptions struct {
	// MaxDimension bounds the longest side of the raster; larger sources are
	// fitted down before filtering. Zero disables the limit.
	MaxDimension int
	// ThumbnailSize is the edge of the square timeline thumbnail. Zero
	// disables thumbnails.
	ThumbnailSize int
}

// Renderer decodes a source, runs the exact transform and re-encodes it.
type Renderer struct {
	codec Codec
	opts  RendererOptions
}

// NewRenderer builds a renderer around codec. A nil codec yields a renderer
// that reports ErrRenderingUnavailable on every call.
func NewRenderer(codec Codec, opts RendererOptions) *Renderer {
	return &Renderer{codec: codec, opts: opts}
}

func (r *Renderer) Available() bool {
	return r != nil && r.codec != nil
}

// Render applies v to src. The pixel loop is not preemptible: ctx is only
// consulted before it starts, a caller abandoning the render discards the
// result.
func (r *Renderer) Render(ctx context.Context, src []byte, v Vector) (*Result, error) {
	if !r.Available() {
		return nil, ErrRenderingUnavailable
	}

	img, err := r.codec.Decode(src)
	if err != nil {
		return nil, err
	}

	img = r.fit(img)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	ApplyExact(img, v)
	elapsed := time.Since(start)

	data, mime, err := r.codec.Encode(img)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Data:     data,
		MimeType: mime,
		Width:    img.Rect.Dx(),
		Height:   img.Rect.Dy(),
		Duration: elapsed,
	}
	if res.Thumbnail, err = r.thumbnail(img); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"width":    res.Width,
		"height":   res.Height,
		"bytes":    len(data),
		"duration": elapsed,
	}).Debug("exact render finished")

	return res, nil
}

// Ingest prepares an uploaded or AI-produced image for the timeline without
// filtering it. The original bytes are kept unless the image has to be fitted
// down to MaxDimension, in which case it is re-encoded.
func (r *Renderer) Ingest(src []byte) (*Result, error) {
	if !r.Available() {
		return nil, ErrRenderingUnavailable
	}

	raw, err := DecodeSource(src)
	if err != nil {
		return nil, err
	}
	img, err := r.codec.Decode(raw)
	if err != nil {
		return nil, err
	}

	res := &Result{Data: raw, MimeType: http.DetectContentType(raw)}
	if fitted := r.fit(img); fitted != img {
		img = fitted
		if res.Data, res.MimeType, err = r.codec.Encode(img); err != nil {
			return nil, err
		}
	}
	res.Width, res.Height = img.Rect.Dx(), img.Rect.Dy()
	if res.Thumbnail, err = r.thumbnail(img); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Renderer) fit(img *image.NRGBA) *image.NRGBA {
	limit := r.opts.MaxDimension
	if limit <= 0 || (img.Rect.Dx() <= limit && img.Rect.Dy() <= limit) {
		return img
	}
	logrus.WithFields(logrus.Fields{
		"width":  img.Rect.Dx(),
		"height": img.Rect.Dy(),
		"max":    limit,
	}).Debug("fitting oversized source")
	return imaging.Fit(img, limit, limit, imaging.Lanczos)
}

func (r *Renderer) thumbnail(img *image.NRGBA) ([]byte, error) {
	if r.opts.ThumbnailSize <= 0 {
		return nil, nil
	}
	thumb, _, err := r.codec.Encode(Thumbnail(img, r.opts.ThumbnailSize))
	return thumb, err
}
