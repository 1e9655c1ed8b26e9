package filters

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

var (
	ErrImageDecode          = errors.New("image decode failed")
	ErrRenderingUnavailable = errors.New("raster rendering unavailable")
)

type OutputFormat string

const (
	FormatJPEG OutputFormat = "jpeg"
	FormatPNG  OutputFormat = "png"
)

// DefaultJPEGQuality is the fixed quality used for committed photos.
const DefaultJPEGQuality = 92

// Codec turns encoded bytes into an owned raster and back.
type Codec interface {
	Decode(data []byte) (*image.NRGBA, error)
	Encode(img image.Image) ([]byte, string, error)
}

type imageCodec struct {
	format  OutputFormat
	quality int
}

// NewCodec returns a codec that decodes every format registered with the
// image package (jpeg, png, gif, bmp, tiff, webp) and encodes to format.
func NewCodec(format OutputFormat, quality int) Codec {
	if format != FormatPNG {
		format = FormatJPEG
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &imageCodec{format: format, quality: quality}
}

func (c *imageCodec) Decode(data []byte) (*image.NRGBA, error) {
	raw, err := DecodeSource(data)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrImageDecode)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: zero-sized image", ErrImageDecode)
	}
	// Clone always hands back a fresh NRGBA rooted at (0,0), so the caller
	// owns the buffer exclusively.
	return imaging.Clone(img), nil
}

func (c *imageCodec) Encode(img image.Image) ([]byte, string, error) {
	var buf bytes.Buffer
	switch c.format {
	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}
}

// DecodeSource accepts raw encoded bytes or a base64 data URI and returns the
// encoded image bytes.
func DecodeSource(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, []byte("data:")) {
		return data, nil
	}
	parts := strings.SplitN(string(data), ",", 2)
	if len(parts) != 2 || !strings.Contains(parts[0], ";base64") {
		return nil, fmt.Errorf("%w: invalid data URI", ErrImageDecode)
	}
	raw, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode base64: %v", ErrImageDecode, err)
	}
	return raw, nil
}

// DataURI wraps encoded bytes in a data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Thumbnail returns a size x size centre-cropped preview of img.
func Thumbnail(img image.Image, size int) *image.NRGBA {
	return imaging.Thumbnail(img, size, size, imaging.Lanczos)
}
