package entity

import (
	"fmt"
	"strings"

	"github.com/renatodap/snapmod-sub000/internal/pkg/filters"
)

// ImageSource tells how a version came to be.
type ImageSource string

const (
	SourceUpload ImageSource = "upload"
	SourceFilter ImageSource = "filter"
	SourceAI     ImageSource = "ai"
)

// Version is one image in a session timeline. Image holds the encoded bytes.
type Version struct {
	Image     []byte         `json:"image"`
	MimeType  string         `json:"mime_type"`
	Thumbnail []byte         `json:"thumbnail,omitempty"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Source    ImageSource    `json:"source"`
	Filters   filters.Vector `json:"filters"`
	Prompt    string         `json:"prompt,omitempty"`
	ParentID  string         `json:"parent_id,omitempty"`
	Label     string         `json:"label,omitempty"`
}

func (v *Version) Validate() error {
	if len(v.Image) == 0 {
		return fmt.Errorf("%w: version has no image data", ErrInvalidInput)
	}
	if !strings.HasPrefix(v.MimeType, "image/") {
		return fmt.Errorf("%w: unsupported mime type %q", ErrInvalidInput, v.MimeType)
	}
	switch v.Source {
	case SourceUpload, SourceFilter, SourceAI:
	case "":
		v.Source = SourceUpload
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidInput, v.Source)
	}
	v.Filters = v.Filters.Clamp()
	v.Label = strings.TrimSpace(v.Label)
	return nil
}

// Clone returns a deep copy so callers never alias stored buffers.
func (v Version) Clone() Version {
	c := v
	c.Image = append([]byte(nil), v.Image...)
	if v.Thumbnail != nil {
		c.Thumbnail = append([]byte(nil), v.Thumbnail...)
	}
	return c
}

type UploadResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// VersionResponse is a version without its full-size image bytes.
type VersionResponse struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	MimeType   string         `json:"mime_type"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Source     ImageSource    `json:"source"`
	Filters    filters.Vector `json:"filters"`
	Prompt     string         `json:"prompt,omitempty"`
	ParentID   string         `json:"parent_id,omitempty"`
	Label      string         `json:"label,omitempty"`
	Thumbnail  string         `json:"thumbnail,omitempty"`
	Favorite   bool           `json:"favorite"`
	UsageCount int            `json:"usage_count"`
	CreatedAt  string         `json:"created_at"`
	LastUsedAt string         `json:"last_used_at"`
}

type RenameRequest struct {
	Label string `json:"label"`
}
