package entity

import (
	"time"

	"github.com/renatodap/snapmod-sub000/internal/pkg/filters"
)

// Topics used on the event bus.
const (
	TopicRenderTasks      = "snapmod.render"
	TopicVersionCommitted = "snapmod.version.committed"
)

// RenderTask asks the processor to apply Filters to SourceID and append the
// result to SessionID.
type RenderTask struct {
	TaskID      string         `json:"task_id"`
	SessionID   string         `json:"session_id"`
	SourceID    string         `json:"source_id"`
	Filters     filters.Vector `json:"filters"`
	Label       string         `json:"label,omitempty"`
	RequestedAt time.Time      `json:"requested_at"`
}

// VersionCommitted is published after a new version lands in a timeline.
type VersionCommitted struct {
	VersionID   string         `json:"version_id"`
	SessionID   string         `json:"session_id"`
	ParentID    string         `json:"parent_id,omitempty"`
	Source      ImageSource    `json:"source"`
	Filters     filters.Vector `json:"filters"`
	SizeBytes   int            `json:"size_bytes"`
	RenderTime  time.Duration  `json:"render_time_ns,omitempty"`
	CommittedAt time.Time      `json:"committed_at"`
}

type RenderRequest struct {
	SourceID string             `json:"source_id" binding:"required"`
	Filters  map[string]float64 `json:"filters"`
	Label    string             `json:"label"`
	Async    bool               `json:"async"`
}

type RenderQueuedResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type PreviewRequest struct {
	Filters map[string]float64 `json:"filters"`
}

type PreviewResponse struct {
	CSS      string           `json:"css"`
	None     bool             `json:"none"`
	Effects  []filters.Effect `json:"effects"`
	Filters  filters.Vector   `json:"filters"`
	Modified bool             `json:"modified"`
}

func (t RenderTask) EventKey() string { return t.SessionID }

func (e VersionCommitted) EventKey() string { return e.SessionID }
