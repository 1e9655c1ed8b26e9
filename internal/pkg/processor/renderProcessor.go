package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/renatodap/snapmod-sub000/internal/database"
	"github.com/renatodap/snapmod-sub000/internal/entity"
	"github.com/renatodap/snapmod-sub000/internal/pkg/events"
	"github.com/renatodap/snapmod-sub000/internal/pkg/filters"
	"github.com/sirupsen/logrus"
)

// RenderProcessor commits filter edits: it renders a source version with the
// exact transform and appends the result to the session timeline.
type RenderProcessor interface {
	Process(ctx context.Context, task entity.RenderTask) (string, error)
}

type renderProcessor struct {
	versions  database.VersionRepository
	renderer  *filters.Renderer
	publisher events.Publisher
	now       func() time.Time
}

func NewRenderProcessor(versions database.VersionRepository, renderer *filters.Renderer, publisher events.Publisher) RenderProcessor {
	if publisher == nil {
		publisher = events.NewUnconfigured("no publisher")
	}
	return &renderProcessor{
		versions:  versions,
		renderer:  renderer,
		publisher: publisher,
		now:       time.Now,
	}
}

func (p *renderProcessor) Process(ctx context.Context, task entity.RenderTask) (string, error) {
	log := logrus.WithFields(logrus.Fields{
		"task_id":   task.TaskID,
		"session":   task.SessionID,
		"source_id": task.SourceID,
	})

	source, err := p.versions.FindByID(ctx, task.SourceID)
	if err != nil {
		return "", err
	}
	if source.Group != task.SessionID {
		return "", fmt.Errorf("%w: %s", entity.ErrSessionMismatch, task.SourceID)
	}

	result, err := p.renderer.Render(ctx, source.Payload.Image, task.Filters)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", task.SourceID, err)
	}

	version := entity.Version{
		Image:     result.Data,
		MimeType:  result.MimeType,
		Thumbnail: result.Thumbnail,
		Width:     result.Width,
		Height:    result.Height,
		Source:    entity.SourceFilter,
		Filters:   task.Filters.Clamp(),
		ParentID:  source.ID,
		Label:     task.Label,
	}
	id, err := p.versions.Save(ctx, task.SessionID, version)
	if err != nil {
		return "", fmt.Errorf("failed to save rendered version: %w", err)
	}

	log.WithFields(logrus.Fields{
		"version_id": id,
		"duration":   result.Duration,
		"bytes":      len(result.Data),
	}).Info("render committed")

	Announce(ctx, p.publisher, entity.VersionCommitted{
		VersionID:   id,
		SessionID:   task.SessionID,
		ParentID:    source.ID,
		Source:      entity.SourceFilter,
		Filters:     version.Filters,
		SizeBytes:   len(result.Data),
		RenderTime:  result.Duration,
		CommittedAt: p.now().UTC(),
	})
	return id, nil
}

// Announce publishes a commit event when the bus is connected. The version is
// already stored, so a failed publish is logged rather than returned.
func Announce(ctx context.Context, publisher events.Publisher, event entity.VersionCommitted) {
	if publisher == nil || publisher.State() != events.Connected {
		return
	}
	if err := publisher.Publish(ctx, entity.TopicVersionCommitted, event); err != nil {
		logrus.WithField("version_id", event.VersionID).Warnf("failed to publish commit event: %v", err)
	}
}

// TaskHandler decodes render tasks coming off the bus.
func TaskHandler(p RenderProcessor) events.Handler {
	return func(ctx context.Context, value []byte) error {
		var task entity.RenderTask
		if err := json.Unmarshal(value, &task); err != nil {
			return fmt.Errorf("failed to parse task: %w", err)
		}
		id, err := p.Process(ctx, task)
		if err != nil {
			return fmt.Errorf("processing failed for %s: %w", task.TaskID, err)
		}
		logrus.WithFields(logrus.Fields{
			"task_id":    task.TaskID,
			"version_id": id,
		}).Info("successfully processed render task")
		return nil
	}
}

// Consume feeds render tasks from consumer to p until ctx is cancelled, then
// closes the consumer. The processor must share its stores with the process
// serving uploads: stores are never opened by two processes at once.
func Consume(ctx context.Context, consumer events.Consumer, p RenderProcessor) error {
	defer consumer.Close()

	logrus.Info("render consumer started")
	return consumer.Run(ctx, TaskHandler(p))
}
