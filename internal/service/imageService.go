package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/renatodap/snapmod-sub000/internal/database"
	"github.com/renatodap/snapmod-sub000/internal/entity"
	"github.com/renatodap/snapmod-sub000/internal/pkg/events"
	"github.com/renatodap/snapmod-sub000/internal/pkg/filters"
	"github.com/renatodap/snapmod-sub000/internal/pkg/processor"
	"github.com/sirupsen/logrus"
)

func (s *imageService) Parameters() []filters.Param {
	out := make([]filters.Param, len(filters.Params))
	copy(out, filters.Params)
	return out
}

func (s *imageService) Preview(values map[string]float64) (*entity.PreviewResponse, error) {
	v, err := filters.FromMap(values)
	if err != nil {
		return nil, err
	}
	comp := filters.Preview(v)
	return &entity.PreviewResponse{
		CSS:      comp.CSS(),
		None:     comp.None,
		Effects:  comp.Effects,
		Filters:  v,
		Modified: v.IsModified(),
	}, nil
}

func (s *imageService) Upload(ctx context.Context, sessionID string, file *multipart.FileHeader) (*entity.UploadResponse, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	id, err := s.ImportImage(ctx, sessionID, data, entity.SourceUpload, "")
	if err != nil {
		return nil, err
	}
	return &entity.UploadResponse{ID: id, SessionID: sessionID, Status: "stored"}, nil
}

// ImportImage adds an image that was not produced by the filter engine (an
// upload or an AI edit result) to a session timeline.
func (s *imageService) ImportImage(ctx context.Context, sessionID string, data []byte, source entity.ImageSource, prompt string) (string, error) {
	res, err := s.renderer.Ingest(data)
	if err != nil {
		return "", err
	}

	id, err := s.versions.Save(ctx, sessionID, entity.Version{
		Image:     res.Data,
		MimeType:  res.MimeType,
		Thumbnail: res.Thumbnail,
		Width:     res.Width,
		Height:    res.Height,
		Source:    source,
		Filters:   filters.Default(),
		Prompt:    strings.TrimSpace(prompt),
	})
	if err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"session":    sessionID,
		"version_id": id,
		"source":     source,
		"bytes":      len(res.Data),
	}).Info("image stored")

	processor.Announce(ctx, s.publisher, entity.VersionCommitted{
		VersionID:   id,
		SessionID:   sessionID,
		Source:      source,
		Filters:     filters.Default(),
		SizeBytes:   len(res.Data),
		CommittedAt: time.Now().UTC(),
	})
	return id, nil
}

func (s *imageService) Render(ctx context.Context, sessionID string, req entity.RenderRequest) (string, error) {
	task, err := s.newTask(sessionID, req)
	if err != nil {
		return "", err
	}
	return s.processor.Process(ctx, task)
}

// QueueRender hands the render to the background processor and returns the
// task ID. It fails with ErrEventsDisabled when no bus is connected.
func (s *imageService) QueueRender(ctx context.Context, sessionID string, req entity.RenderRequest) (string, error) {
	if s.publisher.State() != events.Connected {
		return "", entity.ErrEventsDisabled
	}
	task, err := s.newTask(sessionID, req)
	if err != nil {
		return "", err
	}

	source, err := s.versions.FindByID(ctx, task.SourceID)
	if err != nil {
		return "", err
	}
	if source.Group != sessionID {
		return "", fmt.Errorf("%w: %s", entity.ErrSessionMismatch, task.SourceID)
	}

	if err := s.publisher.Publish(ctx, entity.TopicRenderTasks, task); err != nil {
		return "", fmt.Errorf("failed to queue render: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"task_id": task.TaskID,
		"session": sessionID,
	}).Info("render queued")
	return task.TaskID, nil
}

func (s *imageService) newTask(sessionID string, req entity.RenderRequest) (entity.RenderTask, error) {
	v, err := filters.FromMap(req.Filters)
	if err != nil {
		return entity.RenderTask{}, err
	}
	return entity.RenderTask{
		TaskID:      uuid.New().String(),
		SessionID:   sessionID,
		SourceID:    req.SourceID,
		Filters:     v,
		Label:       req.Label,
		RequestedAt: time.Now().UTC(),
	}, nil
}

func (s *imageService) GetVersion(ctx context.Context, id string) (*database.VersionEntry, error) {
	return s.versions.FindByID(ctx, id)
}

func (s *imageService) Timeline(ctx context.Context, sessionID string, favoritesOnly bool) ([]database.VersionEntry, error) {
	return s.versions.Timeline(ctx, sessionID, favoritesOnly)
}

func (s *imageService) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	return s.versions.ToggleFavorite(ctx, id)
}

func (s *imageService) Rename(ctx context.Context, id, label string) (*database.VersionEntry, error) {
	return s.versions.Rename(ctx, id, label)
}

func (s *imageService) DeleteVersion(ctx context.Context, id string) error {
	return s.versions.Delete(ctx, id)
}

func (s *imageService) ClearSession(ctx context.Context, sessionID string, keepFavorites bool) (int, error) {
	return s.versions.ClearSession(ctx, sessionID, keepFavorites)
}

func (s *imageService) OpenVersion(ctx context.Context, id string) (*database.VersionEntry, error) {
	return s.versions.Touch(ctx, id)
}

func (s *imageService) SearchVersions(ctx context.Context, query string) ([]database.VersionEntry, error) {
	return s.versions.Search(ctx, query)
}

func (s *imageService) ExportVersions(ctx context.Context) ([]byte, error) {
	return s.versions.Export(ctx)
}

// ImportVersions merges a version snapshot. An entry keeps its ID unless the
// ID is already taken here, in which case it gets a fresh one.
func (s *imageService) ImportVersions(ctx context.Context, data []byte) (int, error) {
	return s.versions.Import(ctx, data)
}
