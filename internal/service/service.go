package service

import (
	"context"
	"mime/multipart"

	"github.com/renatodap/snapmod-sub000/internal/database"
	"github.com/renatodap/snapmod-sub000/internal/entity"
	"github.com/renatodap/snapmod-sub000/internal/pkg/events"
	"github.com/renatodap/snapmod-sub000/internal/pkg/filters"
	"github.com/renatodap/snapmod-sub000/internal/pkg/presets"
	"github.com/renatodap/snapmod-sub000/internal/pkg/processor"
)

type ImageService interface {
	Parameters() []filters.Param
	Preview(values map[string]float64) (*entity.PreviewResponse, error)
	Upload(ctx context.Context, sessionID string, file *multipart.FileHeader) (*entity.UploadResponse, error)
	ImportImage(ctx context.Context, sessionID string, data []byte, source entity.ImageSource, prompt string) (string, error)
	Render(ctx context.Context, sessionID string, req entity.RenderRequest) (string, error)
	QueueRender(ctx context.Context, sessionID string, req entity.RenderRequest) (string, error)
	GetVersion(ctx context.Context, id string) (*database.VersionEntry, error)
	Timeline(ctx context.Context, sessionID string, favoritesOnly bool) ([]database.VersionEntry, error)
	ToggleFavorite(ctx context.Context, id string) (bool, error)
	Rename(ctx context.Context, id, label string) (*database.VersionEntry, error)
	DeleteVersion(ctx context.Context, id string) error
	ClearSession(ctx context.Context, sessionID string, keepFavorites bool) (int, error)
	// OpenVersion is GetVersion for a download: it counts as a use.
	OpenVersion(ctx context.Context, id string) (*database.VersionEntry, error)
	SearchVersions(ctx context.Context, query string) ([]database.VersionEntry, error)
	ExportVersions(ctx context.Context) ([]byte, error)
	ImportVersions(ctx context.Context, data []byte) (int, error)
}

type HistoryService interface {
	Record(ctx context.Context, req entity.RecordPromptRequest) (*database.HistoryEntry, error)
	List(ctx context.Context, limit int, favoritesOnly bool) ([]database.HistoryEntry, error)
	Search(ctx context.Context, query string) ([]database.HistoryEntry, error)
	ToggleFavorite(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context, keepFavorites bool) (int, error)
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, data []byte) (int, error)
}

type PresetService interface {
	Builtin(category string) []presets.Preset
	Create(ctx context.Context, req entity.PresetRequest) (*database.PresetEntry, error)
	Get(ctx context.Context, id string) (*database.PresetEntry, error)
	List(ctx context.Context, favoritesOnly bool) ([]database.PresetEntry, error)
	Search(ctx context.Context, query string) ([]database.PresetEntry, error)
	Update(ctx context.Context, id string, req entity.PresetRequest) (*database.PresetEntry, error)
	Delete(ctx context.Context, id string) error
	ToggleFavorite(ctx context.Context, id string) (bool, error)
	Use(ctx context.Context, id string) (*database.PresetEntry, error)
	Export(ctx context.Context, format string) ([]byte, database.ExportFormat, error)
	Import(ctx context.Context, data []byte, format string) (int, error)
	Combine(ctx context.Context, req entity.CombineRequest) (*entity.CombineResponse, error)
}

type imageService struct {
	versions  database.VersionRepository
	renderer  *filters.Renderer
	processor processor.RenderProcessor
	publisher events.Publisher
}

func NewImageService(versions database.VersionRepository, renderer *filters.Renderer, processor processor.RenderProcessor, publisher events.Publisher) ImageService {
	if publisher == nil {
		publisher = events.NewUnconfigured("no publisher")
	}
	return &imageService{
		versions:  versions,
		renderer:  renderer,
		processor: processor,
		publisher: publisher,
	}
}

type historyService struct {
	repo database.HistoryRepository
}

func NewHistoryService(repo database.HistoryRepository) HistoryService {
	return &historyService{repo: repo}
}

type presetService struct {
	repo database.PresetRepository
}

func NewPresetService(repo database.PresetRepository) PresetService {
	return &presetService{repo: repo}
}
