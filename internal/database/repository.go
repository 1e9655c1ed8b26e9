package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/renatodap/snapmod-sub000/internal/entity"
	"github.com/renatodap/snapmod-sub000/internal/pkg/store"
	"github.com/sirupsen/logrus"
)

// Store namespaces, also used as backend table/key/directory names.
const (
	VersionsNamespace = "versions"
	HistoryNamespace  = "history"
	PresetsNamespace  = "presets"
)

// MaxPresets caps the number of custom presets a user can keep.
const MaxPresets = 50

type (
	VersionEntry = store.Entry[entity.Version]
	HistoryEntry = store.Entry[entity.HistoryItem]
	PresetEntry  = store.Entry[entity.CustomPreset]
)

type VersionRepository interface {
	Open(ctx context.Context) error
	Close() error
	Save(ctx context.Context, sessionID string, v entity.Version) (string, error)
	FindByID(ctx context.Context, id string) (*VersionEntry, error)
	Timeline(ctx context.Context, sessionID string, favoritesOnly bool) ([]VersionEntry, error)
	Search(ctx context.Context, query string) ([]VersionEntry, error)
	ToggleFavorite(ctx context.Context, id string) (bool, error)
	Rename(ctx context.Context, id, label string) (*VersionEntry, error)
	Touch(ctx context.Context, id string) (*VersionEntry, error)
	Delete(ctx context.Context, id string) error
	ClearSession(ctx context.Context, sessionID string, keepFavorites bool) (int, error)
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, data []byte) (int, error)
}

type HistoryRepository interface {
	Open(ctx context.Context) error
	Close() error
	Record(ctx context.Context, item entity.HistoryItem) (*HistoryEntry, error)
	List(ctx context.Context, limit int, favoritesOnly bool) ([]HistoryEntry, error)
	Search(ctx context.Context, query string) ([]HistoryEntry, error)
	ToggleFavorite(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context, keepFavorites bool) (int, error)
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, data []byte) (int, error)
}

type PresetRepository interface {
	Open(ctx context.Context) error
	Close() error
	Create(ctx context.Context, p entity.CustomPreset) (*PresetEntry, error)
	FindByID(ctx context.Context, id string) (*PresetEntry, error)
	List(ctx context.Context, favoritesOnly bool) ([]PresetEntry, error)
	Search(ctx context.Context, query string) ([]PresetEntry, error)
	Update(ctx context.Context, id string, p entity.CustomPreset) (*PresetEntry, error)
	Delete(ctx context.Context, id string) error
	ToggleFavorite(ctx context.Context, id string) (bool, error)
	Use(ctx context.Context, id string) (*PresetEntry, error)
	Export(ctx context.Context, format ExportFormat) ([]byte, error)
	Import(ctx context.Context, data []byte, format ExportFormat) (int, error)
}

// BackendFactory returns the durable backend for a namespace.
type BackendFactory func(namespace string) store.Backend

// Limits are the capacity and slack of each store.
type Limits struct {
	VersionCapacity int
	VersionSlack    int
	HistoryCapacity int
	HistorySlack    int
	PresetCapacity  int
}

func DefaultLimits() Limits {
	return Limits{
		VersionCapacity: 50,
		VersionSlack:    10,
		HistoryCapacity: 100,
		HistorySlack:    10,
		PresetCapacity:  MaxPresets,
	}
}

// Repositories is the set of stores the application runs on. It is built
// once at startup and handed to the services that need it.
type Repositories struct {
	Versions VersionRepository
	History  HistoryRepository
	Presets  PresetRepository
}

func NewRepositories(newBackend BackendFactory, limits Limits) *Repositories {
	return &Repositories{
		Versions: NewVersionRepository(newBackend(VersionsNamespace), limits.VersionCapacity, limits.VersionSlack),
		History:  NewHistoryRepository(newBackend(HistoryNamespace), limits.HistoryCapacity, limits.HistorySlack),
		Presets:  NewPresetRepository(newBackend(PresetsNamespace), limits.PresetCapacity),
	}
}

type lifecycle interface {
	Open(ctx context.Context) error
	Close() error
}

func (r *Repositories) all() []lifecycle {
	return []lifecycle{r.Versions, r.History, r.Presets}
}

// Open opens every store. If one fails the ones already opened are closed
// again.
func (r *Repositories) Open(ctx context.Context) error {
	stores := r.all()
	for i, s := range stores {
		if err := s.Open(ctx); err != nil {
			for _, opened := range stores[:i] {
				opened.Close()
			}
			return err
		}
	}
	logrus.Info("stores opened")
	return nil
}

func (r *Repositories) Close() error {
	var errs []error
	for _, s := range r.all() {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// translate maps store errors onto the entity errors callers match on.
func translate(err error, notFound error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s", notFound, id)
	case errors.Is(err, store.ErrInvalidEntry):
		return fmt.Errorf("%w: %w", entity.ErrInvalidInput, err)
	}
	return err
}
