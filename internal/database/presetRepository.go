package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/renatodap/snapmod-sub000/internal/entity"
	"github.com/renatodap/snapmod-sub000/internal/pkg/store"
	"gopkg.in/yaml.v3"
)

type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatYAML ExportFormat = "yaml"
)

// ParseExportFormat accepts json (the default) and yaml.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: unsupported export format %q", entity.ErrInvalidInput, s)
}

// presetDocument is the hand-editable YAML form of the preset store.
type presetDocument struct {
	Version    int          `yaml:"version"`
	ExportedAt time.Time    `yaml:"exported_at"`
	Presets    []presetItem `yaml:"presets"`
}

type presetItem struct {
	entity.CustomPreset `yaml:",inline"`
	Favorite            bool `yaml:"favorite,omitempty"`
	UsageCount          int  `yaml:"usage_count,omitempty"`
}

type presetRepository struct {
	store *store.Store[entity.CustomPreset]
}

// NewPresetRepository keeps custom presets, most recently used first, with
// names unique regardless of case.
func NewPresetRepository(backend store.Backend, capacity int) PresetRepository {
	return &presetRepository{
		store: store.New(backend, store.Options[entity.CustomPreset]{
			Namespace: PresetsNamespace,
			Capacity:  capacity,
			Order:     store.MostRecentlyUsed,
			SearchText: func(p entity.CustomPreset) []string {
				return []string{p.Name, p.Description, p.Prompt}
			},
			NaturalKey: entity.CustomPreset.Key,
			UniqueKey:  true,
			Validate:   func(p *entity.CustomPreset) error { return p.Validate() },
		}),
	}
}

func (r *presetRepository) Open(ctx context.Context) error { return r.store.Open(ctx) }

func (r *presetRepository) Close() error { return r.store.Close() }

func (r *presetRepository) Create(ctx context.Context, p entity.CustomPreset) (*PresetEntry, error) {
	id, err := r.store.Add(ctx, p, "")
	if err != nil {
		return nil, r.translate(err, "")
	}
	return r.FindByID(ctx, id)
}

func (r *presetRepository) FindByID(ctx context.Context, id string) (*PresetEntry, error) {
	e, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrPresetNotFound, id)
	}
	return e, nil
}

func (r *presetRepository) List(ctx context.Context, favoritesOnly bool) ([]PresetEntry, error) {
	return r.store.GetAll(ctx, store.Filter{FavoritesOnly: favoritesOnly})
}

func (r *presetRepository) Search(ctx context.Context, query string) ([]PresetEntry, error) {
	return r.store.Search(ctx, query)
}

func (r *presetRepository) Update(ctx context.Context, id string, p entity.CustomPreset) (*PresetEntry, error) {
	e, err := r.store.Update(ctx, id, func(e *PresetEntry) error {
		e.Payload = p
		return nil
	})
	return e, r.translate(err, id)
}

func (r *presetRepository) Delete(ctx context.Context, id string) error {
	return r.translate(r.store.Delete(ctx, id), id)
}

func (r *presetRepository) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	fav, err := r.store.ToggleFavorite(ctx, id)
	return fav, r.translate(err, id)
}

func (r *presetRepository) Use(ctx context.Context, id string) (*PresetEntry, error) {
	e, err := r.store.IncrementUsage(ctx, id)
	return e, r.translate(err, id)
}

func (r *presetRepository) Export(ctx context.Context, format ExportFormat) ([]byte, error) {
	if format != FormatYAML {
		return r.store.ExportAll(ctx)
	}

	snap, err := r.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	doc := presetDocument{
		Version:    snap.Version,
		ExportedAt: snap.ExportedAt,
		Presets:    make([]presetItem, len(snap.Entries)),
	}
	for i, e := range snap.Entries {
		doc.Presets[i] = presetItem{CustomPreset: e.Payload, Favorite: e.Favorite, UsageCount: e.UsageCount}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Import merges presets from a JSON snapshot or a YAML document. Presets whose
// name already exists are skipped and the merge stops at capacity.
func (r *presetRepository) Import(ctx context.Context, data []byte, format ExportFormat) (int, error) {
	if format != FormatYAML {
		n, err := r.store.ImportAll(ctx, data)
		return n, r.translate(err, "")
	}

	var doc presetDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrImportFormat, err)
	}
	if doc.Presets == nil {
		return 0, fmt.Errorf("%w: missing presets", store.ErrImportFormat)
	}

	entries := make([]PresetEntry, len(doc.Presets))
	for i, item := range doc.Presets {
		entries[i] = PresetEntry{
			Payload:    item.CustomPreset,
			Favorite:   item.Favorite,
			UsageCount: item.UsageCount,
		}
	}
	n, err := r.store.Merge(ctx, entries)
	return n, r.translate(err, "")
}

func (r *presetRepository) translate(err error, id string) error {
	if errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("%w: %w", entity.ErrPresetExists, err)
	}
	return translate(err, entity.ErrPresetNotFound, id)
}
