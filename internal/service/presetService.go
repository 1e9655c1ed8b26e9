package service

import (
	"context"
	"fmt"

	"github.com/renatodap/snapmod-sub000/internal/database"
	"github.com/renatodap/snapmod-sub000/internal/entity"
	"github.com/renatodap/snapmod-sub000/internal/pkg/filters"
	"github.com/renatodap/snapmod-sub000/internal/pkg/presets"
)

func (s *presetService) Builtin(category string) []presets.Preset {
	if category == "" {
		return presets.Builtin()
	}
	return presets.ByCategory(presets.Category(category))
}

func (s *presetService) Create(ctx context.Context, req entity.PresetRequest) (*database.PresetEntry, error) {
	p, err := toPreset(req)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

func (s *presetService) Get(ctx context.Context, id string) (*database.PresetEntry, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *presetService) List(ctx context.Context, favoritesOnly bool) ([]database.PresetEntry, error) {
	return s.repo.List(ctx, favoritesOnly)
}

func (s *presetService) Search(ctx context.Context, query string) ([]database.PresetEntry, error) {
	return s.repo.Search(ctx, query)
}

func (s *presetService) Update(ctx context.Context, id string, req entity.PresetRequest) (*database.PresetEntry, error) {
	p, err := toPreset(req)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *presetService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *presetService) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	return s.repo.ToggleFavorite(ctx, id)
}

func (s *presetService) Use(ctx context.Context, id string) (*database.PresetEntry, error) {
	return s.repo.Use(ctx, id)
}

func (s *presetService) Export(ctx context.Context, format string) ([]byte, database.ExportFormat, error) {
	f, err := database.ParseExportFormat(format)
	if err != nil {
		return nil, "", err
	}
	data, err := s.repo.Export(ctx, f)
	return data, f, err
}

func (s *presetService) Import(ctx context.Context, data []byte, format string) (int, error) {
	f, err := database.ParseExportFormat(format)
	if err != nil {
		return 0, err
	}
	return s.repo.Import(ctx, data, f)
}

// Combine merges built-in presets, then custom ones, into one prompt.
// Custom presets without a prompt cannot take part.
func (s *presetService) Combine(ctx context.Context, req entity.CombineRequest) (*entity.CombineResponse, error) {
	builtin, err := presets.Resolve(req.PresetIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInvalidInput, err)
	}

	prompts := make([]string, 0, len(builtin)+len(req.Custom))
	for _, p := range builtin {
		prompts = append(prompts, p.Prompt)
	}
	for _, id := range req.Custom {
		e, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if e.Payload.Prompt == "" {
			return nil, fmt.Errorf("%w: preset %q has no prompt", entity.ErrInvalidInput, e.Payload.Name)
		}
		prompts = append(prompts, e.Payload.Prompt)
	}

	return &entity.CombineResponse{
		Prompt: presets.CombinePrompts(prompts...),
		Count:  len(prompts),
	}, nil
}

func toPreset(req entity.PresetRequest) (entity.CustomPreset, error) {
	v, err := filters.FromMap(req.Filters)
	if err != nil {
		return entity.CustomPreset{}, fmt.Errorf("%w: %w", entity.ErrInvalidInput, err)
	}
	return entity.CustomPreset{
		Name:        req.Name,
		Description: req.Description,
		Prompt:      req.Prompt,
		Filters:     v,
	}, nil
}
