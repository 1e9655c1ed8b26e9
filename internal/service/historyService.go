package service

import (
	"context"
	"fmt"

	"github.com/renatodap/snapmod-sub000/internal/database"
	"github.com/renatodap/snapmod-sub000/internal/entity"
	"github.com/renatodap/snapmod-sub000/internal/pkg/presets"
)

// Record stores a sent prompt. Preset IDs must name built-in presets.
func (s *historyService) Record(ctx context.Context, req entity.RecordPromptRequest) (*database.HistoryEntry, error) {
	if _, err := presets.Resolve(req.PresetIDs); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInvalidInput, err)
	}
	return s.repo.Record(ctx, entity.HistoryItem{Prompt: req.Prompt, PresetIDs: req.PresetIDs})
}

func (s *historyService) List(ctx context.Context, limit int, favoritesOnly bool) ([]database.HistoryEntry, error) {
	return s.repo.List(ctx, limit, favoritesOnly)
}

func (s *historyService) Search(ctx context.Context, query string) ([]database.HistoryEntry, error) {
	return s.repo.Search(ctx, query)
}

func (s *historyService) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	return s.repo.ToggleFavorite(ctx, id)
}

func (s *historyService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *historyService) Clear(ctx context.Context, keepFavorites bool) (int, error) {
	return s.repo.Clear(ctx, keepFavorites)
}

func (s *historyService) Export(ctx context.Context) ([]byte, error) {
	return s.repo.Export(ctx)
}

func (s *historyService) Import(ctx context.Context, data []byte) (int, error) {
	return s.repo.Import(ctx, data)
}
