package database

import (
	"context"
	"strings"

	"github.com/renatodap/snapmod-sub000/internal/entity"
	"github.com/renatodap/snapmod-sub000/internal/pkg/store"
)

type historyRepository struct {
	store *store.Store[entity.HistoryItem]
}

// NewHistoryRepository keeps sent prompts, most recently used first. The
// same prompt is stored once and its usage counter grows instead.
func NewHistoryRepository(backend store.Backend, capacity, slack int) HistoryRepository {
	return &historyRepository{
		store: store.New(backend, store.Options[entity.HistoryItem]{
			Namespace:  HistoryNamespace,
			Capacity:   capacity,
			Slack:      slack,
			Order:      store.MostRecentlyUsed,
			SearchText: func(h entity.HistoryItem) []string { return []string{h.Prompt} },
			NaturalKey: func(h entity.HistoryItem) string {
				return strings.ToLower(strings.TrimSpace(h.Prompt))
			},
			Validate: func(h *entity.HistoryItem) error { return h.Validate() },
			Clone:    entity.HistoryItem.Clone,
		}),
	}
}

func (r *historyRepository) Open(ctx context.Context) error { return r.store.Open(ctx) }

func (r *historyRepository) Close() error { return r.store.Close() }

func (r *historyRepository) Record(ctx context.Context, item entity.HistoryItem) (*HistoryEntry, error) {
	e, _, err := r.store.Upsert(ctx, item, "")
	return e, translate(err, entity.ErrHistoryNotFound, "")
}

func (r *historyRepository) List(ctx context.Context, limit int, favoritesOnly bool) ([]HistoryEntry, error) {
	return r.store.GetAll(ctx, store.Filter{Limit: limit, FavoritesOnly: favoritesOnly})
}

func (r *historyRepository) Search(ctx context.Context, query string) ([]HistoryEntry, error) {
	return r.store.Search(ctx, query)
}

func (r *historyRepository) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	fav, err := r.store.ToggleFavorite(ctx, id)
	return fav, translate(err, entity.ErrHistoryNotFound, id)
}

func (r *historyRepository) Delete(ctx context.Context, id string) error {
	return translate(r.store.Delete(ctx, id), entity.ErrHistoryNotFound, id)
}

func (r *historyRepository) Clear(ctx context.Context, keepFavorites bool) (int, error) {
	return r.store.Clear(ctx, "", keepFavorites)
}

func (r *historyRepository) Export(ctx context.Context) ([]byte, error) {
	return r.store.ExportAll(ctx)
}

func (r *historyRepository) Import(ctx context.Context, data []byte) (int, error) {
	return r.store.ImportAll(ctx, data)
}
