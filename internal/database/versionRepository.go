package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/renatodap/snapmod-sub000/internal/entity"
	"github.com/renatodap/snapmod-sub000/internal/pkg/store"
)

type versionRepository struct {
	store *store.Store[entity.Version]
}

// NewVersionRepository keeps image versions grouped by session, listed
// oldest first so a timeline reads in edit order.
func NewVersionRepository(backend store.Backend, capacity, slack int) VersionRepository {
	return &versionRepository{
		store: store.New(backend, store.Options[entity.Version]{
			Namespace: VersionsNamespace,
			Capacity:  capacity,
			Slack:     slack,
			Order:     store.Chronological,
			SearchText: func(v entity.Version) []string {
				return []string{v.Label, v.Prompt, string(v.Source)}
			},
			Validate: func(v *entity.Version) error { return v.Validate() },
			Clone:    entity.Version.Clone,
		}),
	}
}

func (r *versionRepository) Open(ctx context.Context) error { return r.store.Open(ctx) }

func (r *versionRepository) Close() error { return r.store.Close() }

func (r *versionRepository) Save(ctx context.Context, sessionID string, v entity.Version) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", fmt.Errorf("%w: session is required", entity.ErrInvalidInput)
	}
	id, err := r.store.Add(ctx, v, sessionID)
	return id, translate(err, entity.ErrVersionNotFound, "")
}

func (r *versionRepository) FindByID(ctx context.Context, id string) (*VersionEntry, error) {
	e, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrVersionNotFound, id)
	}
	return e, nil
}

func (r *versionRepository) Timeline(ctx context.Context, sessionID string, favoritesOnly bool) ([]VersionEntry, error) {
	return r.store.GetAll(ctx, store.Filter{Group: sessionID, FavoritesOnly: favoritesOnly})
}

func (r *versionRepository) Search(ctx context.Context, query string) ([]VersionEntry, error) {
	return r.store.Search(ctx, query)
}

func (r *versionRepository) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	fav, err := r.store.ToggleFavorite(ctx, id)
	return fav, translate(err, entity.ErrVersionNotFound, id)
}

func (r *versionRepository) Rename(ctx context.Context, id, label string) (*VersionEntry, error) {
	e, err := r.store.Update(ctx, id, func(e *VersionEntry) error {
		e.Payload.Label = label
		return nil
	})
	return e, translate(err, entity.ErrVersionNotFound, id)
}

func (r *versionRepository) Touch(ctx context.Context, id string) (*VersionEntry, error) {
	e, err := r.store.IncrementUsage(ctx, id)
	return e, translate(err, entity.ErrVersionNotFound, id)
}

func (r *versionRepository) Delete(ctx context.Context, id string) error {
	return translate(r.store.Delete(ctx, id), entity.ErrVersionNotFound, id)
}

func (r *versionRepository) ClearSession(ctx context.Context, sessionID string, keepFavorites bool) (int, error) {
	return r.store.Clear(ctx, sessionID, keepFavorites)
}

func (r *versionRepository) Export(ctx context.Context) ([]byte, error) {
	return r.store.ExportAll(ctx)
}

func (r *versionRepository) Import(ctx context.Context, data []byte) (int, error) {
	return r.store.ImportAll(ctx, data)
}
