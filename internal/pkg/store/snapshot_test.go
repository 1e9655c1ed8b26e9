package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/renatodap/snapmod-sub000/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openStore(t, NewMemoryBackend(), noteOptions(0, 0, MostRecentlyUsed))
	added := addNotes(t, src, "", 3)
	_, err := src.ToggleFavorite(ctx, added[1])
	require.NoError(t, err)
	_, err = src.IncrementUsage(ctx, added[2])
	require.NoError(t, err)

	data, err := src.ExportAll(ctx)
	require.NoError(t, err)

	var snap Snapshot[note]
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, snapshotVersion, snap.Version)
	assert.Equal(t, "notes", snap.Namespace)
	assert.Len(t, snap.Entries, 3)

	dst := openStore(t, NewMemoryBackend(), noteOptions(0, 0, MostRecentlyUsed))
	n, err := dst.ImportAll(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	want, err := src.GetAll(ctx, Filter{})
	require.NoError(t, err)
	got, err := dst.GetAll(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, ids(want), ids(got))
	for i := range want {
		assert.Equal(t, want[i].Payload, got[i].Payload)
		assert.Equal(t, want[i].Favorite, got[i].Favorite)
		assert.Equal(t, want[i].UsageCount, got[i].UsageCount)
	}
}

func TestImportDeduplicatesByNaturalKey(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryBackend(), noteOptions(0, 0, MostRecentlyUsed))
	_, err := s.Add(ctx, note{Name: "Sunset", Text: "mine"}, "")
	require.NoError(t, err)

	data := []byte(`[
		{"payload": {"name": "sunset", "text": "theirs"}},
		{"payload": {"name": "Noir"}},
		{"payload": {"name": "NOIR", "text": "again"}}
	]`)
	n, err := s.ImportAll(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	found, err := s.Search(ctx, "sunset")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "mine", found[0].Payload.Text)

	count, err := s.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestImportIsCappedAtCapacity(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryBackend(), noteOptions(3, 0, MostRecentlyUsed))
	addNotes(t, s, "", 2)

	data := []byte(`{"version": 1, "entries": [
		{"payload": {"name": "a"}},
		{"payload": {"name": "b"}},
		{"payload": {"name": "c"}},
		{"payload": {"name": "d"}}
	]}`)
	n, err := s.ImportAll(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := s.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestImportWithoutNaturalKeyUsesID(t *testing.T) {
	ctx := context.Background()
	opts := noteOptions(0, 0, Chronological)
	opts.NaturalKey = nil

	src := openStore(t, NewMemoryBackend(), opts)
	addNotes(t, src, "s", 2)
	data, err := src.ExportAll(ctx)
	require.NoError(t, err)

	dst := openStore(t, NewMemoryBackend(), opts)
	n, err := dst.ImportAll(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = dst.ImportAll(ctx, data)
	require.NoError(t, err)
	assert.Zero(t, n)

	// entries without an ID are always new
	n, err = dst.ImportAll(ctx, []byte(`[{"group": "s", "payload": {"name": "x"}}, {"group": "s", "payload": {"name": "x"}}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportRejectsMalformedSnapshots(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: "  "},
		{name: "not json", data: "presets!"},
		{name: "missing entries", data: `{"version": 1}`},
		{name: "newer version", data: `{"version": 99, "entries": []}`},
		{name: "wrong shape", data: `{"entries": {"name": "x"}}`},
		{name: "invalid entry", data: `[{"payload": {"name": "ok"}}, {"payload": {"name": "   "}}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := openStore(t, NewMemoryBackend(), noteOptions(0, 0, MostRecentlyUsed))
			_, err := s.Add(ctx, note{Name: "existing"}, "")
			require.NoError(t, err)

			n, err := s.ImportAll(ctx, []byte(tt.data))
			assert.ErrorIs(t, err, ErrImportFormat)
			assert.Zero(t, n)

			count, err := s.Count(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestImportRejectsForeignIDs(t *testing.T) {
	ctx := context.Background()
	fs := storage.NewFileStorage(t.TempDir())

	history := openStore(t, NewFileBackend(fs, "history"), noteOptions(0, 0, MostRecentlyUsed))
	data := []byte(`[
		{"id": "../presets/injected", "payload": {"name": "evil"}},
		{"id": "nested/lost", "payload": {"name": "lost"}}
	]`)
	n, err := history.ImportAll(ctx, data)
	assert.ErrorIs(t, err, ErrImportFormat)
	assert.Zero(t, n)

	presets := openStore(t, NewFileBackend(fs, "presets"), noteOptions(0, 0, MostRecentlyUsed))
	count, err := presets.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, count)

	// imported entries without an id get a fresh one and survive a reopen
	n, err = history.ImportAll(ctx, []byte(`[{"payload": {"name": "kept"}}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, history.Close())

	reopened := openStore(t, NewFileBackend(fs, "history"), noteOptions(0, 0, MostRecentlyUsed))
	count, err = reopened.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

type flakyBackend struct {
	Backend
	failAt int
	puts   int
}

func (b *flakyBackend) Put(ctx context.Context, id string, data []byte) error {
	b.puts++
	if b.puts == b.failAt {
		return errors.New("connection reset")
	}
	return b.Backend.Put(ctx, id, data)
}

func TestImportIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryBackend()
	backend := &flakyBackend{Backend: mem}
	s := openStore(t, backend, noteOptions(0, 0, MostRecentlyUsed))
	addNotes(t, s, "", 1)

	backend.puts, backend.failAt = 0, 3
	n, err := s.ImportAll(ctx, []byte(`[
		{"payload": {"name": "a"}},
		{"payload": {"name": "b"}},
		{"payload": {"name": "c"}}
	]`))
	assert.ErrorContains(t, err, "connection reset")
	assert.Zero(t, n)

	count, err := s.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	records, err := mem.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
