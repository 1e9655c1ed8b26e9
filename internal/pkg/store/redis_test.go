package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisBackendEvictsAndReopens(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	const key = "snapmod:store:notes"

	first := New(NewRedisBackend(client, "snapmod:", "notes"), noteOptions(3, 1, Chronological))
	require.NoError(t, first.Open(ctx))
	added := addNotes(t, first, "s1", 3)
	_, err := first.ToggleFavorite(ctx, added[1])
	require.NoError(t, err)

	later, err := first.Add(ctx, note{Name: "later"}, "s1")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	stored, err := mr.HKeys(key)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{added[1], added[2], later}, stored)

	second := openStore(t, NewRedisBackend(client, "snapmod:", "notes"), noteOptions(3, 1, Chronological))
	all, err := second.GetAll(ctx, Filter{Group: "s1"})
	require.NoError(t, err)
	assert.Equal(t, []string{added[1], added[2], later}, ids(all))
	assert.True(t, all[0].Favorite)

	require.NoError(t, second.Delete(ctx, added[2]))
	stored, err = mr.HKeys(key)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{added[1], later}, stored)
}

func TestRedisBackendNamespacesAreSeparate(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	notes := openStore(t, NewRedisBackend(client, "a:", "notes"), noteOptions(0, 0, Chronological))
	other := openStore(t, NewRedisBackend(client, "b:", "notes"), noteOptions(0, 0, Chronological))
	addNotes(t, notes, "", 2)
	addNotes(t, other, "", 1)

	assert.True(t, mr.Exists("a:store:notes"))
	assert.True(t, mr.Exists("b:store:notes"))
	count, err := other.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRedisBackendUnreachable(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()

	s := New(NewRedisBackend(client, "snapmod:", "notes"), noteOptions(0, 0, Chronological))
	assert.Error(t, s.Open(context.Background()))
	_, err := s.Add(context.Background(), note{Name: "x"}, "")
	assert.ErrorIs(t, err, ErrStoreClosed)
}
