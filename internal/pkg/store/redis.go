package store

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type redisBackend struct {
	client *redis.Client
	key    string
}

// NewRedisBackend keeps a namespace in a single hash (id -> entry JSON). The
// client is shared between stores and is not closed by the backend.
func NewRedisBackend(client *redis.Client, prefix, namespace string) Backend {
	return &redisBackend{client: client, key: prefix + "store:" + namespace}
}

func (b *redisBackend) Open(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *redisBackend) Load(ctx context.Context) (map[string][]byte, error) {
	values, err := b.client.HGetAll(ctx, b.key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(values))
	for id, data := range values {
		out[id] = []byte(data)
	}
	return out, nil
}

func (b *redisBackend) Put(ctx context.Context, id string, data []byte) error {
	return b.client.HSet(ctx, b.key, id, data).Err()
}

func (b *redisBackend) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return b.client.HDel(ctx, b.key, ids...).Err()
}

func (b *redisBackend) Close() error { return nil }
