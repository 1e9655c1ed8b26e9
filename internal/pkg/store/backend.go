package store

import (
	"context"
	"sync"
)

// Backend is the durable keyed collection behind a Store. Each backend
// instance serves exactly one namespace.
type Backend interface {
	Open(ctx context.Context) error
	Load(ctx context.Context) (map[string][]byte, error)
	Put(ctx context.Context, id string, data []byte) error
	Delete(ctx context.Context, ids ...string) error
	Close() error
}

type memoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend keeps records in process memory. Data survives Close so a
// store can be reopened within the same process.
func NewMemoryBackend() Backend {
	return &memoryBackend{data: make(map[string][]byte)}
}

func (b *memoryBackend) Open(ctx context.Context) error { return nil }

func (b *memoryBackend) Load(ctx context.Context) (map[string][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string][]byte, len(b.data))
	for id, data := range b.data {
		out[id] = append([]byte(nil), data...)
	}
	return out, nil
}

func (b *memoryBackend) Put(ctx context.Context, id string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[id] = append([]byte(nil), data...)
	return nil
}

func (b *memoryBackend) Delete(ctx context.Context, ids ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		delete(b.data, id)
	}
	return nil
}

func (b *memoryBackend) Close() error { return nil }

// unconfiguredBackend is the explicit "no storage configured" state. It is
// distinct from a working backend: every call fails with ErrUnconfigured.
type unconfiguredBackend struct{}

func NewUnconfiguredBackend() Backend { return unconfiguredBackend{} }

func (unconfiguredBackend) Open(context.Context) error { return ErrUnconfigured }

func (unconfiguredBackend) Load(context.Context) (map[string][]byte, error) {
	return nil, ErrUnconfigured
}

func (unconfiguredBackend) Put(context.Context, string, []byte) error { return ErrUnconfigured }

func (unconfiguredBackend) Delete(context.Context, ...string) error { return ErrUnconfigured }

func (unconfiguredBackend) Close() error { return nil }
