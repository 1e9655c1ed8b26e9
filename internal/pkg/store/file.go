package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/renatodap/snapmod-sub000/internal/pkg/storage"
)

const recordExt = ".json"

type fileBackend struct {
	storage   storage.FileStorage
	namespace string
}

// NewFileBackend persists one JSON document per entry under
// <root>/<namespace>/<id>.json.
func NewFileBackend(fs storage.FileStorage, namespace string) Backend {
	return &fileBackend{storage: fs, namespace: namespace}
}

func (b *fileBackend) Open(ctx context.Context) error { return nil }

func (b *fileBackend) Load(ctx context.Context) (map[string][]byte, error) {
	names, err := b.storage.List(b.namespace)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, recordExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := b.read(name)
		if err != nil {
			return nil, err
		}
		out[strings.TrimSuffix(name, recordExt)] = data
	}
	return out, nil
}

func (b *fileBackend) read(name string) ([]byte, error) {
	reader, err := b.storage.Get(path.Join(b.namespace, name))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func (b *fileBackend) Put(ctx context.Context, id string, data []byte) error {
	if err := checkRecordID(id); err != nil {
		return err
	}
	return b.storage.Save(b.recordPath(id), bytes.NewReader(data))
}

func (b *fileBackend) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if err := checkRecordID(id); err != nil {
			return err
		}
		if err := b.storage.Delete(b.recordPath(id)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (b *fileBackend) Close() error { return nil }

func (b *fileBackend) recordPath(id string) string {
	return path.Join(b.namespace, id+recordExt)
}

// checkRecordID keeps every record a direct child of its namespace directory.
func checkRecordID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: record id %q", ErrInvalidEntry, id)
	}
	return nil
}
