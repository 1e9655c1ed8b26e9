package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const snapshotVersion = 1

// Snapshot is the portable form produced by ExportAll.
type Snapshot[T any] struct {
	Version    int        `json:"version"`
	Namespace  string     `json:"namespace"`
	ExportedAt time.Time  `json:"exported_at"`
	Entries    []Entry[T] `json:"entries"`
}

// Snapshot returns every entry of every group in the store's natural order.
func (s *Store[T]) Snapshot(ctx context.Context) (*Snapshot[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, ErrStoreClosed
	}
	return &Snapshot[T]{
		Version:    snapshotVersion,
		Namespace:  s.opts.Namespace,
		ExportedAt: s.now().UTC(),
		Entries:    s.listLocked(func(*Entry[T]) bool { return true }, 0),
	}, nil
}

// ExportAll serialises the whole store as indented JSON.
func (s *Store[T]) ExportAll(ctx context.Context) ([]byte, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(snap, "", "  ")
}

// ImportAll merges a snapshot (or a bare JSON array of entries) into the
// store and returns the number of entries added. Entries whose natural key
// already exists are skipped, and the merge stops once a group reaches
// capacity. A malformed snapshot or any invalid entry rejects the whole
// import with ErrImportFormat before anything is written.
func (s *Store[T]) ImportAll(ctx context.Context, data []byte) (int, error) {
	entries, err := DecodeEntries[T](data)
	if err != nil {
		return 0, err
	}
	return s.Merge(ctx, entries)
}

// Merge is ImportAll for already decoded entries.
func (s *Store[T]) Merge(ctx context.Context, entries []Entry[T]) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return 0, ErrStoreClosed
	}

	for i := range entries {
		if err := s.validate(&entries[i].Payload); err != nil {
			return 0, fmt.Errorf("%w: entry %d: %v", ErrImportFormat, i, err)
		}
		if s.opts.NaturalKey != nil && s.opts.NaturalKey(entries[i].Payload) == "" {
			return 0, fmt.Errorf("%w: entry %d has no name", ErrImportFormat, i)
		}
		if id := entries[i].ID; id != "" && !ValidID(id) {
			return 0, fmt.Errorf("%w: entry %d has a malformed id %q", ErrImportFormat, i, id)
		}
	}

	seen := make(map[string]bool, len(s.entries))
	counts := make(map[string]int)
	for _, e := range s.entries {
		seen[s.naturalKey(e)] = true
		counts[e.Group]++
	}

	var accepted []*Entry[T]
	skipped := 0
	for i := range entries {
		e := entries[i]
		if e.ID == "" && s.opts.NaturalKey == nil {
			e.ID = s.newID()
		}
		if s.opts.Capacity > 0 && counts[e.Group] >= s.opts.Capacity {
			skipped++
			continue
		}
		key := s.naturalKey(&e)
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true

		if _, taken := s.entries[e.ID]; e.ID == "" || taken {
			e.ID = s.newID()
		}
		ts := s.tick()
		if e.CreatedAt.IsZero() {
			e.CreatedAt = ts
		}
		if e.LastUsedAt.IsZero() {
			e.LastUsedAt = e.CreatedAt
		}
		if e.UsageCount < 0 {
			e.UsageCount = 0
		}
		if e.LastUsedAt.After(s.last) {
			s.last = e.LastUsedAt
		}
		counts[e.Group]++
		accepted = append(accepted, &e)
	}

	for i, e := range accepted {
		if err := s.putLocked(ctx, e); err != nil {
			s.rollbackLocked(ctx, accepted[:i])
			return 0, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"imported": len(accepted),
		"skipped":  skipped,
	}).Info("snapshot merged")
	return len(accepted), nil
}

// rollbackLocked removes entries written by a failed merge so the import is
// all or nothing.
func (s *Store[T]) rollbackLocked(ctx context.Context, written []*Entry[T]) {
	if len(written) == 0 {
		return
	}
	ids := make([]string, len(written))
	for i, e := range written {
		ids[i] = e.ID
	}
	if err := s.deleteLocked(ctx, ids); err != nil {
		s.log.WithField("entries", len(ids)).Errorf("failed to roll back import: %v", err)
	}
}

func (s *Store[T]) naturalKey(e *Entry[T]) string {
	if s.opts.NaturalKey != nil {
		return "k:" + s.opts.NaturalKey(e.Payload)
	}
	return "id:" + e.ID
}

// DecodeEntries parses a snapshot object or a bare array of entries.
func DecodeEntries[T any](data []byte) ([]Entry[T], error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrImportFormat)
	}

	if trimmed[0] == '[' {
		var entries []Entry[T]
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImportFormat, err)
		}
		return entries, nil
	}

	var snap struct {
		Version int         `json:"version"`
		Entries *[]Entry[T] `json:"entries"`
	}
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFormat, err)
	}
	if snap.Entries == nil {
		return nil, fmt.Errorf("%w: missing entries", ErrImportFormat)
	}
	if snap.Version > snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrImportFormat, snap.Version)
	}
	return *snap.Entries, nil
}
