// Package store implements a bounded, durable keyed collection with
// favourite pinning and least-recently-used eviction. One Store instance
// exists per artifact kind (image versions, prompt history, custom presets).
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Order int

const (
	// MostRecentlyUsed lists entries by last-used time, newest first.
	MostRecentlyUsed Order = iota
	// Chronological lists entries by creation time, oldest first.
	Chronological
)

// Entry is one stored artifact together with its bookkeeping.
type Entry[T any] struct {
	ID         string    `json:"id"`
	Group      string    `json:"group,omitempty"`
	Payload    T         `json:"payload"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	UsageCount int       `json:"usage_count"`
	Favorite   bool      `json:"favorite"`
}

type Options[T any] struct {
	Namespace string
	// Capacity is the nominal number of entries per group. Zero means
	// unbounded.
	Capacity int
	// Slack is the number of extra entries evicted once capacity is hit.
	Slack int
	Order Order

	// SearchText returns the fields matched by Search.
	SearchText func(T) []string
	// NaturalKey de-duplicates imports. Entries without one are
	// de-duplicated by ID.
	NaturalKey func(T) string
	// UniqueKey makes Add and Update reject a payload whose natural key is
	// already taken with ErrDuplicate.
	UniqueKey bool
	// Validate checks and normalises a payload coming from an untrusted
	// source (Add, Update, ImportAll).
	Validate func(*T) error
	// Clone deep-copies payloads handed to callers. Payloads holding slices
	// or maps should set it.
	Clone func(T) T
}

type Filter struct {
	Group         string
	AllGroups     bool
	FavoritesOnly bool
	Limit         int
}

// Store is safe for concurrent use; every public method runs as a single
// critical section, so read-modify-write operations never interleave.
//
// A Store owns its backend: records are loaded once by Open and served from
// memory afterwards, so two processes must never open stores over the same
// backend namespace.
type Store[T any] struct {
	mu      sync.Mutex
	backend Backend
	opts    Options[T]
	entries map[string]*Entry[T]
	open    bool
	last    time.Time

	now   func() time.Time
	newID func() string
	log   *logrus.Entry
}

func New[T any](backend Backend, opts Options[T]) *Store[T] {
	if backend == nil {
		backend = NewUnconfiguredBackend()
	}
	if opts.Slack < 0 {
		opts.Slack = 0
	}
	return &Store[T]{
		backend: backend,
		opts:    opts,
		entries: make(map[string]*Entry[T]),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
		log:     logrus.WithField("store", opts.Namespace),
	}
}

// Open acquires the backend and loads its records. Records that fail to
// decode are skipped with a warning.
func (s *Store[T]) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return nil
	}
	if err := s.backend.Open(ctx); err != nil {
		return fmt.Errorf("open %s store: %w", s.opts.Namespace, err)
	}
	records, err := s.backend.Load(ctx)
	if err != nil {
		s.backend.Close()
		return fmt.Errorf("load %s store: %w", s.opts.Namespace, err)
	}

	s.entries = make(map[string]*Entry[T], len(records))
	for id, data := range records {
		var e Entry[T]
		if err := json.Unmarshal(data, &e); err != nil {
			s.log.WithField("id", id).Warnf("skipping unreadable entry: %v", err)
			continue
		}
		e.ID = id
		s.entries[id] = &e
		if e.LastUsedAt.After(s.last) {
			s.last = e.LastUsedAt
		}
		if e.CreatedAt.After(s.last) {
			s.last = e.CreatedAt
		}
	}
	s.open = true

	s.log.WithField("entries", len(s.entries)).Info("store opened")
	return nil
}

// Close releases the backend. It is safe to call more than once.
func (s *Store[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil
	}
	s.open = false
	s.entries = make(map[string]*Entry[T])
	return s.backend.Close()
}

// Add evicts as needed and inserts payload under group, returning its ID.
func (s *Store[T]) Add(ctx context.Context, payload T, group string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return "", ErrStoreClosed
	}
	if err := s.validate(&payload); err != nil {
		return "", err
	}
	if s.opts.UniqueKey {
		if dup := s.findByKeyLocked(s.keyOf(payload), ""); dup != nil {
			return "", fmt.Errorf("%w: %s", ErrDuplicate, dup.ID)
		}
	}
	return s.insertLocked(ctx, payload, group)
}

func (s *Store[T]) insertLocked(ctx context.Context, payload T, group string) (string, error) {
	victims, err := s.victimsLocked(group)
	if err != nil {
		return "", err
	}
	if s.opts.Clone != nil {
		payload = s.opts.Clone(payload)
	}

	ts := s.tick()
	e := &Entry[T]{
		ID:         s.newID(),
		Group:      group,
		Payload:    payload,
		CreatedAt:  ts,
		LastUsedAt: ts,
	}
	// the new entry is persisted before anything is evicted, so a failed
	// write leaves the group as it was
	if err := s.putLocked(ctx, e); err != nil {
		return "", err
	}
	if len(victims) == 0 {
		return e.ID, nil
	}
	if err := s.deleteLocked(ctx, victims); err != nil {
		if rbErr := s.deleteLocked(ctx, []string{e.ID}); rbErr != nil {
			delete(s.entries, e.ID)
			s.log.WithField("id", e.ID).Errorf("failed to roll back insert: %v", rbErr)
		}
		return "", err
	}
	s.log.WithFields(logrus.Fields{
		"group":   group,
		"evicted": len(victims),
	}).Info("evicted least recently used entries")
	return e.ID, nil
}

// Upsert bumps the usage of the entry sharing payload's natural key, or adds
// payload to group when there is none. The boolean reports whether a new
// entry was created.
func (s *Store[T]) Upsert(ctx context.Context, payload T, group string) (*Entry[T], bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, false, ErrStoreClosed
	}
	if err := s.validate(&payload); err != nil {
		return nil, false, err
	}
	if cur := s.findByKeyLocked(s.keyOf(payload), ""); cur != nil {
		next := *cur
		next.UsageCount++
		next.LastUsedAt = s.tick()
		if err := s.putLocked(ctx, &next); err != nil {
			return nil, false, err
		}
		return s.copyOf(&next), false, nil
	}

	id, err := s.insertLocked(ctx, payload, group)
	if err != nil {
		return nil, false, err
	}
	return s.copyOf(s.entries[id]), true, nil
}

// FindByKey returns the entry with the given natural key, or nil.
func (s *Store[T]) FindByKey(ctx context.Context, key string) (*Entry[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, ErrStoreClosed
	}
	if e := s.findByKeyLocked(key, ""); e != nil {
		return s.copyOf(e), nil
	}
	return nil, nil
}

// Get returns the entry or nil when it does not exist.
func (s *Store[T]) Get(ctx context.Context, id string) (*Entry[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, ErrStoreClosed
	}
	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	return s.copyOf(e), nil
}

// GetAll lists entries in the store's natural order.
func (s *Store[T]) GetAll(ctx context.Context, f Filter) ([]Entry[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, ErrStoreClosed
	}
	return s.listLocked(func(e *Entry[T]) bool {
		if !f.AllGroups && e.Group != f.Group {
			return false
		}
		return !f.FavoritesOnly || e.Favorite
	}, f.Limit), nil
}

// Search returns entries whose searchable text contains query, ignoring case.
func (s *Store[T]) Search(ctx context.Context, query string) ([]Entry[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, ErrStoreClosed
	}
	if s.opts.SearchText == nil {
		return []Entry[T]{}, nil
	}
	query = strings.ToLower(strings.TrimSpace(query))
	return s.listLocked(func(e *Entry[T]) bool {
		for _, text := range s.opts.SearchText(e.Payload) {
			if strings.Contains(strings.ToLower(text), query) {
				return true
			}
		}
		return false
	}, 0), nil
}

// Count returns the number of entries in group.
func (s *Store[T]) Count(ctx context.Context, group string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return 0, ErrStoreClosed
	}
	return len(s.scopeLocked(group)), nil
}

// Update applies fn to a copy of the entry and persists the result. ID,
// group and creation time cannot be changed.
func (s *Store[T]) Update(ctx context.Context, id string, fn func(*Entry[T]) error) (*Entry[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, ErrStoreClosed
	}
	cur, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}

	next := s.copyOf(cur)
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID, next.Group, next.CreatedAt = cur.ID, cur.Group, cur.CreatedAt
	if next.UsageCount < 0 {
		next.UsageCount = 0
	}
	if err := s.validate(&next.Payload); err != nil {
		return nil, err
	}
	if s.opts.UniqueKey {
		if dup := s.findByKeyLocked(s.keyOf(next.Payload), id); dup != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, dup.ID)
		}
	}
	if err := s.putLocked(ctx, next); err != nil {
		return nil, err
	}
	return s.copyOf(next), nil
}

// ToggleFavorite flips the pinned flag and returns the new value.
func (s *Store[T]) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return false, ErrStoreClosed
	}
	cur, ok := s.entries[id]
	if !ok {
		return false, ErrNotFound
	}
	next := *cur
	next.Favorite = !cur.Favorite
	if err := s.putLocked(ctx, &next); err != nil {
		return false, err
	}
	return next.Favorite, nil
}

// IncrementUsage bumps the usage counter and marks the entry as just used.
func (s *Store[T]) IncrementUsage(ctx context.Context, id string) (*Entry[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, ErrStoreClosed
	}
	cur, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := *cur
	next.UsageCount++
	next.LastUsedAt = s.tick()
	if err := s.putLocked(ctx, &next); err != nil {
		return nil, err
	}
	return s.copyOf(&next), nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrStoreClosed
	}
	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	return s.deleteLocked(ctx, []string{id})
}

// Clear deletes every entry of group, optionally sparing favourites, and
// returns how many were removed.
func (s *Store[T]) Clear(ctx context.Context, group string, keepFavorites bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return 0, ErrStoreClosed
	}
	var ids []string
	for _, e := range s.scopeLocked(group) {
		if keepFavorites && e.Favorite {
			continue
		}
		ids = append(ids, e.ID)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.deleteLocked(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// victimsLocked picks the entries to evict so that one more fits in group.
// When the group is at capacity, unpinned entries go least-recently-used
// first until the group holds at most Capacity-Slack entries (Capacity-1 when
// Slack is zero). Pinned entries are never picked, so a group made only of
// favourites may exceed capacity.
func (s *Store[T]) victimsLocked(group string) ([]string, error) {
	capacity := s.opts.Capacity
	if capacity <= 0 {
		return nil, nil
	}
	scoped := s.scopeLocked(group)
	if len(scoped) < capacity {
		return nil, nil
	}

	target := capacity - s.opts.Slack
	if target > capacity-1 {
		target = capacity - 1
	}
	if target < 0 {
		target = 0
	}

	candidates := make([]*Entry[T], 0, len(scoped))
	favorites := 0
	for _, e := range scoped {
		if e.Favorite {
			favorites++
			continue
		}
		candidates = append(candidates, e)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return lessUsed(candidates[i], candidates[j])
	})

	count := len(scoped)
	var victims []string
	for _, e := range candidates {
		if count <= target {
			break
		}
		victims = append(victims, e.ID)
		count--
	}

	if count >= capacity && favorites == 0 {
		s.log.WithFields(logrus.Fields{
			"group":    group,
			"count":    count,
			"capacity": capacity,
		}).Error("eviction left group above capacity")
		return nil, fmt.Errorf("%w: %s group %q holds %d entries, capacity %d",
			ErrCapacityViolation, s.opts.Namespace, group, count, capacity)
	}
	return victims, nil
}

func (s *Store[T]) putLocked(ctx context.Context, e *Entry[T]) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", s.opts.Namespace, err)
	}
	if err := s.backend.Put(ctx, e.ID, data); err != nil {
		return fmt.Errorf("persist %s entry %s: %w", s.opts.Namespace, e.ID, err)
	}
	stored := *e
	s.entries[e.ID] = &stored
	return nil
}

func (s *Store[T]) deleteLocked(ctx context.Context, ids []string) error {
	if err := s.backend.Delete(ctx, ids...); err != nil {
		return fmt.Errorf("delete %s entries: %w", s.opts.Namespace, err)
	}
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

func (s *Store[T]) keyOf(payload T) string {
	if s.opts.NaturalKey == nil {
		return ""
	}
	return s.opts.NaturalKey(payload)
}

// findByKeyLocked returns the entry whose natural key is key, ignoring the
// entry with ID except.
func (s *Store[T]) findByKeyLocked(key, except string) *Entry[T] {
	if key == "" || s.opts.NaturalKey == nil {
		return nil
	}
	for _, e := range s.entries {
		if e.ID != except && s.opts.NaturalKey(e.Payload) == key {
			return e
		}
	}
	return nil
}

func (s *Store[T]) scopeLocked(group string) []*Entry[T] {
	var out []*Entry[T]
	for _, e := range s.entries {
		if e.Group == group {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store[T]) listLocked(keep func(*Entry[T]) bool, limit int) []Entry[T] {
	matched := make([]*Entry[T], 0, len(s.entries))
	for _, e := range s.entries {
		if keep(e) {
			matched = append(matched, e)
		}
	}

	switch s.opts.Order {
	case Chronological:
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.Before(matched[j].CreatedAt)
			}
			return matched[i].ID < matched[j].ID
		})
	default:
		sort.Slice(matched, func(i, j int) bool {
			return lessUsed(matched[j], matched[i])
		})
	}

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]Entry[T], len(matched))
	for i, e := range matched {
		out[i] = *s.copyOf(e)
	}
	return out
}

func (s *Store[T]) copyOf(e *Entry[T]) *Entry[T] {
	c := *e
	if s.opts.Clone != nil {
		c.Payload = s.opts.Clone(e.Payload)
	}
	return &c
}

func (s *Store[T]) validate(p *T) error {
	if s.opts.Validate == nil {
		return nil
	}
	if err := s.opts.Validate(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return nil
}

// tick returns a timestamp strictly after every one handed out before, so
// entries created in the same clock tick still have a total order.
func (s *Store[T]) tick() time.Time {
	t := s.now().UTC().Round(0)
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

// lessUsed orders a before b when a was used less recently.
func lessUsed[T any](a, b *Entry[T]) bool {
	if !a.LastUsedAt.Equal(b.LastUsedAt) {
		return a.LastUsedAt.Before(b.LastUsedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// ValidID reports whether id has the form the store hands out. Backends key
// files and rows by it, so foreign IDs are never trusted.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
