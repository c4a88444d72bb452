// Package store holds the console's local, possibly stale, copy of one
// server-owned collection.
//
// A Store is replaced wholesale by every successful fetch. There is no merge:
// the last snapshot to arrive wins, whatever order the requests were issued
// in. Optimistic edits are applied in place with Apply and are overwritten by
// the next snapshot.
package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/dmitrijs2005/leadconsole/internal/client/models"
)

// ErrClosed is returned by Load once the store has been discarded.
var ErrClosed = errors.New("store closed")

// FetchFunc retrieves a full snapshot of a collection.
type FetchFunc[T models.Entity] func(ctx context.Context) ([]T, error)

// Store is a snapshot of a collection in authority order.
type Store[T models.Entity] struct {
	mu      sync.RWMutex
	items   []T
	loaded  bool
	closed  bool
	version uint64
}

// New returns an empty, unloaded store.
func New[T models.Entity]() *Store[T] {
	return &Store[T]{}
}

// Load fetches a full snapshot and replaces the collection with it. On
// failure the previous snapshot is left as it was and the error is returned.
func (s *Store[T]) Load(ctx context.Context, fetch FetchFunc[T]) error {
	if s.Closed() {
		return ErrClosed
	}
	items, err := fetch(ctx)
	if err != nil {
		return err
	}
	if !s.Replace(items) {
		return ErrClosed
	}
	return nil
}

// Replace installs snapshot as the whole collection. It reports false if
// the store was closed, in which case nothing changes.
func (s *Store[T]) Replace(snapshot []T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.items = slices.Clone(snapshot)
	if s.items == nil {
		s.items = []T{}
	}
	s.loaded = true
	s.version++
	return true
}

// Current returns a copy of the present snapshot.
func (s *Store[T]) Current() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Get returns the record with the given id.
func (s *Store[T]) Get(id models.ID) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.EntityID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Apply edits one record in place. The change is local and unconfirmed.
// It reports false when the id is not present or the store is closed.
func (s *Store[T]) Apply(id models.ID, fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	for i := range s.items {
		if s.items[i].EntityID() == id {
			fn(&s.items[i])
			s.version++
			return true
		}
	}
	return false
}

// Loaded reports whether at least one snapshot has been installed.
func (s *Store[T]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Version increases with every Replace and Apply.
func (s *Store[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Len returns the number of records in the snapshot.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close discards the snapshot. Late results arriving after Close are dropped.
func (s *Store[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.items = nil
}

// Closed reports whether Close was called.
func (s *Store[T]) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
