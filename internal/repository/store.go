package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Entity is anything the PMS can report a version of.
type Entity interface {
	Fingerprint() string
}

// Reader is the narrow view the calendar has of a cache: read the snapshot,
// reload it, or reload only if something changed upstream.
type Reader[T Entity] interface {
	All() []T
	Refresh(ctx context.Context) error
	RefreshIfChanged(ctx context.Context) (bool, error)
	LoadedAt() time.Time
}

// Store holds the last successfully fetched snapshot of one entity type.
// A failed fetch leaves the previous snapshot in place.  Callers never patch
// a store; after a mutation they Refresh it.
type Store[T Entity] struct {
	name  string
	fetch func(ctx context.Context) ([]T, error)

	mu       sync.RWMutex
	items    []T
	prints   []string
	loadedAt time.Time
}

// NewStore builds an empty store backed by fetch.
func NewStore[T Entity](name string, fetch func(ctx context.Context) ([]T, error)) *Store[T] {
	return &Store[T]{name: name, fetch: fetch}
}

func (s *Store[T]) Name() string { return s.name }

// All returns a copy of the current snapshot.
func (s *Store[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// LoadedAt is the time of the last successful fetch, zero before the first.
func (s *Store[T]) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Refresh replaces the snapshot unconditionally.
func (s *Store[T]) Refresh(ctx context.Context) error {
	items, err := s.fetch(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", s.name, err)
	}
	s.replace(items, fingerprints(items))
	return nil
}

// RefreshIfChanged fetches and swaps the snapshot only when the set of
// entity fingerprints differs from the one held.
func (s *Store[T]) RefreshIfChanged(ctx context.Context) (bool, error) {
	items, err := s.fetch(ctx)
	if err != nil {
		return false, fmt.Errorf("poll %s: %w", s.name, err)
	}
	prints := fingerprints(items)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loadedAt.IsZero() && equalStrings(prints, s.prints) {
		s.loadedAt = time.Now()
		return false, nil
	}
	s.items = items
	s.prints = prints
	s.loadedAt = time.Now()
	return true, nil
}

// Replace installs a snapshot that was fetched elsewhere.
func (s *Store[T]) Replace(items []T) {
	s.replace(items, fingerprints(items))
}

func (s *Store[T]) replace(items []T, prints []string) {
	s.mu.Lock()
	s.items = items
	s.prints = prints
	s.loadedAt = time.Now()
	s.mu.Unlock()
}

// find returns the first item matching pred.
func (s *Store[T]) find(pred func(T) bool) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if pred(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func fingerprints[T Entity](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Fingerprint()
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
