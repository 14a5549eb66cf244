// Package workset holds the in-memory entities a board works on between
// fetches. Mutations return an undo func so callers can apply a change
// optimistically and roll it back if the remote write fails.
package workset

import "sync"

type Set[T any] struct {
	mu    sync.RWMutex
	key   func(T) string
	clone func(T) T
	items []T
}

// New builds a set keyed by key. clone, when non-nil, is applied to every
// value handed out so callers cannot mutate the set through shared slices.
func New[T any](key func(T) string, clone func(T) T) *Set[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Set[T]{key: key, clone: clone}
}

// Replace swaps in a freshly fetched list, keeping its order.
func (s *Set[T]) Replace(items []T) {
	next := make([]T, len(items))
	for i, it := range items {
		next[i] = s.clone(it)
	}
	s.mu.Lock()
	s.items = next
	s.mu.Unlock()
}

func (s *Set[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	for i, it := range s.items {
		out[i] = s.clone(it)
	}
	return out
}

func (s *Set[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Set[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.clone(s.items[i]), true
	}
	var zero T
	return zero, false
}

// Put replaces the item with the same key in place, or appends it.
func (s *Set[T]) Put(item T) {
	item = s.clone(item)
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(s.key(item)); i >= 0 {
		s.items[i] = item
		return
	}
	s.items = append(s.items, item)
}

// Patch applies fn to the item with the given id. The undo func restores the
// previous value; it is a no-op if the item has since been removed.
func (s *Set[T]) Patch(id string, fn func(*T)) (undo func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return func() {}, false
	}
	before := s.clone(s.items[i])
	next := s.clone(s.items[i])
	fn(&next)
	s.items[i] = next

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if j := s.indexOf(id); j >= 0 {
			s.items[j] = before
		}
	}, true
}

// Remove drops the item with the given id. The undo func puts it back at its
// old position.
func (s *Set[T]) Remove(id string) (undo func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return func() {}, false
	}
	removed := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.indexOf(id) >= 0 {
			return
		}
		pos := i
		if pos > len(s.items) {
			pos = len(s.items)
		}
		s.items = append(s.items[:pos:pos], append([]T{removed}, s.items[pos:]...)...)
	}, true
}

func (s *Set[T]) indexOf(id string) int {
	for i, it := range s.items {
		if s.key(it) == id {
			return i
		}
	}
	return -1
}
