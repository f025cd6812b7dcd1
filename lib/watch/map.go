// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package watch

import "sync"

// Map is an observable map. Set and Delete notify subscribers with the
// affected key; Range iterates a consistent point-in-time copy. Safe
// for concurrent use. Subscriber callbacks run on the mutating
// goroutine after the change is visible and must not block.
type Map[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]V
	subs    map[int]func(key K, value V, present bool)
	next    int
}

// NewMap creates an empty Map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		entries: make(map[K]V),
		subs:    make(map[int]func(K, V, bool)),
	}
}

// Get returns the value for key and whether it is present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	return value, ok
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Set stores value under key and notifies subscribers.
func (m *Map[K, V]) Set(key K, value V) {
	m.mu.Lock()
	m.entries[key] = value
	callbacks := m.snapshotSubs()
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(key, value, true)
	}
}

// Delete removes key and notifies subscribers. Deleting an absent key
// is a no-op with no notification.
func (m *Map[K, V]) Delete(key K) {
	m.mu.Lock()
	value, ok := m.entries[key]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.entries, key)
	callbacks := m.snapshotSubs()
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(key, value, false)
	}
}

// Range calls fn for each entry of a point-in-time copy, stopping if
// fn returns false. Mutating the map from fn is safe.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	m.mu.Lock()
	copied := make(map[K]V, len(m.entries))
	for key, value := range m.entries {
		copied[key] = value
	}
	m.mu.Unlock()

	for key, value := range copied {
		if !fn(key, value) {
			return
		}
	}
}

// Subscribe registers fn to run on every subsequent Set (present=true)
// and Delete (present=false). Existing entries do not fire; callers
// needing them use Range first. The returned cancel function
// unregisters fn: no mutation starting after cancel returns invokes
// fn, but one already in flight on another goroutine may still invoke
// it once more. Callbacks must therefore stay safe to run after
// cancellation.
func (m *Map[K, V]) Subscribe(fn func(key K, value V, present bool)) (cancel func()) {
	m.mu.Lock()
	id := m.next
	m.next++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// snapshotSubs copies the subscriber list. Caller holds m.mu.
func (m *Map[K, V]) snapshotSubs() []func(K, V, bool) {
	callbacks := make([]func(K, V, bool), 0, len(m.subs))
	for _, fn := range m.subs {
		callbacks = append(callbacks, fn)
	}
	return callbacks
}
