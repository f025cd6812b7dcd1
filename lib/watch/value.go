// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package watch provides in-memory observable containers: a Value
// holding one snapshot replaced wholesale on each update, and a Map
// whose per-key changes notify subscribers.
//
// These back every published view in the engine: the agreed table
// state feeds in through a Value, and the ack map and broadcast card
// maps feed out through Maps. Consumers subscribe for change
// notification and read the latest state on demand; there is no
// buffering of intermediate states.
package watch

import "sync"

// Value holds a single snapshot of type T. Set replaces the snapshot
// and notifies subscribers; Get returns the latest. Safe for
// concurrent use. Subscriber callbacks run on the goroutine calling
// Set, after the new snapshot is visible to Get, and must not block.
type Value[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[int]func()
	next  int
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{value: initial, subs: make(map[int]func())}
}

// Get returns the current snapshot.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set replaces the snapshot and notifies every subscriber.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	v.value = value
	callbacks := make([]func(), 0, len(v.subs))
	for _, fn := range v.subs {
		callbacks = append(callbacks, fn)
	}
	v.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Subscribe registers fn to run after every subsequent Set. It does
// not fire for the current snapshot; callers that need an initial pass
// read Get themselves. The returned cancel function unregisters fn:
// no Set starting after cancel returns invokes fn, but a Set already
// in flight on another goroutine may still invoke it once more.
// Callbacks must therefore stay safe to run after cancellation.
func (v *Value[T]) Subscribe(fn func()) (cancel func()) {
	v.mu.Lock()
	id := v.next
	v.next++
	v.subs[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}
