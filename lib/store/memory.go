// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/strata-db/strata/contract"
)

// Memory is an in-memory Store. Used by tests and the simulator; has
// no durability.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

// Put implements Store.
func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	copied := make([]byte, len(value))
	copy(copied, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = copied
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// EraseRange implements Store.
func (m *Memory) EraseRange(ctx context.Context, r contract.KeyRange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if r.Contains(key) {
			delete(m.entries, key)
		}
	}
	return nil
}

// ScanRange implements Store.
func (m *Memory) ScanRange(ctx context.Context, r contract.KeyRange, fn func(Entry) error) error {
	m.mu.RLock()
	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		if r.Contains(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		value := make([]byte, len(m.entries[key]))
		copy(value, m.entries[key])
		entries = append(entries, Entry{Key: key, Value: value})
	}
	m.mu.RUnlock()

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

// Len returns the number of stored keys. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
