// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package store provides the local key-value storage contract the
// table engine runs against, a keyspace-scoped subview over it, and
// two backends: an in-memory store for tests and tooling, and a
// SQLite-backed store for durable deployments. Snapshot export and
// import (lz4-framed CBOR record streams) support secondary backfill.
package store

import (
	"context"
	"errors"

	"github.com/strata-db/strata/contract"
)

// ErrNotFound is returned by Get for an absent key.
var ErrNotFound = errors.New("store: key not found")

// Entry is one key-value pair yielded by ScanRange.
type Entry struct {
	Key   string `cbor:"key"`
	Value []byte `cbor:"value"`
}

// Store is the engine's view of local storage for one table. All
// methods are safe for concurrent use. Implementations own durability;
// when Put returns nil the write is as durable as the backend's
// configuration promises.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any existing value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// EraseRange removes every key inside r.
	EraseRange(ctx context.Context, r contract.KeyRange) error

	// ScanRange calls fn for each entry inside r in ascending key
	// order, stopping at the first error, which it returns.
	ScanRange(ctx context.Context, r contract.KeyRange, fn func(Entry) error) error

	// Close releases the backend. No methods may be called after.
	Close() error
}
