// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package throttle provides a fixed-capacity admission gate. The
// engine uses one gate to bound how many secondary executions backfill
// concurrently, since each backfill scans and rewrites a whole region.
package throttle

import (
	"context"
	"fmt"
	"sync"
)

// Gate admits at most its capacity of concurrent holders. Safe for
// concurrent use.
type Gate struct {
	slots chan struct{}
}

// NewGate creates a gate admitting capacity concurrent holders.
// Panics if capacity < 1.
func NewGate(capacity int) *Gate {
	if capacity < 1 {
		panic(fmt.Sprintf("throttle: capacity %d < 1", capacity))
	}
	return &Gate{slots: make(chan struct{}, capacity)}
}

// Acquire blocks until a slot is free or ctx is done. On success the
// returned release function frees the slot; it is idempotent.
func (g *Gate) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-g.slots })
	}, nil
}

// InUse returns the number of held slots. For status reporting.
func (g *Gate) InUse() int { return len(g.slots) }
