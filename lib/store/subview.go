// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/strata-db/strata/contract"
)

// ErrOutOfRange is returned by a Subview for operations touching keys
// outside its region.
var ErrOutOfRange = errors.New("store: key outside subview region")

// Subview restricts a Store to one region of the keyspace. Each
// execution record owns exactly one Subview scoped to its contract's
// region; the records never share or split regions, so two live
// subviews of overlapping role never overlap.
//
// Closing a Subview does not close the parent store.
type Subview struct {
	parent Store
	region contract.KeyRange
}

// NewSubview scopes parent to region.
func NewSubview(parent Store, region contract.KeyRange) *Subview {
	return &Subview{parent: parent, region: region}
}

// Region returns the subview's region.
func (s *Subview) Region() contract.KeyRange { return s.region }

// Get implements Store. Keys outside the region fail with
// ErrOutOfRange.
func (s *Subview) Get(ctx context.Context, key string) ([]byte, error) {
	if !s.region.Contains(key) {
		return nil, fmt.Errorf("get %q in %v: %w", key, s.region, ErrOutOfRange)
	}
	return s.parent.Get(ctx, key)
}

// Put implements Store. Keys outside the region fail with
// ErrOutOfRange.
func (s *Subview) Put(ctx context.Context, key string, value []byte) error {
	if !s.region.Contains(key) {
		return fmt.Errorf("put %q in %v: %w", key, s.region, ErrOutOfRange)
	}
	return s.parent.Put(ctx, key, value)
}

// Delete implements Store. Keys outside the region fail with
// ErrOutOfRange.
func (s *Subview) Delete(ctx context.Context, key string) error {
	if !s.region.Contains(key) {
		return fmt.Errorf("delete %q in %v: %w", key, s.region, ErrOutOfRange)
	}
	return s.parent.Delete(ctx, key)
}

// EraseRange implements Store. The requested range is intersected
// with the subview's region, so EraseRange(FullRange()) erases
// exactly the subview's own slice.
func (s *Subview) EraseRange(ctx context.Context, r contract.KeyRange) error {
	clipped, ok := intersect(r, s.region)
	if !ok {
		return nil
	}
	return s.parent.EraseRange(ctx, clipped)
}

// ScanRange implements Store. The requested range is intersected with
// the subview's region.
func (s *Subview) ScanRange(ctx context.Context, r contract.KeyRange, fn func(Entry) error) error {
	clipped, ok := intersect(r, s.region)
	if !ok {
		return nil
	}
	return s.parent.ScanRange(ctx, clipped, fn)
}

// Close implements Store. Releases nothing: the parent store outlives
// its subviews.
func (s *Subview) Close() error { return nil }

// intersect clips r to region, reporting false for an empty result.
func intersect(r, region contract.KeyRange) (contract.KeyRange, bool) {
	clipped := r
	if region.Left > clipped.Left {
		clipped.Left = region.Left
	}
	if clipped.Right.Compare(region.Right) > 0 {
		clipped.Right = region.Right
	}
	if clipped.Empty() {
		return contract.KeyRange{}, false
	}
	return clipped, true
}
