// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package contract defines the data model of the table engine: the
// keyspace geometry (key ranges and range maps), per-region contracts,
// the agreed table state snapshot, acknowledgements, and broadcast
// cards. Everything here is plain data; the executor package holds the
// behavior.
package contract

import (
	"fmt"
	"sort"
	"strings"
)

// RightBound is the exclusive upper bound of a key range. Unbounded
// means the range extends to the end of the keyspace; Key is ignored
// when Unbounded is set. Comparable, so it can key maps.
type RightBound struct {
	Key       string `cbor:"key" yaml:"key"`
	Unbounded bool   `cbor:"unbounded,omitempty" yaml:"unbounded,omitempty"`
}

// BoundAfter returns the right bound just past key (exclusive bound at
// the given key).
func BoundAfter(key string) RightBound {
	return RightBound{Key: key}
}

// UnboundedRight returns the bound at the end of the keyspace.
func UnboundedRight() RightBound {
	return RightBound{Unbounded: true}
}

// Compare orders right bounds: bounded by key, unbounded greatest.
func (r RightBound) Compare(other RightBound) int {
	switch {
	case r.Unbounded && other.Unbounded:
		return 0
	case r.Unbounded:
		return 1
	case other.Unbounded:
		return -1
	default:
		return strings.Compare(r.Key, other.Key)
	}
}

func (r RightBound) String() string {
	if r.Unbounded {
		return "+inf"
	}
	return r.Key
}

// KeyRange is a half-open slice of the keyspace [Left, Right). The
// zero value is the empty range at the start of the keyspace.
// Comparable, so it can be embedded in map keys.
type KeyRange struct {
	Left  string     `cbor:"left" yaml:"left"`
	Right RightBound `cbor:"right" yaml:"right"`
}

// Range constructs [left, right). An empty right key means unbounded.
func Range(left, right string) KeyRange {
	if right == "" {
		return KeyRange{Left: left, Right: UnboundedRight()}
	}
	return KeyRange{Left: left, Right: BoundAfter(right)}
}

// FullRange returns the range covering the whole keyspace.
func FullRange() KeyRange {
	return KeyRange{Right: UnboundedRight()}
}

// Empty reports whether the range contains no keys.
func (k KeyRange) Empty() bool {
	return !k.Right.Unbounded && k.Right.Key <= k.Left
}

// Contains reports whether key falls inside the range.
func (k KeyRange) Contains(key string) bool {
	if key < k.Left {
		return false
	}
	return k.Right.Unbounded || key < k.Right.Key
}

// Overlaps reports whether the two ranges share any key.
func (k KeyRange) Overlaps(other KeyRange) bool {
	if k.Empty() || other.Empty() {
		return false
	}
	leftInside := k.Left >= other.Left &&
		(other.Right.Unbounded || k.Left < other.Right.Key)
	otherLeftInside := other.Left >= k.Left &&
		(k.Right.Unbounded || other.Left < k.Right.Key)
	return leftInside || otherLeftInside
}

// Compare orders ranges lexicographically by (Left, Right).
func (k KeyRange) Compare(other KeyRange) int {
	if c := strings.Compare(k.Left, other.Left); c != 0 {
		return c
	}
	return k.Right.Compare(other.Right)
}

func (k KeyRange) String() string {
	return fmt.Sprintf("[%s, %s)", k.Left, k.Right)
}

// RangeEntry pairs a key range with a value in a RangeMap.
type RangeEntry[V any] struct {
	Range KeyRange
	Value V
}

// RangeMap is an ordered mapping from key ranges to values, keyed by
// each range's right bound and sorted ascending. Built on demand from
// a set of entries; read-only afterwards.
type RangeMap[V any] struct {
	entries []RangeEntry[V]
}

// BuildRangeMap sorts entries by right bound and returns the map. The
// input slice is not retained.
func BuildRangeMap[V any](entries []RangeEntry[V]) RangeMap[V] {
	sorted := make([]RangeEntry[V], len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Right.Compare(sorted[j].Range.Right) < 0
	})
	return RangeMap[V]{entries: sorted}
}

// Entries returns the entries in right-bound order. The returned slice
// is shared; callers must not mutate it.
func (m RangeMap[V]) Entries() []RangeEntry[V] {
	return m.entries
}

// Len returns the number of entries.
func (m RangeMap[V]) Len() int { return len(m.entries) }

// Lookup returns the value whose range contains key.
func (m RangeMap[V]) Lookup(key string) (V, bool) {
	for _, entry := range m.entries {
		if entry.Range.Contains(key) {
			return entry.Value, true
		}
	}
	var zero V
	return zero, false
}
