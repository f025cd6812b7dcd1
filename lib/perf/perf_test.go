// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package perf

import (
	"sync"
	"testing"
)

func TestCounterIncrement(t *testing.T) {
	root := NewCollection("engine")
	root.Counter("passes").Add(3)
	if got := root.Counter("passes").Load(); got != 3 {
		t.Errorf("passes = %d, want 3", got)
	}
}

func TestChildCollections(t *testing.T) {
	root := NewCollection("engine")
	child := root.Child("primary-1")
	child.Counter("acks_sent").Add(2)

	// Child is stable across lookups.
	if root.Child("primary-1") != child {
		t.Error("Child returned a different collection for the same name")
	}

	snapshot := root.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("snapshot has %d entries, want 1", len(snapshot))
	}
	if snapshot[0].Path != "engine/primary-1/acks_sent" || snapshot[0].Value != 2 {
		t.Errorf("snapshot[0] = %+v", snapshot[0])
	}
}

func TestRemoveChildDropsCounters(t *testing.T) {
	root := NewCollection("engine")
	child := root.Child("erase-2")
	child.Counter("keys_erased").Add(10)

	root.RemoveChild("erase-2")
	if len(root.Snapshot()) != 0 {
		t.Error("removed child still appears in snapshot")
	}

	// Detached collection stays usable.
	child.Counter("keys_erased").Add(1)
}

func TestSnapshotSorted(t *testing.T) {
	root := NewCollection("engine")
	root.Counter("zeta").Add(1)
	root.Counter("alpha").Add(1)
	root.Child("b").Counter("x").Add(1)
	root.Child("a").Counter("x").Add(1)

	snapshot := root.Snapshot()
	for i := 1; i < len(snapshot); i++ {
		if snapshot[i-1].Path >= snapshot[i].Path {
			t.Errorf("snapshot not sorted: %s >= %s", snapshot[i-1].Path, snapshot[i].Path)
		}
	}
}

func TestConcurrentCounters(t *testing.T) {
	root := NewCollection("engine")
	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				root.Counter("hits").Add(1)
			}
		}()
	}
	wg.Wait()
	if got := root.Counter("hits").Load(); got != 8000 {
		t.Errorf("hits = %d, want 8000", got)
	}
}
