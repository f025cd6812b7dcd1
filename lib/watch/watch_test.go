// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"sync"
	"testing"
)

func TestValueGetSet(t *testing.T) {
	v := NewValue(1)
	if got := v.Get(); got != 1 {
		t.Fatalf("initial Get = %d, want 1", got)
	}
	v.Set(2)
	if got := v.Get(); got != 2 {
		t.Fatalf("Get after Set = %d, want 2", got)
	}
}

func TestValueSubscribeFiresOnSet(t *testing.T) {
	v := NewValue(0)
	fired := 0
	cancel := v.Subscribe(func() { fired++ })

	v.Set(1)
	v.Set(2)
	if fired != 2 {
		t.Errorf("subscriber fired %d times, want 2", fired)
	}

	cancel()
	v.Set(3)
	if fired != 2 {
		t.Errorf("subscriber fired after cancel: %d times", fired)
	}
}

func TestValueSubscriberSeesNewSnapshot(t *testing.T) {
	v := NewValue(0)
	var seen int
	v.Subscribe(func() { seen = v.Get() })
	v.Set(7)
	if seen != 7 {
		t.Errorf("subscriber read %d, want 7", seen)
	}
}

func TestMapSetGetDelete(t *testing.T) {
	m := NewMap[string, int]()
	if _, ok := m.Get("a"); ok {
		t.Fatal("empty map reports a present key")
	}

	m.Set("a", 1)
	m.Set("b", 2)
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if value, ok := m.Get("a"); !ok || value != 1 {
		t.Fatalf("Get(a) = %d, %v", value, ok)
	}

	m.Delete("a")
	if _, ok := m.Get("a"); ok {
		t.Fatal("deleted key still present")
	}
}

func TestMapSubscribeSeesSetAndDelete(t *testing.T) {
	m := NewMap[string, int]()

	type event struct {
		key     string
		value   int
		present bool
	}
	var events []event
	cancel := m.Subscribe(func(key string, value int, present bool) {
		events = append(events, event{key, value, present})
	})

	m.Set("x", 10)
	m.Delete("x")
	m.Delete("x") // absent: no event

	want := []event{{"x", 10, true}, {"x", 10, false}}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}

	cancel()
	m.Set("y", 1)
	if len(events) != 2 {
		t.Error("subscriber fired after cancel")
	}
}

func TestMapRangeIsPointInTime(t *testing.T) {
	m := NewMap[int, int]()
	for i := 0; i < 10; i++ {
		m.Set(i, i)
	}

	// Mutating from inside Range must not deadlock or skip.
	count := 0
	m.Range(func(key, value int) bool {
		count++
		m.Delete(key)
		return true
	})
	if count != 10 {
		t.Errorf("Range visited %d entries, want 10", count)
	}
	if m.Len() != 0 {
		t.Errorf("Len after delete-in-range = %d, want 0", m.Len())
	}
}

func TestMapConcurrentMutation(t *testing.T) {
	m := NewMap[int, int]()
	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.Set(base*100+i, i)
			}
		}(worker)
	}
	wg.Wait()
	if m.Len() != 800 {
		t.Errorf("Len = %d, want 800", m.Len())
	}
}
