// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time. Time stands
// still until Advance is called; every After and Sleep call registers
// a waiter that fires when the clock reaches its deadline.
func Fake(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// FakeClock is a deterministic Clock for tests. Safe for concurrent
// use: goroutines under test may call After and Sleep while the test
// goroutine calls Advance.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	ch       chan time.Time
}

// Now returns the fake current time.
func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After registers a waiter that fires when the clock is advanced to or
// past the deadline. If d <= 0 the channel receives immediately.
func (f *FakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- f.now
		return ch
	}
	f.waiters = append(f.waiters, &fakeWaiter{deadline: f.now.Add(d), ch: ch})
	return ch
}

// Sleep blocks until the clock is advanced past d.
func (f *FakeClock) Sleep(d time.Duration) {
	<-f.After(d)
}

// Advance moves the fake time forward by d and fires every waiter
// whose deadline has been reached, in deadline order.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)

	sort.SliceStable(f.waiters, func(i, j int) bool {
		return f.waiters[i].deadline.Before(f.waiters[j].deadline)
	})

	remaining := f.waiters[:0]
	for _, waiter := range f.waiters {
		if waiter.deadline.After(f.now) {
			remaining = append(remaining, waiter)
			continue
		}
		waiter.ch <- f.now
	}
	f.waiters = remaining
}

// WaitForWaiters blocks until at least n waiters are registered. Use
// this to synchronize with goroutines under test before Advance, which
// eliminates the race between timer registration and advancement.
func (f *FakeClock) WaitForWaiters(n int) {
	for {
		f.mu.Lock()
		count := len(f.waiters)
		f.mu.Unlock()
		if count >= n {
			return
		}
		time.Sleep(100 * time.Microsecond) //nolint:realclock polling the fake's registry
	}
}
