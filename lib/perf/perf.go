// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package perf provides lightweight, nestable counter collections for
// observability. The executor gives each execution its own child
// collection with a unique name, so executions never think about
// counter key collisions; Snapshot flattens the tree for status
// output and tests.
package perf

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Collection is a named group of counters with optional child
// collections. Safe for concurrent use.
type Collection struct {
	name string

	mu       sync.Mutex
	counters map[string]*atomic.Int64
	children map[string]*Collection
}

// NewCollection creates a root collection.
func NewCollection(name string) *Collection {
	return &Collection{
		name:     name,
		counters: make(map[string]*atomic.Int64),
		children: make(map[string]*Collection),
	}
}

// Name returns the collection's name.
func (c *Collection) Name() string { return c.name }

// Child returns the named child collection, creating it if absent.
func (c *Collection) Child(name string) *Collection {
	c.mu.Lock()
	defer c.mu.Unlock()
	child, ok := c.children[name]
	if !ok {
		child = NewCollection(name)
		c.children[name] = child
	}
	return child
}

// RemoveChild detaches the named child. Further use of the detached
// collection is harmless; its counters just stop appearing in
// snapshots.
func (c *Collection) RemoveChild(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.children, name)
}

// Counter returns the named counter, creating it at zero if absent.
func (c *Collection) Counter(name string) *atomic.Int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	counter, ok := c.counters[name]
	if !ok {
		counter = &atomic.Int64{}
		c.counters[name] = counter
	}
	return counter
}

// Snapshot returns every counter in the tree keyed by slash-joined
// path ("executions/primary-1/acks_sent"), sorted for deterministic
// output.
func (c *Collection) Snapshot() []CounterValue {
	var out []CounterValue
	c.collect("", &out)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// CounterValue is one counter in a snapshot.
type CounterValue struct {
	Path  string
	Value int64
}

func (c *Collection) collect(prefix string, out *[]CounterValue) {
	path := c.name
	if prefix != "" {
		path = prefix + "/" + c.name
	}

	c.mu.Lock()
	counterNames := make([]string, 0, len(c.counters))
	for name := range c.counters {
		counterNames = append(counterNames, name)
	}
	children := make([]*Collection, 0, len(c.children))
	for _, child := range c.children {
		children = append(children, child)
	}
	values := make(map[string]int64, len(counterNames))
	for _, name := range counterNames {
		values[name] = c.counters[name].Load()
	}
	c.mu.Unlock()

	for _, name := range counterNames {
		*out = append(*out, CounterValue{Path: path + "/" + name, Value: values[name]})
	}
	for _, child := range children {
		child.collect(path, out)
	}
}
