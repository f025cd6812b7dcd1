// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/strata-db/strata/contract"
)

// openBackends returns each Store backend under test, keyed by name.
func openBackends(t *testing.T) map[string]Store {
	t.Helper()

	sqliteStore, err := OpenSQLite(SQLiteOptions{
		Path:       filepath.Join(t.TempDir(), "table.db"),
		Durability: DurabilityOff,
	})
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqliteStore,
	}
}

func TestStoreGetPutDelete(t *testing.T) {
	ctx := context.Background()
	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := backend.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
			}

			if err := backend.Put(ctx, "k", []byte("v1")); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := backend.Put(ctx, "k", []byte("v2")); err != nil {
				t.Fatalf("Put overwrite: %v", err)
			}

			value, err := backend.Get(ctx, "k")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !bytes.Equal(value, []byte("v2")) {
				t.Errorf("Get = %q, want v2", value)
			}

			if err := backend.Delete(ctx, "k"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := backend.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after delete = %v, want ErrNotFound", err)
			}
			if err := backend.Delete(ctx, "k"); err != nil {
				t.Errorf("Delete of absent key: %v", err)
			}
		})
	}
}

func TestStoreEraseRange(t *testing.T) {
	ctx := context.Background()
	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"apple", "fig", "mango", "zebra"} {
				if err := backend.Put(ctx, key, []byte("x")); err != nil {
					t.Fatalf("Put %s: %v", key, err)
				}
			}

			if err := backend.EraseRange(ctx, contract.Range("a", "m")); err != nil {
				t.Fatalf("EraseRange: %v", err)
			}

			for key, want := range map[string]bool{
				"apple": false, "fig": false, "mango": true, "zebra": true,
			} {
				_, err := backend.Get(ctx, key)
				if want && err != nil {
					t.Errorf("key %s erased but should survive", key)
				}
				if !want && !errors.Is(err, ErrNotFound) {
					t.Errorf("key %s survived erase", key)
				}
			}
		})
	}
}

func TestStoreScanRangeOrdered(t *testing.T) {
	ctx := context.Background()
	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"delta", "alpha", "mike", "charlie"} {
				if err := backend.Put(ctx, key, []byte(key)); err != nil {
					t.Fatalf("Put: %v", err)
				}
			}

			var keys []string
			err := backend.ScanRange(ctx, contract.Range("a", "m"), func(entry Entry) error {
				keys = append(keys, entry.Key)
				return nil
			})
			if err != nil {
				t.Fatalf("ScanRange: %v", err)
			}

			want := []string{"alpha", "charlie", "delta"}
			if len(keys) != len(want) {
				t.Fatalf("scanned %v, want %v", keys, want)
			}
			for i := range want {
				if keys[i] != want[i] {
					t.Errorf("keys[%d] = %s, want %s", i, keys[i], want[i])
				}
			}
		})
	}
}

func TestScanRangeStopsOnError(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory()
	for _, key := range []string{"a", "b", "c"} {
		backend.Put(ctx, key, []byte("x"))
	}

	stop := errors.New("enough")
	seen := 0
	err := backend.ScanRange(ctx, contract.FullRange(), func(Entry) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("err = %v, want sentinel", err)
	}
	if seen != 2 {
		t.Errorf("visited %d entries after error, want 2", seen)
	}
}

func TestSubviewEnforcesRegion(t *testing.T) {
	ctx := context.Background()
	parent := NewMemory()
	subview := NewSubview(parent, contract.Range("a", "m"))

	if err := subview.Put(ctx, "fig", []byte("x")); err != nil {
		t.Fatalf("in-range Put: %v", err)
	}
	if err := subview.Put(ctx, "zebra", []byte("x")); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("out-of-range Put = %v, want ErrOutOfRange", err)
	}
	if _, err := subview.Get(ctx, "zebra"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("out-of-range Get = %v, want ErrOutOfRange", err)
	}
	if err := subview.Delete(ctx, "zebra"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("out-of-range Delete = %v, want ErrOutOfRange", err)
	}
}

func TestSubviewClipsRangeOperations(t *testing.T) {
	ctx := context.Background()
	parent := NewMemory()
	parent.Put(ctx, "apple", []byte("x"))
	parent.Put(ctx, "fig", []byte("x"))
	parent.Put(ctx, "zebra", []byte("x"))

	subview := NewSubview(parent, contract.Range("a", "m"))

	// A full-range erase through the subview touches only [a,m).
	if err := subview.EraseRange(ctx, contract.FullRange()); err != nil {
		t.Fatalf("EraseRange: %v", err)
	}
	if _, err := parent.Get(ctx, "zebra"); err != nil {
		t.Error("erase through subview leaked outside its region")
	}
	if _, err := parent.Get(ctx, "fig"); !errors.Is(err, ErrNotFound) {
		t.Error("erase through subview missed an in-region key")
	}

	parent.Put(ctx, "fig", []byte("x"))
	var keys []string
	subview.ScanRange(ctx, contract.FullRange(), func(entry Entry) error {
		keys = append(keys, entry.Key)
		return nil
	})
	if len(keys) != 1 || keys[0] != "fig" {
		t.Errorf("subview scan = %v, want [fig]", keys)
	}

	// Closing the subview must not close the parent.
	if err := subview.Close(); err != nil {
		t.Fatalf("subview Close: %v", err)
	}
	if _, err := parent.Get(ctx, "zebra"); err != nil {
		t.Error("parent unusable after subview Close")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := NewMemory()
	for _, key := range []string{"alpha", "fig", "lemon", "zebra"} {
		source.Put(ctx, key, []byte("value-"+key))
	}

	var stream bytes.Buffer
	if err := WriteSnapshot(ctx, &stream, source, contract.Range("a", "m")); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	target := NewMemory()
	imported, err := ReadSnapshot(ctx, &stream, target)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if imported != 3 {
		t.Errorf("imported %d records, want 3", imported)
	}

	for _, key := range []string{"alpha", "fig", "lemon"} {
		value, err := target.Get(ctx, key)
		if err != nil {
			t.Fatalf("target missing %s: %v", key, err)
		}
		if string(value) != "value-"+key {
			t.Errorf("target[%s] = %q", key, value)
		}
	}
	if _, err := target.Get(ctx, "zebra"); !errors.Is(err, ErrNotFound) {
		t.Error("snapshot included a key outside the requested range")
	}
}

func TestSnapshotEmptyRange(t *testing.T) {
	ctx := context.Background()
	var stream bytes.Buffer
	if err := WriteSnapshot(ctx, &stream, NewMemory(), contract.FullRange()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	imported, err := ReadSnapshot(ctx, &stream, NewMemory())
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if imported != 0 {
		t.Errorf("imported %d from empty snapshot", imported)
	}
}
