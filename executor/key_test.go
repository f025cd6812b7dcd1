// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"testing"

	"github.com/strata-db/strata/contract"
	"github.com/strata-db/strata/lib/ident"
)

func TestDeriveKeyPrimary(t *testing.T) {
	server := ident.NewServerID()
	branch := ident.NewBranchID()
	region := contract.Range("a", "m")

	rc := contract.RegionContract{
		Region:   region,
		Contract: contract.Contract{Primary: server},
	}
	state := &contract.TableState{
		CurrentBranches: []contract.BranchAssignment{{Region: region, Branch: branch}},
	}

	key := deriveKey(server, rc, state)
	if key.role != contract.RolePrimary {
		t.Fatalf("role = %v, want primary", key.role)
	}
	if key.primary != server {
		t.Fatalf("primary = %v, want %v", key.primary, server)
	}
	if key.branch != branch {
		t.Fatalf("branch = %v, want %v", key.branch, branch)
	}
	if key.region != region {
		t.Fatalf("region = %v, want %v", key.region, region)
	}
}

func TestDeriveKeySecondary(t *testing.T) {
	server := ident.NewServerID()
	primary := ident.NewServerID()
	branch := ident.NewBranchID()
	region := contract.Range("a", "m")

	rc := contract.RegionContract{
		Region: region,
		Contract: contract.Contract{
			Primary:     primary,
			Secondaries: []ident.ServerID{server},
		},
	}
	state := &contract.TableState{
		CurrentBranches: []contract.BranchAssignment{{Region: region, Branch: branch}},
	}

	key := deriveKey(server, rc, state)
	if key.role != contract.RoleSecondary {
		t.Fatalf("role = %v, want secondary", key.role)
	}
	if key.primary != primary {
		t.Fatalf("primary = %v, want the upstream primary %v", key.primary, primary)
	}
	if key.branch != branch {
		t.Fatalf("branch = %v, want %v", key.branch, branch)
	}
}

func TestDeriveKeyErase(t *testing.T) {
	server := ident.NewServerID()
	other := ident.NewServerID()
	region := contract.Range("m", "")

	rc := contract.RegionContract{
		Region:   region,
		Contract: contract.Contract{Primary: other, Erase: true},
	}
	state := &contract.TableState{
		CurrentBranches: []contract.BranchAssignment{{Region: region, Branch: ident.NewBranchID()}},
	}

	key := deriveKey(server, rc, state)
	if key.role != contract.RoleErase {
		t.Fatalf("role = %v, want erase", key.role)
	}
	// An erase execution has no upstream primary and no branch, even
	// when the region has both.
	if !key.primary.IsZero() {
		t.Fatalf("primary = %v, want zero", key.primary)
	}
	if !key.branch.IsZero() {
		t.Fatalf("branch = %v, want zero", key.branch)
	}
}

func TestDeriveKeyWithoutBranch(t *testing.T) {
	server := ident.NewServerID()
	region := contract.Range("a", "m")

	rc := contract.RegionContract{
		Region:   region,
		Contract: contract.Contract{Primary: server},
	}
	state := &contract.TableState{}

	key := deriveKey(server, rc, state)
	if !key.branch.IsZero() {
		t.Fatalf("branch = %v, want zero for a region with no current branch", key.branch)
	}

	// Registering the branch afterwards changes the key: the running
	// execution must be replaced.
	branch := ident.NewBranchID()
	state.CurrentBranches = []contract.BranchAssignment{{Region: region, Branch: branch}}
	after := deriveKey(server, rc, state)
	if key == after {
		t.Fatal("key unchanged after branch registration")
	}
}

func TestKeyCompareOrdersByRegionThenRole(t *testing.T) {
	server := ident.NewServerID()
	a := executionKey{region: contract.Range("a", "m"), role: contract.RoleSecondary, primary: server}
	b := executionKey{region: contract.Range("m", ""), role: contract.RolePrimary, primary: server}
	if a.compare(b) >= 0 {
		t.Fatalf("compare(%v, %v) = %d, want < 0", a, b, a.compare(b))
	}

	c := executionKey{region: contract.Range("a", "m"), role: contract.RolePrimary, primary: server}
	if c.compare(a) >= 0 {
		t.Fatalf("primary should order before secondary within a region")
	}
	if c.compare(c) != 0 {
		t.Fatalf("compare with self = %d, want 0", c.compare(c))
	}
}
