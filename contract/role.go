// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package contract

import "fmt"

// Role is what a server does for one region: accept writes, replicate
// them, or erase leftover data. Role changes never mutate a running
// execution; the executor deletes the old execution and creates a new
// one.
type Role int

const (
	// RolePrimary accepts writes and serves queries for the region.
	RolePrimary Role = iota
	// RoleSecondary replicates the region from its primary.
	RoleSecondary
	// RoleErase deletes local data for a region this server no longer
	// serves.
	RoleErase
)

// String returns the role name used in perf collection names and
// status output. Panics on an unknown role: an execution with an
// unrecognized role would risk dual ownership of keyspace, so the
// process aborts rather than continue.
func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleSecondary:
		return "secondary"
	case RoleErase:
		return "erase"
	default:
		panic(fmt.Sprintf("contract: unknown role %d", int(r)))
	}
}

// ShardStatus describes what this server currently executes over one
// sub-range of the keyspace.
type ShardStatus struct {
	// Role is the execution's role.
	Role Role
	// State is the execution's current progress, using the same
	// vocabulary as AckState.
	State string
}
