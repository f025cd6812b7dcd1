// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package contract

import (
	"github.com/strata-db/strata/lib/ident"
)

// RegionContract binds a contract to the key range it governs.
type RegionContract struct {
	Region   KeyRange `cbor:"region" yaml:"region"`
	Contract Contract `cbor:"contract" yaml:"contract"`
}

// BranchAssignment records which branch currently carries a region's
// write history.
type BranchAssignment struct {
	Region KeyRange       `cbor:"region" yaml:"region"`
	Branch ident.BranchID `cbor:"branch" yaml:"branch"`
}

// TableState is the agreed description of what every server should be
// doing for one table: the live contracts (keyed by contract ID, with
// regions expected to partition the keyspace per role) and the current
// branch for each region. Produced by the external consensus layer and
// published wholesale as an immutable snapshot; no part of the engine
// mutates a TableState after publication.
type TableState struct {
	Contracts       map[ident.ContractID]RegionContract `cbor:"contracts" yaml:"contracts"`
	CurrentBranches []BranchAssignment                  `cbor:"current_branches" yaml:"current_branches"`
}

// BranchForRegion returns the branch currently assigned to a region.
// An assignment matches when its range covers the whole region. A
// missing assignment is a valid transient state (a newly created
// region whose first primary has not registered a branch yet), not an
// error; the caller treats it as "no branch".
func (s *TableState) BranchForRegion(region KeyRange) (ident.BranchID, bool) {
	for _, assignment := range s.CurrentBranches {
		if covers(assignment.Region, region) {
			return assignment.Branch, true
		}
	}
	return ident.BranchID{}, false
}

// covers reports whether outer fully contains inner.
func covers(outer, inner KeyRange) bool {
	if inner.Left < outer.Left {
		return false
	}
	if outer.Right.Unbounded {
		return true
	}
	if inner.Right.Unbounded {
		return false
	}
	return inner.Right.Key <= outer.Right.Key
}
