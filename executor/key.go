// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"fmt"
	"strings"

	"github.com/strata-db/strata/contract"
	"github.com/strata-db/strata/lib/ident"
)

// executionKey is the identity of one execution: it answers "is this
// the same work, just under a new contract, or different work that
// needs a fresh execution?". Two contracts map to the same execution
// iff this server's role, the governed region, the upstream primary,
// and the branch are all unchanged. The contract identifier is
// deliberately not part of the key: contract changes that keep all
// four fields update the running execution in place.
//
// Comparable (usable as a map key) and totally ordered for
// deterministic iteration.
type executionKey struct {
	region  contract.KeyRange
	role    contract.Role
	primary ident.ServerID
	branch  ident.BranchID
}

// deriveKey computes the execution key for one (region, contract)
// pair of the agreed state. A region without a current branch yields
// the zero branch: a valid, distinct key value, not an error.
func deriveKey(server ident.ServerID, rc contract.RegionContract, state *contract.TableState) executionKey {
	branch, _ := state.BranchForRegion(rc.Region)

	switch {
	case rc.Contract.IsPrimary(server):
		return executionKey{
			region:  rc.Region,
			role:    contract.RolePrimary,
			primary: server,
			branch:  branch,
		}
	case rc.Contract.IsSecondary(server):
		return executionKey{
			region:  rc.Region,
			role:    contract.RoleSecondary,
			primary: rc.Contract.Primary,
			branch:  branch,
		}
	default:
		return executionKey{
			region: rc.Region,
			role:   contract.RoleErase,
		}
	}
}

// compare orders keys lexicographically on (region, role, primary,
// branch).
func (k executionKey) compare(other executionKey) int {
	if c := k.region.Compare(other.region); c != 0 {
		return c
	}
	if k.role != other.role {
		if k.role < other.role {
			return -1
		}
		return 1
	}
	if c := strings.Compare(k.primary.String(), other.primary.String()); c != 0 {
		return c
	}
	return strings.Compare(k.branch.String(), other.branch.String())
}

func (k executionKey) String() string {
	return fmt.Sprintf("%s %s", k.role, k.region)
}
