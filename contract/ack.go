// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package contract

import (
	"github.com/strata-db/strata/lib/ident"
)

// AckState is a server's reported progress executing one contract. The
// coordinator aggregates these to decide when a contract is satisfied
// and what the next contract should be.
type AckState string

const (
	// AckPrimaryNeedBranch: this server is the region's primary but no
	// branch exists yet; the ack's Branch field carries a freshly
	// minted branch the coordinator should register.
	AckPrimaryNeedBranch AckState = "primary_need_branch"

	// AckPrimaryInProgress: the primary is establishing itself on the
	// current branch.
	AckPrimaryInProgress AckState = "primary_in_progress"

	// AckPrimaryReady: the primary is serving writes.
	AckPrimaryReady AckState = "primary_ready"

	// AckSecondaryNeedPrimary: the secondary is waiting to discover
	// its primary's execution broadcast card.
	AckSecondaryNeedPrimary AckState = "secondary_need_primary"

	// AckSecondaryBackfilling: the secondary is copying data from the
	// primary.
	AckSecondaryBackfilling AckState = "secondary_backfilling"

	// AckSecondaryStreaming: the secondary is replicating the
	// primary's write stream.
	AckSecondaryStreaming AckState = "secondary_streaming"

	// AckErased: the region's local data has been deleted.
	AckErased AckState = "erased"

	// AckNothing: this server holds nothing for the region.
	AckNothing AckState = "nothing"
)

// Ack is one server's progress report for one contract. Published into
// the executor's ack map keyed by (server, contract ID); transmitted
// to the coordinator by the external transport layer.
type Ack struct {
	State AckState `cbor:"state"`

	// Branch is set only with AckPrimaryNeedBranch: the branch the
	// primary proposes for the region.
	Branch ident.BranchID `cbor:"branch,omitempty"`
}

// AckKey keys the executor's ack map.
type AckKey struct {
	Server   ident.ServerID
	Contract ident.ContractID
}
