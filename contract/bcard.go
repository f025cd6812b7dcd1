// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package contract

import (
	"github.com/strata-db/strata/lib/ident"
	"github.com/strata-db/strata/lib/mailbox"
)

// ExecutionBcard is published by a live primary execution so that
// secondaries on other servers can locate it: which branch it serves,
// over which region, and the mailbox address answering backfill
// requests. Keyed in the broadcast map by (server, branch); removed
// when the owning execution is destroyed.
type ExecutionBcard struct {
	Server   ident.ServerID  `cbor:"server"`
	Branch   ident.BranchID  `cbor:"branch"`
	Region   KeyRange        `cbor:"region"`
	Backfill mailbox.Address `cbor:"backfill"`
}

// ExecutionBcardKey keys the execution broadcast card map.
type ExecutionBcardKey struct {
	Server ident.ServerID
	Branch ident.BranchID
}

// QueryBcard is published by a live primary execution so that query
// routers can reach it. Keyed by the execution's unique ID.
type QueryBcard struct {
	Region   KeyRange        `cbor:"region"`
	Workload mailbox.Address `cbor:"workload"`
}
