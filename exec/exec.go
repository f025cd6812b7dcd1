// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package exec holds the role executions: the activities a server
// performs for one region under one contract. Primary serves writes
// and answers backfill requests, Secondary discovers its primary and
// replicates, Erase deletes leftover data.
//
// An execution's role is fixed at construction. When the agreed state
// changes a region's role, primary, or branch, the executor destroys
// the old execution and creates a new one; only the governing contract
// identifier is updated in place.
package exec

import (
	"context"
	"log/slog"

	"github.com/strata-db/strata/contract"
	"github.com/strata-db/strata/lib/clock"
	"github.com/strata-db/strata/lib/ident"
	"github.com/strata-db/strata/lib/mailbox"
	"github.com/strata-db/strata/lib/throttle"
	"github.com/strata-db/strata/lib/watch"
)

// Context bundles the collaborators every execution needs. Built once
// by the executor and shared by all executions of one table.
type Context struct {
	// Server is this server's identity.
	Server ident.ServerID

	// Mailman routes backfill and workload calls between executions.
	Mailman *mailbox.Manager

	// RemoteBcards is a read-only view of execution broadcast cards
	// published by other servers' primaries, used by secondaries to
	// locate their backfill source.
	RemoteBcards *watch.Map[contract.ExecutionBcardKey, contract.ExecutionBcard]

	// Throttle bounds concurrent secondary backfills.
	Throttle *throttle.Gate

	// Clock drives retry timing. Tests inject a fake.
	Clock clock.Clock

	// Logger receives execution lifecycle messages.
	Logger *slog.Logger
}

// AckFunc reports progress executing a contract. Supplied by the
// executor, which republishes into the externally visible ack map.
// Safe to call from any execution goroutine; must not block.
type AckFunc func(cid ident.ContractID, ack contract.Ack)

// BcardFunc publishes a primary's broadcast cards. Supplied by the
// executor; the executor withdraws the cards when the execution's
// record is destroyed.
type BcardFunc func(execution contract.ExecutionBcard, query contract.QueryBcard)

// Execution is the lifecycle contract shared by the three roles.
type Execution interface {
	// UpdateContract delivers a new contract identifier governing the
	// same execution key. Never blocks and never restarts the
	// execution's internal work; the execution re-acks its current
	// progress under the new identifier as it catches up.
	UpdateContract(cid ident.ContractID, rc contract.RegionContract)

	// Status reports the execution's current progress for the shard
	// status snapshot. Safe to call concurrently.
	Status() contract.ShardStatus

	// Stop tears the execution down: internal goroutines exit,
	// mailbox registrations are removed, in-flight work is abandoned.
	// Blocks until teardown completes or ctx is cancelled; on
	// cancellation teardown is abandoned abruptly but safely.
	Stop(ctx context.Context) error
}

// backfillRequest asks a primary for a snapshot of a key range.
type backfillRequest struct {
	Region contract.KeyRange `cbor:"region"`
}

// backfillResponse carries the snapshot stream bytes.
type backfillResponse struct {
	Data []byte `cbor:"data"`
}

// queryRequest is the minimal workload protocol served by a primary.
type queryRequest struct {
	Key string `cbor:"key"`
}

type queryResponse struct {
	Value []byte `cbor:"value"`
	Found bool   `cbor:"found"`
}
