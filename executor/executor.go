// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package executor is the per-server reconciliation engine of one
// replicated table. It watches the agreed table state produced by the
// external consensus layer and drives this server's running
// executions (serving as primary, replicating as secondary, erasing
// leftover data) to match: as contracts appear, change, and disappear
// from the agreed state, the executor creates, updates, and destroys
// executions. It also republishes the acks and broadcast cards the
// executions emit into externally readable maps; it performs no
// network I/O itself.
//
// Reconciliation is two-phase. The non-blocking phase diffs the
// latest agreed state against the execution registry, creating
// missing executions and updating contract identifiers in place; it
// only reports which executions became obsolete. The blocking phase,
// run by the executor's single pump goroutine outside the registry
// lock, then tears those executions down one at a time. A
// single-slot notification channel coalesces bursts of agreed-state
// changes into at most one queued pass, so the last published state
// is always eventually reconciled and passes never overlap.
package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/strata-db/strata/contract"
	"github.com/strata-db/strata/exec"
	"github.com/strata-db/strata/lib/clock"
	"github.com/strata-db/strata/lib/ident"
	"github.com/strata-db/strata/lib/mailbox"
	"github.com/strata-db/strata/lib/perf"
	"github.com/strata-db/strata/lib/store"
	"github.com/strata-db/strata/lib/throttle"
	"github.com/strata-db/strata/lib/watch"
)

// Options configures New. Server, TableState, and Store are required.
type Options struct {
	// Server is this server's identity.
	Server ident.ServerID

	// TableState is the live agreed table state. The executor
	// subscribes to it and reconciles on every published snapshot.
	TableState *watch.Value[*contract.TableState]

	// Store is the local storage for this table. Each execution gets
	// a subview restricted to its region.
	Store store.Store

	// Mailman routes backfill and workload calls. Nil creates a
	// private manager (single-process deployments and tests).
	Mailman *mailbox.Manager

	// RemoteBcards is the read-only view of other servers' execution
	// broadcast cards. Nil creates an empty map.
	RemoteBcards *watch.Map[contract.ExecutionBcardKey, contract.ExecutionBcard]

	// Throttle bounds concurrent secondary backfills. Nil creates a
	// gate of capacity 4.
	Throttle *throttle.Gate

	// Clock drives execution retry timing. Nil means the real clock.
	Clock clock.Clock

	// Logger receives reconciliation lifecycle messages. Nil
	// discards.
	Logger *slog.Logger

	// Perf is the collection executions hang their counters off.
	// Nil creates a private collection.
	Perf *perf.Collection
}

// Executor reconciles one table on one server. Create with New, tear
// down with Close. All exported read methods are safe to call
// concurrently with reconciliation.
type Executor struct {
	server      ident.ServerID
	tableState  *watch.Value[*contract.TableState]
	storeParent store.Store
	logger      *slog.Logger
	perf        *perf.Collection
	execCtx     exec.Context

	// mu guards executions and perfCounter, and orders sink
	// publications against registry mutation. Only the pump goroutine
	// mutates the registry; readers take the same lock briefly.
	mu          sync.Mutex
	executions  map[executionKey]*execRecord
	perfCounter int

	// Published views. The executor is the only writer; external
	// layers read them and transmit.
	acks        *watch.Map[contract.AckKey, contract.Ack]
	execBcards  *watch.Map[contract.ExecutionBcardKey, contract.ExecutionBcard]
	queryBcards *watch.Map[ident.ExecutionID, contract.QueryBcard]

	// notify is the single-slot coalescing queue between the
	// agreed-state subscription and the pump.
	notify chan struct{}

	unsubscribe func()
	cancelPump  context.CancelFunc
	pumpDone    chan struct{}
}

// execRecord is one live execution with its supporting objects. The
// contract identifier may change over the record's lifetime; the
// execution, subview, and identities never do.
type execRecord struct {
	contractID ident.ContractID
	subview    *store.Subview
	execution  exec.Execution
	execID     ident.ExecutionID
	perfName   string
}

// New builds the executor, subscribes to the agreed state, and starts
// the pump. The first reconciliation pass runs immediately against
// the current snapshot.
func New(opts Options) (*Executor, error) {
	if opts.Server.IsZero() {
		return nil, fmt.Errorf("executor: Server is required")
	}
	if opts.TableState == nil {
		return nil, fmt.Errorf("executor: TableState is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("executor: Store is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	mailman := opts.Mailman
	if mailman == nil {
		mailman = mailbox.NewManager(logger)
	}
	remoteBcards := opts.RemoteBcards
	if remoteBcards == nil {
		remoteBcards = watch.NewMap[contract.ExecutionBcardKey, contract.ExecutionBcard]()
	}
	gate := opts.Throttle
	if gate == nil {
		gate = throttle.NewGate(4)
	}
	perfRoot := opts.Perf
	if perfRoot == nil {
		perfRoot = perf.NewCollection("table")
	}

	e := &Executor{
		server:      opts.Server,
		tableState:  opts.TableState,
		storeParent: opts.Store,
		logger:      logger,
		perf:        perfRoot,
		execCtx: exec.Context{
			Server:       opts.Server,
			Mailman:      mailman,
			RemoteBcards: remoteBcards,
			Throttle:     gate,
			Clock:        clk,
			Logger:       logger,
		},
		executions:  make(map[executionKey]*execRecord),
		acks:        watch.NewMap[contract.AckKey, contract.Ack](),
		execBcards:  watch.NewMap[contract.ExecutionBcardKey, contract.ExecutionBcard](),
		queryBcards: watch.NewMap[ident.ExecutionID, contract.QueryBcard](),
		notify:      make(chan struct{}, 1),
		pumpDone:    make(chan struct{}),
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	e.cancelPump = cancel

	// Subscribe before the initial kick so no published snapshot can
	// fall between "read current" and "watch for changes".
	e.unsubscribe = opts.TableState.Subscribe(e.signal)
	e.signal()

	go e.pump(pumpCtx)
	return e, nil
}

// signal requests a reconciliation pass. Non-blocking: if a pass is
// already queued the signal coalesces into it.
func (e *Executor) signal() {
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// Acks is the externally visible progress map, keyed by (server,
// contract identifier). The transport layer forwards it to the
// coordinator.
func (e *Executor) Acks() *watch.Map[contract.AckKey, contract.Ack] {
	return e.acks
}

// ExecutionBcards holds the broadcast cards of this server's live
// primary executions, keyed by (server, branch). Other servers use
// them to attach replication streams.
func (e *Executor) ExecutionBcards() *watch.Map[contract.ExecutionBcardKey, contract.ExecutionBcard] {
	return e.execBcards
}

// QueryBcards holds the query routing cards of this server's live
// primary executions, keyed by execution ID.
func (e *Executor) QueryBcards() *watch.Map[ident.ExecutionID, contract.QueryBcard] {
	return e.queryBcards
}

// Close tears the engine down: the subscription is removed first so
// nothing signals the pump anymore, then the pump is cancelled and
// joined, then every remaining execution is destroyed. ctx bounds the
// blocking teardown of the remaining executions; on cancellation
// teardown is abandoned abruptly (executions support abrupt teardown)
// and the first error is returned.
func (e *Executor) Close(ctx context.Context) error {
	e.unsubscribe()
	e.cancelPump()
	<-e.pumpDone

	var firstErr error
	for _, key := range e.sortedKeys() {
		if err := e.destroyExecution(ctx, key); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// sortedKeys returns the live execution keys in key order.
func (e *Executor) sortedKeys() []executionKey {
	e.mu.Lock()
	defer e.mu.Unlock()
	keys := make([]executionKey, 0, len(e.executions))
	for key := range e.executions {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].compare(keys[j]) < 0 })
	return keys
}
