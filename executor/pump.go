// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"fmt"

	"github.com/strata-db/strata/contract"
)

// pump runs reconciliation passes until cancelled. Each pass runs the
// non-blocking diff first, then tears down the obsolete executions one
// at a time. Teardown blocks on execution shutdown, so a burst of
// agreed-state changes during a pass coalesces into exactly one queued
// follow-up pass.
func (e *Executor) pump(ctx context.Context) {
	defer close(e.pumpDone)

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.notify:
		}

		state := e.tableState.Get()
		if state == nil {
			continue
		}

		toDelete := e.update(state)
		for _, key := range toDelete {
			if err := e.destroyExecution(ctx, key); err != nil {
				if ctx.Err() != nil {
					return
				}
				e.logger.Warn("execution teardown failed",
					"key", key.String(),
					"error", err,
				)
			}
		}
	}
}

// destroyExecution removes the record under key from the registry,
// stops the execution, and withdraws everything it published. The
// registry entry goes first so late callbacks from the stopping
// execution fail the sink's liveness check. The published entries are
// withdrawn even when Stop fails: a destroyed execution never leaves a
// stale ack or broadcast card behind.
func (e *Executor) destroyExecution(ctx context.Context, key executionKey) error {
	e.mu.Lock()
	record, ok := e.executions[key]
	if !ok {
		e.mu.Unlock()
		return nil
	}
	delete(e.executions, key)
	cid := record.contractID
	e.mu.Unlock()

	err := record.execution.Stop(ctx)

	// A key change (branch registered, role moved) can replace an
	// execution while the governing contract survives: the successor
	// was created before this teardown and has already acked under the
	// same contract identifier. Withdraw the published entries only
	// when no live record still owns them.
	e.mu.Lock()
	cidLive := false
	branchLive := false
	for liveKey, live := range e.executions {
		if live.contractID == cid {
			cidLive = true
		}
		if liveKey.role == contract.RolePrimary && liveKey.branch == key.branch {
			branchLive = true
		}
	}
	e.mu.Unlock()

	if !cidLive {
		e.acks.Delete(contract.AckKey{Server: e.server, Contract: cid})
	}
	if !branchLive {
		e.execBcards.Delete(contract.ExecutionBcardKey{Server: e.server, Branch: key.branch})
	}
	e.queryBcards.Delete(record.execID)
	e.perf.RemoveChild(record.perfName)

	e.logger.Info("execution destroyed",
		"key", key.String(),
		"contract", cid.Short(),
	)
	if err != nil {
		return fmt.Errorf("destroying execution %s: %w", key, err)
	}
	return nil
}
