// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"fmt"
	"sort"

	"github.com/strata-db/strata/contract"
	"github.com/strata-db/strata/exec"
	"github.com/strata-db/strata/lib/ident"
	"github.com/strata-db/strata/lib/store"
)

// targetEntry is one execution the latest agreed state wants.
type targetEntry struct {
	cid ident.ContractID
	rc  contract.RegionContract
}

// update diffs the agreed state against the registry. It creates
// missing executions and updates the contract identifier of
// unchanged-key executions in place; it never destroys anything
// itself. Destruction may block, so obsolete keys are returned for
// the pump to tear down outside the registry lock.
//
// Idempotent: reconciling the same snapshot twice produces no
// creations and no deletions.
func (e *Executor) update(state *contract.TableState) []executionKey {
	target := make(map[executionKey]targetEntry, len(state.Contracts))
	for cid, rc := range state.Contracts {
		target[deriveKey(e.server, rc, state)] = targetEntry{cid: cid, rc: rc}
	}

	// Contract updates are delivered to the executions after the
	// registry lock is released: executions ack synchronously from
	// UpdateContract, and the ack sink takes the same lock.
	type pendingUpdate struct {
		execution exec.Execution
		entry     targetEntry
	}
	var updates []pendingUpdate
	var toDelete []executionKey

	e.mu.Lock()

	for key, record := range e.executions {
		entry, wanted := target[key]
		if !wanted {
			toDelete = append(toDelete, key)
			continue
		}
		delete(target, key)
		if record.contractID == entry.cid {
			continue
		}
		// Same work, new contract. The ack under the superseded
		// identifier is withdrawn; the execution re-acks under the
		// new one as it catches up.
		e.acks.Delete(contract.AckKey{Server: e.server, Contract: record.contractID})
		record.contractID = entry.cid
		updates = append(updates, pendingUpdate{execution: record.execution, entry: entry})
	}

	// Whatever remains in target has no execution yet.
	creations := make([]executionKey, 0, len(target))
	for key := range target {
		creations = append(creations, key)
	}
	sort.Slice(creations, func(i, j int) bool { return creations[i].compare(creations[j]) < 0 })
	for _, key := range creations {
		e.createExecutionLocked(key, target[key])
	}

	e.mu.Unlock()

	for _, pending := range updates {
		pending.execution.UpdateContract(pending.entry.cid, pending.entry.rc)
	}

	sort.Slice(toDelete, func(i, j int) bool { return toDelete[i].compare(toDelete[j]) < 0 })
	return toDelete
}

// createExecutionLocked allocates a fresh execution record under key:
// a subview restricted to the region, a perf child named with the
// engine's monotonic counter, and the role-appropriate execution.
// Registration is synchronous and non-blocking; the execution's own
// work starts on its goroutines. Caller holds e.mu.
func (e *Executor) createExecutionLocked(key executionKey, entry targetEntry) {
	e.perfCounter++
	perfName := fmt.Sprintf("%s-%d", key.role, e.perfCounter)

	record := &execRecord{
		contractID: entry.cid,
		subview:    store.NewSubview(e.storeParent, key.region),
		execID:     ident.NewExecutionID(),
		perfName:   perfName,
	}

	// The record enters the registry before the execution is
	// constructed: the execution's goroutines may ack immediately,
	// and the sink only publishes for registered records.
	e.executions[key] = record

	perfChild := e.perf.Child(perfName)
	sendAck := func(cid ident.ContractID, ack contract.Ack) {
		e.sendAck(key, record, cid, ack)
	}

	switch key.role {
	case contract.RolePrimary:
		record.execution = exec.NewPrimary(e.execCtx, exec.PrimaryConfig{
			Region:      key.region,
			Branch:      key.branch,
			ContractID:  entry.cid,
			Subview:     record.subview,
			ExecutionID: record.execID,
			Perf:        perfChild,
			SendAck:     sendAck,
			Bcards: func(execution contract.ExecutionBcard, query contract.QueryBcard) {
				e.publishBcards(key, record, execution, query)
			},
		})
	case contract.RoleSecondary:
		record.execution = exec.NewSecondary(e.execCtx, exec.SecondaryConfig{
			Region:     key.region,
			Primary:    key.primary,
			Branch:     key.branch,
			ContractID: entry.cid,
			Subview:    record.subview,
			Perf:       perfChild,
			SendAck:    sendAck,
		})
	case contract.RoleErase:
		record.execution = exec.NewErase(e.execCtx, exec.EraseConfig{
			Region:     key.region,
			ContractID: entry.cid,
			Subview:    record.subview,
			Perf:       perfChild,
			SendAck:    sendAck,
		})
	default:
		// Continuing with an unrecognized role could leave two
		// executions owning overlapping keyspace.
		panic(fmt.Sprintf("executor: unknown role %d", int(key.role)))
	}

	e.logger.Info("execution created",
		"key", key.String(),
		"contract", entry.cid.Short(),
		"perf", perfName,
	)
}
