// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"github.com/strata-db/strata/contract"
	"github.com/strata-db/strata/lib/ident"
)

// sendAck republishes one execution's ack into the externally visible
// map. Two liveness gates, both checked under the registry lock: the
// record pointer (an execution being torn down, or one already
// replaced under the same key, may still flush a late ack from its
// goroutines, and that ack must not clobber the successor's entry) and
// the contract identifier (an execution goroutine can read its
// identifier just before an in-place contract update lands, then
// publish after the pass has withdrawn the superseded entry; nothing
// would ever withdraw it again).
func (e *Executor) sendAck(key executionKey, record *execRecord, cid ident.ContractID, ack contract.Ack) {
	e.mu.Lock()
	live := e.executions[key] == record && record.contractID == cid
	e.mu.Unlock()
	if !live {
		return
	}
	e.acks.Set(contract.AckKey{Server: e.server, Contract: cid}, ack)
}

// publishBcards republishes a primary execution's broadcast cards,
// gated on record liveness like sendAck.
func (e *Executor) publishBcards(key executionKey, record *execRecord, execution contract.ExecutionBcard, query contract.QueryBcard) {
	e.mu.Lock()
	live := e.executions[key] == record
	e.mu.Unlock()
	if !live {
		return
	}
	e.execBcards.Set(contract.ExecutionBcardKey{
		Server: execution.Server,
		Branch: execution.Branch,
	}, execution)
	e.queryBcards.Set(record.execID, query)
}
