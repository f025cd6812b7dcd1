// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package exec

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/strata-db/strata/contract"
	"github.com/strata-db/strata/lib/ident"
	"github.com/strata-db/strata/lib/perf"
	"github.com/strata-db/strata/lib/store"
)

// eraseRetryDelay is how long an erase execution waits before
// retrying a failed range erase.
const eraseRetryDelay = time.Second

// EraseConfig configures an erase execution.
type EraseConfig struct {
	Region     contract.KeyRange
	ContractID ident.ContractID
	Subview    *store.Subview
	Perf       *perf.Collection
	SendAck    AckFunc
}

// Erase deletes this server's leftover data for a region it no longer
// serves, then acks erased and idles until destroyed.
type Erase struct {
	execCtx Context
	region  contract.KeyRange
	subview *store.Subview
	perf    *perf.Collection
	sendAck AckFunc

	mu    sync.Mutex
	cid   ident.ContractID
	state contract.AckState

	cancel context.CancelFunc
	done   chan struct{}
}

// NewErase starts an erase execution. Construction never blocks.
func NewErase(execCtx Context, cfg EraseConfig) *Erase {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Erase{
		execCtx: execCtx,
		region:  cfg.Region,
		subview: cfg.Subview,
		perf:    cfg.Perf,
		sendAck: cfg.SendAck,
		cid:     cfg.ContractID,
		state:   contract.AckNothing,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go e.run(ctx)
	return e
}

func (e *Erase) run(ctx context.Context) {
	defer close(e.done)

	for {
		err := e.subview.EraseRange(ctx, contract.FullRange())
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return
		}
		e.execCtx.Logger.Warn("erase failed, retrying",
			"region", e.region.String(),
			"error", err,
		)
		select {
		case <-e.execCtx.Clock.After(eraseRetryDelay):
		case <-ctx.Done():
			return
		}
	}

	e.perf.Counter("regions_erased").Add(1)
	e.transition(contract.AckErased)
	e.execCtx.Logger.Info("region erased", "region", e.region.String())

	<-ctx.Done()
}

// transition records the new state and acks it under the current
// contract identifier.
func (e *Erase) transition(state contract.AckState) {
	e.mu.Lock()
	e.state = state
	cid := e.cid
	e.mu.Unlock()

	e.perf.Counter("acks_sent").Add(1)
	e.sendAck(cid, contract.Ack{State: state})
}

// UpdateContract implements Execution.
func (e *Erase) UpdateContract(cid ident.ContractID, rc contract.RegionContract) {
	e.mu.Lock()
	e.cid = cid
	state := e.state
	e.mu.Unlock()

	if state == contract.AckNothing {
		return
	}
	e.perf.Counter("acks_sent").Add(1)
	e.sendAck(cid, contract.Ack{State: state})
}

// Status implements Execution.
func (e *Erase) Status() contract.ShardStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return contract.ShardStatus{Role: contract.RoleErase, State: string(e.state)}
}

// Stop implements Execution.
func (e *Erase) Stop(ctx context.Context) error {
	e.cancel()
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stopping erase for %v: %w", e.region, ctx.Err())
	}
}

var _ Execution = (*Erase)(nil)
