// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/strata-db/strata/contract"
	"github.com/strata-db/strata/lib/codec"
	"github.com/strata-db/strata/lib/ident"
	"github.com/strata-db/strata/lib/perf"
	"github.com/strata-db/strata/lib/store"
)

// PrimaryConfig configures a primary execution.
type PrimaryConfig struct {
	Region      contract.KeyRange
	Branch      ident.BranchID
	ContractID  ident.ContractID
	Subview     *store.Subview
	ExecutionID ident.ExecutionID
	Perf        *perf.Collection
	SendAck     AckFunc
	Bcards      BcardFunc
}

// Primary serves one region as its write primary. With no branch
// assigned yet it proposes one and waits for the coordinator to
// register it (which changes the execution key and replaces this
// execution). With a branch it registers backfill and workload
// mailboxes, publishes its broadcast cards, and acks ready.
type Primary struct {
	execCtx Context
	region  contract.KeyRange
	branch  ident.BranchID
	subview *store.Subview
	execID  ident.ExecutionID
	perf    *perf.Collection
	sendAck AckFunc
	bcards  BcardFunc

	mu             sync.Mutex
	cid            ident.ContractID
	state          contract.AckState
	proposedBranch ident.BranchID

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPrimary starts a primary execution. Construction never blocks;
// the execution's work happens on its own goroutine.
func NewPrimary(execCtx Context, cfg PrimaryConfig) *Primary {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Primary{
		execCtx: execCtx,
		region:  cfg.Region,
		branch:  cfg.Branch,
		subview: cfg.Subview,
		execID:  cfg.ExecutionID,
		perf:    cfg.Perf,
		sendAck: cfg.SendAck,
		bcards:  cfg.Bcards,
		cid:     cfg.ContractID,
		state:   contract.AckNothing,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go p.run(ctx)
	return p
}

func (p *Primary) run(ctx context.Context) {
	defer close(p.done)

	if p.branch.IsZero() {
		// No branch exists for this region yet. Propose a fresh one;
		// once the coordinator registers it, the branch lookup
		// changes this region's execution key and the executor
		// replaces this execution with one that has the branch.
		p.mu.Lock()
		p.proposedBranch = ident.NewBranchID()
		p.mu.Unlock()

		p.transition(contract.AckPrimaryNeedBranch)
		p.execCtx.Logger.Info("primary proposing branch",
			"region", p.region.String(),
			"branch", p.proposedBranch.String(),
		)
		<-ctx.Done()
		return
	}

	backfillAddress, deregisterBackfill := p.execCtx.Mailman.Register(p.handleBackfill)
	defer deregisterBackfill()
	workloadAddress, deregisterWorkload := p.execCtx.Mailman.Register(p.handleQuery)
	defer deregisterWorkload()

	p.transition(contract.AckPrimaryInProgress)

	p.bcards(
		contract.ExecutionBcard{
			Server:   p.execCtx.Server,
			Branch:   p.branch,
			Region:   p.region,
			Backfill: backfillAddress,
		},
		contract.QueryBcard{
			Region:   p.region,
			Workload: workloadAddress,
		},
	)

	p.transition(contract.AckPrimaryReady)
	p.execCtx.Logger.Info("primary ready",
		"region", p.region.String(),
		"branch", p.branch.String(),
	)

	<-ctx.Done()
}

// transition records the new state and acks it under the current
// contract identifier.
func (p *Primary) transition(state contract.AckState) {
	p.mu.Lock()
	p.state = state
	cid := p.cid
	ack := p.buildAckLocked()
	p.mu.Unlock()

	p.perf.Counter("acks_sent").Add(1)
	p.sendAck(cid, ack)
}

// buildAckLocked builds the ack for the current state. Caller holds
// p.mu.
func (p *Primary) buildAckLocked() contract.Ack {
	ack := contract.Ack{State: p.state}
	if p.state == contract.AckPrimaryNeedBranch {
		ack.Branch = p.proposedBranch
	}
	return ack
}

// UpdateContract implements Execution. The new identifier replaces
// the old one and the current progress is re-acked under it.
func (p *Primary) UpdateContract(cid ident.ContractID, rc contract.RegionContract) {
	p.mu.Lock()
	p.cid = cid
	state := p.state
	ack := p.buildAckLocked()
	p.mu.Unlock()

	if state == contract.AckNothing {
		return
	}
	p.perf.Counter("acks_sent").Add(1)
	p.sendAck(cid, ack)
}

// Status implements Execution.
func (p *Primary) Status() contract.ShardStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return contract.ShardStatus{Role: contract.RolePrimary, State: string(p.state)}
}

// Stop implements Execution.
func (p *Primary) Stop(ctx context.Context) error {
	p.cancel()
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stopping primary for %v: %w", p.region, ctx.Err())
	}
}

// handleBackfill serves a snapshot of the requested range from the
// primary's subview.
func (p *Primary) handleBackfill(ctx context.Context, request []byte) ([]byte, error) {
	var req backfillRequest
	if err := codec.Unmarshal(request, &req); err != nil {
		return nil, fmt.Errorf("decoding backfill request: %w", err)
	}

	var stream bytes.Buffer
	if err := store.WriteSnapshot(ctx, &stream, p.subview, req.Region); err != nil {
		return nil, fmt.Errorf("building backfill snapshot for %v: %w", req.Region, err)
	}

	p.perf.Counter("backfills_served").Add(1)
	return codec.Marshal(backfillResponse{Data: stream.Bytes()})
}

// handleQuery serves single-key reads from the subview.
func (p *Primary) handleQuery(ctx context.Context, request []byte) ([]byte, error) {
	var req queryRequest
	if err := codec.Unmarshal(request, &req); err != nil {
		return nil, fmt.Errorf("decoding query request: %w", err)
	}

	value, err := p.subview.Get(ctx, req.Key)
	if errors.Is(err, store.ErrNotFound) {
		return codec.Marshal(queryResponse{Found: false})
	}
	if err != nil {
		return nil, err
	}

	p.perf.Counter("queries_served").Add(1)
	return codec.Marshal(queryResponse{Value: value, Found: true})
}

var _ Execution = (*Primary)(nil)
