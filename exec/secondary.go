// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package exec

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/strata-db/strata/contract"
	"github.com/strata-db/strata/lib/ident"
	"github.com/strata-db/strata/lib/perf"
	"github.com/strata-db/strata/lib/store"
)

// backfillRetryDelay is how long a secondary waits before retrying a
// failed backfill call. The primary may have been torn down between
// bcard discovery and the call.
const backfillRetryDelay = time.Second

// SecondaryConfig configures a secondary execution.
type SecondaryConfig struct {
	Region     contract.KeyRange
	Primary    ident.ServerID
	Branch     ident.BranchID
	ContractID ident.ContractID
	Subview    *store.Subview
	Perf       *perf.Collection
	SendAck    AckFunc
}

// Secondary replicates one region from its primary: it discovers the
// primary's execution broadcast card, pulls a snapshot through the
// backfill mailbox under the backfill throttle, imports it into its
// subview, and then acks streaming.
type Secondary struct {
	execCtx Context
	region  contract.KeyRange
	primary ident.ServerID
	branch  ident.BranchID
	subview *store.Subview
	perf    *perf.Collection
	sendAck AckFunc

	mu    sync.Mutex
	cid   ident.ContractID
	state contract.AckState

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSecondary starts a secondary execution. Construction never
// blocks.
func NewSecondary(execCtx Context, cfg SecondaryConfig) *Secondary {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Secondary{
		execCtx: execCtx,
		region:  cfg.Region,
		primary: cfg.Primary,
		branch:  cfg.Branch,
		subview: cfg.Subview,
		perf:    cfg.Perf,
		sendAck: cfg.SendAck,
		cid:     cfg.ContractID,
		state:   contract.AckNothing,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *Secondary) run(ctx context.Context) {
	defer close(s.done)

	s.transition(contract.AckSecondaryNeedPrimary)

	for {
		bcard, ok := s.awaitPrimary(ctx)
		if !ok {
			return
		}

		if err := s.backfill(ctx, bcard); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.execCtx.Logger.Warn("backfill failed, retrying",
				"region", s.region.String(),
				"primary", s.primary.String(),
				"error", err,
			)
			select {
			case <-s.execCtx.Clock.After(backfillRetryDelay):
				continue
			case <-ctx.Done():
				return
			}
		}

		s.transition(contract.AckSecondaryStreaming)
		s.execCtx.Logger.Info("secondary streaming",
			"region", s.region.String(),
			"primary", s.primary.String(),
		)
		<-ctx.Done()
		return
	}
}

// awaitPrimary blocks until the primary's execution bcard for this
// branch appears in the remote bcard map, or ctx is done. With a zero
// branch no bcard can ever match; the secondary then stays in
// need-primary until the agreed state assigns a branch, which changes
// the execution key and replaces this execution.
func (s *Secondary) awaitPrimary(ctx context.Context) (contract.ExecutionBcard, bool) {
	key := contract.ExecutionBcardKey{Server: s.primary, Branch: s.branch}
	found := make(chan contract.ExecutionBcard, 1)

	cancelSub := s.execCtx.RemoteBcards.Subscribe(func(k contract.ExecutionBcardKey, v contract.ExecutionBcard, present bool) {
		if present && k == key {
			select {
			case found <- v:
			default:
			}
		}
	})
	defer cancelSub()

	if bcard, ok := s.execCtx.RemoteBcards.Get(key); ok {
		return bcard, true
	}

	select {
	case bcard := <-found:
		return bcard, true
	case <-ctx.Done():
		return contract.ExecutionBcard{}, false
	}
}

// backfill pulls a snapshot of the region from the primary and
// imports it. Holds a throttle slot for the duration.
func (s *Secondary) backfill(ctx context.Context, bcard contract.ExecutionBcard) error {
	release, err := s.execCtx.Throttle.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring backfill slot: %w", err)
	}
	defer release()

	s.transition(contract.AckSecondaryBackfilling)

	var response backfillResponse
	err = s.execCtx.Mailman.Call(ctx, bcard.Backfill, backfillRequest{Region: s.region}, &response)
	if err != nil {
		return fmt.Errorf("requesting backfill: %w", err)
	}

	imported, err := store.ReadSnapshot(ctx, bytes.NewReader(response.Data), s.subview)
	if err != nil {
		return fmt.Errorf("importing backfill snapshot: %w", err)
	}

	s.perf.Counter("backfills_completed").Add(1)
	s.perf.Counter("keys_backfilled").Add(int64(imported))
	return nil
}

// transition records the new state and acks it under the current
// contract identifier.
func (s *Secondary) transition(state contract.AckState) {
	s.mu.Lock()
	s.state = state
	cid := s.cid
	s.mu.Unlock()

	s.perf.Counter("acks_sent").Add(1)
	s.sendAck(cid, contract.Ack{State: state})
}

// UpdateContract implements Execution.
func (s *Secondary) UpdateContract(cid ident.ContractID, rc contract.RegionContract) {
	s.mu.Lock()
	s.cid = cid
	state := s.state
	s.mu.Unlock()

	if state == contract.AckNothing {
		return
	}
	s.perf.Counter("acks_sent").Add(1)
	s.sendAck(cid, contract.Ack{State: state})
}

// Status implements Execution.
func (s *Secondary) Status() contract.ShardStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return contract.ShardStatus{Role: contract.RoleSecondary, State: string(s.state)}
}

// Stop implements Execution.
func (s *Secondary) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stopping secondary for %v: %w", s.region, ctx.Err())
	}
}

var _ Execution = (*Secondary)(nil)
