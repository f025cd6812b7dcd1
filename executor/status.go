// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"github.com/strata-db/strata/contract"
)

// ShardStatus reports, per region this server currently runs an
// execution for, that execution's role and progress. A point-in-time
// snapshot: regions with no execution are absent from the map.
func (e *Executor) ShardStatus() contract.RangeMap[contract.ShardStatus] {
	e.mu.Lock()
	type pair struct {
		region contract.KeyRange
		record *execRecord
	}
	pairs := make([]pair, 0, len(e.executions))
	for key, record := range e.executions {
		pairs = append(pairs, pair{region: key.region, record: record})
	}
	e.mu.Unlock()

	// Status queries the executions outside the registry lock; an
	// execution destroyed mid-snapshot still answers Status.
	entries := make([]contract.RangeEntry[contract.ShardStatus], 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, contract.RangeEntry[contract.ShardStatus]{
			Range: p.region,
			Value: p.record.execution.Status(),
		})
	}
	return contract.BuildRangeMap(entries)
}
