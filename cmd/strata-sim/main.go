// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Strata-sim runs one table's reconciliation engine against a scripted
// sequence of agreed table states, standing in for the consensus
// coordinator. It walks a region through the full lifecycle on a single
// server: a fresh primary proposes a branch, the "coordinator"
// registers it, the primary becomes ready, and finally the region moves
// away and local data is erased. Each ack and the shard status are
// printed as they appear.
//
// Useful for exercising the engine end to end without a cluster, and
// as a worked example of driving the executor package.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/strata-db/strata/contract"
	"github.com/strata-db/strata/executor"
	"github.com/strata-db/strata/lib/config"
	"github.com/strata-db/strata/lib/ident"
	"github.com/strata-db/strata/lib/store"
	"github.com/strata-db/strata/lib/throttle"
	"github.com/strata-db/strata/lib/version"
	"github.com/strata-db/strata/lib/watch"
)

const ackTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "strata-sim: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		serverIDStr string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "path to a strata YAML config file (defaults apply when empty)")
	flag.StringVar(&serverIDStr, "server-id", "", "this server's identity (generated when empty)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		version.Print("strata-sim")
		return nil
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	server := ident.NewServerID()
	if serverIDStr != "" {
		parsed, err := ident.ParseServerID(serverIDStr)
		if err != nil {
			return fmt.Errorf("parsing --server-id: %w", err)
		}
		server = parsed
	}
	fmt.Printf("server %s\n", server)

	// A config file selects the durable SQLite backend; without one
	// the simulation runs on the in-memory store.
	var backing store.Store
	if configPath != "" {
		sqlite, err := store.OpenSQLite(store.SQLiteOptions{
			Path:       filepath.Join(cfg.Paths.BasePath, "sim.db"),
			PoolSize:   cfg.Store.PoolSize,
			Durability: cfg.Store.Durability,
			Logger:     logger,
		})
		if err != nil {
			return err
		}
		backing = sqlite
	} else {
		backing = store.NewMemory()
	}
	defer backing.Close()

	tableState := watch.NewValue[*contract.TableState](nil)
	engine, err := executor.New(executor.Options{
		Server:     server,
		TableState: tableState,
		Store:      backing,
		Throttle:   throttle.NewGate(cfg.Backfill.MaxConcurrent),
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := engine.Close(ctx); err != nil {
			logger.Error("engine close failed", "error", err)
		}
	}()

	region := contract.FullRange()

	// Act 1: a contract naming this server primary, with no branch
	// registered yet. The primary proposes one.
	primaryContract := contract.Contract{Primary: server}
	cid := contract.DeriveContractID(region, &primaryContract)
	fmt.Printf("\n--- contract %s: primary over %s, no branch ---\n", cid.Short(), region)
	tableState.Set(&contract.TableState{
		Contracts: map[ident.ContractID]contract.RegionContract{
			cid: {Region: region, Contract: primaryContract},
		},
	})

	ack, err := awaitAck(engine, server, cid, contract.AckPrimaryNeedBranch)
	if err != nil {
		return err
	}
	fmt.Printf("ack %s, proposed branch %s\n", ack.State, ack.Branch)

	// Act 2: the coordinator registers the proposed branch. The
	// contract body is unchanged; the execution is replaced because
	// its branch changed.
	fmt.Printf("\n--- branch %s registered ---\n", ack.Branch)
	tableState.Set(&contract.TableState{
		Contracts: map[ident.ContractID]contract.RegionContract{
			cid: {Region: region, Contract: primaryContract},
		},
		CurrentBranches: []contract.BranchAssignment{
			{Region: region, Branch: ack.Branch},
		},
	})

	if _, err := awaitAck(engine, server, cid, contract.AckPrimaryReady); err != nil {
		return err
	}
	fmt.Println("ack primary_ready")
	printStatus(engine)

	// Act 3: the region moves to another server and this one erases
	// its local data.
	eraseContract := contract.Contract{Primary: ident.NewServerID(), Erase: true}
	eraseCID := contract.DeriveContractID(region, &eraseContract)
	fmt.Printf("\n--- contract %s: region moved away, erase ---\n", eraseCID.Short())
	tableState.Set(&contract.TableState{
		Contracts: map[ident.ContractID]contract.RegionContract{
			eraseCID: {Region: region, Contract: eraseContract},
		},
		CurrentBranches: []contract.BranchAssignment{
			{Region: region, Branch: ack.Branch},
		},
	})

	if _, err := awaitAck(engine, server, eraseCID, contract.AckErased); err != nil {
		return err
	}
	fmt.Println("ack erased")
	printStatus(engine)

	return nil
}

// awaitAck polls the engine's ack map for the wanted state.
func awaitAck(engine *executor.Executor, server ident.ServerID, cid ident.ContractID, want contract.AckState) (contract.Ack, error) {
	deadline := time.Now().Add(ackTimeout)
	for time.Now().Before(deadline) {
		ack, ok := engine.Acks().Get(contract.AckKey{Server: server, Contract: cid})
		if ok && ack.State == want {
			return ack, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return contract.Ack{}, errors.New("timed out waiting for ack " + string(want))
}

func printStatus(engine *executor.Executor) {
	fmt.Println("shard status:")
	for _, entry := range engine.ShardStatus().Entries() {
		fmt.Printf("  %s  %s %s\n", entry.Range, entry.Value.Role, entry.Value.State)
	}
}
