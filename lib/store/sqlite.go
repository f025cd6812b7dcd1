// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/strata-db/strata/contract"
)

// Durability selects the SQLite synchronous mode for the table's
// database file.
type Durability string

const (
	// DurabilityFull fsyncs on every transaction commit.
	DurabilityFull Durability = "full"
	// DurabilityNormal fsyncs at WAL checkpoints. The default.
	DurabilityNormal Durability = "normal"
	// DurabilityOff leaves syncing to the OS. For tests and throwaway
	// deployments.
	DurabilityOff Durability = "off"
)

// pragma returns the PRAGMA synchronous value for the mode.
func (d Durability) pragma() (string, error) {
	switch d {
	case DurabilityFull:
		return "FULL", nil
	case DurabilityNormal, "":
		return "NORMAL", nil
	case DurabilityOff:
		return "OFF", nil
	default:
		return "", fmt.Errorf("store: unknown durability %q", d)
	}
}

// SQLiteOptions configures OpenSQLite. Path is required.
type SQLiteOptions struct {
	// Path is the database file. Created if absent; the parent
	// directory must exist. ":memory:" works with PoolSize 1.
	Path string

	// PoolSize is the connection pool size. Zero means
	// max(NumCPU, 4).
	PoolSize int

	// Durability selects the synchronous pragma. Empty means normal.
	Durability Durability

	// Logger receives operational messages. Nil discards.
	Logger *slog.Logger
}

// SQLite is a Store backed by one SQLite database file in WAL mode,
// holding a single kv table. Safe for concurrent use; reads run in
// parallel, writes serialize inside SQLite.
type SQLite struct {
	pool   *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// OpenSQLite opens (creating if needed) the database at opts.Path and
// prepares the kv schema. The caller must Close the returned store.
func OpenSQLite(opts SQLiteOptions) (*SQLite, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("store: Path is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	synchronous, err := opts.Durability.pragma()
	if err != nil {
		return nil, err
	}

	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
		if poolSize < 4 {
			poolSize = 4
		}
	}

	pool, err := sqlitex.NewPool(opts.Path, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepareConnection(conn, synchronous)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", opts.Path, err)
	}

	logger.Info("sqlite store opened",
		"path", opts.Path,
		"pool_size", poolSize,
		"durability", synchronous,
	)

	return &SQLite{pool: pool, logger: logger, path: opts.Path}, nil
}

// prepareConnection applies pragmas and the kv schema. Runs once per
// pooled connection on first use.
func prepareConnection(conn *sqlite.Conn, synchronous string) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=" + synchronous,
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	) WITHOUT ROWID`
	if err := sqlitex.ExecuteTransient(conn, schema, nil); err != nil {
		return fmt.Errorf("store: creating kv table: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: take: %w", err)
	}
	defer s.pool.Put(conn)

	var value []byte
	found := false
	err = sqlitex.Execute(conn, "SELECT value FROM kv WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			value = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, value)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: get %q: %w", key, err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return value, nil
}

// Put implements Store.
func (s *SQLite) Put(ctx context.Context, key string, value []byte) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: take: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		&sqlitex.ExecOptions{Args: []any{key, value}})
	if err != nil {
		return fmt.Errorf("store: put %q: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: take: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM kv WHERE key = ?",
		&sqlitex.ExecOptions{Args: []any{key}})
	if err != nil {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

// EraseRange implements Store.
func (s *SQLite) EraseRange(ctx context.Context, r contract.KeyRange) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: take: %w", err)
	}
	defer s.pool.Put(conn)

	if r.Right.Unbounded {
		err = sqlitex.Execute(conn, "DELETE FROM kv WHERE key >= ?",
			&sqlitex.ExecOptions{Args: []any{r.Left}})
	} else {
		err = sqlitex.Execute(conn, "DELETE FROM kv WHERE key >= ? AND key < ?",
			&sqlitex.ExecOptions{Args: []any{r.Left, r.Right.Key}})
	}
	if err != nil {
		return fmt.Errorf("store: erase %v: %w", r, err)
	}
	return nil
}

// ScanRange implements Store.
func (s *SQLite) ScanRange(ctx context.Context, r contract.KeyRange, fn func(Entry) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: take: %w", err)
	}
	defer s.pool.Put(conn)

	resultFunc := func(stmt *sqlite.Stmt) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		value := make([]byte, stmt.ColumnLen(1))
		stmt.ColumnBytes(1, value)
		return fn(Entry{Key: stmt.ColumnText(0), Value: value})
	}

	if r.Right.Unbounded {
		err = sqlitex.Execute(conn, "SELECT key, value FROM kv WHERE key >= ? ORDER BY key",
			&sqlitex.ExecOptions{Args: []any{r.Left}, ResultFunc: resultFunc})
	} else {
		err = sqlitex.Execute(conn, "SELECT key, value FROM kv WHERE key >= ? AND key < ? ORDER BY key",
			&sqlitex.ExecOptions{Args: []any{r.Left, r.Right.Key}, ResultFunc: resultFunc})
	}
	if err != nil {
		return fmt.Errorf("store: scan %v: %w", r, err)
	}
	return nil
}

// Close implements Store. Blocks until all borrowed connections are
// returned.
func (s *SQLite) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("store: closing %s: %w", s.path, err)
	}
	s.logger.Info("sqlite store closed", "path", s.path)
	return nil
}
