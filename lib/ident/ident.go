// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package ident provides the typed identities used across the table
// engine: servers, branches, contracts, and executions. Distinct
// wrapper types exist for compile-time safety: a BranchID can never be
// passed where a ServerID is expected, even though both are UUIDs
// underneath.
//
// All types are comparable and usable as map keys. All implement
// encoding.TextMarshaler and TextUnmarshaler so they serialize as
// strings in CBOR, JSON, and YAML. The zero value of ServerID and
// BranchID is meaningful: it means "unset" (for BranchID, "no branch
// exists yet for this region").
package ident

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// ServerID identifies one server in the cluster. Assigned once when a
// server first joins and stable across restarts.
type ServerID struct{ id uuid.UUID }

// NewServerID mints a fresh random server identity.
func NewServerID() ServerID {
	return ServerID{id: uuid.New()}
}

// ParseServerID parses the canonical UUID string form.
func ParseServerID(text string) (ServerID, error) {
	parsed, err := uuid.Parse(text)
	if err != nil {
		return ServerID{}, fmt.Errorf("parsing server ID %q: %w", text, err)
	}
	return ServerID{id: parsed}, nil
}

// IsZero reports whether the identity is unset.
func (s ServerID) IsZero() bool { return s.id == uuid.UUID{} }

// String returns the canonical UUID string form.
func (s ServerID) String() string { return s.id.String() }

// MarshalText implements encoding.TextMarshaler.
func (s ServerID) MarshalText() ([]byte, error) {
	if s.IsZero() {
		return nil, nil
	}
	return []byte(s.id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input
// produces the zero value.
func (s *ServerID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*s = ServerID{}
		return nil
	}
	parsed, err := ParseServerID(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// BranchID identifies one segment of a region's write history. A new
// branch is minted whenever a region gains a new primary lineage. The
// zero value means "no branch": a valid state for a region whose first
// primary has not yet registered a branch.
type BranchID struct{ id uuid.UUID }

// NewBranchID mints a fresh random branch identity.
func NewBranchID() BranchID {
	return BranchID{id: uuid.New()}
}

// ParseBranchID parses the canonical UUID string form.
func ParseBranchID(text string) (BranchID, error) {
	parsed, err := uuid.Parse(text)
	if err != nil {
		return BranchID{}, fmt.Errorf("parsing branch ID %q: %w", text, err)
	}
	return BranchID{id: parsed}, nil
}

// IsZero reports whether the identity is unset ("no branch").
func (b BranchID) IsZero() bool { return b.id == uuid.UUID{} }

// String returns the canonical UUID string form.
func (b BranchID) String() string { return b.id.String() }

// MarshalText implements encoding.TextMarshaler.
func (b BranchID) MarshalText() ([]byte, error) {
	if b.IsZero() {
		return nil, nil
	}
	return []byte(b.id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input
// produces the zero value.
func (b *BranchID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*b = BranchID{}
		return nil
	}
	parsed, err := ParseBranchID(string(data))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ExecutionID identifies one execution for the lifetime of its record.
// Minted at record creation; keys the query broadcast card map.
type ExecutionID struct{ id uuid.UUID }

// NewExecutionID mints a fresh random execution identity.
func NewExecutionID() ExecutionID {
	return ExecutionID{id: uuid.New()}
}

// IsZero reports whether the identity is unset.
func (e ExecutionID) IsZero() bool { return e.id == uuid.UUID{} }

// String returns the canonical UUID string form.
func (e ExecutionID) String() string { return e.id.String() }

// MarshalText implements encoding.TextMarshaler.
func (e ExecutionID) MarshalText() ([]byte, error) {
	if e.IsZero() {
		return nil, nil
	}
	return []byte(e.id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input
// produces the zero value.
func (e *ExecutionID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*e = ExecutionID{}
		return nil
	}
	parsed, err := uuid.Parse(string(data))
	if err != nil {
		return fmt.Errorf("parsing execution ID %q: %w", string(data), err)
	}
	*e = ExecutionID{id: parsed}
	return nil
}

// ContractIDSize is the digest length of a contract identifier in bytes.
const ContractIDSize = 32

// ContractID identifies one contract by content: the BLAKE3 digest of
// the contract's canonical CBOR encoding. Two structurally identical
// contracts always carry the same ID, and any change to a contract's
// content changes its ID. Comparable; the zero value means "no
// contract".
type ContractID struct{ digest [ContractIDSize]byte }

// ContractIDFromDigest wraps a raw 32-byte BLAKE3 digest.
func ContractIDFromDigest(digest [ContractIDSize]byte) ContractID {
	return ContractID{digest: digest}
}

// ParseContractID parses the hex string form.
func ParseContractID(text string) (ContractID, error) {
	raw, err := hex.DecodeString(text)
	if err != nil {
		return ContractID{}, fmt.Errorf("parsing contract ID %q: %w", text, err)
	}
	if len(raw) != ContractIDSize {
		return ContractID{}, fmt.Errorf("parsing contract ID %q: got %d bytes, want %d", text, len(raw), ContractIDSize)
	}
	var id ContractID
	copy(id.digest[:], raw)
	return id, nil
}

// IsZero reports whether the identity is unset.
func (c ContractID) IsZero() bool { return c.digest == [ContractIDSize]byte{} }

// String returns the full hex form.
func (c ContractID) String() string { return hex.EncodeToString(c.digest[:]) }

// Short returns the first 8 hex characters, for log attributes.
func (c ContractID) Short() string { return c.String()[:8] }

// MarshalText implements encoding.TextMarshaler.
func (c ContractID) MarshalText() ([]byte, error) {
	if c.IsZero() {
		return nil, nil
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input
// produces the zero value.
func (c *ContractID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*c = ContractID{}
		return nil
	}
	parsed, err := ParseContractID(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
