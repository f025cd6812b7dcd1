// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package mailbox provides in-process message passing between
// executions. A Manager maps opaque addresses to handlers; callers
// reach a handler knowing only its Address, which travels inside
// broadcast cards. Payloads are CBOR-encoded so an address published
// by one component is callable by another without shared Go types.
//
// The engine performs no network I/O; when strata runs clustered, the
// transport layer bridges remote addresses onto a local Manager. The
// executor and executions only ever see this interface.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/strata-db/strata/lib/codec"
)

// ErrUnknownAddress is returned by Call when no handler is registered
// at the target address, e.g. after the owning execution was torn
// down. Callers treat it as "peer gone" and retry discovery.
var ErrUnknownAddress = errors.New("mailbox: unknown address")

// Address names one registered handler. Opaque; minted by Register.
// The zero value is "no address".
type Address string

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == "" }

// Handler receives a CBOR-encoded request and returns a CBOR-encoded
// response. Runs on the caller's goroutine.
type Handler func(ctx context.Context, request []byte) (response []byte, err error)

// Manager routes calls to registered handlers.
type Manager struct {
	mu       sync.Mutex
	handlers map[Address]Handler
	logger   *slog.Logger
}

// NewManager creates an empty Manager. A nil logger discards.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		handlers: make(map[Address]Handler),
		logger:   logger,
	}
}

// Register installs handler at a fresh address. The returned
// deregister function removes it; after deregister returns, Call on
// the address fails with ErrUnknownAddress.
func (m *Manager) Register(handler Handler) (Address, func()) {
	address := Address(uuid.NewString())

	m.mu.Lock()
	m.handlers[address] = handler
	m.mu.Unlock()

	deregister := func() {
		m.mu.Lock()
		delete(m.handlers, address)
		m.mu.Unlock()
	}
	return address, deregister
}

// Call encodes request, invokes the handler at address, and decodes
// its reply into response. A nil response discards the reply.
func (m *Manager) Call(ctx context.Context, address Address, request, response any) error {
	m.mu.Lock()
	handler, ok := m.handlers[address]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("calling %s: %w", address, ErrUnknownAddress)
	}

	encoded, err := codec.Marshal(request)
	if err != nil {
		return fmt.Errorf("encoding request for %s: %w", address, err)
	}

	reply, err := handler(ctx, encoded)
	if err != nil {
		return fmt.Errorf("handler at %s: %w", address, err)
	}
	if response == nil {
		return nil
	}
	if err := codec.Unmarshal(reply, response); err != nil {
		return fmt.Errorf("decoding reply from %s: %w", address, err)
	}
	return nil
}
