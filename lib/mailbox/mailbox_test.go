// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package mailbox

import (
	"context"
	"errors"
	"testing"

	"github.com/strata-db/strata/lib/codec"
)

type echoRequest struct {
	Text string `cbor:"text"`
}

type echoResponse struct {
	Text string `cbor:"text"`
}

func TestCallRoundTrip(t *testing.T) {
	manager := NewManager(nil)

	address, deregister := manager.Register(func(ctx context.Context, request []byte) ([]byte, error) {
		var in echoRequest
		if err := codec.Unmarshal(request, &in); err != nil {
			return nil, err
		}
		return codec.Marshal(echoResponse{Text: in.Text + "!"})
	})
	defer deregister()

	var out echoResponse
	err := manager.Call(context.Background(), address, echoRequest{Text: "hello"}, &out)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.Text != "hello!" {
		t.Errorf("reply = %q, want %q", out.Text, "hello!")
	}
}

func TestCallUnknownAddress(t *testing.T) {
	manager := NewManager(nil)
	err := manager.Call(context.Background(), Address("nowhere"), echoRequest{}, nil)
	if !errors.Is(err, ErrUnknownAddress) {
		t.Errorf("err = %v, want ErrUnknownAddress", err)
	}
}

func TestDeregisterRemovesHandler(t *testing.T) {
	manager := NewManager(nil)
	address, deregister := manager.Register(func(ctx context.Context, request []byte) ([]byte, error) {
		return codec.Marshal(echoResponse{})
	})

	deregister()

	err := manager.Call(context.Background(), address, echoRequest{}, nil)
	if !errors.Is(err, ErrUnknownAddress) {
		t.Errorf("err after deregister = %v, want ErrUnknownAddress", err)
	}
}

func TestHandlerErrorPropagates(t *testing.T) {
	manager := NewManager(nil)
	handlerErr := errors.New("store offline")
	address, deregister := manager.Register(func(ctx context.Context, request []byte) ([]byte, error) {
		return nil, handlerErr
	})
	defer deregister()

	err := manager.Call(context.Background(), address, echoRequest{}, nil)
	if !errors.Is(err, handlerErr) {
		t.Errorf("err = %v, want wrapped handler error", err)
	}
}
