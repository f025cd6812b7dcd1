// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package ident

import (
	"strings"
	"testing"
)

func TestServerIDRoundTrip(t *testing.T) {
	id := NewServerID()
	if id.IsZero() {
		t.Fatal("fresh server ID is zero")
	}

	text, err := id.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var parsed ServerID
	if err := parsed.UnmarshalText(text); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed != id {
		t.Errorf("round trip changed identity: %s != %s", parsed, id)
	}
}

func TestServerIDZeroValue(t *testing.T) {
	var id ServerID
	if !id.IsZero() {
		t.Fatal("zero value not reported as zero")
	}

	text, err := id.MarshalText()
	if err != nil {
		t.Fatalf("marshal zero: %v", err)
	}
	if len(text) != 0 {
		t.Errorf("zero value marshaled to %q, want empty", text)
	}

	var parsed ServerID
	if err := parsed.UnmarshalText(nil); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if !parsed.IsZero() {
		t.Error("empty input did not produce zero value")
	}
}

func TestParseServerIDRejectsGarbage(t *testing.T) {
	if _, err := ParseServerID("not-a-uuid"); err == nil {
		t.Error("expected error for malformed server ID")
	}
}

func TestBranchIDZeroMeansNoBranch(t *testing.T) {
	var branch BranchID
	if !branch.IsZero() {
		t.Fatal("zero branch not reported as zero")
	}
	minted := NewBranchID()
	if minted.IsZero() {
		t.Fatal("minted branch is zero")
	}
	if minted == branch {
		t.Fatal("minted branch equals zero branch")
	}
}

func TestContractIDHexRoundTrip(t *testing.T) {
	var digest [ContractIDSize]byte
	for i := range digest {
		digest[i] = byte(i)
	}
	id := ContractIDFromDigest(digest)

	text := id.String()
	if len(text) != ContractIDSize*2 {
		t.Fatalf("hex form has length %d, want %d", len(text), ContractIDSize*2)
	}

	parsed, err := ParseContractID(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != id {
		t.Error("round trip changed contract ID")
	}
}

func TestContractIDShort(t *testing.T) {
	var digest [ContractIDSize]byte
	digest[0] = 0xab
	id := ContractIDFromDigest(digest)
	if !strings.HasPrefix(id.String(), id.Short()) {
		t.Errorf("short form %q is not a prefix of %q", id.Short(), id.String())
	}
	if len(id.Short()) != 8 {
		t.Errorf("short form has length %d, want 8", len(id.Short()))
	}
}

func TestParseContractIDRejectsWrongLength(t *testing.T) {
	if _, err := ParseContractID("abcd"); err == nil {
		t.Error("expected error for truncated contract ID")
	}
	if _, err := ParseContractID("zz"); err == nil {
		t.Error("expected error for non-hex contract ID")
	}
}
