// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package contract

import (
	"github.com/zeebo/blake3"

	"github.com/strata-db/strata/lib/codec"
	"github.com/strata-db/strata/lib/ident"
)

// Contract declares one region's desired replication arrangement:
// which server accepts writes, which servers replicate, and whether
// the region's data is to be erased instead. Produced by the external
// consensus coordinator; this engine only reads it.
type Contract struct {
	// Primary is the server that accepts writes for the region. Zero
	// when the region currently has no primary.
	Primary ident.ServerID `cbor:"primary" yaml:"primary"`

	// Secondaries are the servers replicating the region.
	Secondaries []ident.ServerID `cbor:"secondaries" yaml:"secondaries"`

	// Erase instructs servers holding data for the region, but named
	// neither primary nor secondary, to delete it.
	Erase bool `cbor:"erase,omitempty" yaml:"erase,omitempty"`
}

// IsPrimary reports whether server is the contract's primary.
func (c *Contract) IsPrimary(server ident.ServerID) bool {
	return !c.Primary.IsZero() && c.Primary == server
}

// IsSecondary reports whether server is listed among the secondaries.
func (c *Contract) IsSecondary(server ident.ServerID) bool {
	for _, secondary := range c.Secondaries {
		if secondary == server {
			return true
		}
	}
	return false
}

// DeriveContractID computes a contract's identity: the BLAKE3 digest
// of the canonical CBOR encoding of the region and contract body. The
// coordinator and every executor derive identical IDs for identical
// contracts without coordination.
func DeriveContractID(region KeyRange, c *Contract) ident.ContractID {
	canonical, err := codec.Marshal(struct {
		Region   KeyRange `cbor:"region"`
		Contract Contract `cbor:"contract"`
	}{Region: region, Contract: *c})
	if err != nil {
		// Contract and KeyRange contain only encodable fields; a
		// marshal failure means memory corruption, not bad input.
		panic("contract: canonical encoding failed: " + err.Error())
	}
	return ident.ContractIDFromDigest(blake3.Sum256(canonical))
}
