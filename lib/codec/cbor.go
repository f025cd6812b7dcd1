// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides strata's standard CBOR encoding configuration.
//
// Everything the engine serializes goes through this package: contract
// bodies (whose canonical bytes feed contract identifier derivation),
// mailbox payloads, and store snapshot records. The encoder uses Core
// Deterministic Encoding (RFC 8949 §4.2): sorted map keys, smallest
// integer encoding, no indefinite-length items. The same logical data
// always produces identical bytes, which is what makes content-derived
// contract identifiers stable across servers.
package codec

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the shared deterministic encoder.
var encMode cbor.EncMode

// decMode is the shared decoder. Unknown fields are ignored for
// forward compatibility with newer contract fields.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Identity types (ident.ServerID, ident.BranchID, ident.ContractID)
	// hold unexported data and implement encoding.TextMarshaler. Encode
	// them as CBOR text strings; without this they would serialize as
	// empty maps and every contract would hash identically.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Mirror of the TextMarshaler setting above, for round-trip
		// correctness of the identity types.
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder is a CBOR stream encoder. Type alias so consumers import
// only lib/codec, not fxamacker/cbor directly.
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder. Type alias so consumers import
// only lib/codec, not fxamacker/cbor directly.
type Decoder = cbor.Decoder

// NewEncoder returns a CBOR encoder writing to w with the standard
// deterministic configuration.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a CBOR decoder reading from r with the standard
// decoding configuration.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}
