// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

// Package cbor adapts github.com/fxamacker/cbor/v2 to the streaming
// Encoder/Decoder shape used throughout this module, with canonical
// (RFC 7049 §3.9) map-key ordering so that CTAP2 responses are
// deterministic regardless of the order map entries were built in.
package cbor

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

var encMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic("cbor: invalid canonical encoding options: " + err.Error())
	}
	return mode
}()

// RawMessage holds an already-encoded CBOR value.
type RawMessage = cbor.RawMessage

// Marshal encodes v to canonical CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

// Encoder streams canonical CBOR values to an io.Writer.
type Encoder struct {
	enc *cbor.Encoder
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: encMode.NewEncoder(w)}
}

// Encode writes the canonical CBOR encoding of v.
func (e *Encoder) Encode(v any) error {
	return e.enc.Encode(v)
}

// Decoder streams CBOR values from an io.Reader.
type Decoder struct {
	dec *cbor.Decoder
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: cbor.NewDecoder(r)}
}

// Decode reads the next CBOR value into v.
func (d *Decoder) Decode(v any) error {
	return d.dec.Decode(v)
}
