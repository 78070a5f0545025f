// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package cbor_test

import (
	"bytes"
	"testing"

	icbor "github.com/fido2key/authenticator/internal/cbor"
)

type sample struct {
	A int    `cbor:"1,keyasint"`
	B []byte `cbor:"2,keyasint"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	in := sample{A: 7, B: []byte("hello")}
	data, err := icbor.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out sample
	if err := icbor.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.A != in.A || !bytes.Equal(out.B, in.B) {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestEncoderDecoderStreaming(t *testing.T) {
	var buf bytes.Buffer
	enc := icbor.NewEncoder(&buf)
	if err := enc.Encode(sample{A: 1, B: []byte("x")}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Encode(sample{A: 2, B: []byte("y")}); err != nil {
		t.Fatal(err)
	}

	dec := icbor.NewDecoder(&buf)
	var first, second sample
	if err := dec.Decode(&first); err != nil {
		t.Fatal(err)
	}
	if err := dec.Decode(&second); err != nil {
		t.Fatal(err)
	}
	if first.A != 1 || second.A != 2 {
		t.Fatalf("streamed values out of order: %+v %+v", first, second)
	}
}

func TestMarshalIsCanonicalRegardlessOfFieldOrder(t *testing.T) {
	a, err := icbor.Marshal(map[int]any{1: "x", 2: "y"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := icbor.Marshal(map[int]any{2: "y", 1: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("canonical encoding differed based on map build order")
	}
}
