// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	authenticator "github.com/fido2key/authenticator"
)

func TestDERSignatureRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		r, s *big.Int
	}{
		{"small values", big.NewInt(1), big.NewInt(2)},
		{"high bit set requires zero padding", new(big.Int).SetBytes(bytesOfAllFF(32)), new(big.Int).SetBytes(bytesOfAllFF(32))},
		{"leading zero byte stripped", new(big.Int).SetBytes(append([]byte{0x00, 0x01}, bytesOfAllFF(30)...)), big.NewInt(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			der := authenticator.EncodeDERSignature(tt.r, tt.s)
			r, s, ok := authenticator.DecodeDERSignature(der)
			if !ok {
				t.Fatalf("DecodeDERSignature failed to parse its own output: %x", der)
			}
			if r.Cmp(tt.r) != 0 || s.Cmp(tt.s) != 0 {
				t.Fatalf("round trip mismatch: got (%v,%v), want (%v,%v)", r, s, tt.r, tt.s)
			}
		})
	}
}

func TestDERSignatureLengthIsComputedNotAssumed(t *testing.T) {
	der := authenticator.EncodeDERSignature(big.NewInt(1), big.NewInt(1))
	if int(der[1]) != len(der)-2 {
		t.Fatalf("outer length byte %d does not match actual content length %d", der[1], len(der)-2)
	}
}

func TestSignProducesVerifiableDER(t *testing.T) {
	var called [32]byte
	signer := func(digest [32]byte) (r, s *big.Int, err error) {
		called = digest
		return big.NewInt(11), big.NewInt(22), nil
	}
	sig, err := authenticator.Sign(nil, signer, []byte("auth-data"), []byte("client-data-hash"))
	if err != nil {
		t.Fatal(err)
	}
	if sig[0] != 0x30 {
		t.Fatal("signature is not a DER SEQUENCE")
	}
	var zero [32]byte
	if called == zero {
		t.Fatal("signer was never invoked with a computed digest")
	}
	_ = rand.Reader
}

func bytesOfAllFF(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 0xFF
	}
	return b
}
