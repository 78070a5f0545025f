// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package xcrypto_test

import (
	"bytes"
	"testing"

	"github.com/fido2key/authenticator/internal/xcrypto"
)

func TestCBCCipherRoundTrip(t *testing.T) {
	var key [32]byte
	copy(key[:], []byte("0123456789abcdef0123456789abcde"))

	plaintext := []byte("0123456789abcdef0123456789abcdef")[:32]
	buf := append([]byte(nil), plaintext...)

	enc, err := xcrypto.NewCBCCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.EncryptInPlace(buf); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(buf, plaintext) {
		t.Fatal("ciphertext equals plaintext")
	}

	dec, err := xcrypto.NewCBCCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	if err := dec.DecryptInPlace(buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, plaintext) {
		t.Fatalf("round trip mismatch: got %x want %x", buf, plaintext)
	}
}

func TestCBCCipherRejectsShortBuffer(t *testing.T) {
	var key [32]byte
	c, err := xcrypto.NewCBCCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.EncryptInPlace(make([]byte, 5)); err == nil {
		t.Fatal("expected error for non-block-aligned buffer")
	}
}
