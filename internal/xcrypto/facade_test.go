// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package xcrypto_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/fido2key/authenticator/internal/xcrypto"
)

func TestDeriveKeyFromSeedDeterministic(t *testing.T) {
	fc := xcrypto.NewWithRNG(rand.Reader)
	seed := []byte("a 150-byte credential id stands in here for this test")

	x1, y1 := fc.DerivePublicKeyFromSeed(seed)
	x2, y2 := fc.DerivePublicKeyFromSeed(seed)
	if x1 != x2 || y1 != y2 {
		t.Fatal("DerivePublicKeyFromSeed is not deterministic for the same seed")
	}

	otherSeed := append(append([]byte(nil), seed...), 0x01)
	x3, y3 := fc.DerivePublicKeyFromSeed(otherSeed)
	if x1 == x3 && y1 == y3 {
		t.Fatal("different seeds produced the same derived public key")
	}
}

func TestDeriveKeyFromSeedBoundToMasterSecret(t *testing.T) {
	seed := []byte("shared credential id seed across two devices")

	fc1 := xcrypto.NewWithRNG(rand.Reader)
	fc2 := xcrypto.NewWithRNG(rand.Reader)

	x1, y1 := fc1.DerivePublicKeyFromSeed(seed)
	x2, y2 := fc2.DerivePublicKeyFromSeed(seed)
	if x1 == x2 && y1 == y2 {
		t.Fatal("two devices with different master secrets derived the same key from the same seed")
	}
}

func TestLoadMasterSecretRestoresDerivation(t *testing.T) {
	fc := xcrypto.NewWithRNG(rand.Reader)
	secret := append([]byte(nil), fc.MasterSecret()...)
	seed := []byte("credential-id-bytes")
	x1, y1 := fc.DerivePublicKeyFromSeed(seed)

	restored := xcrypto.NewWithRNG(rand.Reader)
	restored.LoadMasterSecret(secret)
	x2, y2 := restored.DerivePublicKeyFromSeed(seed)

	if x1 != x2 || y1 != y2 {
		t.Fatal("restoring a persisted master secret did not reproduce the same derived key")
	}
}

func TestHMACSHA256Deterministic(t *testing.T) {
	key := []byte("key")
	a := xcrypto.HMACSHA256(key, []byte("part one"), []byte("part two"))
	b := xcrypto.HMACSHA256(key, []byte("part one"), []byte("part two"))
	if !bytes.Equal(a[:], b[:]) {
		t.Fatal("HMACSHA256 not deterministic for identical inputs")
	}
	c := xcrypto.HMACSHA256(key, []byte("part one"), []byte("part three"))
	if bytes.Equal(a[:], c[:]) {
		t.Fatal("HMACSHA256 produced identical output for different inputs")
	}
}
