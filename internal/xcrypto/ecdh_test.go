// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package xcrypto_test

import (
	"crypto/rand"
	"testing"

	"github.com/fido2key/authenticator/internal/xcrypto"
)

func TestKeyAgreementSharedSecretMatches(t *testing.T) {
	fc := xcrypto.NewWithRNG(rand.Reader)

	device, err := fc.GenerateKeyAgreementKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	platform, err := fc.GenerateKeyAgreementKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	devX, devY := device.PublicXY()
	platX, platY := platform.PublicXY()

	s1, err := device.SharedSecret(platX, platY)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := platform.SharedSecret(devX, devY)
	if err != nil {
		t.Fatal(err)
	}
	if s1 != s2 {
		t.Fatal("ECDH shared secrets disagree between the two parties")
	}
}
