// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator_test

import (
	"crypto/rand"
	"encoding/binary"
	"testing"

	authenticator "github.com/fido2key/authenticator"
	"github.com/fido2key/authenticator/internal/xcrypto"
)

func TestBuildAuthDataLayoutWithoutAttestedData(t *testing.T) {
	fc := xcrypto.NewWithRNG(rand.Reader)
	rpHash := authenticator.RPIDHash("example.com")

	data, err := authenticator.BuildAuthData(fc, rpHash, true, false, 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 32+1+4 {
		t.Fatalf("expected 37-byte auth data with no attested credential data, got %d", len(data))
	}
	if string(data[:32]) != string(rpHash[:]) {
		t.Fatal("rpIdHash mismatch")
	}
	if data[32]&0x01 == 0 {
		t.Fatal("user-present flag bit not set")
	}
	if data[32]&0x40 != 0 {
		t.Fatal("attestedCredentialData flag bit set when no attested data was given")
	}
	if got := binary.BigEndian.Uint32(data[33:37]); got != 7 {
		t.Fatalf("signCount = %d, want 7", got)
	}
}

func TestBuildAuthDataWithAttestedDataSetsFlag(t *testing.T) {
	fc := xcrypto.NewWithRNG(rand.Reader)
	rpHash := authenticator.RPIDHash("example.com")
	var aaguid [16]byte
	credID := make([]byte, authenticator.CredentialIDSize)

	data, err := authenticator.BuildAuthData(fc, rpHash, true, false, 1, &authenticator.AttestedCredentialData{
		AAGUID:       aaguid,
		CredentialID: credID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if data[32]&0x40 == 0 {
		t.Fatal("attestedCredentialData flag bit not set when attested data was given")
	}
	if len(data) <= 37 {
		t.Fatal("auth data did not grow to include attested credential data")
	}
}
