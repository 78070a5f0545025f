// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator_test

import (
	"crypto/rand"
	"testing"

	authenticator "github.com/fido2key/authenticator"
	"github.com/fido2key/authenticator/internal/xcrypto"
)

func TestVerifyAcceptsOwnCredentialRejectsOtherRP(t *testing.T) {
	fc := xcrypto.NewWithRNG(rand.Reader)
	rp := authenticator.RelyingParty{ID: "example.com", Name: "Example"}
	user := authenticator.User{ID: []byte{1, 2, 3, 4}, DisplayName: "alice"}

	cred, err := authenticator.NewCredential(fc, rp, user, 1)
	if err != nil {
		t.Fatal(err)
	}
	id := cred.Encode()

	if _, ok := authenticator.Verify(fc, rp, id[:]); !ok {
		t.Fatal("Verify rejected a credential it just issued for the same RP")
	}

	other := authenticator.RelyingParty{ID: "other.example", Name: "Other"}
	if _, ok := authenticator.Verify(fc, other, id[:]); ok {
		t.Fatal("Verify accepted a credential under the wrong RP")
	}
}

func TestNewCredentialCountsDiffer(t *testing.T) {
	fc := xcrypto.NewWithRNG(rand.Reader)
	rp := authenticator.RelyingParty{ID: "example.com"}
	user := authenticator.User{ID: []byte{9}, DisplayName: "bob"}

	c1, err := authenticator.NewCredential(fc, rp, user, 1)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := authenticator.NewCredential(fc, rp, user, 2)
	if err != nil {
		t.Fatal(err)
	}
	if c2.Count <= c1.Count {
		t.Fatalf("expected strictly increasing count, got %d then %d", c1.Count, c2.Count)
	}
	id1, id2 := c1.Encode(), c2.Encode()
	if id1 == id2 {
		t.Fatal("two credentials with different counts produced the same credential id")
	}
}

func TestVerifyRejectsWrongSizeCredential(t *testing.T) {
	fc := xcrypto.NewWithRNG(rand.Reader)
	rp := authenticator.RelyingParty{ID: "example.com"}
	if _, ok := authenticator.Verify(fc, rp, []byte{1, 2, 3}); ok {
		t.Fatal("Verify accepted a malformed, wrong-size credential id")
	}
}

func TestVerifyRejectsTamperedTag(t *testing.T) {
	fc := xcrypto.NewWithRNG(rand.Reader)
	rp := authenticator.RelyingParty{ID: "example.com"}
	user := authenticator.User{ID: []byte{1}, DisplayName: "carol"}

	cred, err := authenticator.NewCredential(fc, rp, user, 1)
	if err != nil {
		t.Fatal(err)
	}
	id := cred.Encode()
	id[0] ^= 0xFF // flip a bit inside the tag

	if _, ok := authenticator.Verify(fc, rp, id[:]); ok {
		t.Fatal("Verify accepted a credential with a tampered tag")
	}
}
