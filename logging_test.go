// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator_test

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	authenticator "github.com/fido2key/authenticator"
	"github.com/fido2key/authenticator/internal/logging"
	"github.com/fido2key/authenticator/internal/store"
	"github.com/fido2key/authenticator/internal/xcrypto"
)

// TestDispatchLoggingNeverLeaksSecrets drives a session through a PIN-set
// and a make-credential and asserts the structured log output never
// contains the plaintext PIN or the raw make-credential response
// (SPEC_FULL.md §4.4, ambient requirement A5).
func TestDispatchLoggingNeverLeaksSecrets(t *testing.T) {
	var logBuf bytes.Buffer
	mem := &store.MemoryStore{}
	attest, err := xcrypto.GenerateSelfSignedAttestationKey()
	if err != nil {
		t.Fatal(err)
	}
	var counter uint32
	session, err := authenticator.Init(authenticator.Config{
		Store:       mem,
		Attestation: attest,
		Log:         logging.New(&logBuf),
		Oracles: authenticator.Oracles{
			UserPresence: func() bool { return true },
			IncrementSignCounter: func() (uint32, error) {
				counter++
				return counter, nil
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	const pin = "sekrit-pin"
	setPin(t, session, pin)

	resp, status := makeCredential(t, session, "example.com", []byte{1, 2, 3}, hash32("cdh"), nil)
	if status != authenticator.StatusSuccess {
		t.Fatalf("MakeCredential status = %v", status)
	}

	log := logBuf.String()
	if strings.Contains(log, pin) {
		t.Fatal("log output contains the plaintext PIN")
	}
	if strings.Contains(log, hex.EncodeToString(resp)) {
		t.Fatal("log output contains a raw response payload")
	}
	if !strings.Contains(log, "dispatch") {
		t.Fatal("expected at least one dispatch log line")
	}
}
