// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator

import (
	"log/slog"
	"math/big"

	"github.com/fido2key/authenticator/internal/store"
	"github.com/fido2key/authenticator/internal/xcrypto"
)

// Oracles are the hardware/platform collaborators the authenticator core
// treats as external (spec.md §2: "user-presence hardware ... monotonic
// sign-counter storage ... are all external collaborators").
type Oracles struct {
	// UserPresence blocks until the platform signals user presence (a
	// button press or equivalent) and reports whether it was granted.
	UserPresence func() bool

	// IncrementSignCounter returns the next monotonic sign-counter value.
	// Implementations persist the new value before returning it.
	IncrementSignCounter func() (uint32, error)
}

// getAssertionContinuation holds the credentials a successful
// get-assertion call did not return (none when only one was valid),
// consumed one at a time
// by get-next-assertion (spec.md §4.4, invariant 6).
type getAssertionContinuation struct {
	rp             RelyingParty
	clientDataHash []byte
	up             bool
	remaining      []StatelessCredential
}

// Session is the authenticator's single owned instance of on-device state
// (Design Notes §9): one Session per physical device, constructed once at
// boot by Init and mutated in place by every dispatched command. It is not
// safe for concurrent use from multiple goroutines without external
// synchronization, mirroring the single-threaded command loop CTAP assumes.
type Session struct {
	fc      *xcrypto.Facade
	store   store.Store
	log     *slog.Logger
	oracles Oracles
	attest  xcrypto.AttestationKeySource
	aaguid  [16]byte

	pinCodeSet  bool
	pinCodeHash [16]byte
	pinRetries  uint8
	lockout     bool

	pinToken     [16]byte
	keyAgreement *xcrypto.KeyAgreementKeyPair

	signCounter uint32

	lastCommand   Command
	lastCommandOK bool
	continuation  *getAssertionContinuation
}

// attestationSigner adapts the session's AttestationKeySource to the
// signer shape sign.go's Sign helper expects.
func (s *Session) attestationSigner() func(digest [32]byte) (r, s *big.Int, err error) {
	return func(digest [32]byte) (r, sv *big.Int, err error) {
		return s.attest.Sign(s.fc.Rand(), digest)
	}
}

// credentialSigner adapts a stateless credential's deterministically
// re-derived private key to the same signer shape, for get-assertion.
func (s *Session) credentialSigner(credentialID []byte) func(digest [32]byte) (r, sv *big.Int, err error) {
	priv := s.fc.DeriveKeyFromSeed(credentialID)
	return func(digest [32]byte) (r, sv *big.Int, err error) {
		return s.fc.Sign(priv, digest)
	}
}

// maxPinRetries is the retry budget a factory reset restores (spec.md §4.7,
// §8 invariant 5: "N=8 from fresh state").
const maxPinRetries = 8

// pinTokenSize is the length in bytes of pin_token (spec.md §3).
const pinTokenSize = 16
