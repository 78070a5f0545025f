// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator

import (
	"crypto/subtle"
	"fmt"

	icbor "github.com/fido2key/authenticator/internal/cbor"
	"github.com/fido2key/authenticator/internal/xcrypto"
)

// attestationStatement is the "packed" attStmt CBOR map (spec.md §4.4).
type attestationStatement struct {
	Alg int64    `cbor:"alg"`
	Sig []byte   `cbor:"sig"`
	X5c [][]byte `cbor:"x5c"`
}

// makeCredentialResponse is the CTAP2_CMD_MAKE_CREDENTIAL response map.
type makeCredentialResponse struct {
	Fmt      string               `cbor:"1,keyasint"`
	AuthData []byte               `cbor:"2,keyasint"`
	AttStmt  attestationStatement `cbor:"3,keyasint"`
}

// nextSignCount draws the next sign-counter value from the oracle,
// retrying once if it yields zero (spec.md §4.2: "zero is reserved as an
// in-memory invalid sentinel"), and records it for persistence.
func (s *Session) nextSignCount() (uint32, error) {
	n, err := s.oracles.IncrementSignCounter()
	if err != nil {
		return 0, fmt.Errorf("authenticator: sign counter oracle: %w", err)
	}
	if n == 0 {
		n, err = s.oracles.IncrementSignCounter()
		if err != nil {
			return 0, fmt.Errorf("authenticator: sign counter oracle retry: %w", err)
		}
	}
	s.signCounter = n
	return n, nil
}

// verifyPinAuth checks HMAC(pin_token, clientDataHash)[:16] == pinAuth,
// the shared step used by both make-credential and get-assertion
// (spec.md §4.4 step 2, §4.5 step 1). It returns ErrPinRequired if a PIN
// is set but pinAuth was omitted, and ErrPinAuthInvalid on mismatch.
func (s *Session) verifyPinAuth(clientDataHash, pinAuth []byte) error {
	if !s.pinCodeSet {
		return nil
	}
	if pinAuth == nil {
		return ErrPinRequired
	}
	// A present-but-zero-length pinAuth is a distinct signal from an
	// absent one (SPEC_FULL.md §5.2): it is treated as invalid rather
	// than as "not supplied".
	want := xcrypto.HMACSHA256(s.pinToken[:], clientDataHash)
	if len(pinAuth) == 0 || subtle.ConstantTimeCompare(want[:16], pinAuth) != 1 {
		return ErrPinAuthInvalid
	}
	return nil
}

// MakeCredential implements CTAP2_CMD_MAKE_CREDENTIAL (spec.md §4.4, C6).
func (s *Session) MakeCredential(payload []byte) ([]byte, error) {
	req, err := decodeMakeCredentialRequest(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if len(req.ClientDataHash) != 32 || req.RP.ID == "" || len(req.User.ID) == 0 {
		return nil, ErrMissingParameter
	}
	if !hasES256(req.PubKeyCredParams) {
		return nil, fmt.Errorf("%w: no acceptable pubKeyCredParams entry", ErrMissingParameter)
	}

	if err := s.verifyPinAuth(req.ClientDataHash, req.PinAuth); err != nil {
		return nil, err
	}

	rp := RelyingParty{ID: req.RP.ID, Name: req.RP.Name}
	for _, entry := range req.ExcludeList {
		// Unsupported descriptor types are skipped, not parse errors
		// (SPEC_FULL.md §5.3).
		if entry.Type != "public-key" {
			continue
		}
		if _, ok := Verify(s.fc, rp, entry.ID); ok {
			return nil, ErrCredentialExcluded
		}
	}

	up := s.oracles.UserPresence()
	count, err := s.nextSignCount()
	if err != nil {
		return nil, err
	}

	user := req.User.toUser()
	cred, err := NewCredential(s.fc, rp, user, count)
	if err != nil {
		return nil, err
	}
	credID := cred.Encode()

	authData, err := BuildAuthData(s.fc, RPIDHash(rp.ID), up, false, count, &AttestedCredentialData{
		AAGUID:       s.aaguid,
		CredentialID: credID[:],
	})
	if err != nil {
		return nil, err
	}

	sig, err := Sign(s.fc, s.attestationSigner(), authData, req.ClientDataHash)
	if err != nil {
		return nil, err
	}

	resp := makeCredentialResponse{
		Fmt:      "packed",
		AuthData: authData,
		AttStmt: attestationStatement{
			Alg: algES256,
			Sig: sig,
			X5c: [][]byte{s.attest.CertificateDER()},
		},
	}
	s.lastCommand, s.lastCommandOK = CmdMakeCredential, true
	s.continuation = nil
	return icbor.Marshal(resp)
}

func hasES256(params []pubKeyCredParam) bool {
	for _, p := range params {
		if p.Type == "public-key" && p.Alg == algES256 {
			return true
		}
	}
	return false
}
