// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator

import (
	"fmt"

	"golang.org/x/exp/slices"

	icbor "github.com/fido2key/authenticator/internal/cbor"
)

// getAssertionResponse is the CTAP2_CMD_GET_ASSERTION / GET_NEXT_ASSERTION
// response map (spec.md §4.5 step 8). NumberOfCredentials is omitted on
// get-next-assertion responses.
type getAssertionResponse struct {
	Credential          credentialDescriptorWire `cbor:"1,keyasint"`
	AuthData            []byte                   `cbor:"2,keyasint"`
	Signature           []byte                   `cbor:"3,keyasint"`
	User                userEntity               `cbor:"4,keyasint"`
	NumberOfCredentials int64                    `cbor:"5,keyasint,omitempty"`
}

// gaCandidate is one allow-list entry after validity checking.
type gaCandidate struct {
	id    []byte
	cred  StatelessCredential
	valid bool
}

func (c gaCandidate) sortKey() uint32 {
	if !c.valid {
		return 0
	}
	return c.cred.Count
}

// GetAssertion implements CTAP2_CMD_GET_ASSERTION (spec.md §4.5, C7).
func (s *Session) GetAssertion(payload []byte) ([]byte, error) {
	req, err := decodeGetAssertionRequest(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if req.RPID == "" || len(req.ClientDataHash) != 32 {
		return nil, ErrMissingParameter
	}
	if err := s.verifyPinAuth(req.ClientDataHash, req.PinAuth); err != nil {
		return nil, err
	}

	rp := RelyingParty{ID: req.RPID}

	candidates := make([]gaCandidate, 0, len(req.AllowList))
	for _, entry := range req.AllowList {
		// Unsupported descriptor types are skipped, not parse errors
		// (SPEC_FULL.md §5.3).
		if entry.Type != "public-key" {
			continue
		}
		cred, ok := Verify(s.fc, rp, entry.ID)
		candidates = append(candidates, gaCandidate{id: entry.ID, cred: cred, valid: ok})
	}
	// Descending by count; invalid entries (forced to 0) sort last. Stable
	// with respect to equal counts (spec.md §8 invariant 7).
	slices.SortStableFunc(candidates, func(a, b gaCandidate) int {
		return int(b.sortKey()) - int(a.sortKey())
	})

	validCount := 0
	for _, c := range candidates {
		if c.valid {
			validCount++
		}
	}
	if validCount == 0 {
		return nil, ErrCredentialNotValid
	}

	selected := candidates[0]
	up := s.oracles.UserPresence()

	resp, err := s.signAssertion(rp, up, selected.id, selected.cred, req.ClientDataHash, int64(validCount))
	if err != nil {
		return nil, err
	}

	remaining := make([]StatelessCredential, 0, validCount-1)
	for _, c := range candidates[1:validCount] {
		remaining = append(remaining, c.cred)
	}
	s.continuation = &getAssertionContinuation{
		rp:             rp,
		clientDataHash: req.ClientDataHash,
		up:             up,
		remaining:      remaining,
	}
	s.lastCommand, s.lastCommandOK = CmdGetAssertion, true

	return icbor.Marshal(resp)
}

// GetNextAssertion implements CTAP2_CMD_GET_NEXT_ASSERTION (spec.md §4.5).
func (s *Session) GetNextAssertion() ([]byte, error) {
	eligible := s.lastCommandOK && (s.lastCommand == CmdGetAssertion || s.lastCommand == CmdGetNextAssertion)
	if !eligible || s.continuation == nil || len(s.continuation.remaining) == 0 {
		return nil, ErrNotAllowed
	}

	cont := s.continuation
	next := cont.remaining[0]
	cont.remaining = cont.remaining[1:]

	credID := next.Encode()
	resp, err := s.signAssertion(cont.rp, cont.up, credID[:], next, cont.clientDataHash, 0)
	if err != nil {
		return nil, err
	}

	s.lastCommand, s.lastCommandOK = CmdGetNextAssertion, true
	return icbor.Marshal(resp)
}

// signAssertion builds authenticator-data (no attested credential data),
// signs it, and assembles the response map shared by get-assertion and
// get-next-assertion. numberOfCredentials of 0 omits the field.
func (s *Session) signAssertion(rp RelyingParty, up bool, credentialID []byte, cred StatelessCredential, clientDataHash []byte, numberOfCredentials int64) (getAssertionResponse, error) {
	count, err := s.nextSignCount()
	if err != nil {
		return getAssertionResponse{}, err
	}
	authData, err := BuildAuthData(s.fc, RPIDHash(rp.ID), up, false, count, nil)
	if err != nil {
		return getAssertionResponse{}, err
	}
	sig, err := Sign(s.fc, s.credentialSigner(credentialID), authData, clientDataHash)
	if err != nil {
		return getAssertionResponse{}, err
	}

	user := cred.User()
	return getAssertionResponse{
		Credential:          credentialDescriptorWire{Type: "public-key", ID: credentialID},
		AuthData:            authData,
		Signature:           sig,
		User:                userEntity{ID: user.ID, DisplayName: user.DisplayName},
		NumberOfCredentials: numberOfCredentials,
	}, nil
}
