// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator

import (
	"encoding/binary"
	"fmt"

	icbor "github.com/fido2key/authenticator/internal/cbor"
	"github.com/fido2key/authenticator/internal/cose"
	"github.com/fido2key/authenticator/internal/xcrypto"
)

// Authenticator-data flag bits (spec.md §4.2).
const (
	flagUserPresent          byte = 1 << 0
	flagUserVerified         byte = 1 << 2
	flagAttestedCredPresent  byte = 1 << 6
)

// AttestedCredentialData is the optional trailer appended to
// authenticator-data during make-credential (spec.md §4.2).
type AttestedCredentialData struct {
	AAGUID       [16]byte
	CredentialID []byte
}

// BuildAuthData assembles the authenticator-data byte buffer: rpIdHash ‖
// flags ‖ signCount(BE) ‖ optional attestedCredentialData. signCount is
// written in network (big-endian) byte order here; this is independent of
// whatever in-memory byte order a tag computation uses elsewhere (spec.md
// §9: "the two must not be conflated").
func BuildAuthData(fc *xcrypto.Facade, rpIDHash [32]byte, userPresent, userVerified bool, signCount uint32, attested *AttestedCredentialData) ([]byte, error) {
	buf := make([]byte, 0, 256)
	buf = append(buf, rpIDHash[:]...)

	var flags byte
	if userPresent {
		flags |= flagUserPresent
	}
	if userVerified {
		flags |= flagUserVerified
	}
	if attested != nil {
		flags |= flagAttestedCredPresent
	}
	buf = append(buf, flags)

	var countBE [4]byte
	binary.BigEndian.PutUint32(countBE[:], signCount)
	buf = append(buf, countBE[:]...)

	if attested != nil {
		if len(attested.CredentialID) > 0xFFFF {
			return nil, fmt.Errorf("authenticator: credential id too long for attestedCredentialData")
		}
		buf = append(buf, attested.AAGUID[:]...)
		var credLen [2]byte
		binary.BigEndian.PutUint16(credLen[:], uint16(len(attested.CredentialID)))
		buf = append(buf, credLen[:]...)
		buf = append(buf, attested.CredentialID...)

		x, y := fc.DerivePublicKeyFromSeed(attested.CredentialID)
		coseKey, err := icbor.Marshal(cose.BuildEC2Key(x, y))
		if err != nil {
			return nil, fmt.Errorf("authenticator: encoding COSE_Key: %w", err)
		}
		buf = append(buf, coseKey...)
	}

	return buf, nil
}

// RPIDHash returns SHA256(rpID), the first 32 bytes of authenticator-data.
func RPIDHash(rpID string) [32]byte {
	return xcrypto.SHA256([]byte(rpID))
}
