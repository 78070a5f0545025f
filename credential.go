// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator

import (
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/fido2key/authenticator/internal/xcrypto"
)

// CredentialIDSize is the fixed size of a stateless credential-id, per
// spec.md §3. Implementations must preserve this layout exactly: changing
// it breaks every previously-issued credential (spec.md §9).
const CredentialIDSize = 150

const (
	tagSize         = 16
	userIDMaxSize   = 64
	displayNameSize = 60
	nameHashLimit   = 64 // spec.md §4.1: user.name is NUL-truncated up to 64B in the tag hash
)

// StatelessCredential is the self-authenticating 150-byte credential-id
// blob (spec.md §3 "Credential identity"). It is simultaneously (a) the
// opaque cookie returned to the RP, (b) the seed the signing keypair is
// re-derived from, and (c) the carrier of the tag that authenticates its
// own (rp, user, count) fields against the device master secret.
type StatelessCredential struct {
	Tag         [tagSize]byte
	UserIDLen   uint8
	UserID      [userIDMaxSize]byte
	DisplayLen  uint8
	DisplayName [displayNameSize]byte
	Count       uint32 // in-memory byte order, see MakeTag doc comment
}

// Encode writes the fixed 150-byte wire layout.
func (c StatelessCredential) Encode() [CredentialIDSize]byte {
	var out [CredentialIDSize]byte
	off := 0
	off += copy(out[off:], c.Tag[:])
	out[off] = c.UserIDLen
	off++
	off += copy(out[off:], c.UserID[:])
	out[off] = c.DisplayLen
	off++
	off += copy(out[off:], c.DisplayName[:])
	binary.LittleEndian.PutUint32(out[off:off+4], c.Count)
	off += 4
	// remaining bytes are padding, left zero
	return out
}

// DecodeCredential parses a 150-byte credential-id blob.
func DecodeCredential(b []byte) (StatelessCredential, error) {
	if len(b) != CredentialIDSize {
		return StatelessCredential{}, fmt.Errorf("%w: credential id must be %d bytes, got %d", ErrCredentialNotValid, CredentialIDSize, len(b))
	}
	var c StatelessCredential
	off := 0
	copy(c.Tag[:], b[off:off+tagSize])
	off += tagSize
	c.UserIDLen = b[off]
	off++
	copy(c.UserID[:], b[off:off+userIDMaxSize])
	off += userIDMaxSize
	c.DisplayLen = b[off]
	off++
	copy(c.DisplayName[:], b[off:off+displayNameSize])
	off += displayNameSize
	c.Count = binary.LittleEndian.Uint32(b[off : off+4])
	return c, nil
}

// User reconstructs the User entity stored inside the credential.
func (c StatelessCredential) User() User {
	idLen := int(c.UserIDLen)
	if idLen > userIDMaxSize {
		idLen = userIDMaxSize
	}
	nameLen := int(c.DisplayLen)
	if nameLen > displayNameSize {
		nameLen = displayNameSize
	}
	return User{
		ID:          append([]byte(nil), c.UserID[:idLen]...),
		DisplayName: string(c.DisplayName[:nameLen]),
	}
}

func nameForHash(name string) []byte {
	b := []byte(name)
	if len(b) > nameHashLimit {
		b = b[:nameHashLimit]
	}
	return b
}

// MakeTag computes the 16-byte tag binding (rp, user, count) to the
// device master secret (spec.md §4.1, invariant 1):
//
//	tag = H(rp.id ‖ user.id ‖ user.displayName[:64] ‖ count_LE32 ‖ device_master_secret)[:16]
//
// The name hashed is the user's display name, the only name the
// credential stores.
//
// The byte order of count here is an internal convention (little-endian,
// see DESIGN.md Open Question 1): it only has to be applied identically
// in MakeTag and Verify, never compared across devices or against the
// big-endian signCount written into authenticator-data.
func MakeTag(fc *xcrypto.Facade, rp RelyingParty, user User, count uint32) [tagSize]byte {
	var countLE [4]byte
	binary.LittleEndian.PutUint32(countLE[:], count)
	digest := fc.UpdateWithDeviceSecret([]byte(rp.ID), user.ID, nameForHash(user.DisplayName), countLE[:])
	var tag [tagSize]byte
	copy(tag[:], digest[:tagSize])
	return tag
}

// NewCredential builds a fresh stateless credential for (rp, user) at the
// given sign-counter value.
func NewCredential(fc *xcrypto.Facade, rp RelyingParty, user User, count uint32) (StatelessCredential, error) {
	if len(user.ID) > userIDMaxSize {
		return StatelessCredential{}, fmt.Errorf("%w: user id too long (%d > %d)", ErrMissingParameter, len(user.ID), userIDMaxSize)
	}
	if len(user.DisplayName) > displayNameSize {
		user.DisplayName = user.DisplayName[:displayNameSize]
	}
	c := StatelessCredential{Count: count}
	c.UserIDLen = uint8(len(user.ID))
	copy(c.UserID[:], user.ID)
	c.DisplayLen = uint8(len(user.DisplayName))
	copy(c.DisplayName[:], user.DisplayName)
	c.Tag = MakeTag(fc, rp, c.User(), count)
	return c, nil
}

// Verify recomputes the tag from the (rp, user, count) fields embedded in
// credentialID and compares it in constant time to the tag also
// embedded there. A malformed or wrong-size credential-id is simply
// invalid, not an error.
func Verify(fc *xcrypto.Facade, rp RelyingParty, credentialID []byte) (StatelessCredential, bool) {
	cred, err := DecodeCredential(credentialID)
	if err != nil {
		return StatelessCredential{}, false
	}
	want := MakeTag(fc, rp, cred.User(), cred.Count)
	if subtle.ConstantTimeCompare(want[:], cred.Tag[:]) != 1 {
		return StatelessCredential{}, false
	}
	return cred, true
}
