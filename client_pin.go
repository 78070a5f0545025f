// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator

import (
	"bytes"
	"crypto/subtle"
	"fmt"

	icbor "github.com/fido2key/authenticator/internal/cbor"
	"github.com/fido2key/authenticator/internal/cose"
	"github.com/fido2key/authenticator/internal/xcrypto"
)

const pinProtocolV1 = 1

type pinRetriesResponse struct {
	Retries int64 `cbor:"3,keyasint"`
}

type pinKeyAgreementResponse struct {
	KeyAgreement map[int]any `cbor:"1,keyasint"`
}

type pinTokenResponse struct {
	PinToken []byte `cbor:"2,keyasint"`
}

// ClientPIN implements CTAP2_CMD_CLIENT_PIN (spec.md §4.6, C8).
func (s *Session) ClientPIN(payload []byte) ([]byte, error) {
	req, err := decodeClientPinRequest(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if req.PinProtocol != pinProtocolV1 {
		return nil, fmt.Errorf("ctap2: unsupported pin protocol %d", req.PinProtocol)
	}

	switch req.SubCommand {
	case pinSubGetRetries:
		return icbor.Marshal(pinRetriesResponse{Retries: int64(s.pinRetries)})
	case pinSubGetKeyAgreement:
		x, y := s.keyAgreement.PublicXY()
		return icbor.Marshal(pinKeyAgreementResponse{KeyAgreement: cose.BuildEC2Key(x, y)})
	case pinSubSetPin:
		return s.clientPinSetPin(req)
	case pinSubChangePin:
		return s.clientPinChangePin(req)
	case pinSubGetPinToken:
		return s.clientPinGetPinToken(req)
	default:
		return nil, fmt.Errorf("ctap2: unrecognized client pin subcommand %d", req.SubCommand)
	}
}

// sharedSecret derives SHA256(ECDH(platform_pub, key_agreement_priv)),
// the PIN protocol v1 shared secret common to setPin/changePin/
// getPinToken (spec.md §4.6).
func (s *Session) sharedSecret(key coseKeyWire) ([32]byte, error) {
	if len(key.X) != 32 || len(key.Y) != 32 {
		return [32]byte{}, fmt.Errorf("%w: malformed platform keyAgreement", ErrMissingParameter)
	}
	var x, y [32]byte
	copy(x[:], key.X)
	copy(y[:], key.Y)
	return s.keyAgreement.SharedSecret(x, y)
}

// decryptPin AES-256-CBC-decrypts newPinEnc under shared (zero IV) and
// extracts the NUL-terminated PIN, enforcing the minimum length invariant
// (spec.md §4.6: "length >= 4").
func decryptPin(shared [32]byte, newPinEnc []byte) (string, error) {
	if len(newPinEnc) < 64 {
		return "", fmt.Errorf("%w: newPinEnc too short", ErrPinPolicyViolation)
	}
	cipher, err := xcrypto.NewCBCCipher(shared)
	if err != nil {
		return "", err
	}
	buf := append([]byte(nil), newPinEnc...)
	if err := cipher.DecryptInPlace(buf); err != nil {
		return "", fmt.Errorf("ctap2: decrypting newPinEnc: %w", err)
	}
	defer zero(buf)

	nul := bytes.IndexByte(buf, 0x00)
	if nul < 0 {
		return "", fmt.Errorf("ctap2: newPinEnc not NUL-terminated")
	}
	if nul < 4 {
		return "", fmt.Errorf("%w: pin shorter than 4 bytes", ErrPinPolicyViolation)
	}
	return string(buf[:nul]), nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// clientPinSetPin implements the setPin subcommand, permitted only when
// no PIN is currently set (spec.md §4.6).
func (s *Session) clientPinSetPin(req clientPinRequest) ([]byte, error) {
	if s.pinCodeSet {
		return nil, fmt.Errorf("%w: pin already set", ErrNotAllowed)
	}
	shared, err := s.sharedSecret(req.KeyAgreement)
	if err != nil {
		return nil, err
	}
	want := xcrypto.HMACSHA256(shared[:], req.NewPinEnc)
	if subtle.ConstantTimeCompare(want[:16], req.PinAuth) != 1 {
		return nil, ErrPinAuthInvalid
	}
	pin, err := decryptPin(shared, req.NewPinEnc)
	if err != nil {
		return nil, err
	}
	s.installPin(pin)
	if err := s.persist(); err != nil {
		return nil, err
	}
	return icbor.Marshal(struct{}{})
}

// clientPinChangePin implements the changePin subcommand, permitted only
// when a PIN is already set.
func (s *Session) clientPinChangePin(req clientPinRequest) ([]byte, error) {
	if !s.pinCodeSet {
		return nil, ErrPinNotSet
	}
	if len(req.PinHashEnc) != 16 {
		return nil, ErrMissingParameter
	}
	shared, err := s.sharedSecret(req.KeyAgreement)
	if err != nil {
		return nil, err
	}
	mac := xcrypto.HMACSHA256(shared[:], append(append([]byte(nil), req.NewPinEnc...), req.PinHashEnc...))
	if subtle.ConstantTimeCompare(mac[:16], req.PinAuth) != 1 {
		return nil, ErrPinAuthInvalid
	}

	if !s.verifyCurrentPinHash(shared, req.PinHashEnc) {
		if err := s.regenerateKeyAgreement(); err != nil {
			return nil, err
		}
		if err := s.decrementPinRetries(); err != nil {
			return nil, err
		}
		return nil, ErrPinInvalid
	}

	pin, err := decryptPin(shared, req.NewPinEnc)
	if err != nil {
		return nil, err
	}
	if err := s.resetPinRetries(); err != nil {
		return nil, err
	}
	s.installPin(pin)
	if err := s.persist(); err != nil {
		return nil, err
	}
	return icbor.Marshal(struct{}{})
}

// clientPinGetPinToken implements the getPinToken subcommand, permitted
// only when a PIN is already set.
func (s *Session) clientPinGetPinToken(req clientPinRequest) ([]byte, error) {
	if !s.pinCodeSet {
		return nil, ErrPinNotSet
	}
	if len(req.PinHashEnc) != 16 {
		return nil, ErrMissingParameter
	}
	shared, err := s.sharedSecret(req.KeyAgreement)
	if err != nil {
		return nil, err
	}

	if !s.verifyCurrentPinHash(shared, req.PinHashEnc) {
		if err := s.regenerateKeyAgreement(); err != nil {
			return nil, err
		}
		if err := s.decrementPinRetries(); err != nil {
			return nil, err
		}
		return nil, ErrPinInvalid
	}

	if err := s.resetPinRetries(); err != nil {
		return nil, err
	}

	cipher, err := xcrypto.NewCBCCipher(shared)
	if err != nil {
		return nil, err
	}
	enc := append([]byte(nil), s.pinToken[:]...)
	if err := cipher.EncryptInPlace(enc); err != nil {
		return nil, fmt.Errorf("ctap2: encrypting pin_token: %w", err)
	}
	return icbor.Marshal(pinTokenResponse{PinToken: enc})
}

// verifyCurrentPinHash AES-decrypts pinHashEnc under shared (zero IV) and
// compares it in constant time to the stored pin_code_hash.
func (s *Session) verifyCurrentPinHash(shared [32]byte, pinHashEnc []byte) bool {
	cipher, err := xcrypto.NewCBCCipher(shared)
	if err != nil {
		return false
	}
	buf := append([]byte(nil), pinHashEnc...)
	if err := cipher.DecryptInPlace(buf); err != nil {
		return false
	}
	defer zero(buf)
	return subtle.ConstantTimeCompare(buf, s.pinCodeHash[:]) == 1
}

// installPin hashes and stores pin as the new pin_code_hash (left-
// truncated SHA-256, spec.md §3), and marks pin_code_set.
func (s *Session) installPin(pin string) {
	digest := xcrypto.SHA256([]byte(pin))
	copy(s.pinCodeHash[:], digest[:16])
	s.pinCodeSet = true
}
