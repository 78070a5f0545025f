// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package xcrypto

import (
	"crypto/ecdh"
	"crypto/elliptic"
	"fmt"
	"math/big"
)

// KeyAgreementKeyPair is the authenticator's ephemeral P-256 key-agreement
// keypair (process-volatile state, regenerated on init/reset/PIN failure).
type KeyAgreementKeyPair struct {
	priv *ecdh.PrivateKey
}

// GenerateKeyAgreementKeyPair generates a fresh ephemeral P-256 keypair.
func (f *Facade) GenerateKeyAgreementKeyPair() (*KeyAgreementKeyPair, error) {
	priv, err := ecdh.P256().GenerateKey(f.rng)
	if err != nil {
		return nil, fmt.Errorf("xcrypto: generating key-agreement keypair: %w", err)
	}
	return &KeyAgreementKeyPair{priv: priv}, nil
}

// PublicXY returns the uncompressed (x, y) coordinates of the public key.
func (k *KeyAgreementKeyPair) PublicXY() (x, y [32]byte) {
	raw := k.priv.PublicKey().Bytes() // 0x04 || X || Y
	copy(x[:], raw[1:33])
	copy(y[:], raw[33:65])
	return x, y
}

// SharedSecret computes SHA256(ECDH(peerX, peerY, ourPriv)), the PIN
// protocol v1 shared secret (spec.md §4.6). peerX/peerY are the platform's
// uncompressed P-256 public key coordinates.
func (k *KeyAgreementKeyPair) SharedSecret(peerX, peerY [32]byte) ([32]byte, error) {
	raw := make([]byte, 0, 65)
	raw = append(raw, 0x04)
	raw = append(raw, peerX[:]...)
	raw = append(raw, peerY[:]...)
	peerPub, err := ecdh.P256().NewPublicKey(raw)
	if err != nil {
		return [32]byte{}, fmt.Errorf("xcrypto: invalid platform key-agreement public key: %w", err)
	}
	shared, err := k.priv.ECDH(peerPub)
	if err != nil {
		return [32]byte{}, fmt.Errorf("xcrypto: ECDH failed: %w", err)
	}
	return SHA256(shared), nil
}

// curveOrder returns the P-256 group order N. It is unexported and no
// test or other code in this module calls it.
func curveOrder() *big.Int {
	return elliptic.P256().Params().N
}
