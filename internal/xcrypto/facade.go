// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

// Package xcrypto is the crypto facade (spec component C1): SHA-256/HMAC,
// ECDSA-P256 key derivation/signing, ECDH key agreement, AES-256-CBC, and
// RNG, all built on stdlib crypto primitives (no ecosystem EC/AES/SHA
// library supersedes stdlib here; see DESIGN.md).
package xcrypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"io"
	"math/big"
)

// Facade holds the device master secret and provides every cryptographic
// operation the authenticator core needs. It has no other state: it is
// not itself a Signer for any one credential, only a factory for the
// deterministic per-credential keys the stateless-credential scheme
// reconstructs on demand.
type Facade struct {
	rng          io.Reader
	masterSecret []byte
}

// New returns a Facade using crypto/rand as its RNG and a freshly
// generated master secret (see ResetMasterSecret).
func New() *Facade {
	f := &Facade{rng: rand.Reader}
	f.ResetMasterSecret()
	return f
}

// NewWithRNG returns a Facade using rng for all randomness. Used by tests
// to make make-credential/reset/key-agreement deterministic.
func NewWithRNG(rng io.Reader) *Facade {
	f := &Facade{rng: rng}
	f.ResetMasterSecret()
	return f
}

// RNG fills buf with random bytes, reporting whether it succeeded.
func (f *Facade) RNG(buf []byte) bool {
	_, err := io.ReadFull(f.rng, buf)
	return err == nil
}

// ResetMasterSecret regenerates device_master_secret. Called on factory
// reset and on first boot when no persisted secret exists.
func (f *Facade) ResetMasterSecret() {
	secret := make([]byte, 32)
	if !f.RNG(secret) {
		panic("xcrypto: RNG failure generating master secret")
	}
	f.masterSecret = secret
}

// LoadMasterSecret installs a previously-persisted master secret (used on
// boot when the device state store has one).
func (f *Facade) LoadMasterSecret(secret []byte) {
	f.masterSecret = append([]byte(nil), secret...)
}

// MasterSecret returns the current device master secret, for persistence.
// Callers must zero the slice returned once done with it if it is about
// to leave a guarded buffer.
func (f *Facade) MasterSecret() []byte {
	return f.masterSecret
}

// SHA256 returns the SHA-256 digest of the concatenation of parts.
func SHA256(parts ...[]byte) [32]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p) //nolint:errcheck // hash.Hash.Write never errors
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HMACSHA256 returns HMAC-SHA256(key, concatenation of parts).
func HMACSHA256(key []byte, parts ...[]byte) [32]byte {
	mac := hmac.New(sha256.New, key)
	for _, p := range parts {
		mac.Write(p) //nolint:errcheck
	}
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// UpdateWithDeviceSecret mixes the facade's device master secret into a
// running SHA-256 state, mirroring the firmware's
// crypto_sha256_update_secret step used while building the credential tag.
func (f *Facade) UpdateWithDeviceSecret(parts ...[]byte) [32]byte {
	return SHA256(append(append([][]byte(nil), parts...), f.masterSecret)...)
}

// scalarFromSeed reduces HMAC-SHA256(masterSecret, seed) modulo the P-256
// group order to get a deterministic, device-bound private scalar. The
// seed is the credential-id bytes (spec.md §4.2): anyone can read the
// credential-id off the wire, but only a device holding masterSecret can
// recompute the private scalar from it, which is what lets a credential-id
// double as both an RP-facing cookie and a re-derivable signing key seed.
func (f *Facade) scalarFromSeed(seed []byte) *big.Int {
	digest := HMACSHA256(f.masterSecret, seed)
	n := elliptic.P256().Params().N
	scalar := new(big.Int).SetBytes(digest[:])
	scalar.Mod(scalar, new(big.Int).Sub(n, big.NewInt(1)))
	scalar.Add(scalar, big.NewInt(1)) // land in [1, N-1]
	return scalar
}

// DeriveKeyFromSeed deterministically reconstructs the ECDSA-P256 private
// key bound to seed (the credential-id bytes) and the facade's current
// master secret.
func (f *Facade) DeriveKeyFromSeed(seed []byte) *ecdsa.PrivateKey {
	curve := elliptic.P256()
	d := f.scalarFromSeed(seed)
	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = curve
	priv.D = d
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(d.Bytes())
	return priv
}

// DerivePublicKeyFromSeed returns the (x, y) coordinates of the public key
// that DeriveKeyFromSeed(seed) produces; it derives the full key through
// DeriveKeyFromSeed and returns only the public coordinates.
func (f *Facade) DerivePublicKeyFromSeed(seed []byte) (x, y [32]byte) {
	pub := f.DeriveKeyFromSeed(seed).PublicKey
	pub.X.FillBytes(x[:])
	pub.Y.FillBytes(y[:])
	return x, y
}

// Sign produces a raw (r, s) ECDSA-P256 signature over digest.
func (f *Facade) Sign(priv *ecdsa.PrivateKey, digest [32]byte) (r, s *big.Int, err error) {
	return ecdsa.Sign(f.rng, priv, digest[:])
}

// Rand returns the facade's configured randomness source, for callers
// (such as an AttestationKeySource) that need to share it.
func (f *Facade) Rand() io.Reader {
	return f.rng
}
