// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package xcrypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"time"
)

// AttestationKeySource is the external, device-provisioned batch
// attestation key and certificate (spec.md §6: "the attestation
// certificate and key ... are specified in §6 but whose implementations
// are not"). The authenticator core only ever calls Sign and
// CertificateDER; how the key is provisioned and stored is outside the
// spec's scope, hence the interface seam.
type AttestationKeySource interface {
	Sign(rng io.Reader, digest [32]byte) (r, s *big.Int, err error)
	CertificateDER() []byte
}

// SoftwareAttestationKey is a PEM-backed AttestationKeySource, adapted
// from the teacher's delegate.go PEM/x509 helpers (its ASN.1 Delegate-
// Protocol OID logic has no CTAP2 analog and is not carried forward).
type SoftwareAttestationKey struct {
	key  *ecdsa.PrivateKey
	cert []byte
}

// LoadSoftwareAttestationKey parses a PEM-encoded EC private key and an
// accompanying PEM-encoded certificate.
func LoadSoftwareAttestationKey(keyPEM, certPEM []byte) (*SoftwareAttestationKey, error) {
	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, fmt.Errorf("xcrypto: no PEM block found in attestation key")
	}
	key, err := x509.ParseECPrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("xcrypto: parsing attestation key: %w", err)
	}
	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return nil, fmt.Errorf("xcrypto: no PEM block found in attestation cert")
	}
	return &SoftwareAttestationKey{key: key, cert: certBlock.Bytes}, nil
}

// GenerateSelfSignedAttestationKey produces a throwaway ECDSA-P256 key and
// a self-signed certificate over it, for standalone/development use where
// no batch-issued certificate has been provisioned.
func GenerateSelfSignedAttestationKey() (*SoftwareAttestationKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("xcrypto: generating attestation key: %w", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "ctap2 dev attestation"},
		NotBefore:    time.Unix(0, 0),
		NotAfter:     time.Unix(0, 0).AddDate(30, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("xcrypto: self-signing attestation cert: %w", err)
	}
	return &SoftwareAttestationKey{key: key, cert: der}, nil
}

// Sign signs digest with the attestation private key.
func (a *SoftwareAttestationKey) Sign(rng io.Reader, digest [32]byte) (r, s *big.Int, err error) {
	return ecdsa.Sign(rng, a.key, digest[:])
}

// CertificateDER returns the DER-encoded attestation certificate.
func (a *SoftwareAttestationKey) CertificateDER() []byte {
	return a.cert
}
