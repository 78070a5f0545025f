// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator

import (
	"math/big"

	"github.com/fido2key/authenticator/internal/xcrypto"
)

// Sign computes SHA256(authData ‖ clientDataHash), signs it with the
// signer callback (fc is not used), and returns the signature as
// ASN.1/DER SEQUENCE{r,s}
// (spec.md §4.3). The DER encoding is hand-rolled rather than delegated to
// encoding/asn1 so the leading-zero-stripping and length bookkeeping the
// spec calls out as a testable property (§8 invariant 4) is explicit and
// independently verifiable.
func Sign(fc *xcrypto.Facade, signer func(digest [32]byte) (r, s *big.Int, err error), authData, clientDataHash []byte) ([]byte, error) {
	digest := xcrypto.SHA256(authData, clientDataHash)
	r, s, err := signer(digest)
	if err != nil {
		return nil, err
	}
	return EncodeDERSignature(r, s), nil
}

// EncodeDERSignature serializes (r, s) as ASN.1/DER SEQUENCE { INTEGER r,
// INTEGER s }, per spec.md §4.3: leading zero bytes are stripped from each
// integer, a single 0x00 is reinserted if the MSB would otherwise make the
// integer look negative, and the length bytes are computed from the
// actual resulting sizes (never assumed to be 32).
func EncodeDERSignature(r, s *big.Int) []byte {
	rBytes := derInteger(r)
	sBytes := derInteger(s)

	content := make([]byte, 0, len(rBytes)+len(sBytes)+4)
	content = append(content, 0x02, byte(len(rBytes)))
	content = append(content, rBytes...)
	content = append(content, 0x02, byte(len(sBytes)))
	content = append(content, sBytes...)

	out := make([]byte, 0, len(content)+2)
	out = append(out, 0x30, byte(len(content)))
	out = append(out, content...)
	return out
}

// derInteger returns the minimal big-endian two's-complement-safe encoding
// of a non-negative big.Int: leading zero bytes stripped, with a single
// 0x00 prefix re-added if the most significant bit of the remaining bytes
// is set (so the integer is never misread as negative).
func derInteger(v *big.Int) []byte {
	b := v.Bytes()
	i := 0
	for i < len(b)-1 && b[i] == 0x00 {
		i++
	}
	b = b[i:]
	if len(b) == 0 {
		return []byte{0x00}
	}
	if b[0]&0x80 != 0 {
		out := make([]byte, 0, len(b)+1)
		out = append(out, 0x00)
		out = append(out, b...)
		return out
	}
	return b
}

// DecodeDERSignature parses a DER SEQUENCE{INTEGER r, INTEGER s}, the
// inverse of EncodeDERSignature, used only by tests validating the §8
// invariant 4 round trip.
func DecodeDERSignature(der []byte) (r, s *big.Int, ok bool) {
	if len(der) < 2 || der[0] != 0x30 {
		return nil, nil, false
	}
	total := int(der[1])
	if len(der) != total+2 {
		return nil, nil, false
	}
	rest := der[2:]
	r, rest, ok = readDERInteger(rest)
	if !ok {
		return nil, nil, false
	}
	s, rest, ok = readDERInteger(rest)
	if !ok || len(rest) != 0 {
		return nil, nil, false
	}
	return r, s, true
}

func readDERInteger(b []byte) (*big.Int, []byte, bool) {
	if len(b) < 2 || b[0] != 0x02 {
		return nil, nil, false
	}
	n := int(b[1])
	if len(b) < 2+n {
		return nil, nil, false
	}
	return new(big.Int).SetBytes(b[2 : 2+n]), b[2+n:], true
}
