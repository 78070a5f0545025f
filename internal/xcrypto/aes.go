// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package xcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// CBCCipher wraps AES-256-CBC with the zero IV convention PIN protocol v1
// uses for every PIN-envelope encrypt/decrypt operation (spec.md §4.6):
// each operation resets the IV to zero rather than chaining across calls.
type CBCCipher struct {
	block cipher.Block
}

// NewCBCCipher initializes AES-256-CBC with a 32-byte key.
func NewCBCCipher(key [32]byte) (*CBCCipher, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("xcrypto: aes key init: %w", err)
	}
	return &CBCCipher{block: block}, nil
}

// EncryptInPlace CBC-encrypts buf (whose length must be a multiple of the
// AES block size) using a zero IV, in place.
func (c *CBCCipher) EncryptInPlace(buf []byte) error {
	if len(buf)%aes.BlockSize != 0 {
		return fmt.Errorf("xcrypto: buffer length %d is not a multiple of the AES block size", len(buf))
	}
	var iv [aes.BlockSize]byte
	cipher.NewCBCEncrypter(c.block, iv[:]).CryptBlocks(buf, buf)
	return nil
}

// DecryptInPlace CBC-decrypts buf using a zero IV, in place.
func (c *CBCCipher) DecryptInPlace(buf []byte) error {
	if len(buf)%aes.BlockSize != 0 {
		return fmt.Errorf("xcrypto: buffer length %d is not a multiple of the AES block size", len(buf))
	}
	var iv [aes.BlockSize]byte
	cipher.NewCBCDecrypter(c.block, iv[:]).CryptBlocks(buf, buf)
	return nil
}
