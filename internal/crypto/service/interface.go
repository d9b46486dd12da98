// Package service implements the cipher engine: authenticated encryption of
// byte blobs under a 32-byte key, and the slow PIN key derivation used for
// wrapping and verification.
package service

import (
	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
)

// AEAD defines stateless authenticated encryption over encrypted blobs.
type AEAD interface {
	// Encrypt encrypts plaintext and returns the IV, ciphertext, and tag.
	Encrypt(plaintext []byte) (cryptoDomain.EncryptedBlob, error)

	// Decrypt authenticates and decrypts a blob. It fails closed: any tag
	// mismatch or malformed input yields ErrDecryptionFailed and no plaintext.
	Decrypt(blob cryptoDomain.EncryptedBlob) ([]byte, error)
}
