package service

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/pbkdf2"

	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
)

// DeriveKey derives a 32-byte wrapping key from a PIN and salt using
// PBKDF2-SHA256. The iteration count is intentionally high so each guess
// costs milliseconds; pass cryptoDomain.PBKDF2Iterations unless a test needs
// a cheaper setting.
func DeriveKey(pin string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(pin), salt, iterations, cryptoDomain.KeySize, sha256.New)
}

// HashForVerification computes the digest stored for PIN verification. It is
// the same derivation as DeriveKey; the two names keep wrapping keys and
// stored verification digests from being conflated at call sites.
func HashForVerification(pin string, salt []byte, iterations int) []byte {
	return DeriveKey(pin, salt, iterations)
}

// VerifyDigest compares a computed digest against a stored one in constant
// time. Slices of different lengths compare as unequal without leaking the
// position of the first mismatch.
func VerifyDigest(computed, stored []byte) bool {
	return subtle.ConstantTimeCompare(computed, stored) == 1
}
