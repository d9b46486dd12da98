package domain

import (
	"github.com/allisson/credstore/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to provide context for cryptographic failures.
var (
	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	//
	// Every key in the system (master key, PIN-derived wrapping key, fallback
	// key) must be exactly 32 bytes (256 bits).
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates an authenticated decryption failed.
	//
	// This error can occur due to:
	//   - Wrong decryption key used
	//   - Ciphertext or tag has been tampered with (authentication failure)
	//   - Invalid nonce provided
	//
	// For security reasons, the specific cause is not disclosed and no
	// partial plaintext is ever returned.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrMalformedBlob indicates a persisted encrypted blob could not be
	// parsed: wrong encoding, a truncated payload, or bad IV/tag lengths.
	ErrMalformedBlob = errors.Wrap(errors.ErrInvalidInput, "malformed encrypted blob")
)
