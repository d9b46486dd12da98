package domain

const (
	// KeySize is the required size in bytes for every symmetric key in the
	// system: the master key, PIN-derived wrapping keys, and the fallback key.
	KeySize = 32

	// NonceSize is the AES-256-GCM nonce size in bytes (96 bits, random per call).
	NonceSize = 12

	// TagSize is the GCM authentication tag size in bytes (128 bits).
	TagSize = 16

	// PBKDF2Iterations is the fixed iteration count for PIN key derivation
	// and PIN verification hashing. Changing it invalidates stored PIN
	// credentials and wrapped key records.
	PBKDF2Iterations = 200_000
)
