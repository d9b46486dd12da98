package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
)

// AESGCMCipher implements the AEAD interface using AES-256-GCM.
//
// Each encryption call generates a fresh 12-byte nonce from crypto/rand; the
// 16-byte authentication tag is split off the sealed output so the three
// parts can be persisted in the record formats the store uses.
//
// The cipher instance is stateless and safe for concurrent use.
type AESGCMCipher struct {
	aead cipher.AEAD
}

// NewAESGCM creates a new AES-256-GCM cipher instance.
//
// The key must be exactly 32 bytes (256 bits); keys should come from
// crypto/rand or the PIN derivation in this package.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{aead: aead}, nil
}

// Encrypt encrypts plaintext and returns the blob with IV, ciphertext, and
// tag held separately. A unique nonce is generated per call; with GCM it is
// critical that nonces are never reused under the same key.
func (a *AESGCMCipher) Encrypt(plaintext []byte) (cryptoDomain.EncryptedBlob, error) {
	nonce := make([]byte, a.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return cryptoDomain.EncryptedBlob{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the 16-byte tag to the ciphertext; split it back out.
	sealed := a.aead.Seal(nil, nonce, plaintext, nil)
	tagStart := len(sealed) - cryptoDomain.TagSize

	return cryptoDomain.EncryptedBlob{
		IV:         nonce,
		Ciphertext: sealed[:tagStart],
		Tag:        sealed[tagStart:],
	}, nil
}

// Decrypt authenticates and decrypts a blob.
//
// The tag is verified before any plaintext is returned; wrong key, tampered
// ciphertext, and malformed IV or tag lengths all surface as
// ErrDecryptionFailed without disclosing which.
func (a *AESGCMCipher) Decrypt(blob cryptoDomain.EncryptedBlob) ([]byte, error) {
	if len(blob.IV) != cryptoDomain.NonceSize || len(blob.Tag) != cryptoDomain.TagSize {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	sealed := make([]byte, 0, len(blob.Ciphertext)+len(blob.Tag))
	sealed = append(sealed, blob.Ciphertext...)
	sealed = append(sealed, blob.Tag...)

	plaintext, err := a.aead.Open(nil, blob.IV, sealed, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
