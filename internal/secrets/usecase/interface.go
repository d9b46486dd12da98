// Package usecase implements entry management: plaintext entry records in
// the database paired with encrypted secret values gated by the session.
package usecase

import (
	"context"

	"github.com/allisson/credstore/internal/secrets/domain"
)

// EntryRepository persists plaintext entry records.
type EntryRepository interface {
	Get(ctx context.Context, name string) (*domain.Entry, error)
	List(ctx context.Context) (map[string]*domain.Entry, error)
	Save(ctx context.Context, entry *domain.Entry) error
	Delete(ctx context.Context, name string) (bool, error)
}

// SecretRepository persists encrypted secret values keyed by entry name.
type SecretRepository interface {
	Get(ctx context.Context, name string) (string, error)
	Save(ctx context.Context, name, encryptedValue string) error
	Delete(ctx context.Context, name string) (bool, error)
	Names(ctx context.Context) ([]string, error)
}

// SecretCipher encrypts and decrypts secret values through the session
// gate.
type SecretCipher interface {
	EncryptSecret(ctx context.Context, plaintext []byte) (string, error)
	DecryptSecret(ctx context.Context, encoded string) ([]byte, error)
}
