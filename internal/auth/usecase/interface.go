// Package usecase wires PIN credentials, the master key manager, and the
// session store into the authentication flows the CLI drives.
package usecase

import (
	"context"

	"github.com/allisson/credstore/internal/auth/domain"
)

// PinCredentialService stores and verifies the PIN credential.
type PinCredentialService interface {
	HasPin() (bool, error)
	Salt(ctx context.Context) ([]byte, error)
	NewSalt() ([]byte, error)
	Verify(ctx context.Context, pin string) error
	Store(ctx context.Context, pin string, salt []byte) error
	Clear(ctx context.Context) error
	DeriveWrappingKey(pin string, salt []byte) []byte
}

// KeyManager owns the master key cache and its keychain record.
type KeyManager interface {
	CachedKey() ([]byte, error)
	HasCachedKey() bool
	LoadForSession(ctx context.Context, pin string) error
	Rewrap(oldWrappingKey, newWrappingKey []byte) error
	Evict()
}

// SessionStateStore persists per-shell authentication state.
type SessionStateStore interface {
	Load(pid int) (*domain.SessionState, error)
	Save(state domain.SessionState) error
	Clear(pid int) error
	CleanupStale() (int, error)
}
