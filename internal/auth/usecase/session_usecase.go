package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/credstore/internal/auth/domain"
	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
	cryptoService "github.com/allisson/credstore/internal/crypto/service"
	"github.com/allisson/credstore/internal/errors"
)

// SessionUseCase is the authentication gate in front of secret material.
// Every encrypt and decrypt of a secret value goes through it, so nothing
// outside this package can reach the master key without an open session.
type SessionUseCase struct {
	pins     PinCredentialService
	keys     KeyManager
	sessions SessionStateStore
	shellPID int
	logger   *slog.Logger
}

// NewSessionUseCase creates a SessionUseCase bound to one shell process.
func NewSessionUseCase(
	pins PinCredentialService,
	keys KeyManager,
	sessions SessionStateStore,
	shellPID int,
	logger *slog.Logger,
) *SessionUseCase {
	return &SessionUseCase{
		pins:     pins,
		keys:     keys,
		sessions: sessions,
		shellPID: shellPID,
		logger:   logger,
	}
}

// Authenticate opens a session for the shell. With a PIN configured the pin
// argument must verify and unwrap the master key; without one the empty
// string is accepted and the key loads over the fallback path.
func (s *SessionUseCase) Authenticate(ctx context.Context, pin string) error {
	hasPin, err := s.pins.HasPin()
	if err != nil {
		return err
	}

	if hasPin {
		if pin == "" {
			return domain.ErrPinRequired
		}
		if err := s.pins.Verify(ctx, pin); err != nil {
			return err
		}
		if err := s.keys.LoadForSession(ctx, pin); err != nil {
			return err
		}
	} else {
		if _, err := s.keys.CachedKey(); err != nil {
			return err
		}
	}

	state := domain.SessionState{
		Authenticated: true,
		Timestamp:     time.Now().UTC(),
		PID:           s.shellPID,
	}
	if err := s.sessions.Save(state); err != nil {
		return err
	}

	s.logger.Info("session opened", "shell_pid", s.shellPID)
	return nil
}

// Resume restores the session from a previous invocation in the same shell.
// It reports whether a live session exists. Without a PIN it also reloads
// the master key; with a PIN the key stays cold until the next operation
// prompts for it.
func (s *SessionUseCase) Resume(ctx context.Context) (bool, error) {
	state, err := s.sessions.Load(s.shellPID)
	if err != nil {
		return false, err
	}
	if state == nil || !state.Authenticated {
		return false, nil
	}

	if !s.keys.HasCachedKey() {
		hasPin, err := s.pins.HasPin()
		if err != nil {
			return false, err
		}
		if !hasPin {
			if _, err := s.keys.CachedKey(); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

// Deauthenticate closes the session: the cached key is zeroed and the state
// record removed.
func (s *SessionUseCase) Deauthenticate() error {
	s.keys.Evict()
	if err := s.sessions.Clear(s.shellPID); err != nil {
		return err
	}
	s.logger.Info("session closed", "shell_pid", s.shellPID)
	return nil
}

// Authenticated reports whether the shell currently holds a live session.
func (s *SessionUseCase) Authenticated(ctx context.Context) (bool, error) {
	return s.Resume(ctx)
}

// ProvidePin verifies pin and warms the key cache inside an already-open
// session. It is the recovery path for ErrPinRequired on a resumed session.
func (s *SessionUseCase) ProvidePin(ctx context.Context, pin string) error {
	if err := s.pins.Verify(ctx, pin); err != nil {
		return err
	}
	return s.keys.LoadForSession(ctx, pin)
}

// EncryptSecret encrypts plaintext under the master key and returns the
// compact hex form for storage.
func (s *SessionUseCase) EncryptSecret(ctx context.Context, plaintext []byte) (string, error) {
	key, err := s.sessionKey(ctx)
	if err != nil {
		return "", err
	}

	cipher, err := cryptoService.NewAESGCM(key)
	if err != nil {
		return "", err
	}
	blob, err := cipher.Encrypt(plaintext)
	if err != nil {
		return "", err
	}
	return blob.EncodeHex(), nil
}

// DecryptSecret decrypts a stored hex-encoded secret.
func (s *SessionUseCase) DecryptSecret(ctx context.Context, encoded string) ([]byte, error) {
	key, err := s.sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	blob, err := cryptoDomain.DecodeHex(encoded)
	if err != nil {
		return nil, err
	}

	cipher, err := cryptoService.NewAESGCM(key)
	if err != nil {
		return nil, err
	}
	return cipher.Decrypt(blob)
}

// sessionKey enforces the authentication gate and returns the master key.
// ErrNotAuthenticated means no session exists; ErrPinRequired means the
// session is live but this process still needs the PIN.
func (s *SessionUseCase) sessionKey(ctx context.Context) ([]byte, error) {
	resumed, err := s.Resume(ctx)
	if err != nil {
		return nil, err
	}

	key, err := s.keys.CachedKey()
	if err != nil {
		if errors.Is(err, domain.ErrPinRequired) && !resumed {
			return nil, domain.ErrNotAuthenticated
		}
		return nil, err
	}
	return key, nil
}
