package usecase

import (
	"context"
	"log/slog"

	"github.com/allisson/credstore/internal/auth/domain"
	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
	keysDomain "github.com/allisson/credstore/internal/keys/domain"
	"github.com/allisson/credstore/internal/validation"
)

// PinUseCase orchestrates PIN lifecycle changes. Every change pairs a
// credential update with a master key rewrap, with rollback so the two can
// never point at different wrapping keys.
type PinUseCase struct {
	pins   PinCredentialService
	keys   KeyManager
	logger *slog.Logger
}

// NewPinUseCase creates a PinUseCase.
func NewPinUseCase(pins PinCredentialService, keys KeyManager, logger *slog.Logger) *PinUseCase {
	return &PinUseCase{pins: pins, keys: keys, logger: logger}
}

// Set configures a PIN for the first time. The master key is rewrapped from
// the fallback key to the PIN-derived key before the credential is stored.
func (p *PinUseCase) Set(ctx context.Context, pin string) error {
	if err := validation.ValidatePin(pin); err != nil {
		return err
	}

	hasPin, err := p.pins.HasPin()
	if err != nil {
		return err
	}
	if hasPin {
		return domain.ErrPinAlreadySet
	}

	// Make sure a master key exists before there is a PIN to gate it.
	if _, err := p.keys.CachedKey(); err != nil {
		return err
	}

	salt, err := p.pins.NewSalt()
	if err != nil {
		return err
	}

	wrappingKey := p.pins.DeriveWrappingKey(pin, salt)
	defer cryptoDomain.Zero(wrappingKey)

	if err := p.keys.Rewrap(keysDomain.FallbackWrappingKey(), wrappingKey); err != nil {
		return err
	}

	if err := p.pins.Store(ctx, pin, salt); err != nil {
		// Undo the rewrap so the key stays reachable without the PIN.
		if rollbackErr := p.keys.Rewrap(wrappingKey, keysDomain.FallbackWrappingKey()); rollbackErr != nil {
			p.logger.Error("rewrap rollback failed", "error", rollbackErr)
		}
		return err
	}

	p.logger.Info("PIN configured")
	return nil
}

// Change replaces the PIN. The master key is rewrapped from the old
// PIN-derived key to one derived from the new PIN and a fresh salt, and the
// cached key is evicted so the session must re-authenticate.
func (p *PinUseCase) Change(ctx context.Context, oldPin, newPin string) error {
	if err := validation.ValidatePin(newPin); err != nil {
		return err
	}

	hasPin, err := p.pins.HasPin()
	if err != nil {
		return err
	}
	if !hasPin {
		return domain.ErrPinNotSet
	}

	if err := p.pins.Verify(ctx, oldPin); err != nil {
		return err
	}

	oldSalt, err := p.pins.Salt(ctx)
	if err != nil {
		return err
	}
	newSalt, err := p.pins.NewSalt()
	if err != nil {
		return err
	}

	oldWrap := p.pins.DeriveWrappingKey(oldPin, oldSalt)
	defer cryptoDomain.Zero(oldWrap)
	newWrap := p.pins.DeriveWrappingKey(newPin, newSalt)
	defer cryptoDomain.Zero(newWrap)

	if err := p.keys.Rewrap(oldWrap, newWrap); err != nil {
		return err
	}

	if err := p.pins.Store(ctx, newPin, newSalt); err != nil {
		if rollbackErr := p.keys.Rewrap(newWrap, oldWrap); rollbackErr != nil {
			p.logger.Error("rewrap rollback failed", "error", rollbackErr)
		}
		return err
	}

	p.keys.Evict()
	p.logger.Info("PIN changed")
	return nil
}

// Remove deletes the PIN. The master key is rewrapped back to the fallback
// key and the cached key is evicted.
func (p *PinUseCase) Remove(ctx context.Context, pin string) error {
	hasPin, err := p.pins.HasPin()
	if err != nil {
		return err
	}
	if !hasPin {
		return domain.ErrPinNotSet
	}

	if err := p.pins.Verify(ctx, pin); err != nil {
		return err
	}

	salt, err := p.pins.Salt(ctx)
	if err != nil {
		return err
	}

	wrappingKey := p.pins.DeriveWrappingKey(pin, salt)
	defer cryptoDomain.Zero(wrappingKey)

	if err := p.keys.Rewrap(wrappingKey, keysDomain.FallbackWrappingKey()); err != nil {
		return err
	}

	if err := p.pins.Clear(ctx); err != nil {
		if rollbackErr := p.keys.Rewrap(keysDomain.FallbackWrappingKey(), wrappingKey); rollbackErr != nil {
			p.logger.Error("rewrap rollback failed", "error", rollbackErr)
		}
		return err
	}

	p.keys.Evict()
	p.logger.Info("PIN removed")
	return nil
}

// HasPin reports whether a PIN is currently configured.
func (p *PinUseCase) HasPin() (bool, error) {
	return p.pins.HasPin()
}
