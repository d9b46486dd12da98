// Package service implements PIN credential storage and verification, and
// the per-shell session state store.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/allisson/credstore/internal/auth/domain"
	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
	cryptoService "github.com/allisson/credstore/internal/crypto/service"
	"github.com/allisson/credstore/internal/database"
	"github.com/allisson/credstore/internal/errors"
	"github.com/allisson/credstore/internal/keychain"
)

// pinSetFlagValue is the record body for the pin-set flag; only the record's
// existence matters.
const pinSetFlagValue = "true"

// PinService stores and verifies the PIN credential. The digest and salt
// live in the settings table; the pin-set flag lives in the keychain so
// HasPin works before the database is open.
type PinService struct {
	keychain        keychain.Keychain
	settings        *database.SettingRepository
	keychainService string
	iterations      int
}

// NewPinService creates a PinService.
func NewPinService(
	kc keychain.Keychain,
	settings *database.SettingRepository,
	keychainService string,
	iterations int,
) *PinService {
	return &PinService{
		keychain:        kc,
		settings:        settings,
		keychainService: keychainService,
		iterations:      iterations,
	}
}

// HasPin reports whether a PIN is configured, consulting only the keychain
// flag.
func (p *PinService) HasPin() (bool, error) {
	_, err := p.keychain.Get(p.keychainService, domain.PinSetFlagAccount)
	if err != nil {
		if errors.Is(err, keychain.ErrNotFound) {
			return false, nil
		}
		return false, errors.Wrap(err, "read PIN flag")
	}
	return true, nil
}

// Salt returns the stored PIN salt.
func (p *PinService) Salt(ctx context.Context) ([]byte, error) {
	encoded, err := p.settings.Get(ctx, domain.PinSaltKey)
	if err != nil {
		return nil, errors.Wrap(err, "read PIN salt")
	}
	salt, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "malformed PIN salt")
	}
	return salt, nil
}

// NewSalt generates a fresh PIN salt.
func (p *PinService) NewSalt() ([]byte, error) {
	salt := make([]byte, domain.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "generate PIN salt")
	}
	return salt, nil
}

// Verify checks pin against the stored digest in constant time.
func (p *PinService) Verify(ctx context.Context, pin string) error {
	storedHex, err := p.settings.Get(ctx, domain.PinHashKey)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return domain.ErrPinNotSet
		}
		return errors.Wrap(err, "read PIN digest")
	}
	stored, err := hex.DecodeString(storedHex)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "malformed PIN digest")
	}

	salt, err := p.Salt(ctx)
	if err != nil {
		return err
	}

	computed := cryptoService.HashForVerification(pin, salt, p.iterations)
	defer cryptoDomain.Zero(computed)

	if !cryptoService.VerifyDigest(computed, stored) {
		return domain.ErrInvalidPin
	}
	return nil
}

// Store persists the credential for pin under salt and raises the pin-set
// flag. A failure to raise the flag rolls the settings back so HasPin and
// the stored digest never disagree.
func (p *PinService) Store(ctx context.Context, pin string, salt []byte) error {
	digest := cryptoService.HashForVerification(pin, salt, p.iterations)
	defer cryptoDomain.Zero(digest)

	if err := p.settings.Set(ctx, domain.PinSaltKey, hex.EncodeToString(salt)); err != nil {
		return errors.Wrap(err, "store PIN salt")
	}
	if err := p.settings.Set(ctx, domain.PinHashKey, hex.EncodeToString(digest)); err != nil {
		return errors.Wrap(err, "store PIN digest")
	}
	if err := p.keychain.Set(p.keychainService, domain.PinSetFlagAccount, pinSetFlagValue); err != nil {
		// Without the flag the credential is unreachable; drop it.
		_ = p.settings.Delete(ctx, domain.PinHashKey)
		_ = p.settings.Delete(ctx, domain.PinSaltKey)
		return errors.Wrap(err, "raise PIN flag")
	}
	return nil
}

// Clear removes the stored credential and lowers the pin-set flag.
func (p *PinService) Clear(ctx context.Context) error {
	if err := p.keychain.Delete(p.keychainService, domain.PinSetFlagAccount); err != nil &&
		!errors.Is(err, keychain.ErrNotFound) {
		return errors.Wrap(err, "lower PIN flag")
	}
	if err := p.settings.Delete(ctx, domain.PinHashKey); err != nil {
		return errors.Wrap(err, "delete PIN digest")
	}
	if err := p.settings.Delete(ctx, domain.PinSaltKey); err != nil {
		return errors.Wrap(err, "delete PIN salt")
	}
	return nil
}

// DeriveWrappingKey derives the master key wrapping key from pin and salt.
func (p *PinService) DeriveWrappingKey(pin string, salt []byte) []byte {
	return cryptoService.DeriveKey(pin, salt, p.iterations)
}
