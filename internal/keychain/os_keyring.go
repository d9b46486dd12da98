package keychain

import (
	stderrors "errors"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/allisson/credstore/internal/errors"
)

// OSKeychain implements Keychain on top of the platform keyring: Secret
// Service/keyutils on Linux, Keychain on macOS, Credential Manager on Windows.
type OSKeychain struct{}

// NewOSKeychain creates a keychain backed by the platform facility.
func NewOSKeychain() *OSKeychain {
	return &OSKeychain{}
}

// Get returns the value stored under the service/account pair.
func (o *OSKeychain) Get(service, account string) (string, error) {
	value, err := keyring.Get(service, account)
	if err != nil {
		return "", mapKeyringError(err)
	}
	return value, nil
}

// Set stores a value under the service/account pair.
func (o *OSKeychain) Set(service, account, value string) error {
	if err := keyring.Set(service, account, value); err != nil {
		return mapKeyringError(err)
	}
	return nil
}

// Delete removes the record for the service/account pair.
func (o *OSKeychain) Delete(service, account string) error {
	if err := keyring.Delete(service, account); err != nil {
		return mapKeyringError(err)
	}
	return nil
}

// Check probes the facility with a read of a well-known test record. A
// missing record means the service answered and is available.
func (o *OSKeychain) Check() error {
	_, err := keyring.Get("credstore-probe", "probe")
	if err == nil || stderrors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return mapKeyringError(err)
}

// mapKeyringError converts platform keyring errors into domain errors.
// Unknown errors are wrapped but left recoverable; only a missing backend is
// promoted to the fatal ErrSecretServiceRequired.
func mapKeyringError(err error) error {
	switch {
	case stderrors.Is(err, keyring.ErrNotFound):
		return ErrNotFound
	case stderrors.Is(err, keyring.ErrUnsupportedPlatform):
		return ErrSecretServiceRequired
	}

	// Some platforms report a missing backend as a generic failure.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not available") ||
		strings.Contains(msg, "no backend") ||
		strings.Contains(msg, "not supported") {
		return ErrSecretServiceRequired
	}

	return errors.Wrap(err, "keychain operation failed")
}
