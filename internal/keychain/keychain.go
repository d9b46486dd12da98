// Package keychain abstracts the host's secure-storage facility behind a
// minimal get/set/delete interface. It knows nothing about keys or secrets;
// callers decide what bytes to park under which service/account pair.
package keychain

import (
	"github.com/allisson/credstore/internal/errors"
)

var (
	// ErrNotFound indicates no record exists for the service/account pair.
	ErrNotFound = errors.Wrap(errors.ErrNotFound, "keychain record not found")

	// ErrSecretServiceRequired indicates the platform has no usable secure
	// storage facility. This is fatal and not retried; the user must install
	// or enable the OS secret service.
	ErrSecretServiceRequired = errors.Wrap(
		errors.ErrUnavailable,
		"OS secret service is required but not available",
	)
)

// Keychain provides uniform access to the platform secure-storage facility.
type Keychain interface {
	// Get returns the value stored under the service/account pair, or
	// ErrNotFound when no record exists.
	Get(service, account string) (string, error)

	// Set stores a value under the service/account pair, replacing any
	// existing record.
	Set(service, account, value string) error

	// Delete removes the record for the service/account pair. Deleting a
	// missing record returns ErrNotFound.
	Delete(service, account string) error
}

// Checker is implemented by keychains that can probe facility availability
// up front instead of failing on first use.
type Checker interface {
	// Check reports ErrSecretServiceRequired when the platform facility is
	// missing; any other state is treated as available.
	Check() error
}
