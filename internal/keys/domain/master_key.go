// Package domain defines where the wrapped master key lives and the fallback
// wrapping key used before a PIN exists.
package domain

import (
	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
	"github.com/allisson/credstore/internal/errors"
)

// MasterKeyAccount is the keychain account holding the wrapped master key.
// The service half of the pair is derived per installation.
const MasterKeyAccount = "master-key"

// ErrMasterKeyNotAvailable indicates no wrapped master key record exists in
// the keychain for this installation.
var ErrMasterKeyNotAvailable = errors.Wrap(errors.ErrNotFound, "master key is not available")

// FallbackWrappingKey returns the all-zero wrapping key used while no PIN is
// configured. The wrap still runs through AES-GCM so the stored record shape
// never changes, but it provides no confidentiality beyond the keychain's own.
func FallbackWrappingKey() []byte {
	return make([]byte, cryptoDomain.KeySize)
}

// RecordService returns the keychain service name for an installation.
func RecordService(prefix, installationID string) string {
	return prefix + "-" + installationID
}
