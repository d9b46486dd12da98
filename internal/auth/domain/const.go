// Package domain defines authentication state, PIN credential storage keys,
// and the errors the authentication layer reports.
package domain

const (
	// PinHashKey is the settings key holding the hex PBKDF2 digest of the PIN.
	PinHashKey = "pinHash"

	// PinSaltKey is the settings key holding the hex 32-byte PIN salt.
	PinSaltKey = "pinSalt"

	// PinSetFlagAccount is the keychain account for the pin-set flag. The
	// flag lives in the keychain, not the database, so HasPin never needs
	// the store to be open.
	PinSetFlagAccount = "pin-set"

	// PinMinLength is the minimum accepted PIN length.
	PinMinLength = 4

	// SaltSize is the PIN salt size in bytes.
	SaltSize = 32
)
