package domain

import (
	"github.com/allisson/credstore/internal/errors"
)

// Authentication error definitions.
var (
	// ErrPinRequired indicates a PIN is configured and the operation needs
	// one; the caller should prompt and retry.
	ErrPinRequired = errors.Wrap(errors.ErrUnauthorized, "PIN is required")

	// ErrInvalidPin indicates the supplied PIN failed verification or could
	// not unwrap the master key. The caller may retry; there is no built-in
	// lockout.
	ErrInvalidPin = errors.Wrap(errors.ErrUnauthorized, "invalid PIN")

	// ErrPinAlreadySet indicates SetPin was called while a PIN exists; the
	// change flow must be used instead.
	ErrPinAlreadySet = errors.Wrap(errors.ErrConflict, "PIN is already set")

	// ErrPinNotSet indicates a change or remove was requested with no PIN
	// configured.
	ErrPinNotSet = errors.Wrap(errors.ErrNotFound, "no PIN is set")

	// ErrNotAuthenticated indicates the session gate is closed: the caller
	// must authenticate before touching secrets.
	ErrNotAuthenticated = errors.Wrap(errors.ErrUnauthorized, "not authenticated")
)
