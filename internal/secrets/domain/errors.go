package domain

import (
	"github.com/allisson/credstore/internal/errors"
)

var (
	// ErrEntryNotFound indicates no entry exists with the requested name.
	ErrEntryNotFound = errors.Wrap(errors.ErrNotFound, "entry not found")

	// ErrSecretNotFound indicates the entry exists but owns no secret blob.
	ErrSecretNotFound = errors.Wrap(errors.ErrNotFound, "secret not found")

	// ErrEntryExists indicates an entry with the requested name already exists.
	ErrEntryExists = errors.Wrap(errors.ErrConflict, "entry already exists")
)
