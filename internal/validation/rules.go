// Package validation provides custom validation rules for the application.
package validation

import (
	"strings"
	"unicode"

	validation "github.com/jellydator/validation"

	"github.com/allisson/credstore/internal/auth/domain"
	apperrors "github.com/allisson/credstore/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Pin validates a PIN candidate: minimum length, printable characters, no
// surrounding whitespace. There is no alphabet restriction; a passphrase is
// a valid PIN.
type Pin struct{}

// Validate checks the PIN candidate.
func (p Pin) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_pin", "PIN must be a string")
	}

	if len(s) < domain.PinMinLength {
		return validation.NewError("validation_pin_min_length", "PIN must be at least 4 characters")
	}
	if strings.TrimSpace(s) != s {
		return validation.NewError("validation_pin_whitespace", "PIN must not start or end with whitespace")
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return validation.NewError("validation_pin_control", "PIN must not contain control characters")
		}
	}
	return nil
}

// EntryName validates a secret entry name: non-empty, bounded length,
// printable characters only.
type EntryName struct{}

// maxEntryNameLength bounds entry names so they stay usable as primary keys
// and shell arguments.
const maxEntryNameLength = 256

// Validate checks the entry name.
func (e EntryName) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_entry_name", "entry name must be a string")
	}

	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_entry_name_required", "entry name is required")
	}
	if strings.TrimSpace(s) != s {
		return validation.NewError(
			"validation_entry_name_whitespace",
			"entry name must not start or end with whitespace",
		)
	}
	if len(s) > maxEntryNameLength {
		return validation.NewError("validation_entry_name_max_length", "entry name is too long")
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return validation.NewError(
				"validation_entry_name_control",
				"entry name must not contain control characters",
			)
		}
	}
	return nil
}

// ValidatePin validates a PIN candidate and wraps the failure as
// ErrInvalidInput.
func ValidatePin(pin string) error {
	return WrapValidationError(validation.Validate(pin, Pin{}))
}

// ValidateEntryName validates an entry name and wraps the failure as
// ErrInvalidInput.
func ValidateEntryName(name string) error {
	return WrapValidationError(validation.Validate(name, EntryName{}))
}
