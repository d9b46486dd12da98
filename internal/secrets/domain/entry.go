// Package domain defines the entry model: a named record owning one encrypted
// secret plus plaintext metadata.
package domain

import (
	"strings"
	"time"
)

// SecretPlaceholder marks the metadata value that is replaced with the
// decrypted secret when an entry is resolved into environment variables.
const SecretPlaceholder = "SECRET"

// Entry is a named credential record. Metadata maps environment-variable
// names to literal values, with SecretPlaceholder standing in for the
// encrypted secret the entry owns.
type Entry struct {
	Name      string            `json:"name"`
	Metadata  map[string]string `json:"metadata"`
	Tags      []string          `json:"tags,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at,omitzero"`
	UpdatedAt time.Time         `json:"updated_at,omitzero"`
}

// NewEntry creates an entry with the given name and metadata.
func NewEntry(name string, metadata map[string]string) *Entry {
	if metadata == nil {
		metadata = make(map[string]string)
	}
	return &Entry{Name: name, Metadata: metadata}
}

// HasSecretPlaceholder reports whether any metadata value references the
// entry's encrypted secret.
func (e *Entry) HasSecretPlaceholder() bool {
	for _, v := range e.Metadata {
		if v == SecretPlaceholder {
			return true
		}
	}
	return false
}

// Matches reports whether the entry matches a case-insensitive search query
// against its name, notes, tags, or metadata keys and values.
func (e *Entry) Matches(query string) bool {
	query = strings.ToLower(query)
	match := func(s string) bool {
		return strings.Contains(strings.ToLower(s), query)
	}

	if match(e.Name) || match(e.Notes) {
		return true
	}
	for _, tag := range e.Tags {
		if match(tag) {
			return true
		}
	}
	for k, v := range e.Metadata {
		if match(k) || match(v) {
			return true
		}
	}
	return false
}

// Stats summarizes the stored entries.
type Stats struct {
	TotalCount      int `json:"total_count"`
	WithSecretCount int `json:"with_secret_count"`
}
