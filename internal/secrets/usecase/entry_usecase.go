package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/allisson/credstore/internal/errors"
	"github.com/allisson/credstore/internal/secrets/domain"
	"github.com/allisson/credstore/internal/validation"
)

// EntryUseCase manages named entries and their secret values. Plaintext
// metadata goes straight to the repositories; secret values always pass
// through the session cipher.
type EntryUseCase struct {
	entries EntryRepository
	secrets SecretRepository
	cipher  SecretCipher
	logger  *slog.Logger
}

// NewEntryUseCase creates an EntryUseCase.
func NewEntryUseCase(
	entries EntryRepository,
	secrets SecretRepository,
	cipher SecretCipher,
	logger *slog.Logger,
) *EntryUseCase {
	return &EntryUseCase{entries: entries, secrets: secrets, cipher: cipher, logger: logger}
}

// Add creates a new entry. A non-empty secret is encrypted and stored
// alongside it. Adding over an existing name fails with ErrEntryExists.
func (u *EntryUseCase) Add(ctx context.Context, entry *domain.Entry, secret string) error {
	if err := validation.ValidateEntryName(entry.Name); err != nil {
		return err
	}

	if _, err := u.entries.Get(ctx, entry.Name); err == nil {
		return domain.ErrEntryExists
	} else if !errors.Is(err, errors.ErrNotFound) {
		return err
	}

	if secret != "" {
		encrypted, err := u.cipher.EncryptSecret(ctx, []byte(secret))
		if err != nil {
			return err
		}
		if err := u.secrets.Save(ctx, entry.Name, encrypted); err != nil {
			return err
		}
	}

	if err := u.entries.Save(ctx, entry); err != nil {
		if secret != "" {
			_, _ = u.secrets.Delete(ctx, entry.Name)
		}
		return err
	}

	u.logger.Info("entry added", "name", entry.Name)
	return nil
}

// Get returns the entry. With reveal set the stored secret is decrypted
// and returned too; an entry without a secret yields the empty string.
func (u *EntryUseCase) Get(ctx context.Context, name string, reveal bool) (*domain.Entry, string, error) {
	entry, err := u.entries.Get(ctx, name)
	if err != nil {
		return nil, "", err
	}
	if !reveal {
		return entry, "", nil
	}

	encrypted, err := u.secrets.Get(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return entry, "", nil
		}
		return nil, "", err
	}

	plaintext, err := u.cipher.DecryptSecret(ctx, encrypted)
	if err != nil {
		return nil, "", err
	}
	return entry, string(plaintext), nil
}

// Update replaces the metadata of an existing entry. The secret value is
// untouched.
func (u *EntryUseCase) Update(ctx context.Context, entry *domain.Entry) error {
	if err := validation.ValidateEntryName(entry.Name); err != nil {
		return err
	}

	existing, err := u.entries.Get(ctx, entry.Name)
	if err != nil {
		return err
	}

	entry.CreatedAt = existing.CreatedAt
	if err := u.entries.Save(ctx, entry); err != nil {
		return err
	}

	u.logger.Info("entry updated", "name", entry.Name)
	return nil
}

// UpdateSecret replaces the secret value of an existing entry.
func (u *EntryUseCase) UpdateSecret(ctx context.Context, name, secret string) error {
	if _, err := u.entries.Get(ctx, name); err != nil {
		return err
	}

	encrypted, err := u.cipher.EncryptSecret(ctx, []byte(secret))
	if err != nil {
		return err
	}
	if err := u.secrets.Save(ctx, name, encrypted); err != nil {
		return err
	}

	u.logger.Info("secret updated", "name", name)
	return nil
}

// Delete removes an entry and its secret value.
func (u *EntryUseCase) Delete(ctx context.Context, name string) error {
	deleted, err := u.entries.Delete(ctx, name)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrEntryNotFound
	}

	if _, err := u.secrets.Delete(ctx, name); err != nil {
		return err
	}

	u.logger.Info("entry deleted", "name", name)
	return nil
}

// List returns all entries sorted by name.
func (u *EntryUseCase) List(ctx context.Context) ([]*domain.Entry, error) {
	byName, err := u.entries.List(ctx)
	if err != nil {
		return nil, err
	}
	return sortedEntries(byName), nil
}

// Search returns all entries matching the query, sorted by name.
func (u *EntryUseCase) Search(ctx context.Context, query string) ([]*domain.Entry, error) {
	byName, err := u.entries.List(ctx)
	if err != nil {
		return nil, err
	}

	matches := make(map[string]*domain.Entry)
	for name, entry := range byName {
		if entry.Matches(query) {
			matches[name] = entry
		}
	}
	return sortedEntries(matches), nil
}

// Stats reports how many entries exist and how many hold a secret value.
func (u *EntryUseCase) Stats(ctx context.Context) (*domain.Stats, error) {
	byName, err := u.entries.List(ctx)
	if err != nil {
		return nil, err
	}
	names, err := u.secrets.Names(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Stats{TotalCount: len(byName), WithSecretCount: len(names)}, nil
}

// exportRecord is one entry plus its plaintext secret in an export
// document.
type exportRecord struct {
	Entry  *domain.Entry `json:"entry"`
	Secret string        `json:"secret,omitempty"`
}

// Export serializes every entry with its decrypted secret. The output is
// plaintext; handling it safely is the caller's problem.
func (u *EntryUseCase) Export(ctx context.Context) ([]byte, error) {
	entries, err := u.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]exportRecord, 0, len(entries))
	for _, entry := range entries {
		_, secret, err := u.Get(ctx, entry.Name, true)
		if err != nil {
			return nil, err
		}
		records = append(records, exportRecord{Entry: entry, Secret: secret})
	}
	return json.MarshalIndent(records, "", "  ")
}

// Import loads entries from an export document and returns how many were
// imported. Existing names are skipped unless overwrite is set.
func (u *EntryUseCase) Import(ctx context.Context, data []byte, overwrite bool) (int, error) {
	var records []exportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, errors.Wrap(errors.ErrInvalidInput, "malformed import document")
	}

	imported := 0
	for _, record := range records {
		if record.Entry == nil {
			return imported, errors.Wrap(errors.ErrInvalidInput, "import record without an entry")
		}
		if err := validation.ValidateEntryName(record.Entry.Name); err != nil {
			return imported, err
		}

		_, err := u.entries.Get(ctx, record.Entry.Name)
		exists := err == nil
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return imported, err
		}
		if exists && !overwrite {
			continue
		}

		if record.Secret != "" {
			encrypted, err := u.cipher.EncryptSecret(ctx, []byte(record.Secret))
			if err != nil {
				return imported, err
			}
			if err := u.secrets.Save(ctx, record.Entry.Name, encrypted); err != nil {
				return imported, err
			}
		}
		if err := u.entries.Save(ctx, record.Entry); err != nil {
			return imported, err
		}
		imported++
	}

	u.logger.Info("entries imported", "count", imported)
	return imported, nil
}

func sortedEntries(byName map[string]*domain.Entry) []*domain.Entry {
	entries := make([]*domain.Entry, 0, len(byName))
	for _, entry := range byName {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
