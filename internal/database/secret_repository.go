package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	apperrors "github.com/allisson/credstore/internal/errors"
	secretsDomain "github.com/allisson/credstore/internal/secrets/domain"
)

// SecretRepository persists per-entry encrypted secrets. Values are opaque
// hex strings produced by the cipher engine; this layer never sees plaintext.
type SecretRepository struct {
	db *sql.DB
}

// NewSecretRepository creates a SecretRepository backed by db.
func NewSecretRepository(db *sql.DB) *SecretRepository {
	return &SecretRepository{db: db}
}

// Get returns the encrypted value owned by the named entry, or
// ErrSecretNotFound.
func (s *SecretRepository) Get(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(
		ctx,
		"SELECT encrypted_value FROM secrets WHERE name = ?",
		name,
	).Scan(&value)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", secretsDomain.ErrSecretNotFound
	}
	if err != nil {
		return "", apperrors.Wrap(err, "failed to read secret")
	}
	return value, nil
}

// Save inserts or replaces the encrypted value for the named entry,
// preserving the original creation timestamp on replacement.
func (s *SecretRepository) Save(ctx context.Context, name, encryptedValue string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO secrets (name, encrypted_value, created_at, updated_at)
		 VALUES (?, ?, COALESCE((SELECT created_at FROM secrets WHERE name = ?), ?), ?)`,
		name,
		encryptedValue,
		name,
		now,
		now,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to save secret")
	}
	return nil
}

// Delete removes the encrypted value for the named entry, reporting whether
// a row was deleted.
func (s *SecretRepository) Delete(ctx context.Context, name string) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM secrets WHERE name = ?", name)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to delete secret")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to delete secret")
	}
	return affected > 0, nil
}

// Names returns the names of every entry owning a secret.
func (s *SecretRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM secrets")
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list secrets")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan secret name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list secrets")
	}
	return names, nil
}
