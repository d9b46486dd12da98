package database

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	apperrors "github.com/allisson/credstore/internal/errors"
)

// SettingRepository persists key/value settings. Values are stored
// JSON-encoded; the encoding is part of the on-disk format.
type SettingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a SettingRepository backed by db.
func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get returns the setting value for key, or errors.ErrNotFound.
func (s *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var raw string
	err := s.db.QueryRowContext(
		ctx,
		"SELECT value FROM settings WHERE key = ?",
		key,
	).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", apperrors.Wrap(apperrors.ErrNotFound, "setting not found")
	}
	if err != nil {
		return "", apperrors.Wrap(err, "failed to read setting")
	}

	var value string
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "malformed setting value")
	}
	return value, nil
}

// Set stores the setting value for key, replacing any existing value.
func (s *SettingRepository) Set(ctx context.Context, key, value string) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode setting value")
	}

	_, err = s.db.ExecContext(
		ctx,
		"INSERT OR REPLACE INTO settings (key, value, updated_at) VALUES (?, ?, ?)",
		key,
		string(encoded),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to store setting")
	}
	return nil
}

// Delete removes the setting for key. Deleting a missing key is not an error.
func (s *SettingRepository) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete setting")
	}
	return nil
}
