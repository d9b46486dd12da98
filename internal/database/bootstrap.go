package database

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/credstore/internal/errors"
)

// installationIDKey is the settings row naming this installation. The
// keychain service for the wrapped master key is derived from its value.
const installationIDKey = "secretInstanceId"

// ReadInstallationID reads the installation identifier with a direct,
// minimal query against the database file, bypassing Open and the migration
// path entirely.
//
// This is a bootstrap leaf: deciding where the wrapped master key lives must
// not require the store's normal open path, which itself may depend on key
// material. Returns errors.ErrNotFound when the file, table, or row does not
// exist yet.
func ReadInstallationID(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", errors.Wrap(errors.ErrNotFound, "database does not exist")
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var raw string
	err = db.QueryRow(
		"SELECT value FROM settings WHERE key = ? LIMIT 1",
		installationIDKey,
	).Scan(&raw)
	if err != nil {
		// A missing settings table reads the same as a missing row.
		return "", errors.Wrap(errors.ErrNotFound, "installation id not set")
	}

	// Settings values are stored JSON-encoded.
	var id string
	if err := json.Unmarshal([]byte(raw), &id); err != nil || id == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "malformed installation id")
	}
	return id, nil
}

// EnsureInstallationID reads the installation identifier, generating and
// persisting a fresh one when none exists. Like ReadInstallationID this is a
// direct minimal path: it creates only the settings table, never the full
// schema.
func EnsureInstallationID(path string) (string, error) {
	id, err := ReadInstallationID(path)
	if err == nil {
		return id, nil
	}
	if !stderrors.Is(err, errors.ErrNotFound) {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS settings (key TEXT PRIMARY KEY, value TEXT NOT NULL, updated_at TEXT NOT NULL)",
	)
	if err != nil {
		return "", fmt.Errorf("failed to create settings table: %w", err)
	}

	newID := uuid.NewString()
	encoded, err := json.Marshal(newID)
	if err != nil {
		return "", fmt.Errorf("failed to encode installation id: %w", err)
	}

	// A concurrent first run may have written an id between our read and this
	// insert; OR IGNORE keeps the first writer's value.
	_, err = db.Exec(
		"INSERT OR IGNORE INTO settings (key, value, updated_at) VALUES (?, ?, ?)",
		installationIDKey,
		string(encoded),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to store installation id: %w", err)
	}

	return ReadInstallationID(path)
}
