package database

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	apperrors "github.com/allisson/credstore/internal/errors"
	secretsDomain "github.com/allisson/credstore/internal/secrets/domain"
)

// EntryRepository persists entry records. Metadata and tags are stored as
// JSON text columns, timestamps as RFC 3339 strings.
type EntryRepository struct {
	db *sql.DB
}

// NewEntryRepository creates an EntryRepository backed by db.
func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Get returns the entry with the given name, or ErrEntryNotFound.
func (e *EntryRepository) Get(ctx context.Context, name string) (*secretsDomain.Entry, error) {
	row := e.db.QueryRowContext(
		ctx,
		"SELECT name, metadata, tags, notes, created_at, updated_at FROM entries WHERE name = ?",
		name,
	)

	entry, err := scanEntry(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, secretsDomain.ErrEntryNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read entry")
	}
	return entry, nil
}

// List returns every entry keyed by name.
func (e *EntryRepository) List(ctx context.Context) (map[string]*secretsDomain.Entry, error) {
	rows, err := e.db.QueryContext(
		ctx,
		"SELECT name, metadata, tags, notes, created_at, updated_at FROM entries",
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list entries")
	}
	defer rows.Close()

	entries := make(map[string]*secretsDomain.Entry)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan entry")
		}
		entries[entry.Name] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list entries")
	}
	return entries, nil
}

// Save inserts or replaces an entry, preserving its creation timestamp.
func (e *EntryRepository) Save(ctx context.Context, entry *secretsDomain.Entry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode entry metadata")
	}

	var tags sql.NullString
	if entry.Tags != nil {
		encoded, err := json.Marshal(entry.Tags)
		if err != nil {
			return apperrors.Wrap(err, "failed to encode entry tags")
		}
		tags = sql.NullString{String: string(encoded), Valid: true}
	}

	var notes sql.NullString
	if entry.Notes != "" {
		notes = sql.NullString{String: entry.Notes, Valid: true}
	}

	now := time.Now().UTC()
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = e.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO entries (name, metadata, tags, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Name,
		string(metadata),
		tags,
		notes,
		createdAt.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to save entry")
	}
	return nil
}

// Delete removes the entry with the given name, reporting whether a row was
// deleted.
func (e *EntryRepository) Delete(ctx context.Context, name string) (bool, error) {
	result, err := e.db.ExecContext(ctx, "DELETE FROM entries WHERE name = ?", name)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to delete entry")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to delete entry")
	}
	return affected > 0, nil
}

// rowScanner matches *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*secretsDomain.Entry, error) {
	var (
		name, metadata, createdAt, updatedAt string
		tags, notes                          sql.NullString
	)
	if err := row.Scan(&name, &metadata, &tags, &notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	entry := secretsDomain.NewEntry(name, nil)
	if err := json.Unmarshal([]byte(metadata), &entry.Metadata); err != nil {
		return nil, err
	}
	if tags.Valid {
		if err := json.Unmarshal([]byte(tags.String), &entry.Tags); err != nil {
			return nil, err
		}
	}
	entry.Notes = notes.String

	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		entry.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		entry.UpdatedAt = ts
	}
	return entry, nil
}
