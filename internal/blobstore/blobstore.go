// Package blobstore provides a namespaced durable key-value store for JSON
// and text blobs. The production backend is a single SQLite database; each
// logical store is a namespace within it, so the whole deployment state
// lives in one file.
package blobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultNamespace is the store holding the router configuration document.
const DefaultNamespace = "sora_prompt_generator"

// UploadsNamespace is an independent namespace used by the store probe.
const UploadsNamespace = "sora_prompt_generator_uploads"

// SubscriptionsNamespace holds billing records keyed by customer email.
const SubscriptionsNamespace = "subscriptions"

// SetOptions carries content metadata persisted alongside a blob.
type SetOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Store is the minimal contract the rest of the system depends on.
// GetText and GetJSON report (found=false, err=nil) for missing keys;
// callers decide whether a miss falls back to defaults.
type Store interface {
	GetText(ctx context.Context, key string) (string, bool, error)
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value []byte, opts SetOptions) error
	Delete(ctx context.Context, key string) error
}

// SQLiteStore implements Store over a shared SQLite database.
type SQLiteStore struct {
	db        *sql.DB
	namespace string
}

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
    namespace    TEXT NOT NULL,
    key          TEXT NOT NULL,
    value        BLOB NOT NULL,
    content_type TEXT NOT NULL DEFAULT '',
    metadata     TEXT NOT NULL DEFAULT '{}',
    updated_at   TEXT NOT NULL,
    PRIMARY KEY (namespace, key)
);
`

// OpenDB opens (and initializes) the backing database at path.
// The returned *sql.DB is shared by every namespace.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize blob schema: %w", err)
	}
	return db, nil
}

// New returns a Store bound to one namespace of db.
func New(db *sql.DB, namespace string) *SQLiteStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &SQLiteStore{db: db, namespace: namespace}
}

// GetText returns the raw blob value as a string.
func (s *SQLiteStore) GetText(ctx context.Context, key string) (string, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM blobs WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("blob read failed for %q: %w", key, err)
	}
	return string(value), true, nil
}

// GetJSON unmarshals the blob value into dst.
func (s *SQLiteStore) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, found, err := s.GetText(ctx, key)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("blob %q is not valid JSON: %w", key, err)
	}
	return true, nil
}

// Set writes value under key, replacing any previous blob.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, opts SetOptions) error {
	meta := "{}"
	if len(opts.Metadata) > 0 {
		encoded, err := json.Marshal(opts.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode blob metadata: %w", err)
		}
		meta = string(encoded)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (namespace, key, value, content_type, metadata, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET
		     value = excluded.value,
		     content_type = excluded.content_type,
		     metadata = excluded.metadata,
		     updated_at = excluded.updated_at`,
		s.namespace, key, value, opts.ContentType, meta,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("blob write failed for %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM blobs WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	); err != nil {
		return fmt.Errorf("blob delete failed for %q: %w", key, err)
	}
	return nil
}
