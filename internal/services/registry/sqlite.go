package registry

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"genreclf/internal/fileutil"
	"genreclf/internal/services"
	"genreclf/internal/sqlstore"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// SQLiteStore keeps blobs in a single SQLite table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens or creates the database at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sqlstore.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrRegistry, "registry", "open sqlite", path, err)
	}
	if err := sqlstore.InitSchema(ctx, db, schemaSQL, schemaVersion); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrRegistry, "registry", "init schema", path, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Fetch returns the blob stored under key.
func (s *SQLiteStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	var data []byte
	err := sqlstore.RetryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT data FROM blobs WHERE key = ?", key).Scan(&data)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("registry key %q: %w", key, ErrNotFound)
		}
		return nil, services.Wrap(services.ErrRegistry, "registry", "select blob", key, err)
	}
	return data, nil
}

// Put inserts or replaces the blob stored under key.
func (s *SQLiteStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	digest := fileutil.SHA256Hex(data)
	err := sqlstore.RetryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `
INSERT INTO blobs (key, data, size, sha256, updated_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
    data = excluded.data,
    size = excluded.size,
    sha256 = excluded.sha256,
    updated_at = excluded.updated_at`,
			key, data, len(data), digest, now)
		return execErr
	})
	if err != nil {
		return services.Wrap(services.ErrRegistry, "registry", "upsert blob", key, err)
	}
	return nil
}
