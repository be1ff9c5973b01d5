package sqlstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"genreclf/internal/sqlstore"
)

const testSchema = `
CREATE TABLE schema_version (version INTEGER NOT NULL);
CREATE TABLE things (name TEXT PRIMARY KEY);
`

func TestInitSchemaCreatesAndVerifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	db, err := sqlstore.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	ctx := context.Background()
	if err := sqlstore.InitSchema(ctx, db, testSchema, 1); err != nil {
		t.Fatalf("InitSchema returned error: %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO things (name) VALUES ('x')"); err != nil {
		t.Fatalf("schema not created: %v", err)
	}
	if err := sqlstore.InitSchema(ctx, db, testSchema, 1); err != nil {
		t.Fatalf("second InitSchema returned error: %v", err)
	}
	if err := sqlstore.InitSchema(ctx, db, testSchema, 2); !errors.Is(err, sqlstore.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	_ = db.Close()
}

func TestRetryOnBusy(t *testing.T) {
	attempts := 0
	err := sqlstore.RetryOnBusy(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("expected success after 3 attempts, got %v after %d", err, attempts)
	}

	attempts = 0
	permanent := errors.New("syntax error")
	err = sqlstore.RetryOnBusy(context.Background(), func() error {
		attempts++
		return permanent
	})
	if !errors.Is(err, permanent) || attempts != 1 {
		t.Fatalf("expected immediate failure, got %v after %d", err, attempts)
	}
}
