package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema creates the archive hierarchy. Statements are idempotent so Migrate runs on every boot.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS semesters (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS document_types (
		id TEXT PRIMARY KEY,
		semester_id TEXT NOT NULL REFERENCES semesters(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		display_name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (semester_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS subjects (
		id TEXT PRIMARY KEY,
		semester_id TEXT NOT NULL REFERENCES semesters(id) ON DELETE CASCADE,
		type_id TEXT NOT NULL REFERENCES document_types(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (type_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS years (
		id TEXT PRIMARY KEY,
		semester_id TEXT NOT NULL REFERENCES semesters(id) ON DELETE CASCADE,
		type_id TEXT NOT NULL REFERENCES document_types(id) ON DELETE CASCADE,
		subject_id TEXT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
		year TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (subject_id, year)
	)`,
	`CREATE TABLE IF NOT EXISTS files (
		id TEXT PRIMARY KEY,
		year_id TEXT NOT NULL REFERENCES years(id),
		original_name TEXT NOT NULL,
		file_size BIGINT NOT NULL CHECK (file_size > 0),
		mime_type TEXT NOT NULL,
		file_path TEXT NOT NULL,
		storage_provider TEXT NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_files_year_active ON files (year_id) WHERE deleted_at IS NULL`,
}

// Migrate applies the schema inside a single transaction.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
