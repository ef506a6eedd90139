package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schemaVersion = 2

// DB wraps the SQLite connection backing the library and run metrics.
type DB struct {
	conn *sql.DB
}

// Open creates or opens the database at path, enables WAL mode, and applies
// any pending migrations.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=10000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}

// Conn exposes the underlying connection for collaborators that manage
// their own statements, such as the metrics writer.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate applies incremental schema steps tracked by PRAGMA user_version.
func (db *DB) migrate() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}

	for version < schemaVersion {
		version++
		switch version {
		case 1:
			err = applySchemaV1(tx)
		case 2:
			err = applySchemaV2(tx)
		default:
			err = fmt.Errorf("unknown schema version: %d", version)
		}
		if err != nil {
			return fmt.Errorf("failed to apply schema v%d: %w", version, err)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}

	return tx.Commit()
}

// applySchemaV1 creates the library tables used by the capture flow.
func applySchemaV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS memories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL CHECK (length(text) > 0),
			category TEXT,
			memory_date TEXT,
			year INTEGER,
			person_names TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS media (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT NOT NULL,
			title TEXT,
			description TEXT,
			year INTEGER,
			people TEXT,
			file_type TEXT NOT NULL DEFAULT 'image',
			captured_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_media_year ON media(year);
		CREATE INDEX IF NOT EXISTS idx_memories_year ON memories(year);
	`)
	return err
}

// applySchemaV2 adds the batch run metrics table.
func applySchemaV2(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS match_runs (
			run_id TEXT PRIMARY KEY,
			memories INTEGER NOT NULL,
			photos INTEGER NOT NULL,
			matched INTEGER NOT NULL,
			unique_photos INTEGER NOT NULL,
			fallback_reuses INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}
