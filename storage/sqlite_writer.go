package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteWriter persists cleaned listings to a local SQLite file. It needs
// no server, which makes it the default choice for one-off analyses.
type SQLiteWriter struct {
	sqlStore
}

// NewSQLiteWriter opens (or creates) the database at path and migrates it.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One connection keeps ":memory:" databases alive and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	sw := &SQLiteWriter{sqlStore{
		db:          db,
		name:        "sqlite",
		placeholder: func(int) string { return "?" },
	}}
	if err := sw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return sw, nil
}

func (sw *SQLiteWriter) migrate() error {
	_, err := sw.db.Exec(`
		CREATE TABLE IF NOT EXISTS cleaned_listings (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			title         TEXT    NOT NULL DEFAULT '',
			district      TEXT    NOT NULL DEFAULT '',
			location      TEXT    NOT NULL DEFAULT '',
			price_value   INTEGER NOT NULL,
			area_sqm      REAL,
			rooms         INTEGER,
			price_per_sqm REAL,
			link          TEXT    UNIQUE,
			created_at    TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_cleaned_listings_district ON cleaned_listings(district);
		CREATE INDEX IF NOT EXISTS idx_cleaned_listings_price    ON cleaned_listings(price_value);
	`)
	return err
}
