package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

// PostgresWriter persists cleaned listings to PostgreSQL.
type PostgresWriter struct {
	sqlStore
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{sqlStore{
		db:          db,
		name:        "postgres",
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS cleaned_listings (
			id            SERIAL PRIMARY KEY,
			title         TEXT             NOT NULL DEFAULT '',
			district      TEXT             NOT NULL DEFAULT '',
			location      TEXT             NOT NULL DEFAULT '',
			price_value   BIGINT           NOT NULL,
			area_sqm      DOUBLE PRECISION,
			rooms         INTEGER,
			price_per_sqm DOUBLE PRECISION,
			link          TEXT             UNIQUE,
			created_at    TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_cleaned_listings_district ON cleaned_listings(district);
		CREATE INDEX IF NOT EXISTS idx_cleaned_listings_price    ON cleaned_listings(price_value);
		CREATE INDEX IF NOT EXISTS idx_cleaned_listings_rooms    ON cleaned_listings(rooms);
	`)
	return err
}
