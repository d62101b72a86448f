package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"unegui-scraper/models"
)

const listingColumns = 8

// sqlStore holds the statements shared by the SQL backends. Only the
// placeholder syntax and the DDL differ between drivers.
type sqlStore struct {
	db          *sql.DB
	name        string
	placeholder func(n int) string
}

// Write replaces the stored listings with the given set inside one
// transaction, so a failed run leaves the previous data untouched.
func (s *sqlStore) Write(listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM cleaned_listings"); err != nil {
		return fmt.Errorf("%s: clear: %w", s.name, err)
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := s.insertBatch(tx, listings[i:end]); err != nil {
			return fmt.Errorf("%s: insert batch: %w", s.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.name, err)
	}
	return nil
}

func (s *sqlStore) insertBatch(tx *sql.Tx, batch []*models.Listing) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*listingColumns)

	for idx, l := range batch {
		base := idx * listingColumns
		ph := make([]string, listingColumns)
		for j := range ph {
			ph[j] = s.placeholder(base + j + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs,
			l.Title, l.District, l.Location, l.PriceValue,
			nullFloat(l.AreaSqm), nullInt(l.Rooms), nullFloat(l.PricePerSqm), nullString(l.Link))
	}

	query := fmt.Sprintf(`
		INSERT INTO cleaned_listings (title, district, location, price_value, area_sqm, rooms, price_per_sqm, link)
		VALUES %s
		ON CONFLICT (link) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := tx.Exec(query, valueArgs...)
	return err
}

// FetchAll retrieves all stored listings in insertion order.
func (s *sqlStore) FetchAll() ([]*models.Listing, error) {
	rows, err := s.db.Query(`
		SELECT id, title, district, location, price_value, area_sqm, rooms, price_per_sqm, link
		FROM cleaned_listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch all: %w", s.name, err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		var (
			l           models.Listing
			area, ppsqm sql.NullFloat64
			rooms       sql.NullInt64
			link        sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Title, &l.District, &l.Location, &l.PriceValue,
			&area, &rooms, &ppsqm, &link); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", s.name, err)
		}
		if area.Valid {
			l.AreaSqm = &area.Float64
		}
		if rooms.Valid {
			n := int(rooms.Int64)
			l.Rooms = &n
		}
		if ppsqm.Valid {
			l.PricePerSqm = &ppsqm.Float64
		}
		l.Link = link.String
		listings = append(listings, &l)
	}
	return listings, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

// nullString stores an empty link as NULL so the unique index only
// deduplicates real links.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
