package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"unegui-scraper/models"
)

var cleanHeader = []string{
	"title", "district", "location", "price_value", "area_sqm", "rooms", "price_per_sqm", "link",
}

// CSVWriter collects cleaned listings as CSV prefixed with a UTF-8
// byte-order mark so spreadsheet tools pick up the Cyrillic text. Nothing
// touches disk until Commit, which replaces the file atomically.
type CSVWriter struct {
	path   string
	buf    bytes.Buffer
	writer *csv.Writer
}

// NewCSVWriter starts an export to path with the BOM and header row.
func NewCSVWriter(path string) (*CSVWriter, error) {
	c := &CSVWriter{path: path}
	c.buf.Write(utf8BOM)
	c.writer = csv.NewWriter(&c.buf)
	if err := c.writer.Write(cleanHeader); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	return c, nil
}

// WriteClean appends the cleaned listings.
func (c *CSVWriter) WriteClean(listings []*models.Listing) error {
	for _, l := range listings {
		row := []string{
			l.Title,
			l.District,
			l.Location,
			strconv.FormatInt(l.PriceValue, 10),
			formatOptFloat(l.AreaSqm),
			formatOptInt(l.Rooms),
			formatOptFloat(l.PricePerSqm),
			l.Link,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Commit writes the collected rows to path. Intermediate directories are
// created automatically; a previous export is only replaced on success.
func (c *CSVWriter) Commit() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	if err := WriteFileAtomic(c.path, c.buf.Bytes()); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	return nil
}

func formatOptFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatOptInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
