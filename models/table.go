package models

import "strings"

// Row is one loosely typed input record keyed by column name. A missing
// key means the value is absent.
type Row map[string]string

// Get returns the trimmed value of the first listed column that is present
// and non-blank.
func (r Row) Get(columns ...string) (string, bool) {
	for _, c := range columns {
		if v, ok := r[c]; ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// Table is the in-memory form of an input file.
type Table struct {
	Columns []string
	Rows    []Row
}

// Has reports whether any row carries column.
func (t *Table) Has(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}
