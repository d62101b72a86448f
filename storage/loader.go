package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"unegui-scraper/models"
)

var (
	// ErrMalformedInput means the file could not be read as a table.
	ErrMalformedInput = errors.New("malformed input")
	// ErrUnsupportedFormat means the file extension is neither .json nor .csv.
	ErrUnsupportedFormat = errors.New("unsupported input format")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadTable reads a JSON array of objects or a CSV file with a header row,
// chosen by the file extension.
func LoadTable(path string) (*models.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSONTable(data)
	case ".csv":
		return parseCSVTable(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

func parseJSONTable(data []byte) (*models.Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array of objects: %v", ErrMalformedInput, err)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: expected a JSON array of objects, got null", ErrMalformedInput)
	}
	// The array must be the whole document.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after the JSON array", ErrMalformedInput)
	}

	seen := make(map[string]struct{})
	t := &models.Table{Rows: make([]models.Row, 0, len(records))}
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrMalformedInput, i)
		}
		row := make(models.Row, len(rec))
		for k, v := range rec {
			s, ok, err := scalarString(v)
			if err != nil {
				return nil, fmt.Errorf("%w: element %d field %q: %v", ErrMalformedInput, i, k, err)
			}
			if !ok {
				continue
			}
			row[k] = s
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				t.Columns = append(t.Columns, k)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	sort.Strings(t.Columns)
	return t, nil
}

// scalarString flattens a decoded JSON value. Null reports ok=false.
func scalarString(v any) (string, bool, error) {
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return x, true, nil
	case json.Number:
		return x.String(), true, nil
	case bool:
		return strconv.FormatBool(x), true, nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", false, err
		}
		return string(b), true, nil
	}
}

func parseCSVTable(data []byte) (*models.Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty CSV file", ErrMalformedInput)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	t := &models.Table{Columns: header, Rows: make([]models.Row, 0, len(records)-1)}
	for _, rec := range records[1:] {
		row := make(models.Row, len(header))
		for i, col := range header {
			if i < len(rec) && rec[i] != "" {
				row[col] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
