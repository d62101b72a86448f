package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"unegui-scraper/models"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTableJSON(t *testing.T) {
	body := append(append([]byte{}, utf8BOM...), []byte(`[
		{"price_text": "1.2 сая ₮", "area_sqm": "45", "district": "УБ — Баянгол"},
		{"price_value": 1500000, "area_sqm": 60.5, "rooms": null, "link": "https://www.unegui.mn/adv/2/"}
	]`)...)
	path := writeTemp(t, "rental_data.json", body)

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(table.Rows))
	}

	if v, ok := table.Rows[0].Get("area_sqm"); !ok || v != "45" {
		t.Errorf("string value: got %q, %v", v, ok)
	}
	if v, ok := table.Rows[1].Get("price_value"); !ok || v != "1500000" {
		t.Errorf("number should keep its literal text, got %q", v)
	}
	if _, ok := table.Rows[1].Get("rooms"); ok {
		t.Error("null should load as absent")
	}
	if !table.Has("district") || table.Has("rooms") {
		t.Errorf("columns: %v", table.Columns)
	}
}

func TestLoadTableMalformed(t *testing.T) {
	tests := map[string]string{
		"object.json":    `{"title": "not an array"}`,
		"scalars.json":   `[1, 2, 3]`,
		"nulls.json":     `[null]`,
		"broken.json":    `[{"title": `,
		"trailing.json":  `[{"price_text":"1 сая"}] trailing junk {`,
		"twoarrays.json": `[{"title": "a"}] [{"title": "b"}]`,
		"null.json":      `null`,
		"blank.json":     ``,
		"empty.csv":      ``,
	}

	for name, body := range tests {
		_, err := LoadTable(writeTemp(t, name, []byte(body)))
		if !errors.Is(err, ErrMalformedInput) {
			t.Errorf("%s: expected ErrMalformedInput, got %v", name, err)
		}
	}
}

func TestLoadTableUnsupported(t *testing.T) {
	_, err := LoadTable(writeTemp(t, "listings.xlsx", []byte("x")))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadTableCSV(t *testing.T) {
	body := "\ufefftitle,price,size,location\n" +
		"Байр,25 сая ₮,80,\"Сүхбаатар, 1-р хороо\"\n" +
		"Хоосон,,,\n"
	table, err := LoadTable(writeTemp(t, "listings.csv", []byte(body)))
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if table.Columns[0] != "title" {
		t.Errorf("BOM should be stripped from the first header, got %q", table.Columns[0])
	}
	if v, _ := table.Rows[0].Get("location"); v != "Сүхбаатар, 1-р хороо" {
		t.Errorf("location: got %q", v)
	}
	if _, ok := table.Rows[1].Get("price"); ok {
		t.Error("empty CSV cell should be absent")
	}
}

func TestRowGetPrefersFirstPresentColumn(t *testing.T) {
	r := models.Row{"price_text": "  ", "price": "5 сая"}
	if v, ok := r.Get("price_text", "price"); !ok || v != "5 сая" {
		t.Errorf("Get: got %q, %v", v, ok)
	}
}

func TestWriteRawJSONRoundTrip(t *testing.T) {
	area := 45.0
	rooms := 2
	listings := []*models.RawListing{{
		Title:     "2 өрөө байр",
		PriceText: "1.5 сая ₮",
		Location:  "Хан-Уул, 19-р хороолол",
		District:  "Хан-Уул",
		AreaSqm:   &area,
		Rooms:     &rooms,
		Link:      "https://www.unegui.mn/adv/1/",
		Page:      1,
		ScrapedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}}

	path := filepath.Join(t.TempDir(), "data", "rental_data.json")
	if err := WriteRawJSON(path, listings); err != nil {
		t.Fatalf("WriteRawJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("\n  {")) {
		t.Error("output should be indented")
	}
	if !bytes.Contains(data, []byte("Хан-Уул")) {
		t.Error("Cyrillic text should be written as UTF-8, not escaped")
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	row := table.Rows[0]
	for col, want := range map[string]string{"price_text": "1.5 сая ₮", "area_sqm": "45", "rooms": "2", "district": "Хан-Уул"} {
		if got, _ := row.Get(col); got != want {
			t.Errorf("%s: got %q, want %q", col, got, want)
		}
	}
}

func TestWriteRawJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := WriteRawJSON(path, nil); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "[]" {
		t.Errorf("empty run should write an empty array, got %q", data)
	}
}

func cleanSample() []*models.Listing {
	area := 50.0
	ppsqm := 30000.0
	rooms := 2
	return []*models.Listing{
		{Title: "A", District: "Баянгол", PriceValue: 1_500_000, AreaSqm: &area, Rooms: &rooms, PricePerSqm: &ppsqm, Link: "https://www.unegui.mn/adv/1/"},
		{Title: "B", District: "Хан-Уул", PriceValue: 2_000_000},
		{Title: "C", District: "Хан-Уул", PriceValue: 1_800_000},
	}
}

func TestCSVWriterBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "cleaned.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteClean(cleanSample()); err != nil {
		t.Fatal(err)
	}
	if err := w.Commit(); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if !bytes.HasPrefix(data, utf8BOM) {
		t.Error("CSV export must start with a UTF-8 BOM")
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("rows: got %d", len(table.Rows))
	}
	if v, _ := table.Rows[0].Get("price_per_sqm"); v != "30000" {
		t.Errorf("price_per_sqm: got %q", v)
	}
	if _, ok := table.Rows[1].Get("area_sqm"); ok {
		t.Error("absent area should export as an empty cell")
	}
}

func TestCSVWriterKeepsPreviousExportUntilCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned.csv")
	previous := []byte("previous export")
	if err := os.WriteFile(path, previous, 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteClean(cleanSample()); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if !bytes.Equal(data, previous) {
		t.Fatalf("file changed before Commit: %q", data)
	}

	if err := w.Commit(); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(path)
	if !bytes.HasPrefix(data, utf8BOM) {
		t.Error("Commit should replace the previous export")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestSQLiteWriterRoundTrip(t *testing.T) {
	w, err := NewSQLiteWriter(filepath.Join(t.TempDir(), "rental.db"))
	if err != nil {
		t.Fatalf("NewSQLiteWriter: %v", err)
	}
	defer w.Close()

	if err := w.Write(cleanSample()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// A second write replaces rather than appends.
	if err := w.Write(cleanSample()); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	got, err := w.FetchAll()
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("rows: got %d, want 3", len(got))
	}
	if got[0].AreaSqm == nil || *got[0].AreaSqm != 50 || got[0].Rooms == nil || *got[0].Rooms != 2 {
		t.Errorf("optional fields lost: %+v", got[0])
	}
	if got[1].AreaSqm != nil || got[1].Link != "" {
		t.Errorf("absent fields should come back absent: %+v", got[1])
	}
}
