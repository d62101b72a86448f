package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PAGES_TO_SCRAPE", "PRICE_FLOOR", "PRICE_CEILING", "UNEGUI_CATEGORIES", "FETCH_MODE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.PagesToScrape != 3 {
		t.Errorf("PagesToScrape: got %d, want 3", cfg.PagesToScrape)
	}
	if cfg.PriceFloor != 100_000 || cfg.PriceCeiling != 20_000_000 {
		t.Errorf("price limits: got [%v, %v]", cfg.PriceFloor, cfg.PriceCeiling)
	}
	if cfg.PageTimeout != 100*time.Second {
		t.Errorf("PageTimeout: got %v", cfg.PageTimeout)
	}
	if cfg.FetchMode != FetchBrowser {
		t.Errorf("FetchMode: got %q, want %q", cfg.FetchMode, FetchBrowser)
	}
	if len(cfg.Categories) != 0 {
		t.Errorf("Categories: got %v, want none", cfg.Categories)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PAGES_TO_SCRAPE", "7")
	t.Setenv("PRICE_CEILING", "9000000")
	t.Setenv("UNEGUI_CATEGORIES", " ub-hanuul, ,ub-bayangol ")
	t.Setenv("FETCH_MODE", "HTTP")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg := Load()
	if cfg.PagesToScrape != 7 {
		t.Errorf("PagesToScrape: got %d, want 7", cfg.PagesToScrape)
	}
	if cfg.PriceCeiling != 9_000_000 {
		t.Errorf("PriceCeiling: got %v", cfg.PriceCeiling)
	}
	if len(cfg.Categories) != 2 || cfg.Categories[0] != "ub-hanuul" || cfg.Categories[1] != "ub-bayangol" {
		t.Errorf("Categories: got %v", cfg.Categories)
	}
	if cfg.FetchMode != FetchHTTP {
		t.Errorf("FetchMode: got %q", cfg.FetchMode)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries should fall back on bad input, got %d", cfg.MaxRetries)
	}
}

func TestLoadSelectorsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	body := "card: article.listing\nprice: span.cost\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	sel, err := LoadSelectors(path)
	if err != nil {
		t.Fatalf("LoadSelectors: %v", err)
	}
	if sel.Card != "article.listing" || sel.Price != "span.cost" {
		t.Errorf("override not applied: %+v", sel)
	}
	if sel.Title != DefaultSelectors().Title {
		t.Errorf("unset key should keep default, got %q", sel.Title)
	}
}

func TestLoadSelectorsMissingFile(t *testing.T) {
	if _, err := LoadSelectors(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing selectors file")
	}
	sel, err := LoadSelectors("")
	if err != nil || sel != DefaultSelectors() {
		t.Errorf("empty path should yield defaults, got %+v, %v", sel, err)
	}
}
