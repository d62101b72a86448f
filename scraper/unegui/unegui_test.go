package unegui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"unegui-scraper/config"
	"unegui-scraper/utils"
)

type fakeFetcher struct {
	pages  map[string]string
	errs   map[string]error
	calls  []string
	closed bool
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (string, error) {
	f.calls = append(f.calls, pageURL)
	if err, ok := f.errs[pageURL]; ok {
		return "", err
	}
	return f.pages[pageURL], nil
}

func (f *fakeFetcher) Close() error {
	f.closed = true
	return nil
}

func testConfig(base string, pages int, categories ...string) *config.Config {
	return &config.Config{
		BaseURL:       base,
		SiteOrigin:    "https://www.unegui.mn",
		Categories:    categories,
		PagesToScrape: pages,
		MaxRetries:    1,
	}
}

func TestPageTargetsPaginated(t *testing.T) {
	s, err := New(testConfig("https://www.unegui.mn/l-hdlh/l-hdlh-treesllne/oron-suuts/", 2), &fakeFetcher{}, config.DefaultSelectors(), utils.Discard())
	if err != nil {
		t.Fatal(err)
	}

	targets, err := s.PageTargets()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"https://www.unegui.mn/l-hdlh/l-hdlh-treesllne/oron-suuts/?page=1",
		"https://www.unegui.mn/l-hdlh/l-hdlh-treesllne/oron-suuts/?page=2",
	}
	if len(targets) != len(want) {
		t.Fatalf("got %d targets, want %d", len(targets), len(want))
	}
	for i, w := range want {
		if targets[i].URL != w || targets[i].Page != i+1 {
			t.Errorf("target %d: got %+v, want %s", i, targets[i], w)
		}
	}
}

func TestPageTargetsCategories(t *testing.T) {
	cfg := testConfig("https://www.unegui.mn/l-hdlh/l-hdlh-zarna", 1, "ub-hanuul", "/ub-bayangol/")
	s, err := New(cfg, &fakeFetcher{}, config.DefaultSelectors(), utils.Discard())
	if err != nil {
		t.Fatal(err)
	}

	targets, err := s.PageTargets()
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 2 {
		t.Fatalf("got %d targets, want 2", len(targets))
	}
	if targets[0].URL != "https://www.unegui.mn/l-hdlh/l-hdlh-zarna/ub-hanuul/?page=1" {
		t.Errorf("target 0: %s", targets[0].URL)
	}
	if targets[1].URL != "https://www.unegui.mn/l-hdlh/l-hdlh-zarna/ub-bayangol/?page=1" || targets[1].Category != "/ub-bayangol/" {
		t.Errorf("target 1: %+v", targets[1])
	}
}

func TestScrapeSkipsFailedPagesAndCloses(t *testing.T) {
	base := "https://www.unegui.mn/l-hdlh/l-hdlh-treesllne/oron-suuts/"
	f := &fakeFetcher{
		pages: map[string]string{
			base + "?page=1": categoryPage,
			base + "?page=3": `<html><body>no cards</body></html>`,
		},
		errs: map[string]error{
			base + "?page=2": errors.New("net/http: timeout awaiting response headers"),
		},
	}

	s, err := New(testConfig(base, 3), f, config.DefaultSelectors(), utils.Discard())
	if err != nil {
		t.Fatal(err)
	}

	listings, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(f.calls) != 3 {
		t.Errorf("every page should be attempted, got %d calls", len(f.calls))
	}
	if len(listings) != 3 {
		t.Errorf("expected the 3 cards of page 1, got %d", len(listings))
	}
	if !f.closed {
		t.Error("fetcher must be closed when the run ends")
	}
}

func TestScrapeCancelledContext(t *testing.T) {
	f := &fakeFetcher{}
	s, err := New(testConfig("https://www.unegui.mn/x/", 2), f, config.DefaultSelectors(), utils.Discard())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Scrape(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if !f.closed {
		t.Error("fetcher must be closed on the error path too")
	}
}

func TestHTTPFetcherScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(categoryPage))
		default:
			http.Error(w, "blocked", http.StatusForbidden)
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL+"/l-hdlh/", 2)
	cfg.SiteOrigin = srv.URL

	s, err := New(cfg, NewHTTPFetcher(0), config.DefaultSelectors(), utils.Discard())
	if err != nil {
		t.Fatal(err)
	}

	listings, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(listings) != 3 {
		t.Fatalf("expected 3 listings from page 1, got %d", len(listings))
	}
	if !strings.HasPrefix(listings[0].Link, srv.URL+"/adv/") {
		t.Errorf("relative link should resolve against the origin, got %q", listings[0].Link)
	}
}

func TestHTTPFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewHTTPFetcher(0).Fetch(context.Background(), srv.URL); err == nil {
		t.Error("non-2xx response should be an error")
	}
}
