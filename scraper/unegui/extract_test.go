package unegui

import (
	"testing"
	"time"

	"unegui-scraper/config"
	"unegui-scraper/utils"
)

const categoryPage = `<html><body>
<div class="list">
  <div class="js-item-listing">
    <a class="advert__content-title" href="/adv/8123456_2-oroo-bair/">2 өрөө байр түрээслүүлнэ</a>
    <div class="advert__content-price"><span>1.5 сая ₮</span></div>
    <div class="advert__content-place">Хан-Уул, 19-р хороолол</div>
    <div class="advert__content-feature"><span>45</span><span>мк</span> <span>2 өрөө</span></div>
  </div>
  <div class="js-item-listing">
    <h2>Оффис</h2>
    <a class="advert__content-title" href="https://www.unegui.mn/adv/999/">  </a>
    <div class="advert__content-price">800 мянга ₮</div>
    <script>var area = "99 мк";</script>
  </div>
  <div class="js-item-listing">
  </div>
</div>
</body></html>`

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor("https://www.unegui.mn", config.DefaultSelectors(), utils.Discard())
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	return e
}

func TestExtractListingFields(t *testing.T) {
	e := newTestExtractor(t)
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	listings, err := e.Extract(categoryPage, 2, at)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(listings) != 3 {
		t.Fatalf("expected 3 records (one per card), got %d", len(listings))
	}

	first := listings[0]
	if first.Title != "2 өрөө байр түрээслүүлнэ" {
		t.Errorf("Title: got %q", first.Title)
	}
	if first.PriceText != "1.5 сая ₮" {
		t.Errorf("PriceText: got %q", first.PriceText)
	}
	if first.Location != "Хан-Уул, 19-р хороолол" || first.District != "Хан-Уул" {
		t.Errorf("Location/District: got %q / %q", first.Location, first.District)
	}
	if first.Link != "https://www.unegui.mn/adv/8123456_2-oroo-bair/" {
		t.Errorf("Link: got %q", first.Link)
	}
	if first.AreaSqm == nil || *first.AreaSqm != 45 {
		t.Errorf("AreaSqm: got %v, want 45", first.AreaSqm)
	}
	if first.Rooms == nil || *first.Rooms != 2 {
		t.Errorf("Rooms: got %v, want 2", first.Rooms)
	}
	if first.Page != 2 || !first.ScrapedAt.Equal(at) {
		t.Errorf("provenance: page %d at %v", first.Page, first.ScrapedAt)
	}
}

func TestExtractFallbacksAndMissingFields(t *testing.T) {
	e := newTestExtractor(t)
	listings, err := e.Extract(categoryPage, 1, time.Now())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	second := listings[1]
	if second.Title != "Оффис" {
		t.Errorf("fallback title: got %q", second.Title)
	}
	if second.Link != "https://www.unegui.mn/adv/999/" {
		t.Errorf("absolute link should be kept as-is, got %q", second.Link)
	}
	if second.AreaSqm != nil {
		t.Errorf("script text must not feed area extraction, got %v", *second.AreaSqm)
	}

	empty := listings[2]
	if empty.Title != "" || empty.PriceText != "" || empty.Link != "" || empty.AreaSqm != nil || empty.Rooms != nil {
		t.Errorf("empty card should give an empty record, got %+v", empty)
	}
}

func TestExtractNoCards(t *testing.T) {
	e := newTestExtractor(t)
	listings, err := e.Extract(`<html><body><p>Зар олдсонгүй</p></body></html>`, 1, time.Now())
	if err != nil {
		t.Fatalf("zero cards must not be an error: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("expected 0 records, got %d", len(listings))
	}
}

func TestResolveLink(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		href    string
		want    string
		wantErr bool
	}{
		{"/adv/1/", "https://www.unegui.mn/adv/1/", false},
		{"adv/2/", "https://www.unegui.mn/adv/2/", false},
		{"https://m.unegui.mn/adv/3/", "https://m.unegui.mn/adv/3/", false},
		{"javascript:void(0)", "", false},
		{"", "", false},
		{"http://[::1", "", true},
	}

	for _, tt := range tests {
		got, err := e.resolveLink(tt.href)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveLink(%q) error = %v, wantErr %v", tt.href, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveLink(%q) = %q; want %q", tt.href, got, tt.want)
		}
	}
}

func TestExtractSkipsCardWithBadLink(t *testing.T) {
	e := newTestExtractor(t)
	page := `<div class="js-item-listing"><a class="advert__content-title" href="http://[::1">bad</a></div>
<div class="js-item-listing"><a class="advert__content-title" href="/adv/5/">good</a></div>`

	listings, err := e.Extract(page, 1, time.Now())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(listings) != 1 || listings[0].Title != "good" {
		t.Errorf("bad card should be skipped without aborting the page, got %+v", listings)
	}
}

func TestNewExtractorRejectsRelativeOrigin(t *testing.T) {
	if _, err := NewExtractor("/relative", config.DefaultSelectors(), utils.Discard()); err == nil {
		t.Error("expected error for relative origin")
	}
}
