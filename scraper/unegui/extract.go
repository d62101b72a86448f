package unegui

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"unegui-scraper/config"
	"unegui-scraper/models"
	"unegui-scraper/utils"
)

// Extractor turns a category page into RawListings. Every field is best
// effort: a selector that matches nothing leaves the field empty.
type Extractor struct {
	origin *url.URL
	sel    config.Selectors
	logger *utils.Logger
}

// NewExtractor validates origin, which must be an absolute http(s) URL.
func NewExtractor(origin string, sel config.Selectors, logger *utils.Logger) (*Extractor, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse site origin %q: %w", origin, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("site origin %q is not an absolute URL", origin)
	}
	return &Extractor{origin: u, sel: sel, logger: logger}, nil
}

// Extract parses page and returns one record per listing card. A page
// without cards yields an empty slice and no error.
func (e *Extractor) Extract(page string, pageIndex int, scrapedAt time.Time) ([]*models.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse page %d: %w", pageIndex, err)
	}

	cards := doc.Find(e.sel.Card)
	listings := make([]*models.RawListing, 0, cards.Length())

	cards.Each(func(i int, card *goquery.Selection) {
		l, err := e.extractCard(card)
		if err != nil {
			e.logger.Warn("[unegui] Page %d card %d skipped: %v", pageIndex, i, err)
			return
		}
		l.Page = pageIndex
		l.ScrapedAt = scrapedAt
		listings = append(listings, l)
	})

	e.logger.Debug("[unegui] Page %d: %d cards, %d records", pageIndex, cards.Length(), len(listings))
	return listings, nil
}

func (e *Extractor) extractCard(card *goquery.Selection) (*models.RawListing, error) {
	title := childText(card, e.sel.Title)
	if title == "" {
		title = childText(card, e.sel.TitleFallback)
	}
	location := childText(card, e.sel.Location)
	body := cardText(card)

	link, err := e.resolveLink(cardHref(card, e.sel.Link))
	if err != nil {
		return nil, err
	}

	l := &models.RawListing{
		Title:       title,
		PriceText:   childText(card, e.sel.Price),
		Location:    location,
		District:    strings.TrimSpace(strings.Split(location, ",")[0]),
		RawBodyText: body,
		Link:        link,
	}
	if area, ok := utils.ExtractArea(body); ok {
		l.AreaSqm = &area
	}
	if rooms, ok := utils.ExtractRooms(body); ok {
		l.Rooms = &rooms
	}
	return l, nil
}

// resolveLink keeps absolute http(s) links and resolves relative ones
// against the site origin. Other schemes (javascript:, mailto:) count as
// no link.
func (e *Extractor) resolveLink(href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", nil
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("bad href %q: %w", href, err)
	}
	if ref.IsAbs() {
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return "", nil
		}
		return ref.String(), nil
	}
	return e.origin.ResolveReference(ref).String(), nil
}

func childText(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return utils.NormaliseText(card.Find(selector).First().Text())
}

// cardHref prefers the configured link selector and falls back to the
// first anchor in the card.
func cardHref(card *goquery.Selection, selector string) string {
	if selector != "" {
		if href, ok := card.Find(selector).First().Attr("href"); ok {
			return href
		}
	}
	href, _ := card.Find("a[href]").First().Attr("href")
	return href
}

// cardText joins the card's text nodes with single spaces so that tokens
// from adjacent elements ("45" and "мк") stay separated.
func cardText(card *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range card.Nodes {
		walk(n)
	}
	return utils.NormaliseText(strings.Join(parts, " "))
}
