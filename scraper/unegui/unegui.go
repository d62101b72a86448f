package unegui

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"unegui-scraper/config"
	"unegui-scraper/models"
	"unegui-scraper/utils"
)

// PageTarget is one category page to visit.
type PageTarget struct {
	URL      string
	Category string
	Page     int
}

// Scraper walks the configured category pages one after another.
type Scraper struct {
	cfg       *config.Config
	logger    *utils.Logger
	fetcher   PageFetcher
	extractor *Extractor
	pacer     *utils.Pacer
	retry     *utils.RetryConfig
	now       func() time.Time
}

// New creates a Scraper. The scraper owns fetcher and closes it when
// Scrape returns.
func New(cfg *config.Config, fetcher PageFetcher, sel config.Selectors, logger *utils.Logger) (*Scraper, error) {
	extractor, err := NewExtractor(cfg.SiteOrigin, sel, logger)
	if err != nil {
		return nil, err
	}

	return &Scraper{
		cfg:       cfg,
		logger:    logger,
		fetcher:   fetcher,
		extractor: extractor,
		pacer: utils.NewPacer(
			time.Duration(cfg.MinDelayMs)*time.Millisecond,
			time.Duration(cfg.MaxDelayMs)*time.Millisecond,
		),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		now: time.Now,
	}, nil
}

// PageTargets lists the pages of a run in visiting order: every category
// slug (or the bare base URL when none are configured) crossed with pages
// 1..PagesToScrape.
func (s *Scraper) PageTargets() ([]PageTarget, error) {
	categories := s.cfg.Categories
	if len(categories) == 0 {
		categories = []string{""}
	}

	var targets []PageTarget
	for _, cat := range categories {
		for page := 1; page <= s.cfg.PagesToScrape; page++ {
			u, err := buildPageURL(s.cfg.BaseURL, cat, page)
			if err != nil {
				return nil, err
			}
			targets = append(targets, PageTarget{URL: u, Category: cat, Page: page})
		}
	}
	return targets, nil
}

// Scrape visits every page target and returns all collected records. A
// page that fails is logged and skipped. The fetcher is closed on return.
func (s *Scraper) Scrape(ctx context.Context) ([]*models.RawListing, error) {
	defer func() {
		if err := s.fetcher.Close(); err != nil {
			s.logger.Warn("[unegui] Closing fetcher: %v", err)
		}
	}()

	targets, err := s.PageTargets()
	if err != nil {
		return nil, err
	}

	s.logger.Info("[unegui] Starting scrape, %d pages queued", len(targets))

	listings := make([]*models.RawListing, 0)
	for _, target := range targets {
		if err := s.pacer.Wait(ctx); err != nil {
			return listings, fmt.Errorf("scrape interrupted: %w", err)
		}

		s.logger.Info("[unegui] Scraping page %d %s", target.Page, target.URL)

		pageListings, err := s.scrapePage(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return listings, fmt.Errorf("scrape interrupted: %w", ctx.Err())
			}
			s.logger.Error("[unegui] Page %d (%s) failed, skipping: %v", target.Page, target.URL, err)
			continue
		}

		if len(pageListings) == 0 {
			s.logger.Warn("[unegui] Page %d returned 0 listings", target.Page)
		}

		listings = append(listings, pageListings...)
		s.logger.Info("[unegui] Page %d done, collected %d listings so far", target.Page, len(listings))
	}

	s.logger.Info("[unegui] Scrape complete, total raw listings: %d", len(listings))
	return listings, nil
}

func (s *Scraper) scrapePage(ctx context.Context, target PageTarget) ([]*models.RawListing, error) {
	var doc string
	err := s.retry.Do(ctx, fmt.Sprintf("fetch-page-%d", target.Page), func(ctx context.Context) error {
		var err error
		doc, err = s.fetcher.Fetch(ctx, target.URL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.extractor.Extract(doc, target.Page, s.now())
}

func buildPageURL(base, category string, page int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base URL %q: %w", base, err)
	}
	if category != "" {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.Trim(category, "/") + "/"
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
