package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"unegui-scraper/api"
	"unegui-scraper/config"
	"unegui-scraper/models"
	"unegui-scraper/scraper/unegui"
	"unegui-scraper/services"
	"unegui-scraper/storage"
	"unegui-scraper/utils"
)

const usage = `usage: unegui-scraper <command> [flags]

commands:
  scrape    collect category pages into the raw JSON file
  analyze   clean the raw file, print the summary, export CSV and charts
  run       scrape, then analyze
  serve     analyze, then serve the results over HTTP
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "scrape":
		err = scrapeCmd(ctx, cfg, logger, args)
	case "analyze":
		err = analyzeCmd(cfg, logger, args)
	case "run":
		err = runCmd(ctx, cfg, logger, args)
	case "serve":
		err = serveCmd(ctx, cfg, logger, args)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

func scrapeFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.IntVar(&cfg.PagesToScrape, "pages", cfg.PagesToScrape, "pages to fetch per category")
	fs.StringVar(&cfg.FetchMode, "mode", cfg.FetchMode, "fetch mode: browser or http")
	fs.StringVar(&cfg.RawOutputPath, "out", cfg.RawOutputPath, "raw JSON output path")
}

func analyzeFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.CleanOutputPath, "csv", cfg.CleanOutputPath, "cleaned CSV output path")
	fs.StringVar(&cfg.ChartOutputPath, "chart", cfg.ChartOutputPath, "chart PNG output path")
	fs.StringVar(&cfg.StorageBackend, "store", cfg.StorageBackend, "storage backend: none, postgres or sqlite")
}

func scrapeCmd(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	scrapeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return scrape(ctx, cfg, logger)
}

func analyzeCmd(cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	fs.StringVar(&cfg.RawOutputPath, "in", cfg.RawOutputPath, "input file (.json or .csv)")
	analyzeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	_, _, err := analyze(cfg, logger)
	return err
}

func runCmd(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	scrapeFlags(fs, cfg)
	analyzeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := scrape(ctx, cfg, logger); err != nil {
		return err
	}
	_, _, err := analyze(cfg, logger)
	return err
}

func serveCmd(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.StringVar(&cfg.RawOutputPath, "in", cfg.RawOutputPath, "input file (.json or .csv)")
	fs.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "listen address")
	analyzeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, report, err := analyze(cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewHandler(report, res.Listings, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving results on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// scrape runs the collector and writes the raw JSON file once, after the
// last page.
func scrape(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	logger.Info("=== unegui.mn collector starting ===")
	logger.Info("Config: pages %d | categories %d | mode %s | delay %d-%dms",
		cfg.PagesToScrape, len(cfg.Categories), cfg.FetchMode, cfg.MinDelayMs, cfg.MaxDelayMs)

	sel, err := config.LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		return err
	}

	fetcher, err := unegui.NewFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("start fetcher: %w", err)
	}

	s, err := unegui.New(cfg, fetcher, sel, logger)
	if err != nil {
		_ = fetcher.Close()
		return err
	}

	listings, err := s.Scrape(ctx)
	if err != nil {
		// An interrupted run leaves the previous raw file untouched.
		return err
	}
	if len(listings) == 0 {
		logger.Warn("No listings were scraped")
	}

	if err := storage.WriteRawJSON(cfg.RawOutputPath, listings); err != nil {
		return fmt.Errorf("write raw listings: %w", err)
	}
	logger.Info("Raw listings (%d) saved to %s", len(listings), cfg.RawOutputPath)
	return nil
}

// analyze loads the raw file, cleans it, prints the summary and writes the
// exports. Nothing is written unless cleaning succeeds.
func analyze(cfg *config.Config, logger *utils.Logger) (*services.CleanResult, *models.InsightReport, error) {
	table, err := storage.LoadTable(cfg.RawOutputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", cfg.RawOutputPath, err)
	}
	logger.Info("Loaded %d rows from %s", len(table.Rows), cfg.RawOutputPath)

	cleaner := services.NewCleaner(cfg.PriceFloor, cfg.PriceCeiling, logger)
	res, err := cleaner.Clean(table)
	if err != nil {
		return nil, nil, err
	}

	insightSvc := services.NewInsightService(logger)
	report, err := insightSvc.Generate(res)
	if err != nil {
		return nil, nil, err
	}
	insightSvc.Print(os.Stdout, report)

	if err := exportCSV(cfg.CleanOutputPath, res.Listings); err != nil {
		logger.Error("CSV export failed: %v", err)
	} else {
		logger.Info("Cleaned listings saved to %s", cfg.CleanOutputPath)
	}

	var chart bytes.Buffer
	if err := services.NewChartRenderer(logger).Render(&chart, report, res.Listings); err != nil {
		logger.Error("Chart rendering failed: %v", err)
	} else if err := storage.WriteFileAtomic(cfg.ChartOutputPath, chart.Bytes()); err != nil {
		logger.Error("Chart write failed: %v", err)
	} else {
		logger.Info("Charts saved to %s", cfg.ChartOutputPath)
	}

	if err := persist(cfg, logger, res.Listings); err != nil {
		logger.Error("Storage backend %s: %v", cfg.StorageBackend, err)
	}

	return res, report, nil
}

func exportCSV(path string, listings []*models.Listing) error {
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteClean(listings); err != nil {
		return err
	}
	return w.Commit()
}

func openStore(cfg *config.Config) (storage.ListingWriter, error) {
	switch cfg.StorageBackend {
	case config.StorageNone, "":
		return nil, nil
	case config.StoragePostgres:
		return storage.NewPostgresWriter(cfg.DSN())
	case config.StorageSQLite:
		return storage.NewSQLiteWriter(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// persist replaces the stored cleaned set and reads it back as a check.
func persist(cfg *config.Config, logger *utils.Logger, listings []*models.Listing) error {
	store, err := openStore(cfg)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	if err := store.Write(listings); err != nil {
		return err
	}
	stored, err := store.FetchAll()
	if err != nil {
		return fmt.Errorf("read back: %w", err)
	}
	if len(stored) != len(listings) {
		logger.Warn("Stored %d of %d listings (duplicate links are kept once)", len(stored), len(listings))
	}
	logger.Info("Cleaned listings stored in %s (table: cleaned_listings)", cfg.StorageBackend)
	return nil
}
