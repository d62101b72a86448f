package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	BaseURL    string
	SiteOrigin string
	Categories []string

	PagesToScrape int
	PageTimeout   time.Duration
	PageSettle    time.Duration
	MinDelayMs    int
	MaxDelayMs    int
	MaxRetries    int
	FetchMode     string
	ChromeBin     string
	SelectorsFile string

	RawOutputPath   string
	CleanOutputPath string
	ChartOutputPath string

	PriceFloor   float64
	PriceCeiling float64

	StorageBackend   string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	SQLitePath       string

	ListenAddr string
	LogLevel   string
}

// Fetch modes.
const (
	FetchBrowser = "browser"
	FetchHTTP    = "http"
)

// Storage backends.
const (
	StorageNone     = "none"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		BaseURL:    getEnv("UNEGUI_BASE_URL", "https://www.unegui.mn/l-hdlh/l-hdlh-treesllne/oron-suuts/"),
		SiteOrigin: getEnv("UNEGUI_ORIGIN", "https://www.unegui.mn"),
		Categories: getEnvList("UNEGUI_CATEGORIES"),

		PagesToScrape: getEnvInt("PAGES_TO_SCRAPE", 3),
		PageTimeout:   time.Duration(getEnvInt("PAGE_TIMEOUT_SEC", 100)) * time.Second,
		PageSettle:    time.Duration(getEnvInt("PAGE_SETTLE_MS", 2000)) * time.Millisecond,
		MinDelayMs:    getEnvInt("MIN_DELAY_MS", 1000),
		MaxDelayMs:    getEnvInt("MAX_DELAY_MS", 3000),
		MaxRetries:    getEnvInt("MAX_RETRIES", 2),
		FetchMode:     strings.ToLower(getEnv("FETCH_MODE", FetchBrowser)),
		ChromeBin:     getEnv("CHROME_BIN", ""),
		SelectorsFile: getEnv("SELECTORS_FILE", ""),

		RawOutputPath:   getEnv("RAW_OUTPUT_PATH", "./data/rental_data.json"),
		CleanOutputPath: getEnv("CLEAN_OUTPUT_PATH", "./output/cleaned_listings.csv"),
		ChartOutputPath: getEnv("CHART_OUTPUT_PATH", "./output/rental_analysis.png"),

		PriceFloor:   getEnvFloat("PRICE_FLOOR", 100_000),
		PriceCeiling: getEnvFloat("PRICE_CEILING", 20_000_000),

		StorageBackend:   strings.ToLower(getEnv("STORAGE_BACKEND", StorageNone)),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "rental_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		SQLitePath:       getEnv("SQLITE_PATH", "./output/rental.db"),

		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
