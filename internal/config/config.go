// Package config loads sitespec configuration from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLM providers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Rectangle is a geographic bounding box used to bias directory searches.
type Rectangle struct {
	LowLat  float64 `yaml:"low_lat"`
	LowLng  float64 `yaml:"low_lng"`
	HighLat float64 `yaml:"high_lat"`
	HighLng float64 `yaml:"high_lng"`
}

// Config holds all configuration values.
type Config struct {
	// Google Places
	PlacesAPIKey  string
	PlacesBaseURL string
	SearchRegion  Rectangle
	MaxReviews    int

	// Firecrawl
	FirecrawlAPIKey   string
	FirecrawlBaseURL  string
	ScrapeTimeout     time.Duration
	ScrapeConcurrency int
	ScrapeRatePerSec  float64
	MaxPages          int

	// Gumloop SEO pipeline
	GumloopAPIKey      string
	GumloopUserID      string
	GumloopSavedItemID string
	GumloopBaseURL     string
	SEOFocusArea       string
	SEOPollInterval    time.Duration
	SEOPollTimeout     time.Duration

	// LLM
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	AWSRegion       string

	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Ownership
	Owner string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// DefaultFocusArea steers the SEO pipeline's analysis emphasis.
const DefaultFocusArea = "Content Optimization (Hero, Services, Header, Meta, FAQ, CTAs, etc.)"

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first if present. If SITESPEC_CONFIG points to
// a YAML file (or sitespec.yaml exists), its values override the defaults
// before env vars are applied.
func Load() Config {
	// Env vars already set win over .env entries.
	_ = godotenv.Load()

	cfg := Config{
		PlacesAPIKey:  os.Getenv("GOOGLE_PLACES_API_KEY"),
		PlacesBaseURL: getEnv("SITESPEC_PLACES_URL", "https://places.googleapis.com"),
		// Australia-wide bounding box.
		SearchRegion: Rectangle{LowLat: -44.0, LowLng: 112.0, HighLat: -10.0, HighLng: 154.0},
		MaxReviews:   getEnvInt("SITESPEC_MAX_REVIEWS", 5),

		FirecrawlAPIKey:   os.Getenv("FIRECRAWL_API_KEY"),
		FirecrawlBaseURL:  getEnv("SITESPEC_FIRECRAWL_URL", "https://api.firecrawl.dev"),
		ScrapeTimeout:     getEnvDuration("SITESPEC_SCRAPE_TIMEOUT", 15*time.Second),
		ScrapeConcurrency: getEnvInt("SITESPEC_SCRAPE_CONCURRENCY", 2),
		ScrapeRatePerSec:  2,
		MaxPages:          getEnvInt("SITESPEC_MAX_PAGES", 5),

		GumloopAPIKey:      os.Getenv("GUMLOOP_API_KEY"),
		GumloopUserID:      os.Getenv("GUMLOOP_USER_ID"),
		GumloopSavedItemID: os.Getenv("GUMLOOP_SAVED_ITEM_ID"),
		GumloopBaseURL:     getEnv("SITESPEC_GUMLOOP_URL", "https://api.gumloop.com"),
		SEOFocusArea:       getEnv("SITESPEC_SEO_FOCUS", DefaultFocusArea),
		SEOPollInterval:    getEnvDuration("SITESPEC_SEO_POLL_INTERVAL", 5*time.Second),
		SEOPollTimeout:     getEnvDuration("SITESPEC_SEO_POLL_TIMEOUT", 180*time.Second),

		LLMProvider:     getEnv("SITESPEC_LLM_PROVIDER", ProviderOllama),
		LLMModel:        getEnv("SITESPEC_LLM_MODEL", "llama3.1"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "sitespec"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "main"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		Owner: getEnv("SITESPEC_OWNER", "local"),

		LogFile:  getEnv("SITESPEC_LOG_FILE", "/tmp/sitespec.log"),
		LogLevel: parseLogLevel(getEnv("SITESPEC_LOG_LEVEL", "INFO")),
	}

	path := os.Getenv("SITESPEC_CONFIG")
	if path == "" {
		if _, err := os.Stat("sitespec.yaml"); err == nil {
			path = "sitespec.yaml"
		}
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			slog.Warn("failed to load config file, using env/defaults", "path", path, "error", err)
		}
	}

	return cfg
}

// fileConfig is the subset of settings that make sense in a config file.
// Zero values leave the existing setting untouched.
type fileConfig struct {
	SearchRegion      *Rectangle `yaml:"search_region"`
	MaxPages          int        `yaml:"max_pages"`
	MaxReviews        int        `yaml:"max_reviews"`
	ScrapeConcurrency int        `yaml:"scrape_concurrency"`
	SEOFocusArea      string     `yaml:"seo_focus_area"`
	LLMProvider       string     `yaml:"llm_provider"`
	LLMModel          string     `yaml:"llm_model"`
	Owner             string     `yaml:"owner"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.SearchRegion != nil {
		c.SearchRegion = *fc.SearchRegion
	}
	if fc.MaxPages > 0 {
		c.MaxPages = fc.MaxPages
	}
	if fc.MaxReviews > 0 {
		c.MaxReviews = fc.MaxReviews
	}
	if fc.ScrapeConcurrency > 0 {
		c.ScrapeConcurrency = fc.ScrapeConcurrency
	}
	if fc.SEOFocusArea != "" {
		c.SEOFocusArea = fc.SEOFocusArea
	}
	if fc.LLMProvider != "" {
		c.LLMProvider = fc.LLMProvider
	}
	if fc.LLMModel != "" {
		c.LLMModel = fc.LLMModel
	}
	if fc.Owner != "" {
		c.Owner = fc.Owner
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
