// Package config collects the environment-driven configuration surface.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is parsed once at startup and handed read-only to components.
type Config struct {
	Addr string

	// Adapter toggles. DemoMode forces the fixture adapter and is also
	// the fallback when no real source is enabled.
	DemoMode         bool
	EnableScraper    bool
	EnableBookingAPI bool
	EnableSerpAPI    bool

	// Upstream credentials.
	RapidAPIKey  string
	SerpAPIKey   string
	OpenAIAPIKey string

	// Limits and pacing.
	MaxPropertiesPerSource int
	MaxTotalProperties     int
	AdapterTimeout         time.Duration
	SearchBudget           time.Duration
	EvalTimeout            time.Duration
	EvalPacingInterval     time.Duration
	EvalPoolSize           int

	// Browser pacing between simulated human actions.
	ScraperHeadless bool
	ScrapeDelayMin  time.Duration
	ScrapeDelayMax  time.Duration

	// Per-IP rate limiting on the search endpoint.
	RateLimit       int
	RateLimitWindow time.Duration
}

// Load reads the configuration from the environment with defaults suitable
// for local development.
func Load() Config {
	return Config{
		Addr: getEnv("ADDR", ":8080"),

		DemoMode:         getBool("DEMO_MODE", false),
		EnableScraper:    getBool("ENABLE_SCRAPER", false),
		EnableBookingAPI: getBool("ENABLE_BOOKING_API", false),
		EnableSerpAPI:    getBool("ENABLE_SERP_API", false),

		RapidAPIKey:  os.Getenv("RAPIDAPI_KEY"),
		SerpAPIKey:   os.Getenv("SERPAPI_KEY"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),

		MaxPropertiesPerSource: getInt("MAX_PROPERTIES_PER_SOURCE", 8),
		MaxTotalProperties:     getInt("MAX_TOTAL_PROPERTIES", 16),
		AdapterTimeout:         getDuration("ADAPTER_TIMEOUT", 30*time.Second),
		SearchBudget:           getDuration("SEARCH_BUDGET", 10*time.Minute),
		EvalTimeout:            getDuration("EVAL_TIMEOUT", 60*time.Second),
		EvalPacingInterval:     getDuration("EVAL_PACING_INTERVAL", 0),
		EvalPoolSize:           getInt("EVAL_POOL_SIZE", 1),

		ScraperHeadless: getBool("SCRAPER_HEADLESS", true),
		ScrapeDelayMin:  getDuration("SCRAPE_DELAY_MIN", time.Second),
		ScrapeDelayMax:  getDuration("SCRAPE_DELAY_MAX", 3*time.Second),

		RateLimit:       getInt("RATE_LIMIT", 10),
		RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

// getEnv gets an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
