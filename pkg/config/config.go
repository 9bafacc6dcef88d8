package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External data providers
	Yahoo      YahooConfig
	Polymarket PolymarketConfig
	Gemini     GeminiConfig
	Trends     TrendsConfig

	// Scoring and backtest behavior
	Analysis AnalysisConfig
	Backtest BacktestConfig

	// Scheduler
	SyncSchedule string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// YahooConfig names the index symbols pulled from Yahoo Finance
type YahooConfig struct {
	IndexSymbol string // equity benchmark (S&P 500)
	FearSymbol  string // volatility index (VIX)
	SkewSymbol  string // tail-risk index (SKEW)
}

// PolymarketConfig holds Gamma listing and subgraph volume endpoints
type PolymarketConfig struct {
	GammaURL     string
	SubgraphURL  string
	GraphAPIKey  string
	PageSize     int
	MaxOffset    int
	ListingTTL   time.Duration
	RequestLimit int // calls per second against Gamma
}

// GeminiConfig holds the relevance-judgment model configuration
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// TrendsConfig holds the search-interest service configuration
type TrendsConfig struct {
	BaseURL     string
	MinInterval time.Duration
}

// AnalysisConfig holds composite scoring parameters
type AnalysisConfig struct {
	SignalTimeout time.Duration
	BatchDelay    time.Duration
}

// BacktestConfig holds momentum backtest defaults
type BacktestConfig struct {
	ConfigPath    string // optional YAML with events and universe
	MomentumDays  int
	PortfolioSize int
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Yahoo: YahooConfig{
			IndexSymbol: getEnv("YAHOO_INDEX_SYMBOL", "^GSPC"),
			FearSymbol:  getEnv("YAHOO_FEAR_SYMBOL", "^VIX"),
			SkewSymbol:  getEnv("YAHOO_SKEW_SYMBOL", "^SKEW"),
		},

		Polymarket: PolymarketConfig{
			GammaURL:     getEnv("POLYMARKET_GAMMA_URL", "https://gamma-api.polymarket.com"),
			SubgraphURL:  getEnv("POLYMARKET_SUBGRAPH_URL", "https://gateway-arbitrum.network.thegraph.com/api/%s/subgraphs/id/Bx1W4S7kDVxs9gC3s2G6DS8kdNBJNVhMviCtin2DiBp"),
			GraphAPIKey:  getEnv("THE_GRAPH_API_KEY", ""),
			PageSize:     getEnvAsInt("POLYMARKET_PAGE_SIZE", 100),
			MaxOffset:    getEnvAsInt("POLYMARKET_MAX_OFFSET", 2000),
			ListingTTL:   getEnvAsDuration("POLYMARKET_LISTING_TTL", "1h"),
			RequestLimit: getEnvAsInt("POLYMARKET_REQUEST_LIMIT", 5),
		},

		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.0-flash-001"),
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		},

		Trends: TrendsConfig{
			BaseURL:     getEnv("TRENDS_BASE_URL", "http://localhost:5001"),
			MinInterval: getEnvAsDuration("TRENDS_MIN_INTERVAL", "3s"),
		},

		Analysis: AnalysisConfig{
			SignalTimeout: getEnvAsDuration("SIGNAL_TIMEOUT", "10s"),
			BatchDelay:    getEnvAsDuration("BATCH_DELAY", "2s"),
		},

		Backtest: BacktestConfig{
			ConfigPath:    getEnv("BACKTEST_CONFIG", ""),
			MomentumDays:  getEnvAsInt("BACKTEST_MOMENTUM_DAYS", 5),
			PortfolioSize: getEnvAsInt("BACKTEST_PORTFOLIO_SIZE", 20),
		},

		// Weekdays 22:30 UTC, after the US close
		SyncSchedule: getEnv("SYNC_SCHEDULE", "0 30 22 * * 1-5"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Analysis.SignalTimeout <= 0 {
		return fmt.Errorf("SIGNAL_TIMEOUT must be positive")
	}

	return nil
}

// SubgraphEndpoint returns the subgraph URL with the API key filled in
func (p PolymarketConfig) SubgraphEndpoint() string {
	return fmt.Sprintf(p.SubgraphURL, p.GraphAPIKey)
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
