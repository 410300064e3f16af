package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for simvest
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Cache       CacheConfig     `toml:"cache"`
	Clients     ClientsConfig   `toml:"clients"`
	Sentiment   SentimentConfig `toml:"sentiment"`
	Portfolio   PortfolioConfig `toml:"portfolio"`
	Catalog     CatalogConfig   `toml:"catalog"`
	Auth        AuthConfig      `toml:"auth"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects the storage backend and holds per-backend settings.
type StorageConfig struct {
	Backend   string          `toml:"backend"` // surrealdb | postgres | memory
	SurrealDB SurrealDBConfig `toml:"surrealdb"`
	Postgres  PostgresConfig  `toml:"postgres"`
}

// SurrealDBConfig holds SurrealDB connection settings
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
	MaxConns int    `toml:"max_conns"`
}

// DSN builds a libpq URL for the configured database.
func (c *PostgresConfig) DSN() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode)
}

// CacheConfig holds response cache configuration
type CacheConfig struct {
	Backend    string      `toml:"backend"` // memory | redis
	Redis      RedisConfig `toml:"redis"`
	QuoteTTL   string      `toml:"quote_ttl"`
	HistoryTTL string      `toml:"history_ttl"`
	NewsTTL    string      `toml:"news_ttl"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// GetQuoteTTL returns the quote cache TTL. Zero disables quote caching.
func (c *CacheConfig) GetQuoteTTL() time.Duration {
	return parseDurationOr(c.QuoteTTL, 0)
}

// GetHistoryTTL returns the price history cache TTL.
func (c *CacheConfig) GetHistoryTTL() time.Duration {
	return parseDurationOr(c.HistoryTTL, 6*time.Hour)
}

// GetNewsTTL returns the news cache TTL.
func (c *CacheConfig) GetNewsTTL() time.Duration {
	return parseDurationOr(c.NewsTTL, 15*time.Minute)
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Finnhub ProviderConfig `toml:"finnhub"`
	EODHD   ProviderConfig `toml:"eodhd"`
	NewsAPI ProviderConfig `toml:"newsapi"`
	Gemini  GeminiConfig   `toml:"gemini"`
}

// ProviderConfig holds settings shared by the HTTP data providers
type ProviderConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ProviderConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 30*time.Second)
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *GeminiConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 60*time.Second)
}

// SentimentConfig selects the headline classifier.
type SentimentConfig struct {
	Provider  string `toml:"provider"` // model | gemini
	ModelPath string `toml:"model_path"`
}

// PortfolioConfig holds ledger and watchlist settings
type PortfolioConfig struct {
	WatchlistLimit int    `toml:"watchlist_limit"`
	PriceTimeout   string `toml:"price_timeout"`
	Concurrency    int    `toml:"concurrency"`
}

// GetPriceTimeout returns the bound on a single price fetch.
func (c *PortfolioConfig) GetPriceTimeout() time.Duration {
	return parseDurationOr(c.PriceTimeout, 10*time.Second)
}

// CatalogConfig controls instrument catalog seeding
type CatalogConfig struct {
	SeedOnStart bool   `toml:"seed_on_start"`
	Index       string `toml:"index"`
	Exchange    string `toml:"exchange"`
}

// AuthConfig holds JWT configuration.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"`
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	return parseDurationOr(c.TokenExpiry, 24*time.Hour)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

const defaultJWTSecret = "dev-jwt-secret-change-in-production"

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend: "surrealdb",
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8000/rpc",
				Namespace: "simvest",
				Database:  "simvest",
				Username:  "root",
				Password:  "root",
			},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "simvest",
				Password: "simvest",
				Database: "simvest",
				SSLMode:  "disable",
				MaxConns: 10,
			},
		},
		Cache: CacheConfig{
			Backend:    "memory",
			Redis:      RedisConfig{Address: "localhost:6379", Prefix: "simvest:"},
			QuoteTTL:   "0s",
			HistoryTTL: "6h",
			NewsTTL:    "15m",
		},
		Clients: ClientsConfig{
			Finnhub: ProviderConfig{
				BaseURL:   "https://finnhub.io/api/v1",
				RateLimit: 30,
				Timeout:   "10s",
			},
			EODHD: ProviderConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
			NewsAPI: ProviderConfig{
				BaseURL:   "https://newsapi.org/v2",
				RateLimit: 1,
				Timeout:   "15s",
			},
			Gemini: GeminiConfig{
				Model:   "gemini-2.0-flash",
				Timeout: "60s",
			},
		},
		Sentiment: SentimentConfig{
			Provider:  "model",
			ModelPath: "data/sentiment_model.json",
		},
		Portfolio: PortfolioConfig{
			WatchlistLimit: 30,
			PriceTimeout:   "10s",
			Concurrency:    8,
		},
		Catalog: CatalogConfig{
			SeedOnStart: true,
			Index:       "^GSPC",
			Exchange:    "US",
		},
		Auth: AuthConfig{
			JWTSecret:   defaultJWTSecret,
			TokenExpiry: "24h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// later files override earlier
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SIMVEST_ENV"); v != "" {
		config.Environment = v
	}
	if v := os.Getenv("SIMVEST_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("SIMVEST_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			config.Server.Port = p
		}
	}
	if v := os.Getenv("SIMVEST_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	// Storage
	if v := os.Getenv("SIMVEST_STORAGE_BACKEND"); v != "" {
		config.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("SIMVEST_SURREALDB_ADDRESS"); v != "" {
		config.Storage.SurrealDB.Address = v
	}
	if v := os.Getenv("SIMVEST_SURREALDB_PASSWORD"); v != "" {
		config.Storage.SurrealDB.Password = v
	}
	if v := os.Getenv("SIMVEST_POSTGRES_HOST"); v != "" {
		config.Storage.Postgres.Host = v
	}
	if v := os.Getenv("SIMVEST_POSTGRES_PASSWORD"); v != "" {
		config.Storage.Postgres.Password = v
	}

	// Cache
	if v := os.Getenv("SIMVEST_CACHE_BACKEND"); v != "" {
		config.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("SIMVEST_REDIS_ADDRESS"); v != "" {
		config.Cache.Redis.Address = v
	}

	// API keys
	if v := firstEnv("FINNHUB_API_KEY", "SIMVEST_FINNHUB_API_KEY"); v != "" {
		config.Clients.Finnhub.APIKey = v
	}
	if v := firstEnv("EODHD_API_KEY", "SIMVEST_EODHD_API_KEY"); v != "" {
		config.Clients.EODHD.APIKey = v
	}
	if v := firstEnv("NEWSAPI_API_KEY", "SIMVEST_NEWSAPI_API_KEY"); v != "" {
		config.Clients.NewsAPI.APIKey = v
	}
	if v := firstEnv("GEMINI_API_KEY", "SIMVEST_GEMINI_API_KEY", "GOOGLE_API_KEY"); v != "" {
		config.Clients.Gemini.APIKey = v
	}

	// Auth
	if v := os.Getenv("SIMVEST_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("SIMVEST_AUTH_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}

	if v := os.Getenv("SIMVEST_SENTIMENT_PROVIDER"); v != "" {
		config.Sentiment.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("SIMVEST_SENTIMENT_MODEL_PATH"); v != "" {
		config.Sentiment.ModelPath = v
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks enumerated settings and production requirements.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "surrealdb", "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Sentiment.Provider {
	case "model", "gemini":
	default:
		return fmt.Errorf("unknown sentiment provider %q", c.Sentiment.Provider)
	}
	if c.Portfolio.WatchlistLimit <= 0 {
		return fmt.Errorf("portfolio.watchlist_limit must be positive, got %d", c.Portfolio.WatchlistLimit)
	}
	if c.IsProduction() && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("auth.jwt_secret must be set in production")
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
