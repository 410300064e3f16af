package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultPort(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("SIMVEST_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_InvalidPortEnvIgnored(t *testing.T) {
	t.Setenv("SIMVEST_PORT", "not-a-port")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestConfig_APIKeyEnvOverrides(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "fh-key")
	t.Setenv("SIMVEST_EODHD_API_KEY", "eod-key")
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "fh-key", cfg.Clients.Finnhub.APIKey)
	assert.Equal(t, "eod-key", cfg.Clients.EODHD.APIKey)
	assert.Equal(t, "g-key", cfg.Clients.Gemini.APIKey)
	assert.Empty(t, cfg.Clients.NewsAPI.APIKey)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, 30, cfg.Portfolio.WatchlistLimit)
	assert.Equal(t, 24*time.Hour, cfg.Auth.GetTokenExpiry())
	assert.Equal(t, time.Duration(0), cfg.Cache.GetQuoteTTL())
	assert.Equal(t, "^GSPC", cfg.Catalog.Index)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_LoadConfigMergesFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	local := filepath.Join(dir, "local.toml")

	require.NoError(t, os.WriteFile(base, []byte(`
[server]
port = 7000

[storage]
backend = "postgres"
`), 0o600))
	require.NoError(t, os.WriteFile(local, []byte(`
[server]
port = 7001

[portfolio]
watchlist_limit = 5
`), 0o600))

	cfg, err := LoadConfig(base, local, filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, 5, cfg.Portfolio.WatchlistLimit)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestConfig_LoadConfigRejectsBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport ="), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_ValidateUnknownBackend(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Backend = "badger"
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Cache.Backend = "memcached"
	assert.Error(t, cfg.Validate())
}

func TestConfig_ValidateProductionSecret(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Environment = "production"
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "a-real-secret"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_DurationFallbacks(t *testing.T) {
	p := ProviderConfig{Timeout: "garbage"}
	assert.Equal(t, 30*time.Second, p.GetTimeout())

	c := CacheConfig{QuoteTTL: "-5s"}
	assert.Equal(t, time.Duration(0), c.GetQuoteTTL())

	pc := PortfolioConfig{PriceTimeout: "2s"}
	assert.Equal(t, 2*time.Second, pc.GetPriceTimeout())
}

func TestPostgresConfig_DSN(t *testing.T) {
	c := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "d"}
	assert.Equal(t, "postgres://u:p@db:5433/d?sslmode=disable", c.DSN())
}
