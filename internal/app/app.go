// Package app wires storage, cache, provider clients and services into one
// application shared by the HTTP server and its tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bobmcallan/simvest/internal/cache"
	"github.com/bobmcallan/simvest/internal/clients/eodhd"
	"github.com/bobmcallan/simvest/internal/clients/finnhub"
	"github.com/bobmcallan/simvest/internal/clients/gemini"
	"github.com/bobmcallan/simvest/internal/clients/newsapi"
	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/interfaces"
	"github.com/bobmcallan/simvest/internal/sentiment"
	"github.com/bobmcallan/simvest/internal/services/market"
	"github.com/bobmcallan/simvest/internal/services/portfolio"
	"github.com/bobmcallan/simvest/internal/services/quote"
	"github.com/bobmcallan/simvest/internal/services/watchlist"
	"github.com/bobmcallan/simvest/internal/storage"
)

// App holds all initialized services and their dependencies.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	Cache            interfaces.Cache
	Catalog          interfaces.InstrumentCatalog
	QuoteService     interfaces.QuoteService
	MarketService    interfaces.MarketService
	WatchlistService interfaces.WatchlistService
	PortfolioService interfaces.PortfolioService
	StartupTime      time.Time

	closeOnce sync.Once
	closeErr  error
}

// Deps are the externally constructed pieces of an App. Nil clients leave the
// matching features reporting ServiceUnavailable.
type Deps struct {
	Storage       interfaces.StorageManager
	Cache         interfaces.Cache
	QuoteClient   interfaces.QuoteClient
	CatalogClient interfaces.CatalogClient
	HistoryClient interfaces.HistoryClient
	NewsClient    interfaces.NewsClient
	Classifier    interfaces.SentimentClassifier
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration and initializes every dependency.
// configPath may be empty, in which case SIMVEST_CONFIG, then simvest.toml
// next to the binary, then config/simvest.toml are tried.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	startupStart := time.Now()

	common.LoadVersionFromFile()

	if configPath == "" {
		configPath = os.Getenv("SIMVEST_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "simvest.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/simvest.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewStorageManager(ctx, logger, config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	responseCache, err := cache.New(ctx, config.Cache, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	deps := Deps{Storage: storageManager, Cache: responseCache}
	newClients(ctx, config, logger, &deps)

	a := New(config, logger, deps)
	a.StartupTime = startupStart

	logger.Info().
		Str("storage", storageManager.Backend()).
		Str("cache", config.Cache.Backend).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// newClients builds the provider clients that have API keys configured.
func newClients(ctx context.Context, config *common.Config, logger *common.Logger, deps *Deps) {
	fh := config.Clients.Finnhub
	if fh.APIKey != "" {
		client := finnhub.NewClient(fh.APIKey,
			finnhub.WithBaseURL(fh.BaseURL),
			finnhub.WithLogger(logger),
			finnhub.WithRateLimit(fh.RateLimit),
			finnhub.WithTimeout(fh.GetTimeout()),
		)
		deps.QuoteClient = client
		deps.CatalogClient = client
	} else {
		logger.Warn().Msg("Finnhub API key not configured - quotes and catalog seeding will be unavailable")
	}

	eod := config.Clients.EODHD
	if eod.APIKey != "" {
		deps.HistoryClient = eodhd.NewClient(eod.APIKey,
			eodhd.WithBaseURL(eod.BaseURL),
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(eod.RateLimit),
			eodhd.WithTimeout(eod.GetTimeout()),
			eodhd.WithExchange(config.Catalog.Exchange),
		)
	} else {
		logger.Warn().Msg("EODHD API key not configured - price history will be unavailable")
	}

	na := config.Clients.NewsAPI
	if na.APIKey != "" {
		deps.NewsClient = newsapi.NewClient(na.APIKey,
			newsapi.WithBaseURL(na.BaseURL),
			newsapi.WithLogger(logger),
			newsapi.WithRateLimit(na.RateLimit),
			newsapi.WithTimeout(na.GetTimeout()),
		)
	} else {
		logger.Warn().Msg("NewsAPI key not configured - news will be unavailable")
	}

	deps.Classifier = newClassifier(ctx, config, logger)
}

// newClassifier returns the configured headline classifier, or nil if it
// cannot be loaded.
func newClassifier(ctx context.Context, config *common.Config, logger *common.Logger) interfaces.SentimentClassifier {
	switch config.Sentiment.Provider {
	case "gemini":
		g := config.Clients.Gemini
		if g.APIKey == "" {
			logger.Warn().Msg("Gemini API key not configured - news sentiment will be unavailable")
			return nil
		}
		client, err := gemini.NewClient(ctx, g.APIKey,
			gemini.WithModel(g.Model),
			gemini.WithLogger(logger),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
			return nil
		}
		return client
	default:
		model, err := sentiment.Load(config.Sentiment.ModelPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", config.Sentiment.ModelPath).
				Msg("Sentiment model not loaded - run simvest-train to create it")
			return nil
		}
		logger.Info().
			Str("path", config.Sentiment.ModelPath).
			Int("vocabulary", len(model.Vocabulary)).
			Float64("accuracy", model.Accuracy).
			Msg("Sentiment model loaded")
		return model
	}
}

// New wires services from already constructed dependencies.
func New(config *common.Config, logger *common.Logger, deps Deps) *App {
	catalog := market.NewCatalog(deps.Storage.StockStore(), deps.CatalogClient, config.Catalog, logger)
	quoteService := quote.NewService(deps.QuoteClient, deps.Cache, config.Cache.GetQuoteTTL(), config.Portfolio.GetPriceTimeout(), logger)
	marketService := market.NewService(catalog, quoteService, deps.HistoryClient, deps.NewsClient, deps.Classifier, deps.Cache, config.Cache, logger)
	watchlistService := watchlist.NewService(deps.Storage.WatchlistStore(), catalog, quoteService, config.Portfolio, logger)
	portfolioService := portfolio.NewService(deps.Storage.PortfolioStore(), catalog, quoteService, config.Portfolio, logger)

	return &App{
		Config:           config,
		Logger:           logger,
		Storage:          deps.Storage,
		Cache:            deps.Cache,
		Catalog:          catalog,
		QuoteService:     quoteService,
		MarketService:    marketService,
		WatchlistService: watchlistService,
		PortfolioService: portfolioService,
		StartupTime:      time.Now(),
	}
}

// SeedCatalog fills an empty catalog when seeding on start is enabled.
// Failures are logged; the server still starts with whatever is stored.
func (a *App) SeedCatalog(ctx context.Context) {
	if !a.Config.Catalog.SeedOnStart {
		return
	}
	n, err := a.Catalog.Seed(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Catalog seed failed")
		return
	}
	a.Logger.Info().Int("stocks", n).Msg("Catalog ready")
}

// Close releases the cache and storage. Safe to call more than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		if a.Cache != nil {
			if err := a.Cache.Close(); err != nil {
				a.Logger.Warn().Err(err).Msg("Cache close failed")
			}
		}
		if a.Storage != nil {
			a.closeErr = a.Storage.Close()
		}
	})
	return a.closeErr
}
