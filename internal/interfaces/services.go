package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/simvest/internal/models"
)

// PriceSource supplies the current price of an instrument. Failures are
// reported as common.KindServiceUnavailable.
type PriceSource interface {
	GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// QuoteService serves quotes with caching and timeouts applied
type QuoteService interface {
	PriceSource
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// InstrumentCatalog answers which instruments can be traded
type InstrumentCatalog interface {
	Exists(ctx context.Context, symbol string) (bool, error)
	// GetStock returns a common.KindNotFound error for unknown symbols.
	GetStock(ctx context.Context, symbol string) (*models.Stock, error)
	ListStocks(ctx context.Context) ([]models.Stock, error)
	// Seed loads the catalog from the provider when it is empty. Returns the number stored.
	Seed(ctx context.Context) (int, error)
}

// MarketService serves stock data, history, and news
type MarketService interface {
	ListStocks(ctx context.Context) ([]models.Stock, error)
	GetStockData(ctx context.Context, symbol string) (*models.StockSnapshot, error)
	GetHistory(ctx context.Context, symbol string) (*models.PriceHistory, error)
	// GetHistoryChart renders the one-year close price as a PNG.
	GetHistoryChart(ctx context.Context, symbol string) ([]byte, error)
	GetNews(ctx context.Context, symbol string) ([]models.NewsArticle, error)
	GetNewsSentiment(ctx context.Context, symbol string) (*models.SentimentScore, error)
}

// WatchlistService manages user watchlists
type WatchlistService interface {
	List(ctx context.Context, userID string) ([]models.StockSnapshot, error)
	Add(ctx context.Context, userID, symbol string) error
	Remove(ctx context.Context, userID, symbol string) error
}

// PortfolioService is the position ledger
type PortfolioService interface {
	Buy(ctx context.Context, userID, symbol string, quantity int64) (*models.TradeResult, error)
	Sell(ctx context.Context, userID, symbol string, quantity int64) (*models.TradeResult, error)
	View(ctx context.Context, userID string) ([]models.PositionView, error)
}
