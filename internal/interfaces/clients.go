package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/simvest/internal/models"
)

// QuoteClient provides real-time quotes
type QuoteClient interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// CatalogClient lists tradable instruments
type CatalogClient interface {
	// GetSymbols returns every instrument listed on an exchange.
	GetSymbols(ctx context.Context, exchange string) ([]models.Stock, error)
	// GetIndexConstituents returns the symbols that make up an index.
	GetIndexConstituents(ctx context.Context, index string) ([]string, error)
}

// HistoryClient provides daily price history
type HistoryClient interface {
	GetEOD(ctx context.Context, symbol string, opts ...EODOption) ([]models.HistoricalBar, error)
}

// EODOption configures EOD data requests
type EODOption func(*EODParams)

// EODParams holds EOD query parameters
type EODParams struct {
	From time.Time
	To   time.Time
}

// WithDateRange limits EOD data to [from, to]
func WithDateRange(from, to time.Time) EODOption {
	return func(p *EODParams) {
		p.From = from
		p.To = to
	}
}

// NewsClient searches news articles
type NewsClient interface {
	GetEverything(ctx context.Context, query string) ([]models.NewsArticle, error)
}

// SentimentClassifier scores headlines. It returns one positive-sentiment
// probability in [0, 1] per headline, in input order.
type SentimentClassifier interface {
	ClassifyHeadlines(ctx context.Context, headlines []string) ([]float64, error)
}
