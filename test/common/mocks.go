// Package common provides shared test fakes for the provider interfaces.
package common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/simvest/internal/interfaces"
	"github.com/bobmcallan/simvest/internal/models"
)

// MockQuoteClient implements QuoteClient from a fixed price table.
type MockQuoteClient struct {
	mu     sync.Mutex
	Quotes map[string]*models.Quote
	Err    error
	Calls  int
}

// NewMockQuoteClient creates a mock quote client with no quotes.
func NewMockQuoteClient() *MockQuoteClient {
	return &MockQuoteClient{Quotes: make(map[string]*models.Quote)}
}

// SetPrice stores a flat quote (open, high, low and previous close equal price).
func (m *MockQuoteClient) SetPrice(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := decimal.NewFromFloat(price)
	m.Quotes[symbol] = &models.Quote{
		Symbol:        symbol,
		Current:       p,
		Open:          p,
		High:          p,
		Low:           p,
		PreviousClose: p,
		FetchedAt:     time.Now(),
	}
}

func (m *MockQuoteClient) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	q, ok := m.Quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("no quote for %s", symbol)
	}
	cp := *q
	return &cp, nil
}

// CallCount returns the number of GetQuote calls.
func (m *MockQuoteClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockCatalogClient implements CatalogClient.
type MockCatalogClient struct {
	Symbols      []models.Stock
	Constituents []string
	Err          error
}

func (m *MockCatalogClient) GetSymbols(_ context.Context, _ string) ([]models.Stock, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Symbols, nil
}

func (m *MockCatalogClient) GetIndexConstituents(_ context.Context, _ string) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Constituents, nil
}

// MockHistoryClient implements HistoryClient. Missing symbols get generated bars.
type MockHistoryClient struct {
	mu       sync.Mutex
	Bars     map[string][]models.HistoricalBar
	Err      error
	Calls    int
	LastFrom time.Time
	LastTo   time.Time
}

func NewMockHistoryClient() *MockHistoryClient {
	return &MockHistoryClient{Bars: make(map[string][]models.HistoricalBar)}
}

func (m *MockHistoryClient) GetEOD(_ context.Context, symbol string, opts ...interfaces.EODOption) ([]models.HistoricalBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	var p interfaces.EODParams
	for _, opt := range opts {
		opt(&p)
	}
	m.LastFrom, m.LastTo = p.From, p.To
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	return GenerateSampleBars(30, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), nil
}

// GenerateSampleBars returns n daily bars starting at start with a gentle uptrend.
func GenerateSampleBars(n int, start time.Time) []models.HistoricalBar {
	bars := make([]models.HistoricalBar, n)
	price := 100.0
	for i := 0; i < n; i++ {
		bars[i] = models.HistoricalBar{
			Date:  start.AddDate(0, 0, i),
			Open:  price,
			High:  price * 1.02,
			Low:   price * 0.98,
			Close: price * 1.01,
		}
		price *= 1.001
	}
	return bars
}

// MockNewsClient implements NewsClient.
type MockNewsClient struct {
	mu        sync.Mutex
	Articles  []models.NewsArticle
	Err       error
	Calls     int
	LastQuery string
}

func (m *MockNewsClient) GetEverything(_ context.Context, query string) ([]models.NewsArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.LastQuery = query
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Articles, nil
}

// MockClassifier implements SentimentClassifier with a fixed score per headline.
type MockClassifier struct {
	Scores map[string]float64
	Err    error
}

func (m *MockClassifier) ClassifyHeadlines(_ context.Context, headlines []string) ([]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]float64, len(headlines))
	for i, h := range headlines {
		s, ok := m.Scores[h]
		if !ok {
			s = 0.5
		}
		out[i] = s
	}
	return out, nil
}

var (
	_ interfaces.QuoteClient         = (*MockQuoteClient)(nil)
	_ interfaces.CatalogClient       = (*MockCatalogClient)(nil)
	_ interfaces.HistoryClient       = (*MockHistoryClient)(nil)
	_ interfaces.NewsClient          = (*MockNewsClient)(nil)
	_ interfaces.SentimentClassifier = (*MockClassifier)(nil)
)
