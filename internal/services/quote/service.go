// Package quote provides the current-price source used by the ledger and views
package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/simvest/internal/cache"
	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/interfaces"
	"github.com/bobmcallan/simvest/internal/models"
)

// UnavailableMessage is returned to clients when the quote provider cannot answer.
const UnavailableMessage = "API limit reached. Please try again later."

// Service implements QuoteService over a provider client with an optional cache.
type Service struct {
	client  interfaces.QuoteClient
	cache   interfaces.Cache
	ttl     time.Duration
	timeout time.Duration
	logger  *common.Logger
}

// NewService creates a new quote service.
// cache may be nil. A ttl of zero disables caching so every call is fresh.
func NewService(client interfaces.QuoteClient, c interfaces.Cache, ttl, timeout time.Duration, logger *common.Logger) *Service {
	return &Service{
		client:  client,
		cache:   c,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger,
	}
}

func quoteKey(symbol string) string {
	return "quote:" + symbol
}

// GetQuote returns the latest quote for symbol. Every provider failure,
// including a timeout or a non-positive price, is ServiceUnavailable.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if s.client == nil {
		return nil, common.Unavailable(fmt.Errorf("quote provider not configured"), UnavailableMessage)
	}

	if s.cache != nil && s.ttl > 0 {
		var cached models.Quote
		if ok, err := cache.GetJSON(ctx, s.cache, quoteKey(symbol), &cached); err == nil && ok {
			return &cached, nil
		}
	}

	fetchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	q, err := s.client.GetQuote(fetchCtx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Quote fetch failed")
		return nil, common.Unavailable(err, UnavailableMessage)
	}
	if q == nil || !q.Current.IsPositive() {
		s.logger.Warn().Str("symbol", symbol).Msg("Quote provider returned no usable price")
		return nil, common.Unavailable(fmt.Errorf("no usable price for %s", symbol), UnavailableMessage)
	}

	if s.cache != nil && s.ttl > 0 {
		if err := cache.SetJSON(ctx, s.cache, quoteKey(symbol), q, s.ttl); err != nil {
			s.logger.Debug().Err(err).Str("symbol", symbol).Msg("Quote cache write failed")
		}
	}
	return q, nil
}

// GetCurrentPrice returns the current price for symbol.
func (s *Service) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q, err := s.GetQuote(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Current, nil
}

var _ interfaces.QuoteService = (*Service)(nil)
