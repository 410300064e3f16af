// Package watchlist manages the instruments a user follows
package watchlist

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/interfaces"
	"github.com/bobmcallan/simvest/internal/models"
)

const (
	duplicateMessage = "Stock already added to watchlist."
	fullMessage      = "Too many stocks in the watchlist."
	missingMessage   = "No such stock exists in your watchlist."
)

// Service implements WatchlistService
type Service struct {
	store       interfaces.WatchlistStore
	catalog     interfaces.InstrumentCatalog
	quotes      interfaces.QuoteService
	limit       int
	concurrency int
	logger      *common.Logger
}

// NewService creates a new watchlist service
func NewService(store interfaces.WatchlistStore, catalog interfaces.InstrumentCatalog, quotes interfaces.QuoteService, cfg common.PortfolioConfig, logger *common.Logger) *Service {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Service{
		store:       store,
		catalog:     catalog,
		quotes:      quotes,
		limit:       cfg.WatchlistLimit,
		concurrency: concurrency,
		logger:      logger,
	}
}

// List returns current data for every watched instrument, in the order added.
// Any failed price fetch fails the whole call.
func (s *Service) List(ctx context.Context, userID string) ([]models.StockSnapshot, error) {
	entries, err := s.store.ListWatchlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}

	out := make([]models.StockSnapshot, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, e := range entries {
		g.Go(func() error {
			st, err := s.catalog.GetStock(gctx, e.Symbol)
			if err != nil {
				if !common.IsKind(err, common.KindNotFound) {
					return err
				}
				st = &models.Stock{Symbol: e.Symbol}
			}
			q, err := s.quotes.GetQuote(gctx, e.Symbol)
			if err != nil {
				return err
			}
			out[i] = models.NewStockSnapshot(*st, *q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Add(ctx context.Context, userID, symbol string) error {
	if _, err := s.catalog.GetStock(ctx, symbol); err != nil {
		return err
	}

	err := s.store.AddToWatchlist(ctx, models.WatchlistEntry{UserID: userID, Symbol: symbol}, s.limit)
	switch {
	case err == nil:
		s.logger.Debug().Str("user_id", userID).Str("symbol", symbol).Msg("Watchlist entry added")
		return nil
	case errors.Is(err, common.ErrDuplicate):
		return common.Conflictf(duplicateMessage)
	case errors.Is(err, common.ErrLimitReached):
		return common.Conflictf(fullMessage)
	default:
		return fmt.Errorf("add to watchlist: %w", err)
	}
}

func (s *Service) Remove(ctx context.Context, userID, symbol string) error {
	err := s.store.RemoveFromWatchlist(ctx, userID, symbol)
	if errors.Is(err, common.ErrNotFound) {
		return common.NotFoundf(missingMessage)
	}
	if err != nil {
		return fmt.Errorf("remove from watchlist: %w", err)
	}
	return nil
}

var _ interfaces.WatchlistService = (*Service)(nil)
