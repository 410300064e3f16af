// Package portfolio implements the position ledger: average-cost buys and
// sells with realized P&L, and the valued portfolio view.
package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/interfaces"
	"github.com/bobmcallan/simvest/internal/models"
)

// Service implements PortfolioService
type Service struct {
	store       interfaces.PortfolioStore
	catalog     interfaces.InstrumentCatalog
	prices      interfaces.PriceSource
	concurrency int
	logger      *common.Logger
}

// NewService creates a new portfolio service
func NewService(store interfaces.PortfolioStore, catalog interfaces.InstrumentCatalog, prices interfaces.PriceSource, cfg common.PortfolioConfig, logger *common.Logger) *Service {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Service{
		store:       store,
		catalog:     catalog,
		prices:      prices,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Buy purchases quantity units at the current price.
func (s *Service) Buy(ctx context.Context, userID, symbol string, quantity int64) (*models.TradeResult, error) {
	if _, err := s.catalog.GetStock(ctx, symbol); err != nil {
		return nil, err
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	price, err := s.prices.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	err = s.store.UpdatePosition(ctx, userID, symbol, func(tx *models.LedgerTx) error {
		return applyBuy(tx, quantity, price)
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Str("price", price.String()).
		Msg("Buy executed")

	return &models.TradeResult{
		Side:          models.TradeBuy,
		Symbol:        symbol,
		Quantity:      quantity,
		Price:         price,
		RealizedDelta: decimal.Zero,
	}, nil
}

// Sell disposes of quantity units at the current price. Holdings are checked
// before the price fetch and again inside the atomic update.
func (s *Service) Sell(ctx context.Context, userID, symbol string, quantity int64) (*models.TradeResult, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	pos, err := s.store.GetPosition(ctx, userID, symbol)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NotFoundf(noPositionMessage)
	}
	if err != nil {
		return nil, fmt.Errorf("load position: %w", err)
	}
	if quantity > pos.Units {
		return nil, common.Validationf(insufficientMessage)
	}

	price, err := s.prices.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var realized decimal.Decimal
	err = s.store.UpdatePosition(ctx, userID, symbol, func(tx *models.LedgerTx) error {
		var err error
		realized, err = applySell(tx, quantity, price)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Str("price", price.String()).
		Str("realized", realized.String()).
		Msg("Sell executed")

	return &models.TradeResult{
		Side:          models.TradeSell,
		Symbol:        symbol,
		Quantity:      quantity,
		Price:         price,
		RealizedDelta: realized,
	}, nil
}

// View values every position at a freshly fetched price, ordered by symbol.
func (s *Service) View(ctx context.Context, userID string) ([]models.PositionView, error) {
	positions, err := s.store.ListPositions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}

	views := make([]models.PositionView, len(positions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range positions {
		p := &positions[i]
		g.Go(func() error {
			name := ""
			if st, err := s.catalog.GetStock(gctx, p.Symbol); err == nil {
				name = st.Name
			} else if !common.IsKind(err, common.KindNotFound) {
				return err
			}

			price, err := s.prices.GetCurrentPrice(gctx, p.Symbol)
			if err != nil {
				return err
			}
			v, err := models.NewPositionView(p, name, price)
			if err != nil {
				return fmt.Errorf("value %s: %w", p.Symbol, err)
			}
			views[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// storeError passes classified errors through and maps store sentinels.
func storeError(err error) error {
	var ae *common.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, common.ErrNotFound) {
		return common.Unauthorizedf("User no longer exists.")
	}
	return fmt.Errorf("update position: %w", err)
}

var _ interfaces.PortfolioService = (*Service)(nil)
