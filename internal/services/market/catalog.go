package market

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/interfaces"
	"github.com/bobmcallan/simvest/internal/models"
)

// StockNotFoundMessage is returned for symbols outside the catalog.
const StockNotFoundMessage = "Stock does not exist in our database."

// Catalog implements InstrumentCatalog on top of the stock store.
type Catalog struct {
	stocks   interfaces.StockStore
	client   interfaces.CatalogClient
	index    string
	exchange string
	logger   *common.Logger
}

// NewCatalog creates a catalog. client may be nil, in which case Seed only
// reports the current size.
func NewCatalog(stocks interfaces.StockStore, client interfaces.CatalogClient, cfg common.CatalogConfig, logger *common.Logger) *Catalog {
	return &Catalog{
		stocks:   stocks,
		client:   client,
		index:    cfg.Index,
		exchange: cfg.Exchange,
		logger:   logger,
	}
}

func (c *Catalog) Exists(ctx context.Context, symbol string) (bool, error) {
	_, err := c.stocks.GetStock(ctx, symbol)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Catalog) GetStock(ctx context.Context, symbol string) (*models.Stock, error) {
	st, err := c.stocks.GetStock(ctx, symbol)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NotFoundf(StockNotFoundMessage)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup stock %s: %w", symbol, err)
	}
	return st, nil
}

func (c *Catalog) ListStocks(ctx context.Context) ([]models.Stock, error) {
	return c.stocks.ListStocks(ctx)
}

// Seed fills an empty catalog with the index constituents that are listed on
// the configured exchange. A populated catalog is left alone.
func (c *Catalog) Seed(ctx context.Context) (int, error) {
	n, err := c.stocks.CountStocks(ctx)
	if err != nil {
		return 0, fmt.Errorf("count stocks: %w", err)
	}
	if n > 0 {
		c.logger.Debug().Int("count", n).Msg("Catalog already seeded")
		return n, nil
	}
	if c.client == nil {
		c.logger.Warn().Msg("No catalog client configured, catalog left empty")
		return 0, nil
	}

	constituents, err := c.client.GetIndexConstituents(ctx, c.index)
	if err != nil {
		return 0, fmt.Errorf("fetch %s constituents: %w", c.index, err)
	}
	listed, err := c.client.GetSymbols(ctx, c.exchange)
	if err != nil {
		return 0, fmt.Errorf("fetch %s symbols: %w", c.exchange, err)
	}

	stocks := selectConstituents(constituents, listed)
	if len(stocks) == 0 {
		c.logger.Warn().Str("index", c.index).Msg("No index constituents matched exchange listing")
		return 0, nil
	}
	if err := c.stocks.SaveStocks(ctx, stocks); err != nil {
		return 0, fmt.Errorf("save catalog: %w", err)
	}

	c.logger.Info().
		Str("index", c.index).
		Str("exchange", c.exchange).
		Int("count", len(stocks)).
		Msg("Catalog seeded")
	return len(stocks), nil
}

// selectConstituents keeps listed stocks whose symbol is in constituents,
// sorted by symbol.
func selectConstituents(constituents []string, listed []models.Stock) []models.Stock {
	want := make(map[string]struct{}, len(constituents))
	for _, s := range constituents {
		want[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}

	var out []models.Stock
	seen := make(map[string]struct{}, len(constituents))
	for _, st := range listed {
		sym := strings.ToUpper(st.Symbol)
		if _, ok := want[sym]; !ok {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, models.Stock{Symbol: sym, Name: st.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

var _ interfaces.InstrumentCatalog = (*Catalog)(nil)
