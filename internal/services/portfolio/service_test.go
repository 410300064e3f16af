package portfolio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/models"
	"github.com/bobmcallan/simvest/internal/services/market"
	"github.com/bobmcallan/simvest/internal/services/quote"
	"github.com/bobmcallan/simvest/internal/storage/memory"
	testcommon "github.com/bobmcallan/simvest/test/common"
)

type fixture struct {
	svc    *Service
	store  *memory.Manager
	quotes *testcommon.MockQuoteClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := common.NewSilentLogger()
	store := memory.NewManager(logger)
	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, &models.User{ID: "u1", Username: "alice"}))
	require.NoError(t, store.SaveStocks(ctx, []models.Stock{
		{Symbol: "AAPL", Name: "Apple"},
		{Symbol: "MSFT", Name: "Microsoft"},
	}))

	quotes := testcommon.NewMockQuoteClient()
	catalog := market.NewCatalog(store, nil, common.CatalogConfig{}, logger)
	prices := quote.NewService(quotes, nil, 0, time.Second, logger)
	return &fixture{
		svc:    NewService(store, catalog, prices, common.PortfolioConfig{Concurrency: 2}, logger),
		store:  store,
		quotes: quotes,
	}
}

func (f *fixture) realized(t *testing.T) decimal.Decimal {
	t.Helper()
	u, err := f.store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	return u.RealizedPnL
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestLedgerScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.quotes.SetPrice("AAPL", 100)
	res, err := f.svc.Buy(ctx, "u1", "AAPL", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Quantity)
	assert.True(t, res.Price.Equal(dec(100)))

	p, err := f.store.GetPosition(ctx, "u1", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.Units)
	assert.True(t, p.CostBasis.Equal(dec(1000)))

	f.quotes.SetPrice("AAPL", 150)
	res, err = f.svc.Sell(ctx, "u1", "AAPL", 4)
	require.NoError(t, err)
	assert.True(t, res.RealizedDelta.Equal(dec(200)))
	assert.True(t, f.realized(t).Equal(dec(200)))

	p, err = f.store.GetPosition(ctx, "u1", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(6), p.Units)
	assert.True(t, p.CostBasis.Equal(dec(600)))

	f.quotes.SetPrice("AAPL", 120)
	res, err = f.svc.Sell(ctx, "u1", "AAPL", 6)
	require.NoError(t, err)
	assert.True(t, res.RealizedDelta.Equal(dec(120)))
	assert.True(t, f.realized(t).Equal(dec(320)))

	_, err = f.store.GetPosition(ctx, "u1", "AAPL")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestBuy_Accumulates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.quotes.SetPrice("MSFT", 10)
	_, err := f.svc.Buy(ctx, "u1", "MSFT", 3)
	require.NoError(t, err)
	f.quotes.SetPrice("MSFT", 12.5)
	_, err = f.svc.Buy(ctx, "u1", "MSFT", 4)
	require.NoError(t, err)

	p, err := f.store.GetPosition(ctx, "u1", "MSFT")
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.Units)
	assert.True(t, p.CostBasis.Equal(dec(80)), "cost basis %s", p.CostBasis)
	assert.True(t, f.realized(t).IsZero())
}

func TestBuyThenFullSellSamePrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.quotes.SetPrice("AAPL", 33.33)

	_, err := f.svc.Buy(ctx, "u1", "AAPL", 3)
	require.NoError(t, err)
	_, err = f.svc.Sell(ctx, "u1", "AAPL", 3)
	require.NoError(t, err)

	assert.True(t, f.realized(t).IsZero())
	views, err := f.svc.View(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestTwoPartialSellsMatchOneFullSell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.quotes.SetPrice("AAPL", 100)
	_, err := f.svc.Buy(ctx, "u1", "AAPL", 10)
	require.NoError(t, err)
	f.quotes.SetPrice("AAPL", 130)
	_, err = f.svc.Sell(ctx, "u1", "AAPL", 3)
	require.NoError(t, err)
	f.quotes.SetPrice("AAPL", 110)
	_, err = f.svc.Sell(ctx, "u1", "AAPL", 7)
	require.NoError(t, err)

	// One sale of 10 at the weighted average price of 116
	assert.InDelta(t, 160.0, f.realized(t).InexactFloat64(), 1e-9)
}

func TestBuy_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Buy(ctx, "u1", "ZZZ", 0)
	assert.True(t, common.IsKind(err, common.KindNotFound), "unknown stock is checked before quantity")

	_, err = f.svc.Buy(ctx, "u1", "AAPL", 0)
	assert.True(t, common.IsKind(err, common.KindValidation))
	_, err = f.svc.Buy(ctx, "u1", "AAPL", -5)
	assert.True(t, common.IsKind(err, common.KindValidation))

	f.quotes.Err = errors.New("429")
	_, err = f.svc.Buy(ctx, "u1", "AAPL", 1)
	assert.True(t, common.IsKind(err, common.KindServiceUnavailable))
	_, err = f.store.GetPosition(ctx, "u1", "AAPL")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSell_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Sell(ctx, "u1", "AAPL", 0)
	assert.True(t, common.IsKind(err, common.KindValidation), "quantity is checked before position")

	_, err = f.svc.Sell(ctx, "u1", "AAPL", 1)
	assert.True(t, common.IsKind(err, common.KindNotFound))

	f.quotes.SetPrice("AAPL", 50)
	_, err = f.svc.Buy(ctx, "u1", "AAPL", 2)
	require.NoError(t, err)

	_, err = f.svc.Sell(ctx, "u1", "AAPL", 3)
	assert.True(t, common.IsKind(err, common.KindValidation))

	p, err := f.store.GetPosition(ctx, "u1", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Units)

	f.quotes.Err = errors.New("down")
	_, err = f.svc.Sell(ctx, "u1", "AAPL", 1)
	assert.True(t, common.IsKind(err, common.KindServiceUnavailable))
	p, err = f.store.GetPosition(ctx, "u1", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Units)
}

func TestView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.quotes.SetPrice("MSFT", 200)
	f.quotes.SetPrice("AAPL", 100)
	_, err := f.svc.Buy(ctx, "u1", "MSFT", 2)
	require.NoError(t, err)
	_, err = f.svc.Buy(ctx, "u1", "AAPL", 4)
	require.NoError(t, err)

	f.quotes.SetPrice("AAPL", 110)
	f.quotes.SetPrice("MSFT", 190)

	views, err := f.svc.View(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, views, 2)

	a := views[0]
	assert.Equal(t, "AAPL", a.Symbol)
	assert.Equal(t, "Apple", a.Name)
	assert.Equal(t, int64(4), a.TotalUnits)
	assert.Equal(t, 400.0, a.TotalPaid)
	assert.Equal(t, 100.0, a.AveragePrice)
	assert.Equal(t, 110.0, a.CurrentPrice)
	assert.Equal(t, 440.0, a.TotalCurrentWorth)
	assert.Equal(t, 40.0, a.TotalPnL)

	m := views[1]
	assert.Equal(t, "MSFT", m.Symbol)
	assert.Equal(t, -20.0, m.TotalPnL)

	again, err := f.svc.View(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, views, again)
}

func TestView_PriceFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.quotes.SetPrice("AAPL", 100)
	_, err := f.svc.Buy(ctx, "u1", "AAPL", 1)
	require.NoError(t, err)

	f.quotes.Err = errors.New("timeout")
	_, err = f.svc.View(ctx, "u1")
	assert.True(t, common.IsKind(err, common.KindServiceUnavailable))
}

func TestConcurrentSellsNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.quotes.SetPrice("AAPL", 10)
	_, err := f.svc.Buy(ctx, "u1", "AAPL", 5)
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Sell(ctx, "u1", "AAPL", 1); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	_, err = f.store.GetPosition(ctx, "u1", "AAPL")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestBuy_UnitOverflowLeavesPositionUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.quotes.SetPrice("AAPL", 1)

	_, err := f.svc.Buy(ctx, "u1", "AAPL", 5_000_000_000_000_000_000)
	require.NoError(t, err)

	_, err = f.svc.Buy(ctx, "u1", "AAPL", 5_000_000_000_000_000_000)
	assert.True(t, common.IsKind(err, common.KindValidation))

	p, err := f.store.GetPosition(ctx, "u1", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000_000_000_000_000), p.Units)
	assert.True(t, p.CostBasis.Equal(dec(5_000_000_000_000_000_000)))

	views, err := f.svc.View(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Positive(t, views[0].AveragePrice)
}
