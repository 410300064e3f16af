package surrealdb

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
)

func createTestUser(t *testing.T, m *Manager, id, username string) {
	t.Helper()
	require.NoError(t, m.UserStore().CreateUser(context.Background(), &models.User{
		ID:           id,
		FirstName:    "Test",
		LastName:     "User",
		Username:     username,
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}))
}

func TestUserStore_CreateAndGet(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	createTestUser(t, m, "u1", "alice")

	u, err := m.UserStore().GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.True(t, u.RealizedPnL.IsZero())

	u, err = m.UserStore().GetUserByUsername(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	err = m.UserStore().CreateUser(ctx, &models.User{ID: "u2", Username: "Alice"})
	assert.ErrorIs(t, err, common.ErrDuplicate)

	_, err = m.UserStore().GetUser(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = m.UserStore().GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStockStore_SaveListCount(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	store := m.StockStore()

	n, err := store.CountStocks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, store.SaveStocks(ctx, []models.Stock{
		{Symbol: "MSFT", Name: "Microsoft"},
		{Symbol: "BRK.B", Name: "Berkshire Hathaway"},
		{Symbol: "AAPL", Name: "Apple"},
	}))
	require.NoError(t, store.SaveStocks(ctx, []models.Stock{{Symbol: "AAPL", Name: "Apple Inc"}}))

	list, err := store.ListStocks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "AAPL", list[0].Symbol)
	assert.Equal(t, "Apple Inc", list[0].Name)
	assert.Equal(t, "BRK.B", list[1].Symbol)

	st, err := store.GetStock(ctx, "BRK.B")
	require.NoError(t, err)
	assert.Equal(t, "Berkshire Hathaway", st.Name)

	_, err = store.GetStock(ctx, "ZZZZ")
	assert.ErrorIs(t, err, common.ErrNotFound)

	n, err = store.CountStocks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestWatchlistStore_AddListRemove(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	store := m.WatchlistStore()
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.AddToWatchlist(ctx, models.WatchlistEntry{UserID: "u1", Symbol: "MSFT", AddedAt: base}, 2))
	require.NoError(t, store.AddToWatchlist(ctx, models.WatchlistEntry{UserID: "u1", Symbol: "AAPL", AddedAt: base.Add(time.Second)}, 2))

	err := store.AddToWatchlist(ctx, models.WatchlistEntry{UserID: "u1", Symbol: "MSFT"}, 2)
	assert.ErrorIs(t, err, common.ErrDuplicate)
	err = store.AddToWatchlist(ctx, models.WatchlistEntry{UserID: "u1", Symbol: "NVDA"}, 2)
	assert.ErrorIs(t, err, common.ErrLimitReached)

	// Other users are unaffected by u1's limit
	require.NoError(t, store.AddToWatchlist(ctx, models.WatchlistEntry{UserID: "u2", Symbol: "NVDA"}, 2))

	list, err := store.ListWatchlist(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "MSFT", list[0].Symbol)
	assert.Equal(t, "AAPL", list[1].Symbol)

	require.NoError(t, store.RemoveFromWatchlist(ctx, "u1", "MSFT"))
	assert.ErrorIs(t, store.RemoveFromWatchlist(ctx, "u1", "MSFT"), common.ErrNotFound)

	list, err = store.ListWatchlist(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "AAPL", list[0].Symbol)
}

func TestPortfolioStore_LedgerLifecycle(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	createTestUser(t, m, "u1", "alice")
	store := m.PortfolioStore()

	err := store.UpdatePosition(ctx, "u1", "AAPL", func(tx *models.LedgerTx) error {
		assert.Nil(t, tx.Position)
		tx.Position = &models.Position{Units: 10, CostBasis: decimal.NewFromInt(1000)}
		return nil
	})
	require.NoError(t, err)

	err = store.UpdatePosition(ctx, "u1", "AAPL", func(tx *models.LedgerTx) error {
		require.NotNil(t, tx.Position)
		assert.Equal(t, int64(10), tx.Position.Units)
		tx.Position.Units = 6
		tx.Position.CostBasis = decimal.NewFromInt(600)
		tx.RealizedPnL = tx.RealizedPnL.Add(decimal.NewFromInt(200))
		return nil
	})
	require.NoError(t, err)

	p, err := store.GetPosition(ctx, "u1", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(6), p.Units)
	assert.True(t, p.CostBasis.Equal(decimal.NewFromInt(600)))

	u, err := m.UserStore().GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.RealizedPnL.Equal(decimal.NewFromInt(200)))

	err = store.UpdatePosition(ctx, "u1", "AAPL", func(tx *models.LedgerTx) error {
		tx.Position.Units = 0
		tx.Position.CostBasis = decimal.Zero
		tx.RealizedPnL = tx.RealizedPnL.Add(decimal.NewFromInt(120))
		return nil
	})
	require.NoError(t, err)

	_, err = store.GetPosition(ctx, "u1", "AAPL")
	assert.ErrorIs(t, err, common.ErrNotFound)

	positions, err := store.ListPositions(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, positions)

	u, err = m.UserStore().GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.RealizedPnL.Equal(decimal.NewFromInt(320)))
}

func TestPortfolioStore_FailedUpdateWritesNothing(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	createTestUser(t, m, "u1", "alice")

	boom := errors.New("boom")
	err := m.PortfolioStore().UpdatePosition(ctx, "u1", "AAPL", func(tx *models.LedgerTx) error {
		tx.Position = &models.Position{Units: 1, CostBasis: decimal.NewFromInt(5)}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = m.PortfolioStore().GetPosition(ctx, "u1", "AAPL")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPortfolioStore_UnknownUser(t *testing.T) {
	m := testManager(t)
	err := m.PortfolioStore().UpdatePosition(context.Background(), "ghost", "AAPL", func(tx *models.LedgerTx) error {
		return nil
	})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPortfolioStore_ConcurrentBuysSerialize(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	createTestUser(t, m, "u1", "alice")

	const buyers = 8
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.PortfolioStore().UpdatePosition(ctx, "u1", "MSFT", func(tx *models.LedgerTx) error {
				if tx.Position == nil {
					tx.Position = &models.Position{}
				}
				tx.Position.Units++
				tx.Position.CostBasis = tx.Position.CostBasis.Add(decimal.NewFromInt(10))
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := m.PortfolioStore().GetPosition(ctx, "u1", "MSFT")
	require.NoError(t, err)
	assert.Equal(t, int64(buyers), p.Units)
	assert.True(t, p.CostBasis.Equal(decimal.NewFromInt(10*buyers)))
}

func TestManager_Backend(t *testing.T) {
	m := testManager(t)
	assert.Equal(t, "surrealdb", m.Backend())
}
