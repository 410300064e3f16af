// Package interfaces defines service contracts for simvest
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/simvest/internal/models"
)

// StorageManager coordinates the stores of one backend
type StorageManager interface {
	UserStore() UserStore
	StockStore() StockStore
	WatchlistStore() WatchlistStore
	PortfolioStore() PortfolioStore

	// Backend names the storage implementation ("surrealdb", "postgres", "memory").
	Backend() string

	Close() error
}

// UserStore manages user accounts.
type UserStore interface {
	// CreateUser stores a new account. Returns common.ErrDuplicate when the username is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// StockStore manages the instrument catalog.
type StockStore interface {
	// SaveStocks upserts catalog entries by symbol.
	SaveStocks(ctx context.Context, stocks []models.Stock) error
	GetStock(ctx context.Context, symbol string) (*models.Stock, error)
	// ListStocks returns every instrument ordered by symbol.
	ListStocks(ctx context.Context) ([]models.Stock, error)
	CountStocks(ctx context.Context) (int, error)
}

// WatchlistStore manages per-user watchlists.
type WatchlistStore interface {
	// ListWatchlist returns entries in the order they were added.
	ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	// AddToWatchlist appends an entry. Returns common.ErrDuplicate if already present
	// and common.ErrLimitReached if the watchlist already holds limit entries.
	AddToWatchlist(ctx context.Context, entry models.WatchlistEntry, limit int) error
	// RemoveFromWatchlist returns common.ErrNotFound if the symbol is not watched.
	RemoveFromWatchlist(ctx context.Context, userID, symbol string) error
}

// LedgerFunc mutates a position and the account's realized P&L. Returning an
// error aborts the update with nothing written.
type LedgerFunc func(tx *models.LedgerTx) error

// PortfolioStore manages positions and the realized P&L accumulator.
type PortfolioStore interface {
	// GetPosition returns common.ErrNotFound when the user holds no units of symbol.
	GetPosition(ctx context.Context, userID, symbol string) (*models.Position, error)
	// ListPositions returns the user's positions ordered by symbol.
	ListPositions(ctx context.Context, userID string) ([]models.Position, error)
	// UpdatePosition runs fn against the current position (nil when absent) and
	// realized P&L, then persists both atomically. Updates for one user are serialized.
	UpdatePosition(ctx context.Context, userID, symbol string, fn LedgerFunc) error
}

// Cache is a byte-oriented TTL cache for provider responses.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for ttl. A non-positive ttl stores nothing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
