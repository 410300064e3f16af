// Package surrealdb implements the storage interfaces on SurrealDB.
package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/interfaces"
)

const (
	tableUser      = "user"
	tableStock     = "stock"
	tableWatchlist = "watchlist"
	tablePosition  = "position"
)

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	userStore      *UserStore
	stockStore     *StockStore
	watchlistStore *WatchlistStore
	portfolioStore *PortfolioStore
}

// NewManager creates a new StorageManager connected to SurrealDB.
func NewManager(ctx context.Context, logger *common.Logger, config common.SurrealDBConfig) (*Manager, error) {
	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	m, err := newManager(ctx, db, logger)
	if err != nil {
		db.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str("address", config.Address).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

// newManager defines the schema on an open connection and builds the stores.
func newManager(ctx context.Context, db *surrealdb.DB, logger *common.Logger) (*Manager, error) {
	// SurrealDB v3 errors on querying non-existent tables
	schema := []string{
		"DEFINE TABLE IF NOT EXISTS user SCHEMALESS",
		"DEFINE TABLE IF NOT EXISTS stock SCHEMALESS",
		"DEFINE TABLE IF NOT EXISTS watchlist SCHEMALESS",
		"DEFINE TABLE IF NOT EXISTS position SCHEMALESS",
		"DEFINE INDEX IF NOT EXISTS user_username ON TABLE user FIELDS username_key UNIQUE",
		"DEFINE INDEX IF NOT EXISTS watchlist_user ON TABLE watchlist FIELDS user_id",
		"DEFINE INDEX IF NOT EXISTS position_user ON TABLE position FIELDS user_id",
	}
	for _, sql := range schema {
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to apply schema %q: %w", sql, err)
		}
	}

	locks := common.NewKeyedMutex()
	return &Manager{
		db:             db,
		logger:         logger,
		userStore:      NewUserStore(db, logger),
		stockStore:     NewStockStore(db, logger),
		watchlistStore: NewWatchlistStore(db, logger, locks),
		portfolioStore: NewPortfolioStore(db, logger, locks),
	}, nil
}

func (m *Manager) UserStore() interfaces.UserStore {
	return m.userStore
}

func (m *Manager) StockStore() interfaces.StockStore {
	return m.stockStore
}

func (m *Manager) WatchlistStore() interfaces.WatchlistStore {
	return m.watchlistStore
}

func (m *Manager) PortfolioStore() interfaces.PortfolioStore {
	return m.portfolioStore
}

func (m *Manager) Backend() string {
	return "surrealdb"
}

func (m *Manager) Close() error {
	return m.db.Close(context.Background())
}

// queryRows runs a single-statement query and returns its rows.
func queryRows[T any](ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) ([]T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, sql, vars)
	if err != nil {
		return nil, err
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

// symbolID converts a symbol like "BRK.B" to a record ID safe string.
func symbolID(symbol string) string {
	return strings.ReplaceAll(symbol, ".", "_")
}

// userSymbolID keys per-user per-symbol records.
func userSymbolID(userID, symbol string) string {
	return userID + "_" + symbolID(symbol)
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")
}

func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already contains") || strings.Contains(msg, "already exists")
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
