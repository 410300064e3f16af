// Package postgres implements the storage interfaces on PostgreSQL via gorm.
package postgres

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/interfaces"
)

// Manager implements interfaces.StorageManager using PostgreSQL.
type Manager struct {
	db     *gorm.DB
	logger *common.Logger

	userStore      *UserStore
	stockStore     *StockStore
	watchlistStore *WatchlistStore
	portfolioStore *PortfolioStore
}

// NewManager opens the connection pool and migrates the schema.
func NewManager(ctx context.Context, logger *common.Logger, config common.PostgresConfig) (*Manager, error) {
	m, err := Open(ctx, logger, config.DSN(), config.MaxConns)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("host", config.Host).
		Int("port", config.Port).
		Str("database", config.Database).
		Msg("Postgres storage manager initialized")
	return m, nil
}

// Open connects to dsn and migrates the schema.
func Open(ctx context.Context, logger *common.Logger, dsn string, maxConns int) (*Manager, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&userRow{}, &stockRow{}, &watchlistRow{}, &positionRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Manager{
		db:             db,
		logger:         logger,
		userStore:      &UserStore{db: db, logger: logger},
		stockStore:     &StockStore{db: db, logger: logger},
		watchlistStore: newWatchlistStore(db, logger),
		portfolioStore: newPortfolioStore(db, logger),
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
	return "postgres"
}

func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// lockKey takes a transaction scoped advisory lock on key.
func lockKey(tx *gorm.DB, key string) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

var _ interfaces.StorageManager = (*Manager)(nil)
