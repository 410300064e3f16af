package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/interfaces"
	"github.com/bobmcallan/simvest/internal/models"
)

// UserStore implements interfaces.UserStore.
type UserStore struct {
	db     *gorm.DB
	logger *common.Logger
}

func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	row := userRow{
		ID:           user.ID,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Username:     user.Username,
		UsernameKey:  strings.ToLower(user.Username),
		PasswordHash: user.PasswordHash,
		RealizedPnL:  user.RealizedPnL,
		CreatedAt:    user.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *UserStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&row).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return row.toModel(), nil
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("username_key = ?", strings.ToLower(username)).First(&row).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return row.toModel(), nil
}

// StockStore implements interfaces.StockStore.
type StockStore struct {
	db     *gorm.DB
	logger *common.Logger
}

func (s *StockStore) SaveStocks(ctx context.Context, stocks []models.Stock) error {
	if len(stocks) == 0 {
		return nil
	}
	rows := make([]stockRow, 0, len(stocks))
	for _, st := range stocks {
		rows = append(rows, stockRow{Symbol: st.Symbol, Name: st.Name})
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "symbol"}}, UpdateAll: true}).
		CreateInBatches(rows, 500).Error
	if err != nil {
		return fmt.Errorf("failed to save stocks: %w", err)
	}
	return nil
}

func (s *StockStore) GetStock(ctx context.Context, symbol string) (*models.Stock, error) {
	var row stockRow
	if err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&row).Error; err != nil {
		return nil, notFound(err, "stock")
	}
	return &models.Stock{Symbol: row.Symbol, Name: row.Name}, nil
}

func (s *StockStore) ListStocks(ctx context.Context) ([]models.Stock, error) {
	var rows []stockRow
	if err := s.db.WithContext(ctx).Order("symbol ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	out := make([]models.Stock, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Stock{Symbol: r.Symbol, Name: r.Name})
	}
	return out, nil
}

func (s *StockStore) CountStocks(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&stockRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count stocks: %w", err)
	}
	return int(n), nil
}

// WatchlistStore implements interfaces.WatchlistStore.
type WatchlistStore struct {
	db     *gorm.DB
	logger *common.Logger
	now    func() time.Time
}

func newWatchlistStore(db *gorm.DB, logger *common.Logger) *WatchlistStore {
	return &WatchlistStore{db: db, logger: logger, now: time.Now}
}

func (s *WatchlistStore) ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	var rows []watchlistRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("added_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	out := make([]models.WatchlistEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.WatchlistEntry{UserID: r.UserID, Symbol: r.Symbol, AddedAt: r.AddedAt})
	}
	return out, nil
}

func (s *WatchlistStore) AddToWatchlist(ctx context.Context, entry models.WatchlistEntry, limit int) error {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = s.now()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockKey(tx, "watchlist:"+entry.UserID); err != nil {
			return fmt.Errorf("failed to lock watchlist: %w", err)
		}

		var existing int64
		if err := tx.Model(&watchlistRow{}).
			Where("user_id = ? AND symbol = ?", entry.UserID, entry.Symbol).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return common.ErrDuplicate
		}

		var n int64
		if err := tx.Model(&watchlistRow{}).Where("user_id = ?", entry.UserID).Count(&n).Error; err != nil {
			return err
		}
		if int(n) >= limit {
			return common.ErrLimitReached
		}

		row := watchlistRow{UserID: entry.UserID, Symbol: entry.Symbol, AddedAt: entry.AddedAt}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return common.ErrDuplicate
			}
			return fmt.Errorf("failed to add watchlist entry: %w", err)
		}
		return nil
	})
}

func (s *WatchlistStore) RemoveFromWatchlist(ctx context.Context, userID, symbol string) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND symbol = ?", userID, symbol).Delete(&watchlistRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove watchlist entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// PortfolioStore implements interfaces.PortfolioStore. UpdatePosition holds
// a row lock on the user for the whole read-modify-write.
type PortfolioStore struct {
	db     *gorm.DB
	logger *common.Logger
	now    func() time.Time
}

func newPortfolioStore(db *gorm.DB, logger *common.Logger) *PortfolioStore {
	return &PortfolioStore{db: db, logger: logger, now: time.Now}
}

func (s *PortfolioStore) GetPosition(ctx context.Context, userID, symbol string) (*models.Position, error) {
	var row positionRow
	if err := s.db.WithContext(ctx).Where("user_id = ? AND symbol = ?", userID, symbol).First(&row).Error; err != nil {
		return nil, notFound(err, "position")
	}
	return row.toModel(), nil
}

func (s *PortfolioStore) ListPositions(ctx context.Context, userID string) ([]models.Position, error) {
	var rows []positionRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("symbol ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	out := make([]models.Position, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toModel())
	}
	return out, nil
}

func (s *PortfolioStore) UpdatePosition(ctx context.Context, userID, symbol string, fn interfaces.LedgerFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user userRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", userID).First(&user).Error; err != nil {
			return notFound(err, "user")
		}

		ledger := &models.LedgerTx{RealizedPnL: user.RealizedPnL}
		var row positionRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND symbol = ?", userID, symbol).
			First(&row).Error
		switch {
		case err == nil:
			ledger.Position = row.toModel()
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to load position: %w", err)
		}

		if err := fn(ledger); err != nil {
			return err
		}

		if ledger.Position == nil || ledger.Position.Units == 0 {
			if err := tx.Where("user_id = ? AND symbol = ?", userID, symbol).Delete(&positionRow{}).Error; err != nil {
				return fmt.Errorf("failed to delete position: %w", err)
			}
		} else {
			next := positionRow{
				UserID:    userID,
				Symbol:    symbol,
				Units:     ledger.Position.Units,
				CostBasis: ledger.Position.CostBasis,
				UpdatedAt: s.now(),
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "symbol"}},
				DoUpdates: clause.AssignmentColumns([]string{"units", "cost_basis", "updated_at"}),
			}).Create(&next).Error
			if err != nil {
				return fmt.Errorf("failed to save position: %w", err)
			}
		}

		if err := tx.Model(&userRow{}).Where("id = ?", userID).Update("realized_pnl", ledger.RealizedPnL).Error; err != nil {
			return fmt.Errorf("failed to update realized pnl: %w", err)
		}
		return nil
	})
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.ErrNotFound
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

var (
	_ interfaces.UserStore      = (*UserStore)(nil)
	_ interfaces.StockStore     = (*StockStore)(nil)
	_ interfaces.WatchlistStore = (*WatchlistStore)(nil)
	_ interfaces.PortfolioStore = (*PortfolioStore)(nil)
)
