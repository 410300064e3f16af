package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/models"
)

type watchlistRecord struct {
	UserID  string    `json:"user_id"`
	Symbol  string    `json:"symbol"`
	AddedAt time.Time `json:"added_at"`
}

// WatchlistStore implements interfaces.WatchlistStore using SurrealDB.
// Adds for one user are serialized so the limit check and insert agree.
type WatchlistStore struct {
	db     *surrealdb.DB
	logger *common.Logger
	locks  *common.KeyedMutex
	now    func() time.Time
}

func NewWatchlistStore(db *surrealdb.DB, logger *common.Logger, locks *common.KeyedMutex) *WatchlistStore {
	return &WatchlistStore{db: db, logger: logger, locks: locks, now: time.Now}
}

func (s *WatchlistStore) ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	sql := "SELECT * FROM watchlist WHERE user_id = $uid ORDER BY added_at ASC"
	rows, err := queryRows[watchlistRecord](ctx, s.db, sql, map[string]any{"uid": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	out := make([]models.WatchlistEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.WatchlistEntry{UserID: r.UserID, Symbol: r.Symbol, AddedAt: r.AddedAt})
	}
	return out, nil
}

func (s *WatchlistStore) exists(ctx context.Context, userID, symbol string) (bool, error) {
	rec, err := surrealdb.Select[watchlistRecord](ctx, s.db, surrealmodels.NewRecordID(tableWatchlist, userSymbolID(userID, symbol)))
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to select watchlist entry: %w", err)
	}
	return rec != nil && rec.Symbol != "", nil
}

func (s *WatchlistStore) AddToWatchlist(ctx context.Context, entry models.WatchlistEntry, limit int) error {
	unlock := s.locks.Lock("watchlist:" + entry.UserID)
	defer unlock()

	found, err := s.exists(ctx, entry.UserID, entry.Symbol)
	if err != nil {
		return err
	}
	if found {
		return common.ErrDuplicate
	}

	type countResult struct {
		Cnt int `json:"cnt"`
	}
	counts, err := queryRows[countResult](ctx, s.db,
		"SELECT count() AS cnt FROM watchlist WHERE user_id = $uid GROUP ALL",
		map[string]any{"uid": entry.UserID})
	if err != nil {
		return fmt.Errorf("failed to count watchlist: %w", err)
	}
	if len(counts) > 0 && counts[0].Cnt >= limit {
		return common.ErrLimitReached
	}

	if entry.AddedAt.IsZero() {
		entry.AddedAt = s.now()
	}
	vars := map[string]any{
		"rid":   surrealmodels.NewRecordID(tableWatchlist, userSymbolID(entry.UserID, entry.Symbol)),
		"entry": watchlistRecord{UserID: entry.UserID, Symbol: entry.Symbol, AddedAt: entry.AddedAt},
	}
	if _, err := surrealdb.Query[[]watchlistRecord](ctx, s.db, "CREATE $rid CONTENT $entry", vars); err != nil {
		if isDuplicateError(err) {
			return common.ErrDuplicate
		}
		return fmt.Errorf("failed to add watchlist entry: %w", err)
	}
	return nil
}

func (s *WatchlistStore) RemoveFromWatchlist(ctx context.Context, userID, symbol string) error {
	unlock := s.locks.Lock("watchlist:" + userID)
	defer unlock()

	found, err := s.exists(ctx, userID, symbol)
	if err != nil {
		return err
	}
	if !found {
		return common.ErrNotFound
	}

	rid := surrealmodels.NewRecordID(tableWatchlist, userSymbolID(userID, symbol))
	if _, err := surrealdb.Delete[watchlistRecord](ctx, s.db, rid); err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete watchlist entry: %w", err)
	}
	return nil
}
