package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/interfaces"
	"github.com/bobmcallan/simvest/internal/models"
)

type positionRecord struct {
	UserID    string    `json:"user_id"`
	Symbol    string    `json:"symbol"`
	Units     int64     `json:"units"`
	CostBasis string    `json:"cost_basis"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *positionRecord) toModel() (*models.Position, error) {
	cost, err := parseDecimal(r.CostBasis)
	if err != nil {
		return nil, fmt.Errorf("position %s/%s cost_basis: %w", r.UserID, r.Symbol, err)
	}
	return &models.Position{
		UserID:    r.UserID,
		Symbol:    r.Symbol,
		Units:     r.Units,
		CostBasis: cost,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

// PortfolioStore implements interfaces.PortfolioStore using SurrealDB.
// Ledger updates take a per-user lock, then write the position and the
// user's realized P&L in one transaction.
type PortfolioStore struct {
	db     *surrealdb.DB
	logger *common.Logger
	locks  *common.KeyedMutex
	now    func() time.Time
}

func NewPortfolioStore(db *surrealdb.DB, logger *common.Logger, locks *common.KeyedMutex) *PortfolioStore {
	return &PortfolioStore{db: db, logger: logger, locks: locks, now: time.Now}
}

func (s *PortfolioStore) GetPosition(ctx context.Context, userID, symbol string) (*models.Position, error) {
	rec, err := surrealdb.Select[positionRecord](ctx, s.db, surrealmodels.NewRecordID(tablePosition, userSymbolID(userID, symbol)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select position: %w", err)
	}
	if rec == nil || rec.Units == 0 {
		return nil, common.ErrNotFound
	}
	return rec.toModel()
}

func (s *PortfolioStore) ListPositions(ctx context.Context, userID string) ([]models.Position, error) {
	sql := "SELECT * FROM position WHERE user_id = $uid ORDER BY symbol ASC"
	rows, err := queryRows[positionRecord](ctx, s.db, sql, map[string]any{"uid": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	out := make([]models.Position, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *PortfolioStore) UpdatePosition(ctx context.Context, userID, symbol string, fn interfaces.LedgerFunc) error {
	unlock := s.locks.Lock("ledger:" + userID)
	defer unlock()

	user, err := surrealdb.Select[userRecord](ctx, s.db, surrealmodels.NewRecordID(tableUser, userID))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to select user: %w", err)
	}
	if user == nil || user.UserID == "" {
		return common.ErrNotFound
	}
	pnl, err := parseDecimal(user.RealizedPnL)
	if err != nil {
		return fmt.Errorf("user %s realized_pnl: %w", userID, err)
	}

	tx := &models.LedgerTx{RealizedPnL: pnl}
	current, err := s.GetPosition(ctx, userID, symbol)
	switch {
	case err == nil:
		tx.Position = current
	case err != common.ErrNotFound:
		return err
	}

	if err := fn(tx); err != nil {
		return err
	}

	vars := map[string]any{
		"pid": surrealmodels.NewRecordID(tablePosition, userSymbolID(userID, symbol)),
		"uid": surrealmodels.NewRecordID(tableUser, userID),
		"pnl": tx.RealizedPnL.String(),
	}

	var sql string
	if tx.Position == nil || tx.Position.Units == 0 {
		sql = "BEGIN TRANSACTION; DELETE $pid; UPDATE $uid SET realized_pnl = $pnl; COMMIT TRANSACTION;"
	} else {
		vars["position"] = positionRecord{
			UserID:    userID,
			Symbol:    symbol,
			Units:     tx.Position.Units,
			CostBasis: tx.Position.CostBasis.String(),
			UpdatedAt: s.now(),
		}
		sql = "BEGIN TRANSACTION; UPSERT $pid CONTENT $position; UPDATE $uid SET realized_pnl = $pnl; COMMIT TRANSACTION;"
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to commit ledger update: %w", err)
	}

	s.logger.Debug().
		Str("user_id", userID).
		Str("symbol", symbol).
		Str("realized_pnl", tx.RealizedPnL.String()).
		Msg("Ledger updated")
	return nil
}
