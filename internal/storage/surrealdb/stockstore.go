package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/models"
)

type stockRecord struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// StockStore implements interfaces.StockStore using SurrealDB.
type StockStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewStockStore(db *surrealdb.DB, logger *common.Logger) *StockStore {
	return &StockStore{db: db, logger: logger}
}

func (s *StockStore) SaveStocks(ctx context.Context, stocks []models.Stock) error {
	sql := "UPSERT $rid CONTENT $stock"
	for _, st := range stocks {
		vars := map[string]any{
			"rid":   surrealmodels.NewRecordID(tableStock, symbolID(st.Symbol)),
			"stock": stockRecord{Symbol: st.Symbol, Name: st.Name},
		}
		if _, err := surrealdb.Query[[]stockRecord](ctx, s.db, sql, vars); err != nil {
			return fmt.Errorf("failed to upsert stock %s: %w", st.Symbol, err)
		}
	}
	s.logger.Debug().Int("count", len(stocks)).Msg("Stocks saved")
	return nil
}

func (s *StockStore) GetStock(ctx context.Context, symbol string) (*models.Stock, error) {
	rec, err := surrealdb.Select[stockRecord](ctx, s.db, surrealmodels.NewRecordID(tableStock, symbolID(symbol)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select stock: %w", err)
	}
	if rec == nil || rec.Symbol == "" {
		return nil, common.ErrNotFound
	}
	return &models.Stock{Symbol: rec.Symbol, Name: rec.Name}, nil
}

func (s *StockStore) ListStocks(ctx context.Context) ([]models.Stock, error) {
	rows, err := queryRows[stockRecord](ctx, s.db, "SELECT symbol, name FROM stock ORDER BY symbol ASC", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	out := make([]models.Stock, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Stock{Symbol: r.Symbol, Name: r.Name})
	}
	return out, nil
}

func (s *StockStore) CountStocks(ctx context.Context) (int, error) {
	type countResult struct {
		Cnt int `json:"cnt"`
	}
	rows, err := queryRows[countResult](ctx, s.db, "SELECT count() AS cnt FROM stock GROUP ALL", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count stocks: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Cnt, nil
}
