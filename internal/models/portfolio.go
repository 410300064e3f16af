package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrEmptyPosition is returned when an average is requested for zero units.
var ErrEmptyPosition = errors.New("position holds no units")

// Position is a user's holding in one instrument. Units and CostBasis are zero
// together; a zero-unit position is never stored.
type Position struct {
	UserID    string          `json:"user_id"`
	Symbol    string          `json:"symbol"`
	Units     int64           `json:"units"`
	CostBasis decimal.Decimal `json:"cost_basis"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AveragePrice returns CostBasis / Units.
func (p *Position) AveragePrice() (decimal.Decimal, error) {
	if p.Units == 0 {
		return decimal.Zero, ErrEmptyPosition
	}
	return p.CostBasis.Div(decimal.NewFromInt(p.Units)), nil
}

// LedgerTx is the mutable state handed to a store's atomic position update.
// Setting Position to nil deletes the stored position.
type LedgerTx struct {
	Position    *Position
	RealizedPnL decimal.Decimal
}

// PositionView is one row of a portfolio valuation.
type PositionView struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	TotalUnits        int64   `json:"total_units"`
	TotalPaid         float64 `json:"total_paid"`
	AveragePrice      float64 `json:"average_price"`
	CurrentPrice      float64 `json:"current_price"`
	TotalCurrentWorth float64 `json:"total_current_worth"`
	TotalPnL          float64 `json:"total_pnl"`
}

// NewPositionView values p at the given price.
func NewPositionView(p *Position, name string, price decimal.Decimal) (PositionView, error) {
	avg, err := p.AveragePrice()
	if err != nil {
		return PositionView{}, err
	}
	worth := price.Mul(decimal.NewFromInt(p.Units))
	return PositionView{
		Symbol:            p.Symbol,
		Name:              name,
		TotalUnits:        p.Units,
		TotalPaid:         p.CostBasis.InexactFloat64(),
		AveragePrice:      avg.InexactFloat64(),
		CurrentPrice:      price.InexactFloat64(),
		TotalCurrentWorth: worth.InexactFloat64(),
		TotalPnL:          worth.Sub(p.CostBasis).InexactFloat64(),
	}, nil
}

// TradeSide is buy or sell.
type TradeSide string

const (
	TradeBuy  TradeSide = "buy"
	TradeSell TradeSide = "sell"
)

// TradeResult reports an executed trade.
type TradeResult struct {
	Side          TradeSide       `json:"-"`
	Symbol        string          `json:"symbol"`
	Quantity      int64           `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	RealizedDelta decimal.Decimal `json:"realised_pnl"`
}
