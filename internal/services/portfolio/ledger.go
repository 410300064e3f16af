package portfolio

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/models"
)

const (
	invalidQuantityMessage = "Invalid quantity."
	noPositionMessage      = "No such stock exists in your portfolio."
	insufficientMessage    = "You do not own enough units to sell."
)

func validateQuantity(quantity int64) error {
	if quantity <= 0 {
		return common.Validationf(invalidQuantityMessage)
	}
	return nil
}

// applyBuy adds quantity units bought at price to the position in tx,
// creating it when absent. A buy that would overflow the unit count is
// rejected and tx is left unchanged.
func applyBuy(tx *models.LedgerTx, quantity int64, price decimal.Decimal) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	var held int64
	if tx.Position != nil {
		held = tx.Position.Units
	}
	if quantity > math.MaxInt64-held {
		return common.Validationf(invalidQuantityMessage)
	}

	paid := price.Mul(decimal.NewFromInt(quantity))
	if tx.Position == nil {
		tx.Position = &models.Position{}
	}
	tx.Position.Units += quantity
	tx.Position.CostBasis = tx.Position.CostBasis.Add(paid)
	return nil
}

// applySell removes quantity units sold at price at the position's average
// cost. The realized gain is added to tx and returned. A position reduced to
// zero units is removed from tx.
func applySell(tx *models.LedgerTx, quantity int64, price decimal.Decimal) (decimal.Decimal, error) {
	if tx.Position == nil || tx.Position.Units == 0 {
		return decimal.Zero, common.NotFoundf(noPositionMessage)
	}
	if quantity > tx.Position.Units {
		return decimal.Zero, common.Validationf(insufficientMessage)
	}

	avg, err := tx.Position.AveragePrice()
	if err != nil {
		return decimal.Zero, err
	}
	q := decimal.NewFromInt(quantity)
	realized := q.Mul(price.Sub(avg))

	tx.Position.Units -= quantity
	if tx.Position.Units == 0 {
		tx.Position = nil
	} else {
		tx.Position.CostBasis = tx.Position.CostBasis.Sub(q.Mul(avg))
	}
	tx.RealizedPnL = tx.RealizedPnL.Add(realized)
	return realized, nil
}
