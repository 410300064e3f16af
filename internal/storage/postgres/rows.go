package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/simvest/internal/models"
)

type userRow struct {
	ID           string          `gorm:"primaryKey;type:varchar(64)"`
	FirstName    string          `gorm:"type:varchar(255)"`
	LastName     string          `gorm:"type:varchar(255)"`
	Username     string          `gorm:"type:varchar(255);not null"`
	UsernameKey  string          `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string          `gorm:"type:varchar(255);not null"`
	RealizedPnL  decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

func (r *userRow) toModel() *models.User {
	return &models.User{
		ID:           r.ID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		RealizedPnL:  r.RealizedPnL,
		CreatedAt:    r.CreatedAt,
	}
}

type stockRow struct {
	Symbol string `gorm:"primaryKey;type:varchar(32)"`
	Name   string `gorm:"type:varchar(255);not null"`
}

func (stockRow) TableName() string { return "stocks" }

type watchlistRow struct {
	UserID  string    `gorm:"primaryKey;type:varchar(64)"`
	Symbol  string    `gorm:"primaryKey;type:varchar(32)"`
	AddedAt time.Time `gorm:"not null;index"`
}

func (watchlistRow) TableName() string { return "watchlist_entries" }

type positionRow struct {
	UserID    string          `gorm:"primaryKey;type:varchar(64)"`
	Symbol    string          `gorm:"primaryKey;type:varchar(32)"`
	Units     int64           `gorm:"not null"`
	CostBasis decimal.Decimal `gorm:"type:numeric;not null"`
	UpdatedAt time.Time
}

func (positionRow) TableName() string { return "positions" }

func (r *positionRow) toModel() *models.Position {
	return &models.Position{
		UserID:    r.UserID,
		Symbol:    r.Symbol,
		Units:     r.Units,
		CostBasis: r.CostBasis,
		UpdatedAt: r.UpdatedAt,
	}
}
