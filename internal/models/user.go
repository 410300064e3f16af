package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a registered account. RealizedPnL accumulates the outcome of every sell.
type User struct {
	ID           string          `json:"id"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"password_hash"`
	RealizedPnL  decimal.Decimal `json:"realised_pnl"`
	CreatedAt    time.Time       `json:"created_at"`
}

// UserProfile is the public view of a User.
type UserProfile struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Username    string  `json:"username"`
	RealizedPnL float64 `json:"realised_pnl"`
}

// Profile returns the public view of u.
func (u *User) Profile() UserProfile {
	return UserProfile{
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Username:    u.Username,
		RealizedPnL: u.RealizedPnL.InexactFloat64(),
	}
}
