package models

import "time"

// WatchlistEntry is one instrument a user watches.
type WatchlistEntry struct {
	UserID  string    `json:"user_id"`
	Symbol  string    `json:"symbol"`
	AddedAt time.Time `json:"added_at"`
}
