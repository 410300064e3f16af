package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock is a tradable instrument in the catalog.
type Stock struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Quote is the latest price data for an instrument.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Current       decimal.Decimal `json:"current"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	FetchedAt     time.Time       `json:"fetched_at"`
}

// PercentageChange returns the move from the previous close in percent, rounded
// to two places. Zero when there is no previous close.
func (q Quote) PercentageChange() decimal.Decimal {
	if q.PreviousClose.IsZero() {
		return decimal.Zero
	}
	return q.Current.Sub(q.PreviousClose).
		Div(q.PreviousClose).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// StockSnapshot is an instrument with its current price data.
type StockSnapshot struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	CurrentPrice     float64 `json:"current_price"`
	Open             float64 `json:"open"`
	High             float64 `json:"high"`
	Low              float64 `json:"low"`
	PercentageChange float64 `json:"percentage_change"`
}

// NewStockSnapshot combines a catalog entry with a quote.
func NewStockSnapshot(s Stock, q Quote) StockSnapshot {
	return StockSnapshot{
		Symbol:           s.Symbol,
		Name:             s.Name,
		CurrentPrice:     q.Current.InexactFloat64(),
		Open:             q.Open.InexactFloat64(),
		High:             q.High.InexactFloat64(),
		Low:              q.Low.InexactFloat64(),
		PercentageChange: q.PercentageChange().InexactFloat64(),
	}
}

// HistoricalBar is one trading day of OHLC data.
type HistoricalBar struct {
	Date  time.Time `json:"date"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// HistoryDateFormat is the day-month-year layout used in PriceHistory.Date.
const HistoryDateFormat = "02-01-2006"

// PriceHistory is daily price data in column form.
type PriceHistory struct {
	Date  []string  `json:"Date"`
	Open  []float64 `json:"Open"`
	High  []float64 `json:"High"`
	Low   []float64 `json:"Low"`
	Close []float64 `json:"Close"`
}

// NewPriceHistory converts bars, oldest first, to column form.
func NewPriceHistory(bars []HistoricalBar) PriceHistory {
	h := PriceHistory{
		Date:  make([]string, 0, len(bars)),
		Open:  make([]float64, 0, len(bars)),
		High:  make([]float64, 0, len(bars)),
		Low:   make([]float64, 0, len(bars)),
		Close: make([]float64, 0, len(bars)),
	}
	for _, b := range bars {
		h.Date = append(h.Date, b.Date.Format(HistoryDateFormat))
		h.Open = append(h.Open, b.Open)
		h.High = append(h.High, b.High)
		h.Low = append(h.Low, b.Low)
		h.Close = append(h.Close, b.Close)
	}
	return h
}

// NewsSource names the publisher of an article.
type NewsSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewsArticle is a news item about an instrument.
type NewsArticle struct {
	Source      NewsSource `json:"source"`
	Author      string     `json:"author"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	URLToImage  string     `json:"urlToImage"`
	PublishedAt string     `json:"publishedAt"`
	Content     string     `json:"content"`
}

// SentimentScore is the aggregate bullish/bearish split of recent headlines.
type SentimentScore struct {
	BullishPercent float64 `json:"bullishPercent"`
	BearishPercent float64 `json:"bearishPercent"`
}

// NewSentimentScore derives the split from per-headline positive probabilities.
// With no headlines the split is even.
func NewSentimentScore(probs []float64) SentimentScore {
	if len(probs) == 0 {
		return SentimentScore{BullishPercent: 0.5, BearishPercent: 0.5}
	}
	var sum float64
	for _, p := range probs {
		sum += p
	}
	bullish := sum / float64(len(probs))
	return SentimentScore{BullishPercent: bullish, BearishPercent: 1 - bullish}
}
