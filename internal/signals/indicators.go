// Package signals provides technical indicator calculations over daily bars.
// Bars are ordered oldest first.
package signals

import (
	"math"

	"github.com/bobmcallan/simvest/internal/models"
)

// SMA returns the simple moving average of the last period closes, or 0 when
// there are fewer than period bars.
func SMA(bars []models.HistoricalBar, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}

	sum := 0.0
	for _, b := range bars[len(bars)-period:] {
		sum += b.Close
	}
	return sum / float64(period)
}

// MovingAverage returns the rolling SMA series. Element i is the average of
// bars[i : i+period], so the result has len(bars)-period+1 points and aligns
// with bars[period-1:].
func MovingAverage(bars []models.HistoricalBar, period int) []float64 {
	if period <= 0 || len(bars) < period {
		return nil
	}

	out := make([]float64, 0, len(bars)-period+1)
	sum := 0.0
	for i, b := range bars {
		sum += b.Close
		if i >= period {
			sum -= bars[i-period].Close
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}

// HighLow returns the highest high and lowest low across bars.
func HighLow(bars []models.HistoricalBar) (high, low float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	high, low = math.Inf(-1), math.Inf(1)
	for _, b := range bars {
		high = math.Max(high, b.High)
		low = math.Min(low, b.Low)
	}
	return high, low
}

// DetectCrossover compares the short and long SMAs on the last two bars.
// Returns "bullish" when the short average crossed above, "bearish" when it
// crossed below, and "none" otherwise.
func DetectCrossover(bars []models.HistoricalBar, shortPeriod, longPeriod int) string {
	if len(bars) < longPeriod+1 {
		return "none"
	}

	prev := bars[:len(bars)-1]
	shortNow, longNow := SMA(bars, shortPeriod), SMA(bars, longPeriod)
	shortPrev, longPrev := SMA(prev, shortPeriod), SMA(prev, longPeriod)

	switch {
	case shortPrev <= longPrev && shortNow > longNow:
		return "bullish"
	case shortPrev >= longPrev && shortNow < longNow:
		return "bearish"
	default:
		return "none"
	}
}
