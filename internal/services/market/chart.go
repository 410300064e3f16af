package market

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/simvest/internal/models"
	"github.com/bobmcallan/simvest/internal/signals"
)

// chartSMAPeriod is the moving average drawn over the closes.
const chartSMAPeriod = 20

// RenderCloseChart renders a PNG line chart of daily closes, with a 20-day
// moving average once there is enough history for one.
func RenderCloseChart(symbol string, bars []models.HistoricalBar) ([]byte, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(bars))
	}

	xValues := make([]time.Time, len(bars))
	closeY := make([]float64, len(bars))
	for i, b := range bars {
		xValues[i] = b.Date
		closeY[i] = b.Close
	}

	graph := chart.Chart{
		Title:  symbol + " Close Price",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: "Close",
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("2563eb"),
					StrokeWidth: 2,
				},
				XValues: xValues,
				YValues: closeY,
			},
		},
	}

	if sma := signals.MovingAverage(bars, chartSMAPeriod); len(sma) >= 2 {
		graph.Series = append(graph.Series, chart.TimeSeries{
			Name: fmt.Sprintf("SMA %d", chartSMAPeriod),
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("f59e0b"),
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5, 3},
			},
			XValues: xValues[chartSMAPeriod-1:],
			YValues: sma,
		})
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
