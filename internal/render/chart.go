// Package render draws quote and dividend charts as PNG images.
package render

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"FIIDash/internal/collector"
	"FIIDash/internal/datetime"
	"FIIDash/internal/display"
	"FIIDash/internal/model"
)

// Size is the output image size in pixels.
type Size struct {
	Width  int
	Height int
}

// DefaultSize is used when a dimension is not positive.
var DefaultSize = Size{Width: 900, Height: 400}

func (s Size) orDefault() Size {
	if s.Width <= 0 {
		s.Width = DefaultSize.Width
	}
	if s.Height <= 0 {
		s.Height = DefaultSize.Height
	}
	return s
}

var (
	averageColor = drawing.ColorFromHex("f59e0b")
	dividendFill = hexColor(display.ColorBull)
)

func hexColor(css string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(css, "#"))
}

// trendColor paints the price line by the sign of the period change.
func trendColor(ys []float64) drawing.Color {
	if len(ys) == 0 {
		return hexColor(display.ColorNeutral)
	}
	return hexColor(display.Color(ys[len(ys)-1] - ys[0]))
}

// timeAxis returns the parsed x values of the finite points of s, paired
// with their y values.
func timeAxis(points []model.SeriesPoint, loc *time.Location) ([]time.Time, []float64) {
	xs := make([]time.Time, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		t, err := datetime.ParseTimestamp(p.Timestamp, loc)
		if err != nil {
			continue
		}
		xs = append(xs, t)
		ys = append(ys, p.Value)
	}
	return xs, ys
}

// QuoteChart renders the closing prices of v with its moving average, on the
// price domain computed for the view.
func QuoteChart(v *collector.QuoteView, size Size, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}
	size = size.orDefault()

	xs, ys := timeAxis(v.Close.Points, loc)
	if len(xs) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(xs))
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name: "Fechamento",
			Style: chart.Style{
				StrokeColor: trendColor(ys),
				StrokeWidth: 2,
			},
			XValues: xs,
			YValues: ys,
		},
	}

	var avgPoints []model.SeriesPoint
	for _, a := range v.Averages {
		if a.Valid {
			avgPoints = append(avgPoints, model.SeriesPoint{Timestamp: a.Timestamp, Value: a.Average})
		}
	}
	if ax, ay := timeAxis(avgPoints, loc); len(ax) >= 2 {
		series = append(series, chart.TimeSeries{
			Name: "Média móvel",
			Style: chart.Style{
				StrokeColor:     averageColor,
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: ax,
			YValues: ay,
		})
	}

	tickLayout := "02/01"
	if v.Intraday {
		tickLayout = "15:04"
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s · %s", v.Ticker, v.Period),
		Width:  size.Width,
		Height: size.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(x interface{}) string {
				if f, ok := x.(float64); ok {
					return chart.TimeFromFloat64(f).In(loc).Format(tickLayout)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: v.PriceDomain.Low, Max: v.PriceDomain.High},
			ValueFormatter: func(y interface{}) string {
				if f, ok := y.(float64); ok {
					return display.Currency(f)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// DividendChart renders one bar per payout on the dividend domain of v.
// Missing amounts are drawn as zero-height bars.
func DividendChart(v *collector.DividendView, size Size) ([]byte, error) {
	size = size.orDefault()
	if v.Series.Len() == 0 {
		return nil, fmt.Errorf("no dividends to draw")
	}

	bars := make([]chart.Value, 0, v.Series.Len())
	for _, p := range v.Series.Points {
		val := p.Value
		if math.IsNaN(val) || math.IsInf(val, 0) {
			val = 0
		}
		bars = append(bars, chart.Value{
			Label: p.Label,
			Value: val,
			Style: chart.Style{FillColor: dividendFill, StrokeColor: dividendFill},
		})
	}

	barWidth := (size.Width-120)/len(bars) - 4
	if barWidth < 3 {
		barWidth = 3
	}
	if barWidth > 40 {
		barWidth = 40
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("%s · dividendos %s", v.Ticker, v.Window),
		Width:    size.Width,
		Height:   size.Height,
		BarWidth: barWidth,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: v.Domain.Low, Max: v.Domain.High},
			ValueFormatter: func(y interface{}) string {
				if f, ok := y.(float64); ok {
					return display.Currency(f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
