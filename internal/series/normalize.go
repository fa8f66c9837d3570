// Package series turns backend quote and dividend records into ordered,
// display-ready series.
package series

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"FIIDash/internal/calculator"
	"FIIDash/internal/datetime"
	"FIIDash/internal/model"
)

// ErrIntradayMovingAverage is returned when a moving average is requested
// over an intraday series.
var ErrIntradayMovingAverage = errors.New("moving average is not defined for intraday series")

// Normalizer builds series for one viewer location.
type Normalizer struct {
	Location *time.Location
}

// Normalize uses the local timezone. See Normalizer.Normalize.
func Normalize(points []model.RawPoint, field model.Field, intraday bool) model.Series {
	return Normalizer{Location: time.Local}.Normalize(points, field, intraday)
}

// Normalize projects field out of every point and sorts the result by parsed
// timestamp. Daily points are labelled in the chart date format, intraday
// points by their HH:MM time. Missing values stay in the series as NaN so
// parallel fields keep the same length.
func (n Normalizer) Normalize(points []model.RawPoint, field model.Field, intraday bool) model.Series {
	f := datetime.Formatter{Location: n.location()}
	out := make([]model.SeriesPoint, 0, len(points))
	for _, p := range points {
		sp := model.SeriesPoint{Value: p.Value(field)}
		if intraday {
			sp.Timestamp = intradayTimestamp(p)
			sp.Label = intradayLabel(p)
		} else {
			sp.Timestamp = p.Date
			sp.Label = f.Format(p.Date, datetime.Chart)
		}
		out = append(out, sp)
	}
	n.sort(out)
	return model.Series{Points: out, Intraday: intraday}
}

// Bars returns the candlesticks of points in the same order Normalize
// gives their series, so bar i lines up with point i of every field.
func (n Normalizer) Bars(points []model.RawPoint, intraday bool) []model.OHLC {
	stamps := make([]string, len(points))
	for i, p := range points {
		stamps[i] = p.Date
		if intraday {
			stamps[i] = intradayTimestamp(p)
		}
	}
	bars := make([]model.OHLC, 0, len(points))
	for _, j := range n.order(stamps) {
		bars = append(bars, points[j].OHLC())
	}
	return bars
}

// NormalizeDividends uses the local timezone. See Normalizer.NormalizeDividends.
func NormalizeDividends(divs []model.RawDividend) model.Series {
	return Normalizer{Location: time.Local}.NormalizeDividends(divs)
}

// NormalizeDividends keys each dividend by its payment date (falling back to
// the generic date) and labels it in the medium date format.
func (n Normalizer) NormalizeDividends(divs []model.RawDividend) model.Series {
	f := datetime.Formatter{Location: n.location()}
	out := make([]model.SeriesPoint, 0, len(divs))
	for _, d := range divs {
		date := dividendDate(d)
		v := math.NaN()
		if d.Amount != nil {
			v = *d.Amount
		}
		out = append(out, model.SeriesPoint{
			Timestamp: date,
			Value:     v,
			Label:     f.Format(date, datetime.Medium),
		})
	}
	n.sort(out)
	return model.Series{Points: out}
}

// WithMovingAverage pairs every point with its trailing average.
func WithMovingAverage(s model.Series, window int) ([]model.AveragePoint, error) {
	if s.Intraday {
		return nil, ErrIntradayMovingAverage
	}
	avg, err := calculator.MovingAverage(s.Values(), window)
	if err != nil {
		return nil, err
	}
	out := make([]model.AveragePoint, len(s.Points))
	for i, p := range s.Points {
		out[i] = model.AveragePoint{SeriesPoint: p}
		if !math.IsNaN(avg[i]) {
			out[i].Average = avg[i]
			out[i].Valid = true
		}
	}
	return out, nil
}

func (n Normalizer) location() *time.Location {
	if n.Location == nil {
		return time.Local
	}
	return n.Location
}

// sort orders points by parsed timestamp. Points whose timestamp cannot be
// parsed go last, keeping their relative order.
func (n Normalizer) sort(points []model.SeriesPoint) {
	stamps := make([]string, len(points))
	for i, p := range points {
		stamps[i] = p.Timestamp
	}
	sorted := make([]model.SeriesPoint, len(points))
	for i, j := range n.order(stamps) {
		sorted[i] = points[j]
	}
	copy(points, sorted)
}

// order returns the stable permutation that sorts stamps by parsed time.
func (n Normalizer) order(stamps []string) []int {
	loc := n.location()
	type keyed struct {
		idx int
		t   time.Time
		ok  bool
	}
	keys := make([]keyed, len(stamps))
	for i, s := range stamps {
		t, err := datetime.ParseTimestamp(s, loc)
		keys[i] = keyed{idx: i, t: t, ok: err == nil}
	}
	sort.SliceStable(keys, func(a, b int) bool {
		ka, kb := keys[a], keys[b]
		if ka.ok != kb.ok {
			return ka.ok
		}
		return ka.ok && ka.t.Before(kb.t)
	})
	out := make([]int, len(keys))
	for i, k := range keys {
		out[i] = k.idx
	}
	return out
}

func intradayTimestamp(p model.RawPoint) string {
	if p.Timestamp != "" {
		return p.Timestamp
	}
	if p.Time != "" {
		return strings.TrimSpace(p.Date + " " + p.Time)
	}
	return p.Date
}

func intradayLabel(p model.RawPoint) string {
	if p.Time != "" {
		return p.Time
	}
	if t, err := datetime.ParseTimestamp(intradayTimestamp(p), time.UTC); err == nil {
		return t.Format("15:04")
	}
	return ""
}

func dividendDate(d model.RawDividend) string {
	if d.PaymentDate != "" {
		return d.PaymentDate
	}
	return d.Date
}
