package collector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"FIIDash/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
// Nil fields are generated around BasePrice.
type MockSource struct {
	BasePrice float64
	Assets    []model.RawAsset
	Quotes    *model.QuoteHistory
	Dividends *model.DividendHistory
	// Hours overrides the generated hour analysis.
	Hours *model.HourAnalysis
	Err   error
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchPanel(_ context.Context) (*model.Snapshot, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &model.Snapshot{Assets: m.Assets}, nil
}

// Search matches query against the configured assets by normalized ticker.
func (m *MockSource) Search(_ context.Context, query string) (model.SearchResult, error) {
	if m.Err != nil {
		return model.SearchResult{}, m.Err
	}
	key := model.NormalizeTicker(query)
	if key == "" {
		return model.SearchResult{}, ErrEmptyQuery
	}
	for _, a := range m.Assets {
		if model.NormalizeTicker(a.Ticker) == key {
			return model.SearchResult{Ticker: a.Ticker, Name: a.Name, Exists: true}, nil
		}
	}
	return model.SearchResult{}, fmt.Errorf("%w: %s", ErrNotFound, query)
}

func (m *MockSource) FetchAsset(_ context.Context, ticker string) (model.RawAsset, error) {
	if m.Err != nil {
		return model.RawAsset{}, m.Err
	}
	key := model.NormalizeTicker(ticker)
	for _, a := range m.Assets {
		if model.NormalizeTicker(a.Ticker) == key {
			return a, nil
		}
	}
	return model.RawAsset{}, fmt.Errorf("%w: %s", ErrNotFound, ticker)
}

func (m *MockSource) FetchQuotes(_ context.Context, ticker string, period Period) (*model.QuoteHistory, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Quotes != nil {
		return m.Quotes, nil
	}
	return &model.QuoteHistory{
		Ticker: ticker,
		Period: string(period),
		Points: generateMockPoints(m.BasePrice, 60),
	}, nil
}

func (m *MockSource) FetchDividends(_ context.Context, ticker string) (*model.DividendHistory, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Dividends != nil {
		return m.Dividends, nil
	}
	return &model.DividendHistory{Ticker: ticker}, nil
}

func (m *MockSource) FetchHourAnalysis(_ context.Context, ticker string) (*model.HourAnalysis, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Hours != nil {
		return m.Hours, nil
	}
	return generateHourAnalysis(ticker, m.BasePrice), nil
}

// generateHourAnalysis builds a session of hourly stats, 10h to 17h, whose
// prices peak mid-session.
func generateHourAnalysis(ticker string, basePrice float64) *model.HourAnalysis {
	var hours []model.HourStat
	total := 0.0
	for h := 10; h <= 17; h++ {
		p := round2(basePrice * (1 + 0.002*float64(4-abs(h-13))))
		hours = append(hours, model.HourStat{
			Hour:        fmt.Sprintf("%02d:00", h),
			HourNum:     h,
			AvgPrice:    p,
			MinPrice:    round2(p * 0.995),
			MaxPrice:    round2(p * 1.005),
			Occurrences: 21,
			AvgVolume:   10000,
		})
		total += p
	}

	ranked := append([]model.HourStat(nil), hours...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].AvgPrice < ranked[j].AvgPrice })
	buy := append([]model.HourStat(nil), ranked[:5]...)
	sell := make([]model.HourStat, 0, 5)
	for i := len(ranked) - 1; i >= len(ranked)-5; i-- {
		sell = append(sell, ranked[i])
	}

	a := &model.HourAnalysis{
		Ticker:   model.NormalizeTicker(ticker) + ".SA",
		Period:   "30 dias",
		Hours:    len(hours),
		Records:  21 * len(hours),
		AvgPrice: round2(total / float64(len(hours))),
		All:      hours,
		BestBuy:  buy,
		BestSell: sell,
	}
	a.Recommendation.BestBuy = &buy[0]
	a.Recommendation.BestSell = &sell[0]
	if buy[0].AvgPrice != 0 {
		a.Recommendation.Spread = round2((sell[0].AvgPrice - buy[0].AvgPrice) / buy[0].AvgPrice * 100)
	}
	return a
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func generateMockPoints(basePrice float64, count int) []model.RawPoint {
	points := make([]model.RawPoint, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		open, high, low, vol := p*0.999, p*1.005, p*0.995, 10000.0
		points[i] = model.RawPoint{
			Date:   time.Now().AddDate(0, 0, -(count - i)).Format("2006-01-02"),
			Open:   &open,
			High:   &high,
			Low:    &low,
			Close:  &p,
			Volume: &vol,
		}
	}
	return points
}
