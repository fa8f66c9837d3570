package collector

import (
	"context"
	"errors"
	"fmt"

	"FIIDash/internal/model"
)

// ErrNotFound is returned when the backend has no data for a ticker.
var ErrNotFound = errors.New("not found")

// ErrEmptyQuery is returned for a blank search.
var ErrEmptyQuery = errors.New("empty search query")

// Source defines the interface for fetching fund data from the backend.
type Source interface {
	FetchPanel(ctx context.Context) (*model.Snapshot, error)
	Search(ctx context.Context, query string) (model.SearchResult, error)
	FetchAsset(ctx context.Context, ticker string) (model.RawAsset, error)
	FetchHourAnalysis(ctx context.Context, ticker string) (*model.HourAnalysis, error)
	FetchQuotes(ctx context.Context, ticker string, period Period) (*model.QuoteHistory, error)
	FetchDividends(ctx context.Context, ticker string) (*model.DividendHistory, error)
	Name() string
}

// Period is a quotes lookback accepted by the backend.
type Period string

const (
	Period1D  Period = "1d"
	Period5D  Period = "5d"
	Period1M  Period = "1mo"
	Period3M  Period = "3mo"
	Period6M  Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
	PeriodMax Period = "max"
)

// DefaultPeriod is used when no period is given.
const DefaultPeriod = Period1Y

// ParsePeriod validates a period name; empty means DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Period1D, Period5D, Period1M, Period3M, Period6M, Period1Y, Period2Y, Period5Y, PeriodMax:
		return p, nil
	case "":
		return DefaultPeriod, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}
