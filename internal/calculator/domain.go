package calculator

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"FIIDash/internal/model"
)

// Strategy names how an axis range is derived from values.
type Strategy string

const (
	StrategyPrice      Strategy = "price"
	StrategyPercentage Strategy = "percentage"
	StrategyDividend   Strategy = "dividend"
	StrategyOHLC       Strategy = "ohlc"
)

// Fallback ranges used when no finite value is available.
var (
	PriceFallback      = model.DomainRange{Low: 0, High: 100}
	PercentageFallback = model.DomainRange{Low: -5, High: 5}
	DividendFallback   = model.DomainRange{Low: 0, High: 10}
	OHLCFallback       = model.DomainRange{Low: 0, High: 100}
)

const (
	priceMarginRatio      = 0.02
	percentageMarginRatio = 0.10
	percentageMinMargin   = 1.0
	dividendHeadroom      = 1.1
	ohlcMarginRatio       = 0.005
)

// Domain dispatches to the named strategy. For StrategyOHLC the values are
// treated as an already pooled list of open/high/low/close prices.
func Domain(values []float64, s Strategy) model.DomainRange {
	switch s {
	case StrategyPercentage:
		return PercentageDomain(values)
	case StrategyDividend:
		return DividendDomain(values)
	case StrategyOHLC:
		return pooledOHLCDomain(values)
	default:
		return PriceDomain(values)
	}
}

// PriceDomain pads [min, max] by 2% of the range and never goes below 0.
func PriceDomain(values []float64) model.DomainRange {
	clean := Finite(values)
	if len(clean) == 0 {
		return PriceFallback
	}
	lo, hi := floats.Min(clean), floats.Max(clean)
	margin := (hi - lo) * priceMarginRatio
	return model.DomainRange{Low: math.Max(0, lo-margin), High: hi + margin}
}

// PercentageDomain pads by max(10% of the range, 1) and allows negatives.
func PercentageDomain(values []float64) model.DomainRange {
	clean := Finite(values)
	if len(clean) == 0 {
		return PercentageFallback
	}
	lo, hi := floats.Min(clean), floats.Max(clean)
	margin := math.Max((hi-lo)*percentageMarginRatio, percentageMinMargin)
	return model.DomainRange{Low: lo - margin, High: hi + margin}
}

// DividendDomain always starts at 0 and leaves 10% headroom above max.
func DividendDomain(values []float64) model.DomainRange {
	clean := Finite(values)
	if len(clean) == 0 {
		return DividendFallback
	}
	return model.DomainRange{Low: 0, High: floats.Max(clean) * dividendHeadroom}
}

// OHLCDomain pools every open/high/low/close, pads by 0.5% of the range and
// floors at 0.
func OHLCDomain(bars []model.OHLC) model.DomainRange {
	pooled := make([]float64, 0, len(bars)*4)
	for _, b := range bars {
		pooled = append(pooled, b.Open, b.High, b.Low, b.Close)
	}
	return pooledOHLCDomain(pooled)
}

func pooledOHLCDomain(values []float64) model.DomainRange {
	clean := Finite(values)
	if len(clean) == 0 {
		return OHLCFallback
	}
	lo, hi := floats.Min(clean), floats.Max(clean)
	margin := (hi - lo) * ohlcMarginRatio
	return model.DomainRange{Low: math.Max(0, lo-margin), High: hi + margin}
}
