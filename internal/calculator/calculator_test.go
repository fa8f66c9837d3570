package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FIIDash/internal/model"
)

var nan = math.NaN()

func TestStats(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   model.Statistics
	}{
		{"empty", nil, model.Statistics{}},
		{"all missing", []float64{nan, nan, math.Inf(1)}, model.Statistics{}},
		{"single", []float64{7}, model.Statistics{Min: 7, Max: 7, Avg: 7, Total: 7, Count: 1}},
		{"filters NaN", []float64{1, nan, 3, 2}, model.Statistics{Min: 1, Max: 3, Avg: 2, Total: 6, Count: 3}},
		{"negatives", []float64{-4, 2}, model.Statistics{Min: -4, Max: 2, Avg: -1, Total: -2, Count: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Stats(tt.values)
			assert.Equal(t, tt.want.Count, got.Count)
			assert.InDelta(t, tt.want.Min, got.Min, 1e-9)
			assert.InDelta(t, tt.want.Max, got.Max, 1e-9)
			assert.InDelta(t, tt.want.Avg, got.Avg, 1e-9)
			assert.InDelta(t, tt.want.Total, got.Total, 1e-9)
		})
	}
}

func TestAmplitude(t *testing.T) {
	assert.InDelta(t, 20.0, Amplitude(model.Statistics{Min: 9, Max: 11, Avg: 10, Count: 3}), 1e-9)
	assert.Equal(t, 0.0, Amplitude(model.Statistics{}))
}

func TestMovingAverage_TrailingWindow(t *testing.T) {
	got, err := MovingAverage([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 2.0, got[2], 1e-9)
	assert.InDelta(t, 3.0, got[3], 1e-9)
	assert.InDelta(t, 4.0, got[4], 1e-9)
}

func TestMovingAverage_WindowOne(t *testing.T) {
	got, err := MovingAverage([]float64{4, 8}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, got[0], 1e-9)
	assert.InDelta(t, 8.0, got[1], 1e-9)
}

func TestMovingAverage_ShortInput(t *testing.T) {
	got, err := MovingAverage([]float64{1, 2}, 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, v := range got {
		assert.True(t, math.IsNaN(v))
	}
}

func TestMovingAverage_GapRecovers(t *testing.T) {
	got, err := MovingAverage([]float64{1, nan, 3, 4, 5, 6}, 2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got[1]))
	assert.True(t, math.IsNaN(got[2]))
	assert.InDelta(t, 3.5, got[3], 1e-9)
	assert.InDelta(t, 4.5, got[4], 1e-9)
	assert.InDelta(t, 5.5, got[5], 1e-9)
}

func TestMovingAverage_LargeValueLeavesNoResidue(t *testing.T) {
	got, err := MovingAverage([]float64{1e16, 1, 1, 1}, 2)
	require.NoError(t, err)
	assert.InEpsilon(t, 5e15, got[1], 1e-12)
	assert.Equal(t, 1.0, got[2])
	assert.Equal(t, 1.0, got[3])
}

func TestMovingAverage_InvalidWindow(t *testing.T) {
	_, err := MovingAverage([]float64{1}, 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestLastValid(t *testing.T) {
	v, ok := LastValid([]float64{1, 2, nan})
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)

	_, ok = LastValid([]float64{nan})
	assert.False(t, ok)
}

func TestPriceDomain(t *testing.T) {
	d := PriceDomain([]float64{10, 20})
	assert.Less(t, d.Low, 10.0)
	assert.Greater(t, d.High, 20.0)
	assert.LessOrEqual(t, 10-d.Low, 0.2+1e-9)
	assert.LessOrEqual(t, d.High-20, 0.2+1e-9)
	assert.InDelta(t, 9.8, d.Low, 1e-9)
	assert.InDelta(t, 20.2, d.High, 1e-9)
}

func TestPriceDomain_NeverNegative(t *testing.T) {
	d := PriceDomain([]float64{0.001, 100})
	assert.Equal(t, 0.0, d.Low)
}

func TestPercentageDomain(t *testing.T) {
	// Range 4 -> 10% is 0.4, the minimum margin of 1 wins.
	d := PercentageDomain([]float64{-2, 2})
	assert.InDelta(t, -3.0, d.Low, 1e-9)
	assert.InDelta(t, 3.0, d.High, 1e-9)

	// Range 40 -> margin 4.
	d = PercentageDomain([]float64{-20, 20, nan})
	assert.InDelta(t, -24.0, d.Low, 1e-9)
	assert.InDelta(t, 24.0, d.High, 1e-9)
}

func TestDividendDomain_AlwaysStartsAtZero(t *testing.T) {
	for _, values := range [][]float64{{0.08}, {0.5, 0.9, 1.2}, {100, 3}} {
		d := DividendDomain(values)
		assert.Equal(t, 0.0, d.Low)
	}
	d := DividendDomain([]float64{0.5, 1.0})
	assert.InDelta(t, 1.1, d.High, 1e-9)
}

func TestOHLCDomain_PoolsAllFields(t *testing.T) {
	bars := []model.OHLC{
		{Open: 10, High: 12, Low: 9, Close: 11},
		{Open: 11, High: 13, Low: nan, Close: 12},
	}
	d := OHLCDomain(bars)
	margin := (13.0 - 9.0) * 0.005
	assert.InDelta(t, 9-margin, d.Low, 1e-9)
	assert.InDelta(t, 13+margin, d.High, 1e-9)
}

func TestDomain_Fallbacks(t *testing.T) {
	tests := []struct {
		strategy Strategy
		want     model.DomainRange
	}{
		{StrategyPrice, PriceFallback},
		{StrategyPercentage, PercentageFallback},
		{StrategyDividend, DividendFallback},
		{StrategyOHLC, OHLCFallback},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			assert.Equal(t, tt.want, Domain(nil, tt.strategy))
			assert.Equal(t, tt.want, Domain([]float64{nan, nan}, tt.strategy))
		})
	}
	assert.Equal(t, OHLCFallback, OHLCDomain(nil))
}

func TestPeriodRange(t *testing.T) {
	high, low, err := PeriodRange([]model.OHLC{
		{High: 12, Low: 9},
		{High: nan, Low: 8},
		{High: 15, Low: nan},
	})
	require.NoError(t, err)
	assert.Equal(t, 15.0, high)
	assert.Equal(t, 8.0, low)

	_, _, err = PeriodRange(nil)
	assert.Error(t, err)
}

func TestRangePosition(t *testing.T) {
	pos, err := RangePosition(15, 20, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pos, 1e-9)

	pos, _ = RangePosition(25, 20, 10)
	assert.Equal(t, 1.0, pos)

	pos, _ = RangePosition(5, 20, 10)
	assert.Equal(t, 0.0, pos)

	pos, _ = RangePosition(10, 10, 10)
	assert.Equal(t, 0.5, pos)

	_, err = RangePosition(10, 5, 10)
	assert.Error(t, err)
}
