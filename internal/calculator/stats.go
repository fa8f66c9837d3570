package calculator

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"FIIDash/internal/model"
)

// Finite drops NaN and ±Inf entries, preserving order.
func Finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Stats computes min/max/avg/total/count over the finite values.
// No finite values yields all-zero statistics.
func Stats(values []float64) model.Statistics {
	clean := Finite(values)
	if len(clean) == 0 {
		return model.Statistics{}
	}
	return model.Statistics{
		Min:   floats.Min(clean),
		Max:   floats.Max(clean),
		Avg:   stat.Mean(clean, nil),
		Total: floats.Sum(clean),
		Count: len(clean),
	}
}

// SeriesStats is Stats over a series' values.
func SeriesStats(s model.Series) model.Statistics {
	return Stats(s.Values())
}

// Amplitude is (max-min)/avg in percent; 0 when avg is 0.
func Amplitude(st model.Statistics) float64 {
	if st.Count == 0 || st.Avg == 0 {
		return 0
	}
	return (st.Max - st.Min) / st.Avg * 100
}
