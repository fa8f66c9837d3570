package calculator

import (
	"errors"
	"math"

	"github.com/markcheno/go-talib"
)

// ErrInvalidWindow is returned for non-positive moving-average windows.
var ErrInvalidWindow = errors.New("window must be positive")

// MovingAverage computes the trailing simple moving average of values.
// The result is parallel to values: the first window-1 entries are NaN
// (present but unset), entry i holds the mean of values[i-window+1..i].
// A window that covers a missing (NaN) value is also left unset.
// Each window is summed on its own, so a large value never leaves
// rounding residue in the windows after it.
func MovingAverage(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(values) < window {
		return out, nil
	}

	// gaps[i] counts missing values in values[:i].
	gaps := make([]int, len(values)+1)
	for i, v := range values {
		gaps[i+1] = gaps[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			gaps[i+1]++
		}
	}

	for i := window - 1; i < len(values); i++ {
		if gaps[i+1]-gaps[i+1-window] > 0 {
			continue
		}
		out[i] = talib.Sma(values[i+1-window:i+1], window)[window-1]
	}
	return out, nil
}

// LastValid returns the last finite value of values.
func LastValid(values []float64) (float64, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) && !math.IsInf(values[i], 0) {
			return values[i], true
		}
	}
	return 0, false
}
