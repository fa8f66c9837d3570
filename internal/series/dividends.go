package series

import (
	"fmt"
	"time"

	"FIIDash/internal/datetime"
	"FIIDash/internal/model"
)

// Window selects how far back a dividend history reaches.
type Window string

const (
	Window6M  Window = "6m"
	Window12M Window = "12m"
	Window24M Window = "24m"
	WindowAll Window = "all"
)

// ParseWindow validates a window name; empty means WindowAll.
func ParseWindow(s string) (Window, error) {
	switch w := Window(s); w {
	case Window6M, Window12M, Window24M, WindowAll:
		return w, nil
	case "":
		return WindowAll, nil
	default:
		return "", fmt.Errorf("unknown dividend window %q", s)
	}
}

func (w Window) months() int {
	switch w {
	case Window6M:
		return 6
	case Window12M:
		return 12
	case Window24M:
		return 24
	default:
		return 0
	}
}

// FilterDividends keeps the dividends paid on or after now minus the window.
// Records whose date cannot be parsed are kept.
func FilterDividends(divs []model.RawDividend, w Window, now time.Time) []model.RawDividend {
	months := w.months()
	if months == 0 {
		return divs
	}
	start := now.AddDate(0, -months, 0)
	out := make([]model.RawDividend, 0, len(divs))
	for _, d := range divs {
		t, err := datetime.ParseTimestamp(dividendDate(d), now.Location())
		if err != nil || !t.Before(start) {
			out = append(out, d)
		}
	}
	return out
}
