// Package display renders numbers the way the dashboard shows them:
// Brazilian currency, signed percentages and compact volumes.
package display

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Palette used for signed values.
const (
	ColorBull    = "#10b981"
	ColorBear    = "#dc2626"
	ColorNeutral = "#cbd5e1"
)

var locale = language.BrazilianPortuguese

func invalid(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

// Currency formats v as BRL with two decimals, "R$ 1.234,56".
// NaN and ±Inf render as "R$ 0,00".
func Currency(v float64) string {
	if invalid(v) {
		return "R$ 0,00"
	}
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	f, _ := d.Float64()
	p := message.NewPrinter(locale)
	return sign + "R$ " + p.Sprint(number.Decimal(f, number.Scale(2)))
}

// Percent formats an already percent-scaled v with an explicit plus sign for
// non-negative values, "+1.23%". NaN and ±Inf render as "0.00%".
func Percent(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	if invalid(v) {
		return decimal.Zero.StringFixed(int32(decimals)) + "%"
	}
	s := decimal.NewFromFloat(v).StringFixed(int32(decimals))
	if v >= 0 && !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s + "%"
}

// Compact shortens large counts to K/M/B with two decimals. Smaller values
// use pt-BR digit grouping.
func Compact(v float64) string {
	if invalid(v) {
		return "0"
	}
	d := decimal.NewFromFloat(v)
	switch {
	case v >= 1e9:
		return d.Div(decimal.NewFromInt(1_000_000_000)).StringFixed(2) + "B"
	case v >= 1e6:
		return d.Div(decimal.NewFromInt(1_000_000)).StringFixed(2) + "M"
	case v >= 1e3:
		return d.Div(decimal.NewFromInt(1_000)).StringFixed(2) + "K"
	}
	p := message.NewPrinter(locale)
	return p.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// Color picks the bull, bear or neutral color by the sign of v.
func Color(v float64) string {
	switch {
	case v > 0:
		return ColorBull
	case v < 0:
		return ColorBear
	default:
		return ColorNeutral
	}
}

// Round rounds half away from zero to places decimals.
func Round(v float64, places int32) float64 {
	if invalid(v) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
