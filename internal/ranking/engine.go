// Package ranking ranks a market snapshot into gainers, losers and
// price-to-book discount opportunities.
package ranking

import (
	"math"
	"sort"

	"FIIDash/internal/model"
)

const (
	// TopN is the size of the top gainers/losers tables.
	TopN = 5
	// TreemapSize caps each side of the heat map.
	TreemapSize = 15
)

// Evaluate ranks the snapshot. Assets without a positive price are ignored.
// Gainers are sorted by variation descending, losers ascending (steepest
// drop first); a variation of exactly 0 counts as stable only.
func Evaluate(assets []model.AssetSummary) *model.Panel {
	valid := make([]model.AssetSummary, 0, len(assets))
	for _, a := range assets {
		if a.Price > 0 {
			valid = append(valid, a)
		}
	}

	var up, down, flat []model.AssetSummary
	sum := 0.0
	for _, a := range valid {
		sum += a.Variation
		switch {
		case a.Variation > 0:
			up = append(up, a)
		case a.Variation < 0:
			down = append(down, a)
		default:
			flat = append(flat, a)
		}
	}
	sort.SliceStable(up, func(i, j int) bool { return up[i].Variation > up[j].Variation })
	sort.SliceStable(down, func(i, j int) bool { return down[i].Variation < down[j].Variation })

	gainers := rank(up)
	losers := rank(down)
	topLosers := head(losers, TopN)

	stats := model.PanelStats{
		Total:   len(valid),
		Gainers: len(gainers),
		Losers:  len(losers),
		Stable:  len(flat),
	}
	if len(valid) > 0 {
		stats.MeanVariation = sum / float64(len(valid)) * 100
	}

	return &model.Panel{
		Gainers:    gainers,
		Losers:     losers,
		Stable:     rank(flat),
		TopGainers: head(gainers, TopN),
		TopLosers:  topLosers,
		Discounts:  Discounts(topLosers),
		Stats:      stats,
	}
}

// Discounts keeps the given losers that have a known P/VP, cheapest first.
// Callers pass the top losers only; the pool is intentionally not widened
// to every declining asset.
func Discounts(topLosers []model.RankedAsset) []model.DiscountCandidate {
	out := make([]model.DiscountCandidate, 0, len(topLosers))
	for _, a := range topLosers {
		if a.PVP > 0 {
			out = append(out, model.DiscountCandidate{RankedAsset: a, Discount: Discount(a.PVP)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PVP < out[j].PVP })
	return out
}

// Discount returns the percentage below book value, 0 at or above book.
func Discount(pvp float64) float64 {
	if pvp <= 0 || pvp >= 1 {
		return 0
	}
	return (1 - pvp) * 100
}

// Treemap builds the heat-map cells for one side of the panel.
func Treemap(ranked []model.RankedAsset) []model.TreemapCell {
	top := head(ranked, TreemapSize)
	out := make([]model.TreemapCell, len(top))
	for i, a := range top {
		out[i] = model.TreemapCell{
			Name:      a.Ticker,
			Size:      math.Abs(a.Variation) * 100,
			Variation: a.Variation,
			Price:     a.Price,
		}
	}
	return out
}

func rank(assets []model.AssetSummary) []model.RankedAsset {
	out := make([]model.RankedAsset, len(assets))
	for i, a := range assets {
		out[i] = model.RankedAsset{
			Rank:          i + 1,
			Ticker:        model.DisplayTicker(a.Ticker),
			Name:          a.Name,
			Price:         a.Price,
			Variation:     a.Variation * 100,
			Volume:        a.Volume,
			PVP:           a.PVP,
			DividendYield: a.DividendYield,
		}
	}
	return out
}

func head[T any](s []T, n int) []T {
	if len(s) < n {
		n = len(s)
	}
	out := make([]T, n)
	copy(out, s[:n])
	return out
}
