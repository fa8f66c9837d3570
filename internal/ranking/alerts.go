package ranking

import "FIIDash/internal/model"

// Thresholds configures the monitoring alerts. Rise and Drop are percent
// variations (1.5 = +1.5%), PVP is the price-to-book ceiling.
type Thresholds struct {
	Rise float64
	Drop float64
	PVP  float64
}

// DefaultThresholds mirrors the monitor defaults.
var DefaultThresholds = Thresholds{Rise: 1.5, Drop: -1.5, PVP: 0.95}

// Alerts lists the gainers at or above Rise, the losers at or below Drop and
// every valid asset priced under PVP times book value.
func Alerts(p *model.Panel, th Thresholds) []model.Alert {
	if p == nil {
		return nil
	}
	var out []model.Alert
	for _, a := range p.Gainers {
		if a.Variation >= th.Rise {
			out = append(out, model.Alert{Kind: model.AlertRise, Asset: a})
		}
	}
	for _, a := range p.Losers {
		if a.Variation <= th.Drop {
			out = append(out, model.Alert{Kind: model.AlertDrop, Asset: a})
		}
	}
	for _, group := range [][]model.RankedAsset{p.Gainers, p.Losers, p.Stable} {
		for _, a := range group {
			if a.PVP > 0 && a.PVP < th.PVP {
				out = append(out, model.Alert{Kind: model.AlertDiscount, Asset: a})
			}
		}
	}
	return out
}
