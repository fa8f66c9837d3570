package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Errors returned by the input boundary.
var (
	ErrMissingTicker = errors.New("missing ticker")
	ErrInvalidRecord = errors.New("invalid asset record")
)

// tickerSuffix is the exchange suffix the upstream appends to B3 tickers.
const tickerSuffix = ".SA"

// RawAsset is an asset record exactly as the upstream backend sends it.
// Optional numbers are pointers so a JSON null stays distinguishable from 0.
// Fields the record does not model (52-week range, recent closes) are kept
// in Extra.
type RawAsset struct {
	Ticker        string   `json:"ticker"`
	Name          string   `json:"nome"`
	Price         *float64 `json:"preco_atual"`
	Variation     *float64 `json:"variacao_dia"`
	DividendYield *float64 `json:"dividend_yield"`
	PVP           *float64 `json:"pvp"`
	Volume        *float64 `json:"volume"`

	Extra map[string]json.RawMessage `json:"-"`
}

var knownAssetKeys = map[string]bool{
	"ticker": true, "nome": true, "preco_atual": true, "variacao_dia": true,
	"dividend_yield": true, "pvp": true, "volume": true,
}

// UnmarshalJSON decodes the modelled fields and collects the rest in Extra.
func (r *RawAsset) UnmarshalJSON(data []byte) error {
	type plain RawAsset
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for k, v := range fields {
		if knownAssetKeys[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[k] = v
	}
	*r = RawAsset(p)
	return nil
}

// AssetSummary is the validated snapshot of one fund.
// Variation is a decimal fraction (-0.05 = -5%), DividendYield is already
// percent-scaled, PVP is 0 when the upstream does not know it.
type AssetSummary struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"nome"`
	Price         float64 `json:"preco_atual"`
	Variation     float64 `json:"variacao_dia"`
	DividendYield float64 `json:"dividend_yield"`
	PVP           float64 `json:"pvp"`
	Volume        float64 `json:"volume"`
}

// ParseAsset converts a loosely-typed upstream record into an AssetSummary.
// A missing ticker rejects the record; every other missing or non-finite
// number defaults to 0.
func ParseAsset(raw RawAsset) (AssetSummary, error) {
	ticker := strings.TrimSpace(raw.Ticker)
	if ticker == "" {
		return AssetSummary{}, fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMissingTicker)
	}
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = DisplayTicker(ticker)
	}
	return AssetSummary{
		Ticker:        ticker,
		Name:          name,
		Price:         finiteOrZero(raw.Price),
		Variation:     finiteOrZero(raw.Variation),
		DividendYield: finiteOrZero(raw.DividendYield),
		PVP:           finiteOrZero(raw.PVP),
		Volume:        finiteOrZero(raw.Volume),
	}, nil
}

// Sanitize trims the ticker and resets non-finite numbers to 0, so the
// summary survives a JSON round trip unchanged. The name is kept as is.
func (a AssetSummary) Sanitize() AssetSummary {
	a.Ticker = strings.TrimSpace(a.Ticker)
	a.Price = finiteOrZero(&a.Price)
	a.Variation = finiteOrZero(&a.Variation)
	a.DividendYield = finiteOrZero(&a.DividendYield)
	a.PVP = finiteOrZero(&a.PVP)
	a.Volume = finiteOrZero(&a.Volume)
	return a
}

// ParseAssets validates a batch, skipping rejected records. The second
// return value counts the records that were dropped.
func ParseAssets(raws []RawAsset) ([]AssetSummary, int) {
	out := make([]AssetSummary, 0, len(raws))
	skipped := 0
	for _, r := range raws {
		a, err := ParseAsset(r)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, a)
	}
	return out, skipped
}

// NormalizeTicker returns the cache key for a ticker: trimmed, upper-case,
// without the ".SA" suffix.
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	return strings.TrimSuffix(t, tickerSuffix)
}

// DisplayTicker strips the exchange suffix but keeps the original casing.
func DisplayTicker(ticker string) string {
	t := strings.TrimSpace(ticker)
	if strings.HasSuffix(strings.ToUpper(t), tickerSuffix) {
		return t[:len(t)-len(tickerSuffix)]
	}
	return t
}

func finiteOrZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}
