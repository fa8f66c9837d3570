package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the persisted timestamp format: UTC, millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// HistoryEntry is a previously searched asset held by the recency cache.
// Unknown JSON fields are kept in Extra and written back unchanged.
type HistoryEntry struct {
	AssetSummary
	SearchedAt time.Time
	UpdatedAt  *time.Time
	Extra      map[string]json.RawMessage
}

// Key returns the normalized ticker used for deduplication.
func (e HistoryEntry) Key() string { return NormalizeTicker(e.Ticker) }

// Clone returns a copy that shares no memory with e.
func (e HistoryEntry) Clone() HistoryEntry {
	if e.UpdatedAt != nil {
		t := *e.UpdatedAt
		e.UpdatedAt = &t
	}
	if e.Extra != nil {
		extra := make(map[string]json.RawMessage, len(e.Extra))
		for k, v := range e.Extra {
			extra[k] = append(json.RawMessage(nil), v...)
		}
		e.Extra = extra
	}
	return e
}

// Sanitize brings an entry to the shape UnmarshalJSON would produce: the
// asset is sanitized and passthrough fields that are not valid JSON or that
// shadow a known key are dropped. The result is a Clone.
func (e HistoryEntry) Sanitize() HistoryEntry {
	e = e.Clone()
	e.AssetSummary = e.AssetSummary.Sanitize()
	for k, v := range e.Extra {
		if knownHistoryKeys[k] || !json.Valid(v) {
			delete(e.Extra, k)
		}
	}
	if len(e.Extra) == 0 {
		e.Extra = nil
	}
	return e
}

// AssetPatch holds the fields an update may overwrite; nil means keep.
type AssetPatch struct {
	Name          *string
	Price         *float64
	Variation     *float64
	DividendYield *float64
	PVP           *float64
	Volume        *float64
}

// Apply merges the non-nil fields into a.
func (p AssetPatch) Apply(a *AssetSummary) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Price != nil {
		a.Price = *p.Price
	}
	if p.Variation != nil {
		a.Variation = *p.Variation
	}
	if p.DividendYield != nil {
		a.DividendYield = *p.DividendYield
	}
	if p.PVP != nil {
		a.PVP = *p.PVP
	}
	if p.Volume != nil {
		a.Volume = *p.Volume
	}
}

var knownHistoryKeys = map[string]bool{
	"ticker": true, "nome": true, "preco_atual": true, "variacao_dia": true,
	"dividend_yield": true, "pvp": true, "volume": true,
	"searchedAt": true, "updatedAt": true,
}

// MarshalJSON writes the known fields and every passthrough field.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+9)
	for k, v := range e.Extra {
		out[k] = v
	}
	out["ticker"] = e.Ticker
	out["nome"] = e.Name
	out["preco_atual"] = e.Price
	out["variacao_dia"] = e.Variation
	out["dividend_yield"] = e.DividendYield
	out["pvp"] = e.PVP
	out["volume"] = e.Volume
	out["searchedAt"] = e.SearchedAt.UTC().Format(TimestampLayout)
	if e.UpdatedAt != nil {
		out["updatedAt"] = e.UpdatedAt.UTC().Format(TimestampLayout)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a persisted entry. Only ticker and searchedAt are
// required; malformed optional numbers are reset to 0.
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var raw RawAsset
	if err := json.Unmarshal(fields["ticker"], &raw.Ticker); err != nil {
		return fmt.Errorf("ticker: %w", err)
	}
	asset, err := ParseAsset(RawAsset{
		Ticker:        raw.Ticker,
		Name:          stringField(fields["nome"]),
		Price:         numberField(fields["preco_atual"]),
		Variation:     numberField(fields["variacao_dia"]),
		DividendYield: numberField(fields["dividend_yield"]),
		PVP:           numberField(fields["pvp"]),
		Volume:        numberField(fields["volume"]),
	})
	if err != nil {
		return err
	}
	// ParseAsset fills a blank name from the ticker; keep what was stored.
	asset.Name = stringField(fields["nome"])

	searched, err := timeField(fields["searchedAt"])
	if err != nil {
		return fmt.Errorf("searchedAt: %w", err)
	}

	entry := HistoryEntry{AssetSummary: asset, SearchedAt: searched}
	if v, ok := fields["updatedAt"]; ok && string(v) != "null" {
		updated, err := timeField(v)
		if err != nil {
			return fmt.Errorf("updatedAt: %w", err)
		}
		entry.UpdatedAt = &updated
	}
	for k, v := range fields {
		if knownHistoryKeys[k] {
			continue
		}
		if entry.Extra == nil {
			entry.Extra = make(map[string]json.RawMessage)
		}
		entry.Extra[k] = v
	}
	*e = entry
	return nil
}

func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func numberField(raw json.RawMessage) *float64 {
	var f float64
	if len(raw) == 0 || json.Unmarshal(raw, &f) != nil {
		return nil
	}
	return &f
}

func timeField(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
