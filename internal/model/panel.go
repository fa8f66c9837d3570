package model

import "time"

// RankedAsset is an AssetSummary projected for the ranking tables.
// Variation is percent-scaled here (2.5 = +2.5%).
type RankedAsset struct {
	Rank          int     `json:"rank"`
	Ticker        string  `json:"ticker"`
	Name          string  `json:"nome"`
	Price         float64 `json:"preco"`
	Variation     float64 `json:"variacao"`
	Volume        float64 `json:"volume"`
	PVP           float64 `json:"pvp"`
	DividendYield float64 `json:"dy"`
}

// DiscountCandidate is a top-5 loser with a known P/VP.
// Discount is (1-PVP)*100 when PVP < 1, otherwise 0.
type DiscountCandidate struct {
	RankedAsset
	Discount float64 `json:"desconto"`
}

// PanelStats aggregates the whole valid snapshot.
type PanelStats struct {
	Total         int     `json:"total"`
	Gainers       int     `json:"emAlta"`
	Losers        int     `json:"emBaixa"`
	Stable        int     `json:"estaveis"`
	MeanVariation float64 `json:"variacaoMedia"`
}

// TreemapCell is one rectangle of the gainers/losers heat map.
type TreemapCell struct {
	Name      string  `json:"name"`
	Size      float64 `json:"size"`
	Variation float64 `json:"variacao"`
	Price     float64 `json:"preco"`
}

// Panel is the ranked view of a market snapshot.
type Panel struct {
	Gainers    []RankedAsset       `json:"todosAltas"`
	Losers     []RankedAsset       `json:"todosBaixas"`
	Stable     []RankedAsset       `json:"todosEstaveis"`
	TopGainers []RankedAsset       `json:"top5Altas"`
	TopLosers  []RankedAsset       `json:"top5Baixas"`
	Discounts  []DiscountCandidate `json:"maioresDescontos"`
	Stats      PanelStats          `json:"estatisticas"`
	UpdatedAt  time.Time           `json:"ultimaAtualizacao,omitempty"`
}

// AlertKind classifies a monitoring alert.
type AlertKind string

const (
	AlertRise     AlertKind = "ALTA"
	AlertDrop     AlertKind = "BAIXA"
	AlertDiscount AlertKind = "DESCONTO"
)

// Alert flags one asset that crossed a monitoring threshold.
type Alert struct {
	Kind  AlertKind
	Asset RankedAsset
}
