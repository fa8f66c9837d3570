package model

// Snapshot is one pull of the market panel endpoint.
type Snapshot struct {
	Assets    []RawAsset `json:"fiis"`
	UpdatedAt string     `json:"ultima_atualizacao,omitempty"`
}

// QuoteHistory is the quotes endpoint payload for one ticker and period.
type QuoteHistory struct {
	Ticker   string     `json:"ticker"`
	Period   string     `json:"periodo"`
	Intraday bool       `json:"intradiario"`
	Points   []RawPoint `json:"dados"`
}

// DividendHistory is the dividends endpoint payload for one ticker.
// DividendYield is the trailing twelve-month yield as a decimal fraction.
type DividendHistory struct {
	Ticker        string        `json:"ticker"`
	Dividends     []RawDividend `json:"dividendos"`
	DividendYield *float64      `json:"dividend_yield"`
}

// SearchResult is the search endpoint payload. Ticker carries the exchange
// suffix the details endpoint expects.
type SearchResult struct {
	Ticker string `json:"ticker"`
	Name   string `json:"nome"`
	Exists bool   `json:"existe"`
}

// HourStat aggregates the intraday prices seen in one clock hour.
type HourStat struct {
	Hour        string  `json:"hora"`
	HourNum     int     `json:"hora_num"`
	AvgPrice    float64 `json:"preco_medio"`
	MinPrice    float64 `json:"preco_minimo"`
	MaxPrice    float64 `json:"preco_maximo"`
	Occurrences int     `json:"ocorrencias"`
	AvgVolume   float64 `json:"volume_medio"`
}

// HourRecommendation pairs the cheapest and the most expensive hour; both
// are nil when no hour was analysed. Spread is the percent difference
// between their average prices.
type HourRecommendation struct {
	BestBuy  *HourStat `json:"melhor_horario_compra"`
	BestSell *HourStat `json:"melhor_horario_venda"`
	Spread   float64   `json:"diferenca_percentual"`
}

// HourAnalysis is the best-hours endpoint payload for one ticker.
type HourAnalysis struct {
	Ticker         string             `json:"ticker"`
	Period         string             `json:"periodo_analise"`
	Hours          int                `json:"total_horarios_analisados"`
	Records        int                `json:"total_registros"`
	AvgPrice       float64            `json:"preco_medio_geral"`
	All            []HourStat         `json:"analise_completa"`
	BestBuy        []HourStat         `json:"melhores_horarios_compra"`
	BestSell       []HourStat         `json:"melhores_horarios_venda"`
	Recommendation HourRecommendation `json:"recomendacao"`
}
