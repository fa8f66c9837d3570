// Package collector pulls fund data from the backend and turns it into the
// panel, quote and dividend views.
package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"FIIDash/internal/calculator"
	"FIIDash/internal/datetime"
	"FIIDash/internal/history"
	"FIIDash/internal/model"
	"FIIDash/internal/ranking"
	"FIIDash/internal/series"
)

// DefaultMovingAverage is the trailing window drawn over daily quotes.
const DefaultMovingAverage = 20

// StaleAfterDays is how old the newest quote may get before the view is
// flagged as outdated.
const StaleAfterDays = 2

// QuoteView is the analysed quote history of one fund.
type QuoteView struct {
	Ticker   string
	Period   Period
	Intraday bool
	Close    model.Series
	// Averages is nil for intraday series.
	Averages    []model.AveragePoint
	Bars        []model.OHLC
	Stats       model.Statistics
	PriceDomain model.DomainRange
	OHLCDomain  model.DomainRange
	Amplitude   float64
	Last        float64
	High        float64
	Low         float64
	// Position is where Last sits within [Low, High], 0.0~1.0.
	Position      float64
	MovingAverage float64
	HasAverage    bool
	// Fresh is true when the newest point is from today.
	Fresh bool
	// Stale is true when the newest point is more than StaleAfterDays
	// calendar days old.
	Stale bool
}

// DividendView is the windowed dividend history of one fund.
type DividendView struct {
	Ticker        string
	Window        series.Window
	Series        model.Series
	Stats         model.Statistics
	Domain        model.DomainRange
	DividendYield float64
}

// Collector orchestrates backend fetches and the analytics pipeline.
type Collector struct {
	source     Source
	history    *history.Cache
	normalizer series.Normalizer
	maWindow   int
	now        func() time.Time
	log        zerolog.Logger

	mu        sync.RWMutex
	latest    *model.Panel
	listeners map[int]func(*model.Panel)
	nextID    int
}

// Option configures a Collector.
type Option func(*Collector)

// WithMovingAverage overrides the daily moving-average window.
func WithMovingAverage(window int) Option {
	return func(c *Collector) {
		if window > 0 {
			c.maWindow = window
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithLocation sets the viewer timezone for labels and freshness.
func WithLocation(loc *time.Location) Option {
	return func(c *Collector) { c.normalizer.Location = loc }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Collector) { c.log = l }
}

// New creates a Collector. hist may be nil when lookups should not be
// remembered.
func New(src Source, hist *history.Cache, opts ...Option) *Collector {
	c := &Collector{
		source:     src,
		history:    hist,
		normalizer: series.Normalizer{Location: time.Local},
		maWindow:   DefaultMovingAverage,
		now:        time.Now,
		log:        zerolog.Nop(),
		listeners:  make(map[int]func(*model.Panel)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "collector").Str("source", src.Name()).Logger()
	return c
}

// Panel fetches the market snapshot and ranks it. The result is kept as the
// latest panel and handed to every subscriber.
func (c *Collector) Panel(ctx context.Context) (*model.Panel, error) {
	snap, err := c.source.FetchPanel(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch panel: %w", err)
	}

	assets, skipped := model.ParseAssets(snap.Assets)
	if skipped > 0 {
		c.log.Warn().Int("skipped", skipped).Msg("dropped invalid asset records")
	}

	panel := ranking.Evaluate(assets)
	panel.UpdatedAt = c.now()
	if t, err := datetime.ParseTimestamp(snap.UpdatedAt, c.location()); err == nil {
		panel.UpdatedAt = t
	}
	c.log.Info().
		Int("total", panel.Stats.Total).
		Int("gainers", panel.Stats.Gainers).
		Int("losers", panel.Stats.Losers).
		Msg("panel updated")

	c.mu.Lock()
	c.latest = panel
	ls := make([]func(*model.Panel), 0, len(c.listeners))
	for _, l := range c.listeners {
		ls = append(ls, l)
	}
	c.mu.Unlock()

	for _, l := range ls {
		l(panel)
	}
	return panel, nil
}

// Latest returns the most recent panel, or nil before the first pull.
func (c *Collector) Latest() *model.Panel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

// Subscribe registers fn for every new panel. The returned function
// unregisters it.
func (c *Collector) Subscribe(fn func(*model.Panel)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// Lookup resolves query through the search endpoint, fetches the matched
// fund, validates it and records it in the history. Fields of the details
// payload the summary does not model are kept on the entry.
func (c *Collector) Lookup(ctx context.Context, query string) (model.HistoryEntry, error) {
	found, err := c.source.Search(ctx, query)
	if err != nil {
		return model.HistoryEntry{}, fmt.Errorf("search %s: %w", query, err)
	}
	if !found.Exists {
		return model.HistoryEntry{}, fmt.Errorf("search %s: %w", query, ErrNotFound)
	}
	ticker := found.Ticker
	if ticker == "" {
		ticker = query
	}

	raw, err := c.source.FetchAsset(ctx, ticker)
	if err != nil {
		return model.HistoryEntry{}, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	asset, err := model.ParseAsset(raw)
	if err != nil {
		return model.HistoryEntry{}, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	entry := model.HistoryEntry{AssetSummary: asset, Extra: raw.Extra}
	c.log.Debug().Str("query", query).Str("ticker", asset.Ticker).Int("extra_fields", len(raw.Extra)).Msg("lookup")
	if c.history == nil {
		entry = entry.Sanitize()
		entry.SearchedAt = c.now().UTC()
		return entry, nil
	}
	return c.history.Add(entry), nil
}

// HourAnalysis fetches the best hours to buy and sell ticker over the last
// month of hourly prices.
func (c *Collector) HourAnalysis(ctx context.Context, ticker string) (*model.HourAnalysis, error) {
	a, err := c.source.FetchHourAnalysis(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetch hour analysis %s: %w", ticker, err)
	}
	c.log.Debug().Str("ticker", ticker).Int("hours", a.Hours).Int("records", a.Records).Msg("hour analysis")
	return a, nil
}

// Refresh re-fetches a remembered fund and patches its history entry in
// place. It reports false when the ticker is not in the history.
func (c *Collector) Refresh(ctx context.Context, ticker string) (bool, error) {
	if c.history == nil || !c.history.Has(ticker) {
		return false, nil
	}
	raw, err := c.source.FetchAsset(ctx, ticker)
	if err != nil {
		return false, fmt.Errorf("refresh %s: %w", ticker, err)
	}
	asset, err := model.ParseAsset(raw)
	if err != nil {
		return false, fmt.Errorf("refresh %s: %w", ticker, err)
	}
	return c.history.Update(ticker, model.AssetPatch{
		Name:          &asset.Name,
		Price:         &asset.Price,
		Variation:     &asset.Variation,
		DividendYield: &asset.DividendYield,
		PVP:           &asset.PVP,
		Volume:        &asset.Volume,
	}), nil
}

// Quotes fetches and analyses the quote history of ticker.
func (c *Collector) Quotes(ctx context.Context, ticker string, period Period) (*QuoteView, error) {
	h, err := c.source.FetchQuotes(ctx, ticker, period)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes %s: %w", ticker, err)
	}
	return c.QuoteView(ticker, period, h), nil
}

// QuoteView runs the quote pipeline over an already fetched history.
func (c *Collector) QuoteView(ticker string, period Period, h *model.QuoteHistory) *QuoteView {
	closes := c.normalizer.Normalize(h.Points, model.FieldClose, h.Intraday)
	bars := c.normalizer.Bars(h.Points, h.Intraday)
	values := closes.Values()

	v := &QuoteView{
		Ticker:      model.DisplayTicker(ticker),
		Period:      period,
		Intraday:    h.Intraday,
		Close:       closes,
		Bars:        bars,
		Stats:       calculator.SeriesStats(closes),
		PriceDomain: calculator.PriceDomain(values),
		OHLCDomain:  calculator.OHLCDomain(bars),
	}
	v.Amplitude = calculator.Amplitude(v.Stats)
	v.Last, _ = calculator.LastValid(values)

	if !h.Intraday {
		avg, err := series.WithMovingAverage(closes, c.maWindow)
		if err != nil {
			c.log.Warn().Err(err).Str("ticker", ticker).Msg("moving average unavailable")
		} else {
			v.Averages = avg
			for i := len(avg) - 1; i >= 0; i-- {
				if avg[i].Valid {
					v.MovingAverage, v.HasAverage = avg[i].Average, true
					break
				}
			}
		}
	}

	if high, low, err := calculator.PeriodRange(bars); err != nil {
		c.log.Debug().Err(err).Str("ticker", ticker).Msg("period range unavailable, using close range")
		v.High, v.Low = v.Stats.Max, v.Stats.Min
	} else {
		v.High, v.Low = high, low
	}
	if pos, err := calculator.RangePosition(v.Last, v.High, v.Low); err != nil {
		v.Position = 0.5
	} else {
		v.Position = pos
	}

	if n := closes.Len(); n > 0 {
		now := c.now().In(c.location())
		last := closes.Points[n-1].Timestamp
		v.Fresh = datetime.IsToday(last, now)
		if days, ok := datetime.DaysSince(last, now); ok {
			v.Stale = days > StaleAfterDays
		}
	}
	return v
}

// Dividends fetches the dividend history of ticker restricted to window.
func (c *Collector) Dividends(ctx context.Context, ticker string, window series.Window) (*DividendView, error) {
	h, err := c.source.FetchDividends(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetch dividends %s: %w", ticker, err)
	}
	return c.DividendView(ticker, window, h), nil
}

// DividendView runs the dividend pipeline over an already fetched history.
// A history without any positive amount gets the [0, 1] axis.
func (c *Collector) DividendView(ticker string, window series.Window, h *model.DividendHistory) *DividendView {
	now := c.now().In(c.location())
	divs := series.FilterDividends(h.Dividends, window, now)
	s := c.normalizer.NormalizeDividends(divs)
	values := s.Values()

	v := &DividendView{
		Ticker: model.DisplayTicker(ticker),
		Window: window,
		Series: s,
		Stats:  calculator.SeriesStats(s),
	}
	if v.Stats.Count == 0 || v.Stats.Max <= 0 {
		v.Domain = model.DomainRange{Low: 0, High: 1}
	} else {
		v.Domain = calculator.DividendDomain(values)
	}
	if h.DividendYield != nil {
		v.DividendYield = *h.DividendYield
	}
	return v
}

func (c *Collector) location() *time.Location {
	if c.normalizer.Location == nil {
		return time.Local
	}
	return c.normalizer.Location
}
