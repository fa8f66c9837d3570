// Package history keeps the bounded, most-recently-searched list of assets.
package history

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"FIIDash/internal/model"
	"FIIDash/internal/storage"
)

const (
	// DefaultKey is the slot name the list is persisted under.
	DefaultKey = "fii_history"
	// DefaultMaxEntries bounds the list.
	DefaultMaxEntries = 10
)

// Listener receives a snapshot of the list after every mutation.
type Listener func(entries []model.HistoryEntry)

// Cache is a deduplicated most-recently-searched list bounded at max entries.
// Every mutation is persisted to the slot before listeners are notified.
type Cache struct {
	mu        sync.Mutex
	entries   []model.HistoryEntry
	slot      storage.Slot
	max       int
	now       func() time.Time
	log       zerolog.Logger
	listeners map[int]Listener
	nextID    int
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxEntries overrides the bound; values below 1 are ignored.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.max = n
		}
	}
}

// WithClock overrides the time source used for searchedAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// New creates a Cache and loads its state from slot. A missing or corrupt
// slot starts an empty list.
func New(slot storage.Slot, opts ...Option) *Cache {
	if slot == nil {
		slot = storage.NewNoopSlot()
	}
	c := &Cache{
		slot:      slot,
		max:       DefaultMaxEntries,
		now:       time.Now,
		log:       zerolog.Nop(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "history").Logger()
	c.entries = c.load()
	return c
}

// Add moves the asset to the front stamped with the current time, dropping
// any previous entry with the same ticker key and evicting past the bound.
// The entry is sanitized first so what is kept matches what a reload reads
// back; an entry without a ticker is not stored.
func (c *Cache) Add(entry model.HistoryEntry) model.HistoryEntry {
	entry = entry.Sanitize()
	if entry.Ticker == "" {
		c.log.Warn().Msg("ignoring history entry without ticker")
		return entry
	}
	c.mu.Lock()
	entry.SearchedAt = c.stamp()
	entry.UpdatedAt = nil
	key := entry.Key()

	next := make([]model.HistoryEntry, 0, len(c.entries)+1)
	next = append(next, entry.Clone())
	for _, e := range c.entries {
		if e.Key() != key {
			next = append(next, e)
		}
	}
	if len(next) > c.max {
		evicted := next[c.max:]
		for _, e := range evicted {
			c.log.Debug().Str("ticker", e.Ticker).Msg("evicted from history")
		}
		next = next[:c.max]
	}
	c.entries = next
	snap := c.commit()
	c.mu.Unlock()

	c.notify(snap)
	return entry
}

// AddAsset is Add for a bare asset summary.
func (c *Cache) AddAsset(a model.AssetSummary) model.HistoryEntry {
	return c.Add(model.HistoryEntry{AssetSummary: a})
}

// Remove drops the entry for ticker. It reports whether one was removed.
func (c *Cache) Remove(ticker string) bool {
	key := model.NormalizeTicker(ticker)
	c.mu.Lock()
	idx := c.indexOf(key)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	next := make([]model.HistoryEntry, 0, len(c.entries)-1)
	next = append(next, c.entries[:idx]...)
	next = append(next, c.entries[idx+1:]...)
	c.entries = next
	snap := c.commit()
	c.mu.Unlock()

	c.notify(snap)
	return true
}

// Clear empties the list.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = nil
	snap := c.commit()
	c.mu.Unlock()

	c.notify(snap)
}

// Update merges patch into the entry for ticker and stamps updatedAt.
// It reports false, without touching the slot, when ticker is absent.
func (c *Cache) Update(ticker string, patch model.AssetPatch) bool {
	key := model.NormalizeTicker(ticker)
	c.mu.Lock()
	idx := c.indexOf(key)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	next := c.clone()
	e := next[idx]
	patch.Apply(&e.AssetSummary)
	e.AssetSummary = e.AssetSummary.Sanitize()
	updated := c.stamp()
	e.UpdatedAt = &updated
	next[idx] = e
	c.entries = next
	snap := c.commit()
	c.mu.Unlock()

	c.notify(snap)
	return true
}

// Get returns the entry for ticker.
func (c *Cache) Get(ticker string) (model.HistoryEntry, bool) {
	key := model.NormalizeTicker(ticker)
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexOf(key); idx >= 0 {
		return c.entries[idx].Clone(), true
	}
	return model.HistoryEntry{}, false
}

// Has reports whether ticker is in the list.
func (c *Cache) Has(ticker string) bool {
	_, ok := c.Get(ticker)
	return ok
}

// Entries returns a copy of the list, most recently searched first.
func (c *Cache) Entries() []model.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clone()
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Max returns the configured bound.
func (c *Cache) Max() int { return c.max }

// Subscribe registers l for mutation notifications. The returned function
// unregisters it.
func (c *Cache) Subscribe(l Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
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

func (c *Cache) indexOf(key string) int {
	for i, e := range c.entries {
		if e.Key() == key {
			return i
		}
	}
	return -1
}

// clone deep-copies the list so callers never alias cached entries.
func (c *Cache) clone() []model.HistoryEntry {
	out := make([]model.HistoryEntry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Clone()
	}
	return out
}

func (c *Cache) stamp() time.Time {
	return c.now().UTC().Truncate(time.Millisecond)
}

// commit persists the current list and returns the snapshot and listeners
// to notify. Caller holds c.mu.
func (c *Cache) commit() notification {
	c.save()
	ls := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		ls = append(ls, l)
	}
	return notification{entries: c.clone(), listeners: ls}
}

type notification struct {
	entries   []model.HistoryEntry
	listeners []Listener
}

func (c *Cache) notify(n notification) {
	for _, l := range n.listeners {
		l(n.entries)
	}
}

func (c *Cache) save() {
	entries := c.entries
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to encode history")
		return
	}
	if err := c.slot.Save(data); err != nil {
		c.log.Error().Err(err).Msg("failed to save history")
	}
}

// load reads the slot and re-applies dedup and the size bound to
// whatever was stored.
func (c *Cache) load() []model.HistoryEntry {
	data, err := c.slot.Load()
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to load history, starting empty")
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	var stored []json.RawMessage
	if err := json.Unmarshal(data, &stored); err != nil {
		c.log.Warn().Err(err).Msg("corrupt history, starting empty")
		return nil
	}

	seen := make(map[string]bool, len(stored))
	out := make([]model.HistoryEntry, 0, len(stored))
	for i, raw := range stored {
		var e model.HistoryEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			c.log.Warn().Err(err).Int("index", i).Msg("skipping malformed history entry")
			continue
		}
		if seen[e.Key()] {
			continue
		}
		seen[e.Key()] = true
		out = append(out, e)
		if len(out) == c.max {
			break
		}
	}
	return out
}
