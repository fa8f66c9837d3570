package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FIIDash/internal/collector"
	"FIIDash/internal/history"
	"FIIDash/internal/model"
	"FIIDash/internal/ranking"
	"FIIDash/internal/storage"
)

var brt = time.FixedZone("BRT", -3*3600)

func f(v float64) *float64 { return &v }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (r *recordingNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return r.err
}

func sampleSource() *collector.MockSource {
	return &collector.MockSource{Assets: []model.RawAsset{
		{Ticker: "MXRF11.SA", Name: "Maxi Renda", Price: f(10.5), Variation: f(0.021), PVP: f(1.02)},
		{Ticker: "HGLG11.SA", Name: "CSHG Logística", Price: f(160), Variation: f(-0.0175), PVP: f(0.85)},
		{Ticker: "KNRI11.SA", Price: f(140), Variation: f(0.001)},
		{Ticker: "VISC11.SA", Price: f(110), Variation: f(0)},
	}}
}

func newTestMonitor(src collector.Source, alerts bool) (*Monitor, *recordingNotifier, *history.Cache) {
	now := func() time.Time { return time.Date(2025, 10, 22, 14, 30, 0, 0, brt) }
	hist := history.New(storage.NewMemorySlot(), history.WithClock(now))
	col := collector.New(src, hist, collector.WithClock(now), collector.WithLocation(brt))
	n := &recordingNotifier{}
	m := NewMonitor(context.Background(), col, hist, n, Config{
		Cron:         "0 */30 * * * 1-5",
		Thresholds:   ranking.DefaultThresholds,
		SessionStart: 10,
		SessionEnd:   17,
		Location:     brt,
		Alerts:       alerts,
	}, zerolog.Nop())
	m.now = now
	return m, n, hist
}

func TestInSession(t *testing.T) {
	m, _, _ := newTestMonitor(sampleSource(), false)
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"wednesday open", time.Date(2025, 10, 22, 10, 0, 0, 0, brt), true},
		{"wednesday before open", time.Date(2025, 10, 22, 9, 59, 0, 0, brt), false},
		{"wednesday last hour", time.Date(2025, 10, 22, 16, 59, 0, 0, brt), true},
		{"wednesday close", time.Date(2025, 10, 22, 17, 0, 0, 0, brt), false},
		{"saturday", time.Date(2025, 10, 25, 12, 0, 0, 0, brt), false},
		{"utc converted", time.Date(2025, 10, 22, 13, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.InSession(tt.at))
		})
	}
}

func TestRunNow_SummaryAndAlerts(t *testing.T) {
	m, n, _ := newTestMonitor(sampleSource(), true)
	require.NoError(t, m.RunNow(context.Background()))

	require.Len(t, n.sent, 4)
	assert.Contains(t, n.sent[0], "MONITOR DE FIIs")
	assert.Contains(t, n.sent[0], "Total analisado: 4 FIIs")
	assert.Contains(t, n.sent[1], "ALTA SIGNIFICATIVA")
	assert.Contains(t, n.sent[1], "MXRF11")
	assert.Contains(t, n.sent[2], "BAIXA SIGNIFICATIVA")
	assert.Contains(t, n.sent[3], "OPORTUNIDADE DE DESCONTO")
	assert.Contains(t, n.sent[3], "HGLG11")
}

func TestRunNow_SummaryOnly(t *testing.T) {
	m, n, _ := newTestMonitor(sampleSource(), false)
	require.NoError(t, m.RunNow(context.Background()))
	assert.Len(t, n.sent, 1)
}

func TestRunNow_FetchError(t *testing.T) {
	m, n, _ := newTestMonitor(&collector.MockSource{Err: errors.New("backend <down>")}, true)
	err := m.RunNow(context.Background())
	require.Error(t, err)
	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "backend &lt;down&gt;")
}

func TestTick_SkipsOutsideSession(t *testing.T) {
	m, n, _ := newTestMonitor(sampleSource(), false)
	m.now = func() time.Time { return time.Date(2025, 10, 26, 12, 0, 0, 0, brt) }
	m.tick()
	assert.Empty(t, n.sent)

	m.now = func() time.Time { return time.Date(2025, 10, 27, 12, 0, 0, 0, brt) }
	m.tick()
	assert.Len(t, n.sent, 1)
}

func TestRegister(t *testing.T) {
	m, _, _ := newTestMonitor(sampleSource(), false)
	require.NoError(t, m.Register())
	assert.Len(t, m.Cron.Entries(), 1)

	m.cfg.Cron = "not a cron"
	assert.Error(t, m.Register())
}

func TestHandleCommand(t *testing.T) {
	m, _, hist := newTestMonitor(sampleSource(), false)
	ctx := context.Background()

	assert.Contains(t, m.HandleCommand(ctx, "/painel"), "MONITOR DE FIIs")
	assert.Equal(t, "🕘 Nenhum FII pesquisado ainda.", m.HandleCommand(ctx, "/historico"))

	reply := m.HandleCommand(ctx, "/fii hglg11")
	assert.Contains(t, reply, "<b>HGLG11</b> CSHG Logística")
	assert.True(t, hist.Has("HGLG11"))
	assert.Contains(t, m.HandleCommand(ctx, "/historico"), "1. <b>HGLG11</b>")

	assert.Equal(t, "🔍 FII ZZZZ11 não encontrado.", m.HandleCommand(ctx, "/fii zzzz11"))
	assert.Equal(t, "Uso: /fii TICKER", m.HandleCommand(ctx, "/fii"))
	assert.True(t, strings.HasPrefix(m.HandleCommand(ctx, "/start"), "Comandos disponíveis"))
	assert.Empty(t, m.HandleCommand(ctx, "   "))
}
