package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FIIDash/internal/model"
)

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	n.APIBase = url
	return n
}

func TestSend(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).Send("<b>oi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "<b>oi</b>", got["text"])
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).Send("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

type flakySender struct {
	mu    sync.Mutex
	fails int
	calls int
}

func (f *flakySender) Send(string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.fails {
		return errors.New("temporary")
	}
	return nil
}

func TestSendWithRetry(t *testing.T) {
	s := &flakySender{fails: 2}
	err := sendWithRetry(context.Background(), s, "x", 3, time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 3, s.calls)

	s = &flakySender{fails: 10}
	err = sendWithRetry(context.Background(), s, "x", 2, time.Millisecond, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 retries exhausted")
	assert.Equal(t, 3, s.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s = &flakySender{fails: 10}
	err = sendWithRetry(ctx, s, "x", 5, time.Hour, zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, s.calls)
}

func TestPoll_DispatchesCommands(t *testing.T) {
	var replies []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			assert.Equal(t, "7", r.URL.Query().Get("offset"))
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":" /painel "}},
				{"update_id":8},
				{"update_id":9,"message":{"text":"/noop"}}
			]}`))
		case "/botTOKEN/sendMessage":
			var p map[string]any
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, &p)
			mu.Lock()
			replies = append(replies, p["text"].(string))
			mu.Unlock()
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	var commands []string
	next, err := n.poll(context.Background(), srv.Client(), 7, func(_ context.Context, cmd string) string {
		commands = append(commands, cmd)
		if cmd == "/painel" {
			return "resumo"
		}
		return ""
	})
	require.NoError(t, err)
	assert.Equal(t, 10, next)
	assert.Equal(t, []string{"/painel", "/noop"}, commands)
	assert.Equal(t, []string{"resumo"}, replies)
}

func TestStartPolling_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		newTestNotifier("http://127.0.0.1:0").StartPolling(ctx, func(context.Context, string) string { return "" })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not stop")
	}
}

func samplePanel() *model.Panel {
	return &model.Panel{
		TopGainers: []model.RankedAsset{{Rank: 1, Ticker: "MXRF11", Price: 10.5, Variation: 2.1, DividendYield: 12.3, PVP: 1.02}},
		TopLosers:  []model.RankedAsset{{Rank: 1, Ticker: "HGLG11", Price: 160, Variation: -1.75, PVP: 0.85}},
		Discounts: []model.DiscountCandidate{{
			RankedAsset: model.RankedAsset{Rank: 1, Ticker: "HGLG11", Price: 160, Variation: -1.75, PVP: 0.85},
			Discount:    15,
		}},
		Stats: model.PanelStats{Total: 4, Gainers: 1, Losers: 1, Stable: 2, MeanVariation: 0.0875},
	}
}

func TestFormatPanelSummary(t *testing.T) {
	now := time.Date(2025, 10, 22, 14, 30, 0, 0, time.UTC)
	msg := FormatPanelSummary(samplePanel(), now)

	assert.Contains(t, msg, "📅 22/10/2025 14:30")
	assert.Contains(t, msg, "Total analisado: 4 FIIs")
	assert.Contains(t, msg, "Em alta: 1 (25.0%)")
	assert.Contains(t, msg, "Estável: 2 (50.0%)")
	assert.Contains(t, msg, "Variação média: +0.09%")
	assert.Contains(t, msg, "1. <b>MXRF11</b>: R$ 10,50 📈 +2.10%")
	assert.Contains(t, msg, "DY: 12.30% | P/VP: 1.02")
	assert.Contains(t, msg, "1. <b>HGLG11</b>: R$ 160,00 📉 -1.75%")
	assert.Contains(t, msg, "P/VP 0.85 (Desconto: 15.0%)")
}

func TestFormatPanelSummary_NoDiscounts(t *testing.T) {
	p := samplePanel()
	p.Discounts = nil
	p.TopGainers = nil
	msg := FormatPanelSummary(p, time.Now())
	assert.Contains(t, msg, "Sem dados de P/VP nas maiores baixas")
	assert.NotContains(t, msg, "MAIORES ALTAS")
}

func TestFormatAlert(t *testing.T) {
	now := time.Date(2025, 10, 22, 14, 30, 0, 0, time.UTC)
	asset := model.RankedAsset{Ticker: "KNRI11", Price: 140, Variation: -2, PVP: 0.9, Volume: 15300}

	msg := FormatAlert(model.Alert{Kind: model.AlertDrop, Asset: asset}, now)
	assert.True(t, strings.HasPrefix(msg, "⚠️ <b>BAIXA SIGNIFICATIVA</b>"))
	assert.Contains(t, msg, "💰 Preço: R$ 140,00")
	assert.Contains(t, msg, "📉 -2.00%")
	assert.Contains(t, msg, "P/VP: 0.90 (Desconto: 10.0%)")
	assert.Contains(t, msg, "Volume: 15.30K")

	rise := FormatAlert(model.Alert{Kind: model.AlertRise, Asset: asset}, now)
	assert.Contains(t, rise, "ALTA SIGNIFICATIVA")
	disc := FormatAlert(model.Alert{Kind: model.AlertDiscount, Asset: asset}, now)
	assert.Contains(t, disc, "OPORTUNIDADE DE DESCONTO")
}

func TestFormatAssetAndHistory(t *testing.T) {
	a := model.AssetSummary{Ticker: "XPML11.SA", Name: "XP Malls & Co", Price: 110, Variation: 0.0123}
	msg := FormatAsset(a)
	assert.Contains(t, msg, "<b>XPML11</b> XP Malls &amp; Co")
	assert.Contains(t, msg, "📈 +1.23%")

	now := time.Date(2025, 10, 22, 17, 5, 0, 0, time.UTC)
	assert.Equal(t, "🕘 Nenhum FII pesquisado ainda.", FormatHistory(nil, now, time.UTC))

	old := model.AssetSummary{Ticker: "HGLG11.SA", Price: 160}
	entries := []model.HistoryEntry{
		{AssetSummary: a, SearchedAt: time.Date(2025, 10, 22, 17, 0, 0, 0, time.UTC)},
		{AssetSummary: old, SearchedAt: time.Date(2025, 10, 14, 1, 0, 0, 0, time.UTC)},
	}
	list := FormatHistory(entries, now, time.FixedZone("BRT", -3*3600))
	assert.Contains(t, list, "1. <b>XPML11</b> R$ 110,00 +1.23% · Há 5 min")
	assert.Contains(t, list, "2. <b>HGLG11</b> R$ 160,00 +0.00% · 13/10")
}

func TestFormatVariation(t *testing.T) {
	assert.Equal(t, "📈 +1.50%", FormatVariation(1.5))
	assert.Equal(t, "📉 -0.25%", FormatVariation(-0.25))
	assert.Equal(t, "➖ 0.00%", FormatVariation(0))
}
