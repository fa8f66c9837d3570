package main

import (
	"bytes"
	"context"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FIIDash/internal/config"
	"FIIDash/internal/model"
)

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/fiis":
			w.Write([]byte(`{"fiis":[
				{"ticker":"MXRF11.SA","nome":"Maxi Renda","preco_atual":10.5,"variacao_dia":0.021,"pvp":1.02,"volume":1500000},
				{"ticker":"HGLG11.SA","nome":"CSHG Logística","preco_atual":160,"variacao_dia":-0.0175,"pvp":0.85},
				{"ticker":"VISC11.SA","preco_atual":110,"variacao_dia":0}
			],"ultima_atualizacao":"2025-10-22T14:30:00"}`))
		case "/search":
			if model.NormalizeTicker(r.URL.Query().Get("q")) != "HGLG11" {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"erro":"FII não encontrado"}`))
				return
			}
			w.Write([]byte(`{"ticker":"HGLG11.SA","nome":"CSHG Logística","existe":true}`))
		case "/fii/HGLG11":
			w.Write([]byte(`{"ticker":"HGLG11.SA","nome":"CSHG Logística","preco_atual":160,"variacao_dia":-0.0175,"pvp":0.85,
				"minima_52_semanas":150.1,"maxima_52_semanas":171.9}`))
		case "/fii/HGLG11/analise-horarios":
			w.Write([]byte(`{"ticker":"HGLG11.SA","periodo_analise":"30 dias","total_horarios_analisados":2,
				"total_registros":40,"preco_medio_geral":160.5,
				"analise_completa":[
					{"hora":"10:00","hora_num":10,"preco_medio":160,"preco_minimo":159,"preco_maximo":161,"ocorrencias":20,"volume_medio":900},
					{"hora":"16:00","hora_num":16,"preco_medio":161,"preco_minimo":160,"preco_maximo":162,"ocorrencias":20,"volume_medio":1200}],
				"recomendacao":{"melhor_horario_compra":{"hora":"10:00","hora_num":10,"preco_medio":160},
					"melhor_horario_venda":{"hora":"16:00","hora_num":16,"preco_medio":161},"diferenca_percentual":0.63}}`))
		case "/fii/HGLG11/cotacoes":
			w.Write([]byte(`{"ticker":"HGLG11.SA","periodo":"1mo","intradiario":false,"dados":[
				{"data":"2025-10-20","fechamento":158,"maxima":159,"minima":157,"abertura":157.5},
				{"data":"2025-10-21","fechamento":159,"maxima":160,"minima":158,"abertura":158.2},
				{"data":"2025-10-22","fechamento":160,"maxima":161,"minima":159,"abertura":159.1}
			]}`))
		case "/fii/HGLG11/dividendos":
			w.Write([]byte(`{"ticker":"HGLG11.SA","dividendos":[
				{"data_pagamento":"2025-09-15","valor":1.1},
				{"data_pagamento":"2025-10-15","valor":1.2}
			],"dividend_yield":8.5}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"erro":"FII não encontrado"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testApp(t *testing.T, store string) (*app, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Backend.BaseURL = backend(t).URL
	cfg.Backend.Timeout = time.Second
	cfg.History.Store = store
	cfg.History.FilePath = filepath.Join(t.TempDir(), "history.json")
	cfg.History.SQLitePath = filepath.Join(t.TempDir(), "fiidash.db")
	cfg.History.Key = "fii_history"
	cfg.History.MaxEntries = 10
	cfg.Chart.MovingAverage = 2
	cfg.Chart.Width, cfg.Chart.Height = 600, 300
	cfg.Monitor.AlertRise, cfg.Monitor.AlertDrop, cfg.Monitor.AlertPVP = 1.5, -1.5, 0.95
	cfg.Monitor.Timezone = "UTC"

	var out bytes.Buffer
	a, err := newApp(cfg, zerolog.Nop(), &out)
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a, &out
}

func TestParseArgs(t *testing.T) {
	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	period := fs.String("period", "1y", "")
	pos, err := parseArgs(fs, []string{"HGLG11", "-period", "1mo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"HGLG11"}, pos)
	assert.Equal(t, "1mo", *period)

	fs = flag.NewFlagSet("x", flag.ContinueOnError)
	period = fs.String("period", "1y", "")
	pos, err = parseArgs(fs, []string{"-period", "5d", "HGLG11"})
	require.NoError(t, err)
	assert.Equal(t, []string{"HGLG11"}, pos)
	assert.Equal(t, "5d", *period)
}

func TestRun_Panel(t *testing.T) {
	a, out := testApp(t, config.StoreMemory)
	require.NoError(t, a.run(context.Background(), "panel", []string{"-treemap"}))

	s := out.String()
	assert.Contains(t, s, "Atualizado em 22/10/2025 14:30")
	assert.Contains(t, s, "Total: 3 | Alta: 1 | Baixa: 1 | Estável: 1")
	assert.Contains(t, s, "MXRF11")
	assert.Contains(t, s, "1.50M")
	assert.Contains(t, s, "desconto 15.0%")
	assert.Contains(t, s, "TREEMAP BAIXAS")
	assert.Contains(t, s, "alerta DESCONTO")
}

func TestRun_QuotesAndDividends(t *testing.T) {
	a, out := testApp(t, config.StoreMemory)
	ctx := context.Background()

	require.NoError(t, a.run(ctx, "quotes", []string{"HGLG11", "-period", "1mo"}))
	s := out.String()
	assert.Contains(t, s, "HGLG11 · 1mo")
	assert.Contains(t, s, "Último: R$ 160,00")
	assert.Contains(t, s, "Média móvel (2): R$ 159,50")
	assert.Contains(t, s, "Dados desatualizados: última cotação em 22/10/2025")

	out.Reset()
	require.NoError(t, a.run(ctx, "dividends", []string{"HGLG11", "-window", "all"}))
	s = out.String()
	assert.Contains(t, s, "Pagamentos: 2 | Total: R$ 2,30")
	assert.Contains(t, s, "15/10/2025")

	assert.Error(t, a.run(ctx, "quotes", []string{"HGLG11", "-period", "7y"}))
	assert.Error(t, a.run(ctx, "quotes", nil))
}

func TestRun_LookupAndHistory(t *testing.T) {
	a, out := testApp(t, config.StoreFile)
	ctx := context.Background()

	require.NoError(t, a.run(ctx, "lookup", []string{"hglg11"}))
	assert.Contains(t, out.String(), "HGLG11  CSHG Logística")
	assert.True(t, a.history.Has("HGLG11"))

	err := a.run(ctx, "lookup", []string{"ZZZZ11"})
	assert.ErrorContains(t, err, "não encontrado")

	out.Reset()
	require.NoError(t, a.run(ctx, "history", nil))
	assert.Contains(t, out.String(), "HGLG11")
	assert.Contains(t, out.String(), "Agora")

	e, ok := a.history.Get("HGLG11")
	require.True(t, ok)
	assert.JSONEq(t, `171.9`, string(e.Extra["maxima_52_semanas"]))

	a.now = func() time.Time { return e.SearchedAt.Add(3 * time.Hour) }
	out.Reset()
	require.NoError(t, a.run(ctx, "history", []string{"list"}))
	assert.Contains(t, out.String(), "Há 3h")

	require.NoError(t, a.run(ctx, "history", []string{"refresh", "HGLG11"}))
	assert.Error(t, a.run(ctx, "history", []string{"refresh", "MXRF11"}))

	data, err := os.ReadFile(a.cfg.History.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "HGLG11")

	require.NoError(t, a.run(ctx, "history", []string{"remove", "HGLG11"}))
	assert.Error(t, a.run(ctx, "history", []string{"remove", "HGLG11"}))
	require.NoError(t, a.run(ctx, "history", []string{"clear"}))
	assert.Equal(t, 0, a.history.Len())
	assert.Error(t, a.run(ctx, "history", []string{"bogus"}))
}

func TestRun_Hours(t *testing.T) {
	a, out := testApp(t, config.StoreMemory)
	ctx := context.Background()

	require.NoError(t, a.run(ctx, "hours", []string{"hglg11"}))
	s := out.String()
	assert.Contains(t, s, "HGLG11 · horários (30 dias)")
	assert.Contains(t, s, "Horários: 2 | Registros: 40 | Preço médio: R$ 160,50")
	assert.Contains(t, s, "Comprar às 10:00 (R$ 160,00) · Vender às 16:00 (R$ 161,00) · Diferença +0.63%")
	assert.Contains(t, s, "1.20K")

	assert.ErrorContains(t, a.run(ctx, "hours", []string{"MXRF11"}), "sem dados horários")
	assert.Error(t, a.run(ctx, "hours", nil))
}

func TestRun_HistorySQLite(t *testing.T) {
	a, _ := testApp(t, config.StoreSQLite)
	require.NoError(t, a.run(context.Background(), "lookup", []string{"HGLG11"}))
	require.Len(t, a.closers, 1)
}

func TestRun_Chart(t *testing.T) {
	a, _ := testApp(t, config.StoreNone)
	ctx := context.Background()
	dir := t.TempDir()

	quote := filepath.Join(dir, "q.png")
	require.NoError(t, a.run(ctx, "chart", []string{"HGLG11", "-period", "1mo", "-out", quote}))
	img, err := os.ReadFile(quote)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))

	div := filepath.Join(dir, "d.png")
	require.NoError(t, a.run(ctx, "chart", []string{"HGLG11", "-dividends", "-window", "all", "-out", div}))
	_, err = os.Stat(div)
	assert.NoError(t, err)
}

func TestRun_UnknownAndMonitorWithoutTelegram(t *testing.T) {
	a, _ := testApp(t, config.StoreMemory)
	assert.Error(t, a.run(context.Background(), "bogus", nil))
	assert.ErrorContains(t, a.run(context.Background(), "monitor", nil), "telegram.bot_token")
}
