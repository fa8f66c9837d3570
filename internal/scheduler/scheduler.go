package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"FIIDash/internal/collector"
	"FIIDash/internal/history"
	"FIIDash/internal/model"
	"FIIDash/internal/notifier"
	"FIIDash/internal/ranking"
)

const helpText = "Comandos disponíveis:\n" +
	"• /painel - resumo do mercado de FIIs\n" +
	"• /historico - FIIs pesquisados recentemente\n" +
	"• /fii TICKER - consulta um fundo"

// Notifier delivers a message, retrying transient failures.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Config controls when the monitor runs and what it alerts on.
type Config struct {
	Cron         string
	Thresholds   ranking.Thresholds
	SessionStart int // first hour of the trading session
	SessionEnd   int // hour the session closes, exclusive
	Location     *time.Location
	Alerts       bool // also send one message per alert after the summary
}

// Monitor manages the cron task that watches the FII panel.
type Monitor struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	History   *history.Cache
	Notifier  Notifier
	Ctx       context.Context

	cfg Config
	now func() time.Time
	log zerolog.Logger
}

// NewMonitor creates a new Monitor.
func NewMonitor(ctx context.Context, col *collector.Collector, hist *history.Cache, n Notifier, cfg Config, log zerolog.Logger) *Monitor {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Monitor{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLocation(cfg.Location)),
		Collector: col,
		History:   hist,
		Notifier:  n,
		Ctx:       ctx,
		cfg:       cfg,
		now:       time.Now,
		log:       log.With().Str("component", "monitor").Logger(),
	}
}

// Register adds the panel check to the cron schedule.
func (m *Monitor) Register() error {
	if _, err := m.Cron.AddFunc(m.cfg.Cron, m.tick); err != nil {
		return fmt.Errorf("register monitor task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (m *Monitor) Start() {
	m.Cron.Start()
	m.log.Info().Str("cron", m.cfg.Cron).Msg("monitor started")
}

// Stop stops the cron scheduler gracefully.
func (m *Monitor) Stop() {
	<-m.Cron.Stop().Done()
	m.log.Info().Msg("monitor stopped")
}

// InSession reports whether t falls on a weekday inside the trading hours.
func (m *Monitor) InSession(t time.Time) bool {
	t = t.In(m.cfg.Location)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return t.Hour() >= m.cfg.SessionStart && t.Hour() < m.cfg.SessionEnd
}

func (m *Monitor) tick() {
	now := m.now()
	if !m.InSession(now) {
		m.log.Debug().Time("at", now).Msg("outside trading session, skipping")
		return
	}
	if err := m.RunNow(m.Ctx); err != nil {
		m.log.Error().Err(err).Msg("monitor run failed")
	}
}

// RunNow pulls the panel and sends the summary, followed by the alerts
// when enabled. It ignores the trading session.
func (m *Monitor) RunNow(ctx context.Context) error {
	p, err := m.Collector.Panel(ctx)
	if err != nil {
		m.trySend(ctx, fmt.Sprintf("❌ Falha ao buscar o painel de FIIs: %s", html.EscapeString(err.Error())))
		return err
	}
	now := m.now().In(m.cfg.Location)
	m.trySend(ctx, notifier.FormatPanelSummary(p, now))

	if !m.cfg.Alerts {
		return nil
	}
	alerts := ranking.Alerts(p, m.cfg.Thresholds)
	for _, a := range alerts {
		m.trySend(ctx, notifier.FormatAlert(a, now))
	}
	m.log.Info().Int("assets", p.Stats.Total).Int("alerts", len(alerts)).Msg("monitor run complete")
	return nil
}

// HandleCommand processes a user command and returns a reply.
func (m *Monitor) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	switch strings.ToLower(fields[0]) {
	case "/painel":
		p, err := m.Collector.Panel(ctx)
		if err != nil {
			return fmt.Sprintf("❌ Falha ao buscar o painel: %s", html.EscapeString(err.Error()))
		}
		return notifier.FormatPanelSummary(p, m.now().In(m.cfg.Location))
	case "/historico":
		var entries []model.HistoryEntry
		if m.History != nil {
			entries = m.History.Entries()
		}
		return notifier.FormatHistory(entries, m.now(), m.cfg.Location)
	case "/fii":
		if len(fields) < 2 {
			return "Uso: /fii TICKER"
		}
		entry, err := m.Collector.Lookup(ctx, fields[1])
		if errors.Is(err, collector.ErrNotFound) {
			return fmt.Sprintf("🔍 FII %s não encontrado.", html.EscapeString(strings.ToUpper(fields[1])))
		}
		if err != nil {
			return fmt.Sprintf("❌ Falha na consulta: %s", html.EscapeString(err.Error()))
		}
		return notifier.FormatAsset(entry.AssetSummary)
	default:
		return helpText
	}
}

func (m *Monitor) trySend(ctx context.Context, text string) {
	if err := m.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		m.log.Error().Err(err).Msg("send notification")
	}
}
