package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"FIIDash/internal/collector"
	"FIIDash/internal/config"
	"FIIDash/internal/history"
	"FIIDash/internal/logger"
	"FIIDash/internal/storage"
)

const usage = `fiidash - painel analítico de FIIs

Uso:
  fiidash panel [-treemap]
  fiidash quotes <TICKER> [-period 1y] [-points 10]
  fiidash dividends <TICKER> [-window 12m]
  fiidash lookup <TICKER>
  fiidash hours <TICKER>
  fiidash history [list | remove <TICKER> | refresh <TICKER> | clear]
  fiidash chart <TICKER> [-period 1y] [-dividends] [-window 12m] [-out chart.png]
  fiidash monitor [-now]
`

// app bundles the components every subcommand works with.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	out     io.Writer
	history *history.Cache
	col     *collector.Collector
	closers []io.Closer
	now     func() time.Time
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		File:   cfg.Log.File,
		Out:    os.Stderr,
	})
	logger.SetGlobalLogger(log)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	a, err := newApp(cfg, log, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}
	defer a.close()

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("command failed")
		a.close()
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, log zerolog.Logger, out io.Writer) (*app, error) {
	a := &app{cfg: cfg, log: log, out: out, now: time.Now}

	slot, err := a.openSlot()
	if err != nil {
		return nil, err
	}
	a.history = history.New(slot,
		history.WithMaxEntries(cfg.History.MaxEntries),
		history.WithLogger(log),
	)

	src := collector.NewHTTPSource(cfg.Backend.BaseURL, cfg.Proxy, cfg.Backend.Timeout)
	log.Debug().Str("source", src.Name()).Str("base_url", src.BaseURL).Msg("data source")

	a.col = collector.New(src, a.history,
		collector.WithMovingAverage(cfg.Chart.MovingAverage),
		collector.WithLocation(cfg.Location()),
		collector.WithLogger(log),
	)
	return a, nil
}

// openSlot builds the persistence slot for the configured history store.
// A SQLite database that cannot be opened degrades to an in-memory slot.
func (a *app) openSlot() (storage.Slot, error) {
	h := a.cfg.History
	switch h.Store {
	case config.StoreFile:
		return storage.NewFileSlot(h.FilePath), nil
	case config.StoreSQLite:
		s, err := storage.NewSQLiteSlot(h.SQLitePath, h.Key, a.log)
		if err != nil {
			a.log.Warn().Err(err).Msg("init sqlite history failed, using memory")
			return storage.NewMemorySlot(), nil
		}
		a.closers = append(a.closers, s)
		return s, nil
	case config.StoreMemory:
		return storage.NewMemorySlot(), nil
	case config.StoreNone:
		return storage.NewNoopSlot(), nil
	default:
		return nil, fmt.Errorf("unknown history store %q", h.Store)
	}
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close")
		}
	}
	a.closers = nil
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "panel":
		return a.panel(ctx, args)
	case "quotes":
		return a.quotes(ctx, args)
	case "dividends":
		return a.dividends(ctx, args)
	case "lookup":
		return a.lookup(ctx, args)
	case "hours":
		return a.hours(ctx, args)
	case "history":
		return a.historyCmd(ctx, args)
	case "chart":
		return a.chart(ctx, args)
	case "monitor":
		return a.monitor(ctx, args)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}
