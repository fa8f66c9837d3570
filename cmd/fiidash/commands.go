package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"FIIDash/internal/collector"
	"FIIDash/internal/datetime"
	"FIIDash/internal/display"
	"FIIDash/internal/model"
	"FIIDash/internal/notifier"
	"FIIDash/internal/ranking"
	"FIIDash/internal/render"
	"FIIDash/internal/scheduler"
	"FIIDash/internal/series"
)

// parseArgs accepts the ticker either before or after the flags.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	var positional []string
	rest := fs.Args()
	for len(rest) > 0 {
		positional = append(positional, rest[0])
		if err := fs.Parse(rest[1:]); err != nil {
			return nil, err
		}
		rest = fs.Args()
	}
	return positional, nil
}

func requireTicker(cmd string, positional []string) (string, error) {
	if len(positional) == 0 || strings.TrimSpace(positional[0]) == "" {
		return "", fmt.Errorf("%s: ticker is required", cmd)
	}
	return positional[0], nil
}

func (a *app) panel(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("panel", flag.ContinueOnError)
	treemap := fs.Bool("treemap", false, "print the heat-map cells")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	p, err := a.col.Panel(ctx)
	if err != nil {
		return err
	}

	st := p.Stats
	fmt.Fprintf(a.out, "Atualizado em %s\n", p.UpdatedAt.In(a.cfg.Location()).Format("02/01/2006 15:04"))
	fmt.Fprintf(a.out, "Total: %d | Alta: %d | Baixa: %d | Estável: %d | Variação média: %s\n\n",
		st.Total, st.Gainers, st.Losers, st.Stable, display.Percent(st.MeanVariation, 2))

	a.printRanking("MAIORES ALTAS", p.TopGainers)
	a.printRanking("MAIORES BAIXAS", p.TopLosers)

	if len(p.Discounts) > 0 {
		fmt.Fprintln(a.out, "OPORTUNIDADES P/VP")
		w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		for i, d := range p.Discounts {
			fmt.Fprintf(w, "%d\t%s\tP/VP %.2f\tdesconto %.1f%%\t%s\n",
				i+1, d.Ticker, d.PVP, display.Round(d.Discount, 1), display.Currency(d.Price))
		}
		w.Flush()
		fmt.Fprintln(a.out)
	}

	if *treemap {
		for _, side := range []struct {
			title string
			cells []model.TreemapCell
		}{
			{"TREEMAP ALTAS", ranking.Treemap(p.Gainers)},
			{"TREEMAP BAIXAS", ranking.Treemap(p.Losers)},
		} {
			fmt.Fprintln(a.out, side.title)
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			for _, c := range side.cells {
				fmt.Fprintf(w, "%s\t%.0f\t%s\t%s\n", c.Name, c.Size, display.Percent(c.Variation, 2), display.Currency(c.Price))
			}
			w.Flush()
			fmt.Fprintln(a.out)
		}
	}

	for _, al := range ranking.Alerts(p, ranking.Thresholds{
		Rise: a.cfg.Monitor.AlertRise,
		Drop: a.cfg.Monitor.AlertDrop,
		PVP:  a.cfg.Monitor.AlertPVP,
	}) {
		fmt.Fprintf(a.out, "alerta %-8s %s %s\n", al.Kind, al.Asset.Ticker, display.Percent(al.Asset.Variation, 2))
	}
	return nil
}

func (a *app) printRanking(title string, assets []model.RankedAsset) {
	if len(assets) == 0 {
		return
	}
	fmt.Fprintln(a.out, title)
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTICKER\tPREÇO\tVAR\tDY\tP/VP\tVOLUME")
	for _, r := range assets {
		pvp := "-"
		if r.PVP > 0 {
			pvp = fmt.Sprintf("%.2f", r.PVP)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f%%\t%s\t%s\n",
			r.Rank, r.Ticker, display.Currency(r.Price), display.Percent(r.Variation, 2),
			r.DividendYield, pvp, display.Compact(r.Volume))
	}
	w.Flush()
	fmt.Fprintln(a.out)
}

func (a *app) quotes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("quotes", flag.ContinueOnError)
	period := fs.String("period", string(collector.DefaultPeriod), "1d|5d|1mo|3mo|6mo|1y|2y|5y|max")
	points := fs.Int("points", 10, "number of trailing points to print")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	ticker, err := requireTicker("quotes", positional)
	if err != nil {
		return err
	}
	p, err := collector.ParsePeriod(*period)
	if err != nil {
		return err
	}

	v, err := a.col.Quotes(ctx, ticker, p)
	if err != nil {
		return err
	}
	if v.Close.Len() == 0 {
		fmt.Fprintf(a.out, "%s: sem cotações para %s\n", model.DisplayTicker(ticker), p)
		return nil
	}

	fmt.Fprintf(a.out, "%s · %s", model.DisplayTicker(v.Ticker), v.Period)
	if v.Intraday {
		fmt.Fprint(a.out, " (intradiário)")
	}
	if v.Fresh {
		fmt.Fprint(a.out, " · hoje")
	}
	fmt.Fprintln(a.out)
	if v.Stale {
		fmt.Fprintf(a.out, "⚠ Dados desatualizados: última cotação em %s\n",
			datetime.Format(v.Close.Points[v.Close.Len()-1].Timestamp, datetime.Full))
	}
	fmt.Fprintf(a.out, "Último: %s | Máx: %s | Mín: %s | Média: %s\n",
		display.Currency(v.Last), display.Currency(v.High), display.Currency(v.Low), display.Currency(v.Stats.Avg))
	fmt.Fprintf(a.out, "Amplitude: %s | Posição no intervalo: %.0f%%\n",
		display.Percent(v.Amplitude, 2), v.Position*100)
	if v.HasAverage {
		fmt.Fprintf(a.out, "Média móvel (%d): %s\n", a.cfg.Chart.MovingAverage, display.Currency(v.MovingAverage))
	}
	fmt.Fprintf(a.out, "Eixo: %s – %s\n\n", display.Currency(v.PriceDomain.Low), display.Currency(v.PriceDomain.High))

	pts := v.Close.Points
	if *points > 0 && len(pts) > *points {
		pts = pts[len(pts)-*points:]
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, pt := range pts {
		fmt.Fprintf(w, "%s\t%s\n", pt.Label, display.Currency(pt.Value))
	}
	return w.Flush()
}

func (a *app) dividends(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dividends", flag.ContinueOnError)
	window := fs.String("window", string(series.Window12M), "6m|12m|24m|all")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	ticker, err := requireTicker("dividends", positional)
	if err != nil {
		return err
	}
	win, err := series.ParseWindow(*window)
	if err != nil {
		return err
	}

	v, err := a.col.Dividends(ctx, ticker, win)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s · dividendos %s\n", model.DisplayTicker(v.Ticker), v.Window)
	if v.Stats.Count == 0 {
		fmt.Fprintln(a.out, "Nenhum dividendo no período.")
		return nil
	}
	fmt.Fprintf(a.out, "Pagamentos: %d | Total: %s | Média: %s | Máx: %s\n",
		v.Stats.Count, display.Currency(v.Stats.Total), display.Currency(v.Stats.Avg), display.Currency(v.Stats.Max))
	if v.DividendYield > 0 {
		fmt.Fprintf(a.out, "Dividend yield: %.2f%%\n", v.DividendYield)
	}
	fmt.Fprintln(a.out)

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, pt := range v.Series.Points {
		fmt.Fprintf(w, "%s\t%s\n", datetime.Format(pt.Timestamp, datetime.Full), display.Currency(pt.Value))
	}
	return w.Flush()
}

func (a *app) lookup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	ticker, err := requireTicker("lookup", positional)
	if err != nil {
		return err
	}
	e, err := a.col.Lookup(ctx, ticker)
	if errors.Is(err, collector.ErrNotFound) {
		return fmt.Errorf("FII %s não encontrado", model.DisplayTicker(ticker))
	}
	if err != nil {
		return err
	}
	a.printAsset(e.AssetSummary)
	return nil
}

func (a *app) hours(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("hours", flag.ContinueOnError)
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	ticker, err := requireTicker("hours", positional)
	if err != nil {
		return err
	}
	h, err := a.col.HourAnalysis(ctx, ticker)
	if errors.Is(err, collector.ErrNotFound) {
		return fmt.Errorf("sem dados horários para %s", model.DisplayTicker(ticker))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s · horários (%s)\n", model.DisplayTicker(h.Ticker), h.Period)
	fmt.Fprintf(a.out, "Horários: %d | Registros: %d | Preço médio: %s\n",
		h.Hours, h.Records, display.Currency(h.AvgPrice))
	rec := h.Recommendation
	if rec.BestBuy != nil && rec.BestSell != nil {
		fmt.Fprintf(a.out, "Comprar às %s (%s) · Vender às %s (%s) · Diferença %s\n",
			rec.BestBuy.Hour, display.Currency(rec.BestBuy.AvgPrice),
			rec.BestSell.Hour, display.Currency(rec.BestSell.AvgPrice),
			display.Percent(rec.Spread, 2))
	}
	fmt.Fprintln(a.out)

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HORA\tMÉDIO\tMÍN\tMÁX\tOCORR.\tVOLUME")
	for _, s := range h.All {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", s.Hour,
			display.Currency(s.AvgPrice), display.Currency(s.MinPrice), display.Currency(s.MaxPrice),
			s.Occurrences, display.Compact(s.AvgVolume))
	}
	return w.Flush()
}

func (a *app) printAsset(s model.AssetSummary) {
	fmt.Fprintf(a.out, "%s  %s\n", model.DisplayTicker(s.Ticker), s.Name)
	fmt.Fprintf(a.out, "Preço: %s  Variação: %s\n", display.Currency(s.Price), display.Percent(s.Variation*100, 2))
	if s.DividendYield > 0 {
		fmt.Fprintf(a.out, "DY: %.2f%%  ", s.DividendYield)
	}
	if s.PVP > 0 {
		fmt.Fprintf(a.out, "P/VP: %.2f  ", s.PVP)
	}
	if s.Volume > 0 {
		fmt.Fprintf(a.out, "Volume: %s", display.Compact(s.Volume))
	}
	fmt.Fprintln(a.out)
}

func (a *app) historyCmd(ctx context.Context, args []string) error {
	action := "list"
	if len(args) > 0 {
		action = args[0]
	}
	switch action {
	case "list":
		entries := a.history.Entries()
		if len(entries) == 0 {
			fmt.Fprintln(a.out, "Nenhum FII pesquisado ainda.")
			return nil
		}
		now := a.now().In(a.cfg.Location())
		w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		for i, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, model.DisplayTicker(e.Ticker),
				display.Currency(e.Price), display.Percent(e.Variation*100, 2),
				datetime.Relative(e.SearchedAt, now))
		}
		return w.Flush()
	case "remove":
		if len(args) < 2 {
			return fmt.Errorf("history remove: ticker is required")
		}
		if !a.history.Remove(args[1]) {
			return fmt.Errorf("%s não está no histórico", model.DisplayTicker(args[1]))
		}
		fmt.Fprintf(a.out, "%s removido do histórico\n", model.DisplayTicker(args[1]))
		return nil
	case "refresh":
		if len(args) < 2 {
			return fmt.Errorf("history refresh: ticker is required")
		}
		ok, err := a.col.Refresh(ctx, args[1])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s não está no histórico", model.DisplayTicker(args[1]))
		}
		e, _ := a.history.Get(args[1])
		a.printAsset(e.AssetSummary)
		return nil
	case "clear":
		a.history.Clear()
		fmt.Fprintln(a.out, "Histórico limpo")
		return nil
	default:
		return fmt.Errorf("history: unknown action %q", action)
	}
}

func (a *app) chart(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	period := fs.String("period", string(collector.DefaultPeriod), "quote period")
	divs := fs.Bool("dividends", false, "draw the dividend history instead of quotes")
	window := fs.String("window", string(series.Window12M), "dividend window")
	out := fs.String("out", "", "output PNG path (default <TICKER>.png)")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	ticker, err := requireTicker("chart", positional)
	if err != nil {
		return err
	}
	size := render.Size{Width: a.cfg.Chart.Width, Height: a.cfg.Chart.Height}

	var img []byte
	if *divs {
		win, err := series.ParseWindow(*window)
		if err != nil {
			return err
		}
		v, err := a.col.Dividends(ctx, ticker, win)
		if err != nil {
			return err
		}
		img, err = render.DividendChart(v, size)
		if err != nil {
			return err
		}
	} else {
		p, err := collector.ParsePeriod(*period)
		if err != nil {
			return err
		}
		v, err := a.col.Quotes(ctx, ticker, p)
		if err != nil {
			return err
		}
		img, err = render.QuoteChart(v, size, a.cfg.Location())
		if err != nil {
			return err
		}
	}

	path := *out
	if path == "" {
		path = model.DisplayTicker(ticker) + ".png"
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	fmt.Fprintf(a.out, "gráfico salvo em %s\n", path)
	return nil
}

func (a *app) monitor(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	now := fs.Bool("now", os.Getenv("RUN_ON_START") == "true", "run once immediately, ignoring the session")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if err := a.cfg.ValidateTelegram(); err != nil {
		return err
	}

	tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, a.log)
	m := scheduler.NewMonitor(ctx, a.col, a.history, tn, scheduler.Config{
		Cron: a.cfg.Monitor.Cron,
		Thresholds: ranking.Thresholds{
			Rise: a.cfg.Monitor.AlertRise,
			Drop: a.cfg.Monitor.AlertDrop,
			PVP:  a.cfg.Monitor.AlertPVP,
		},
		SessionStart: a.cfg.Monitor.SessionStart,
		SessionEnd:   a.cfg.Monitor.SessionEnd,
		Location:     a.cfg.Location(),
		Alerts:       true,
	}, a.log)
	if err := m.Register(); err != nil {
		return err
	}
	m.Start()
	defer m.Stop()

	go tn.StartPolling(ctx, m.HandleCommand)
	a.log.Info().Msg("telegram polling started")

	if *now {
		go func() {
			if err := m.RunNow(ctx); err != nil {
				a.log.Error().Err(err).Msg("initial run")
			}
		}()
	}

	a.log.Info().Msg("FIIDash monitor is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	a.log.Info().Msg("shutdown signal received, stopping...")
	return nil
}
