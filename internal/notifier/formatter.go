package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"FIIDash/internal/datetime"
	"FIIDash/internal/display"
	"FIIDash/internal/model"
)

const (
	timeLayout = "02/01/2006 15:04"
	divider    = "━━━━━━━━━━━━━━━━━━━━━━━━"
)

// FormatVariation prefixes a percent variation with a trend emoji.
func FormatVariation(v float64) string {
	switch {
	case v > 0:
		return "📈 " + display.Percent(v, 2)
	case v < 0:
		return "📉 " + display.Percent(v, 2)
	default:
		return "➖ 0.00%"
	}
}

func share(n, total int) float64 {
	if total < 1 {
		total = 1
	}
	return float64(n) / float64(total) * 100
}

// FormatPanelSummary formats the ranked panel into the periodic monitor message.
func FormatPanelSummary(p *model.Panel, now time.Time) string {
	var b strings.Builder
	st := p.Stats

	b.WriteString("🔔 <b>MONITOR DE FIIs</b> 🔔\n")
	fmt.Fprintf(&b, "📅 %s\n\n", now.Format(timeLayout))

	b.WriteString("📊 <b>RESUMO DO MERCADO:</b>\n")
	fmt.Fprintf(&b, "• Total analisado: %d FIIs\n", st.Total)
	fmt.Fprintf(&b, "• 📈 Em alta: %d (%.1f%%)\n", st.Gainers, share(st.Gainers, st.Total))
	fmt.Fprintf(&b, "• 📉 Em baixa: %d (%.1f%%)\n", st.Losers, share(st.Losers, st.Total))
	fmt.Fprintf(&b, "• ➖ Estável: %d (%.1f%%)\n", st.Stable, share(st.Stable, st.Total))
	fmt.Fprintf(&b, "• Variação média: %s\n\n", display.Percent(st.MeanVariation, 2))

	writeRanking(&b, "🔥 <b>TOP 5 MAIORES ALTAS:</b>", p.TopGainers)
	writeRanking(&b, "❄️ <b>TOP 5 MAIORES BAIXAS:</b>", p.TopLosers)

	if len(p.Discounts) == 0 {
		b.WriteString("💎 <b>OPORTUNIDADES P/VP:</b>\n")
		b.WriteString("   Sem dados de P/VP nas maiores baixas\n\n")
	} else {
		b.WriteString("💎 <b>OPORTUNIDADES P/VP (TOP 5 Baixas):</b>\n")
		for i, d := range p.Discounts {
			fmt.Fprintf(&b, "%d. <b>%s</b>: P/VP %.2f", i+1, html.EscapeString(d.Ticker), d.PVP)
			if d.Discount > 0 {
				fmt.Fprintf(&b, " (Desconto: %.1f%%)", display.Round(d.Discount, 1))
			}
			fmt.Fprintf(&b, "\n   %s", FormatVariation(d.Variation))
			if d.DividendYield > 0 {
				fmt.Fprintf(&b, " | DY: %.2f%%", d.DividendYield)
			}
			fmt.Fprintf(&b, " | Preço: %s\n", display.Currency(d.Price))
		}
		b.WriteString("\n")
	}

	b.WriteString(divider)
	return b.String()
}

func writeRanking(b *strings.Builder, title string, assets []model.RankedAsset) {
	if len(assets) == 0 {
		return
	}
	b.WriteString(title + "\n")
	for _, a := range assets {
		fmt.Fprintf(b, "%d. <b>%s</b>: %s %s\n", a.Rank, html.EscapeString(a.Ticker), display.Currency(a.Price), FormatVariation(a.Variation))
		if a.DividendYield > 0 {
			fmt.Fprintf(b, "   DY: %.2f%%", a.DividendYield)
			if a.PVP > 0 {
				fmt.Fprintf(b, " | P/VP: %.2f", a.PVP)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
}

// FormatAlert formats a single threshold alert.
func FormatAlert(a model.Alert, now time.Time) string {
	emoji, title := "💎", "OPORTUNIDADE DE DESCONTO"
	switch a.Kind {
	case model.AlertRise:
		emoji, title = "🚀", "ALTA SIGNIFICATIVA"
	case model.AlertDrop:
		emoji, title = "⚠️", "BAIXA SIGNIFICATIVA"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b> %s\n", emoji, title, emoji)
	fmt.Fprintf(&b, "📅 %s\n\n", now.Format(timeLayout))
	fmt.Fprintf(&b, "<b>%s</b>\n%s\n\n", html.EscapeString(a.Asset.Ticker), divider)
	fmt.Fprintf(&b, "💰 Preço: %s\n", display.Currency(a.Asset.Price))
	b.WriteString(FormatVariation(a.Asset.Variation) + "\n")
	writeFundamentals(&b, a.Asset.DividendYield, a.Asset.PVP, a.Asset.Volume)
	return b.String()
}

func writeFundamentals(b *strings.Builder, dy, pvp, volume float64) {
	if dy > 0 {
		fmt.Fprintf(b, "📊 Dividend Yield: %.2f%%\n", dy)
	}
	if pvp > 0 {
		fmt.Fprintf(b, "📈 P/VP: %.2f", pvp)
		if pvp < 1 {
			fmt.Fprintf(b, " (Desconto: %.1f%%)", display.Round((1-pvp)*100, 1))
		}
		b.WriteString("\n")
	}
	if volume > 0 {
		fmt.Fprintf(b, "📦 Volume: %s\n", display.Compact(volume))
	}
}

// FormatAsset formats a single looked-up fund. Variation is the raw decimal
// fraction from the backend.
func FormatAsset(a model.AssetSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> %s\n", html.EscapeString(model.DisplayTicker(a.Ticker)), html.EscapeString(a.Name))
	fmt.Fprintf(&b, "💰 Preço: %s\n", display.Currency(a.Price))
	b.WriteString(FormatVariation(a.Variation*100) + "\n")
	writeFundamentals(&b, a.DividendYield, a.PVP, a.Volume)
	return b.String()
}

// FormatHistory lists the recently searched funds, most recent first, with
// how long ago each was searched as seen from now in loc.
func FormatHistory(entries []model.HistoryEntry, now time.Time, loc *time.Location) string {
	if len(entries) == 0 {
		return "🕘 Nenhum FII pesquisado ainda."
	}
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	var b strings.Builder
	b.WriteString("🕘 <b>PESQUISAS RECENTES</b>\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. <b>%s</b> %s %s · %s\n",
			i+1,
			html.EscapeString(model.DisplayTicker(e.Ticker)),
			display.Currency(e.Price),
			display.Percent(e.Variation*100, 2),
			datetime.Relative(e.SearchedAt, now))
	}
	return b.String()
}
