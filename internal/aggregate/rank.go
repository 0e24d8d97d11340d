package aggregate

import (
	"sort"
	"strings"

	"github.com/web3-frozen/daily-report/internal/report"
)

// byChangeDesc returns a copy of quotes ordered by 24h change, best first.
// Ties keep provider order.
func byChangeDesc(quotes []report.MarketQuote) []report.MarketQuote {
	out := append([]report.MarketQuote(nil), quotes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Change24h > out[j].Change24h })
	return out
}

func byChangeAsc(quotes []report.MarketQuote) []report.MarketQuote {
	out := append([]report.MarketQuote(nil), quotes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Change24h < out[j].Change24h })
	return out
}

// gainers returns up to n quotes that rose more than threshold percent.
func gainers(quotes []report.MarketQuote, threshold float64, n int) []report.MarketQuote {
	out := []report.MarketQuote{}
	for _, q := range byChangeDesc(quotes) {
		if len(out) >= n || q.Change24h <= threshold {
			break
		}
		out = append(out, q)
	}
	return out
}

// losers returns up to n quotes that fell more than |threshold| percent,
// worst first.
func losers(quotes []report.MarketQuote, threshold float64, n int) []report.MarketQuote {
	out := []report.MarketQuote{}
	for _, q := range byChangeAsc(quotes) {
		if len(out) >= n || q.Change24h >= threshold {
			break
		}
		out = append(out, q)
	}
	return out
}

// sortFundraising orders rounds by parsed amount, largest first. Entries
// without a parseable amount sink to the end in their original order.
func sortFundraising(events []report.FundraisingEvent) []report.FundraisingEvent {
	out := append([]report.FundraisingEvent{}, events...)
	sort.SliceStable(out, func(i, j int) bool {
		return report.ParseAmount(out[i].Amount) > report.ParseAmount(out[j].Amount)
	})
	return out
}

func btcPrice(quotes []report.MarketQuote) (float64, bool) {
	for _, q := range quotes {
		if strings.EqualFold(q.Symbol, "BTC") {
			return q.Price, true
		}
	}
	return 0, false
}

func summarize(b *report.Bundle, mood *report.MarketMood, p Params) report.Summary {
	s := report.Summary{
		Gainers: gainers(b.Markets, p.GainThreshold, p.MoversShown),
		Losers:  losers(b.Markets, p.LossThreshold, p.MoversShown),
		Mood:    mood,
	}
	s.BTCPrice, s.HasBTC = btcPrice(b.Markets)

	if ranked := sortFundraising(b.Fundraising); len(ranked) > 0 && report.ParseAmount(ranked[0].Amount) > 0 {
		top := ranked[0]
		s.LargestRaise = &top
	}
	return s
}
