package aggregate

import (
	"fmt"

	"github.com/web3-frozen/daily-report/internal/report"
)

// highlights builds the executive summary lines in priority order: sharp
// drops, large raises, airdrop signals, unlocks. It never returns an empty
// list.
func highlights(b *report.Bundle, p Params) []report.Highlight {
	var out []report.Highlight

	for _, q := range losers(b.Markets, p.RiskDropThreshold, p.HighlightRiskN) {
		out = append(out, report.Highlight{
			Kind:    report.HighlightRisk,
			Subject: q.Symbol,
			Text:    fmt.Sprintf("%s fell %.2f%% in 24h, watch for further downside or an oversold bounce.", q.Symbol, q.Change24h),
		})
	}

	n := 0
	for _, ev := range sortFundraising(b.Fundraising) {
		if n >= p.HighlightFundraisingN {
			break
		}
		if report.ParseAmount(ev.Amount) <= p.LargeRaiseUSD {
			continue
		}
		out = append(out, report.Highlight{
			Kind:    report.HighlightFundraising,
			Subject: ev.ProjectName,
			Text:    fmt.Sprintf("%s closed a %s raise.", ev.ProjectName, ev.Amount),
		})
		n++
	}

	for i, a := range b.Airdrops {
		if i >= p.HighlightAirdropsN {
			break
		}
		out = append(out, report.Highlight{
			Kind:    report.HighlightAirdrop,
			Subject: a.ProjectName,
			Text:    fmt.Sprintf("%s shows an airdrop signal: %s", a.ProjectName, a.Signal),
		})
	}

	for i, u := range b.Unlocks {
		if i >= p.HighlightUnlocksN {
			break
		}
		text := fmt.Sprintf("%s has an upcoming unlock (%s).", u.ProjectName, orDash(u.Amount))
		if u.Token == riskAlertToken {
			text = fmt.Sprintf("%s risk alert: %s in 24h.", u.ProjectName, u.Amount)
		}
		out = append(out, report.Highlight{
			Kind:    report.HighlightUnlock,
			Subject: u.ProjectName,
			Text:    text,
		})
	}

	if len(out) == 0 {
		out = append(out, report.Highlight{Kind: report.HighlightNone, Text: p.Placeholder})
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
