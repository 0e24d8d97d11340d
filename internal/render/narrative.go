// Package render turns an aggregated report bundle into deliverable
// artifacts: the narrative summary, a tabbed HTML page, a spreadsheet, a
// PDF print of the page and a JSON dump.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/web3-frozen/daily-report/internal/report"
)

// Subject is the email subject line for a bundle.
func Subject(b *report.Bundle) string {
	return fmt.Sprintf("Web3 Daily Report %s: %d news | %d hot projects",
		b.Date, len(b.News), len(b.Fundraising))
}

// Narrative writes the executive summary as markdown.
func Narrative(b *report.Bundle) string {
	var sb strings.Builder
	s := b.Summary

	fmt.Fprintf(&sb, "# Web3 Daily Report %s\n\n", b.Date)

	if s.Mood != nil {
		fmt.Fprintf(&sb, "- **Market mood:** %.0f / 100 (%s)\n", s.Mood.Index, s.Mood.Classification)
	}
	if s.HasBTC {
		fmt.Fprintf(&sb, "- **BTC:** %s\n", report.FormatPrice(s.BTCPrice))
	} else {
		sb.WriteString("- **BTC:** price unavailable\n")
	}

	if len(s.Gainers) == 0 && len(s.Losers) == 0 {
		sb.WriteString("- **Movers:** market calm, no large moves in the top coins\n")
	} else {
		if len(s.Gainers) > 0 {
			fmt.Fprintf(&sb, "- **Top gainers:** %s\n", movers(s.Gainers))
		}
		if len(s.Losers) > 0 {
			fmt.Fprintf(&sb, "- **Top losers:** %s\n", movers(s.Losers))
		}
	}

	fmt.Fprintf(&sb, "- **Fundraising / hot projects:** %d", len(b.Fundraising))
	if s.LargestRaise != nil {
		fmt.Fprintf(&sb, ", largest: %s (%s)", escapeMarkdown(s.LargestRaise.ProjectName), escapeMarkdown(s.LargestRaise.Amount))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "- **Airdrop signals:** %d\n", len(b.Airdrops))
	fmt.Fprintf(&sb, "- **Unlocks / risk alerts:** %d\n", len(b.Unlocks))
	if len(b.Ecosystem) > 0 {
		fmt.Fprintf(&sb, "- **Chain ecosystem updates:** %d (%s)\n", len(b.Ecosystem), escapeMarkdown(chains(b.Ecosystem)))
	}
	fmt.Fprintf(&sb, "- **News tracked:** %d\n", len(b.News))

	sb.WriteString("\n## Highlights\n\n")
	for _, h := range b.Highlights {
		fmt.Fprintf(&sb, "- %s%s\n", highlightMarker(h.Kind), escapeMarkdown(h.Text))
	}
	return sb.String()
}

// chains lists the distinct chains in first-seen order.
func chains(changes []report.EcosystemChange) string {
	seen := make(map[string]bool, len(changes))
	var names []string
	for _, c := range changes {
		if !seen[c.Chain] {
			seen[c.Chain] = true
			names = append(names, c.Chain)
		}
	}
	return strings.Join(names, ", ")
}

func movers(qs []report.MarketQuote) string {
	parts := make([]string, 0, len(qs))
	for _, q := range qs {
		parts = append(parts, fmt.Sprintf("%s %s", q.Symbol, report.FormatPercent(q.Change24h)))
	}
	return strings.Join(parts, ", ")
}

func highlightMarker(k report.HighlightKind) string {
	switch k {
	case report.HighlightRisk:
		return "**[Risk]** "
	case report.HighlightFundraising:
		return "**[Funding]** "
	case report.HighlightAirdrop:
		return "**[Airdrop]** "
	case report.HighlightUnlock:
		return "**[Unlock]** "
	}
	return ""
}

var mdEscaper = strings.NewReplacer(`*`, `\*`, `_`, `\_`, "`", "\\`", `[`, `\[`, `]`, `\]`, `<`, `&lt;`)

// escapeMarkdown keeps provider text from turning into markup.
func escapeMarkdown(s string) string { return mdEscaper.Replace(s) }

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
)

// MarkdownToHTML converts the narrative into an HTML fragment.
func MarkdownToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
