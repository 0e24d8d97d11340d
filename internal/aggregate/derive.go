package aggregate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/web3-frozen/daily-report/internal/report"
)

const todayLabel = "Today"

// newsMatch is a news item whose title hit one of the keywords.
type newsMatch struct {
	project string
	title   string // truncated for display
	full    string
	url     string
}

// matchNews scans titles case-insensitively for any keyword, keeps source
// order, drops repeated titles (case-insensitive) and stops at limit.
func matchNews(news []report.NewsItem, keywords []string, limit, maxLen int, fallbackName string) []newsMatch {
	kws := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kws = append(kws, k)
		}
	}
	if len(kws) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var out []newsMatch
	for _, n := range news {
		if len(out) >= limit {
			break
		}
		title := strings.TrimSpace(n.Title)
		key := strings.ToLower(title)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if !containsAny(key, kws) {
			continue
		}
		seen[key] = struct{}{}

		project := strings.TrimSpace(n.Currencies)
		if project == "" {
			project = fallbackName
		}
		out = append(out, newsMatch{
			project: project,
			title:   truncate(title, maxLen),
			full:    title,
			url:     n.URL,
		})
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

var moneyRe = regexp.MustCompile(`(?i)((?:us)?\p{Sc}\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:thousand|million|billion|mn|bn|k|m|b)\b)?|\d[\d,]*(?:\.\d+)?\s?(?:million|billion|mn|bn)\b(?:\s?usd[tc]?\b)?|\d{1,3}(?:,\d{3})+\s?usd[tc]?\b)`)

// extractAmount returns the first money literal in a headline, or "".
func extractAmount(title string) string {
	return strings.TrimSpace(moneyRe.FindString(title))
}

func fundraisingFromNews(news []report.NewsItem, p Params) []report.FundraisingEvent {
	matches := matchNews(news, p.FundingKeywords, p.DerivedCap, p.TitleMaxLen, "News")
	out := make([]report.FundraisingEvent, 0, len(matches))
	for _, m := range matches {
		ev := report.FundraisingEvent{
			ProjectName: m.project,
			Amount:      extractAmount(m.full),
			Sector:      "News",
			Date:        todayLabel,
			Sources:     []string{},
			Notes:       m.title,
		}
		if m.url != "" {
			ev.Sources = []string{m.url}
		}
		out = append(out, ev)
	}
	return out
}

func airdropsFromNews(news []report.NewsItem, p Params) []report.AirdropSignal {
	matches := matchNews(news, p.AirdropKeywords, p.DerivedCap, p.TitleMaxLen, "News Topic")
	out := make([]report.AirdropSignal, 0, len(matches))
	for _, m := range matches {
		out = append(out, report.AirdropSignal{
			ProjectName: m.project,
			Signal:      m.title,
			TaskURL:     m.url,
			TGEDate:     todayLabel,
			Notes:       "From news",
		})
	}
	return out
}

func unlocksFromNews(news []report.NewsItem, p Params) []report.TokenUnlockEvent {
	matches := matchNews(news, p.UnlockKeywords, p.DerivedCap, p.TitleMaxLen, "News")
	out := make([]report.TokenUnlockEvent, 0, len(matches))
	for _, m := range matches {
		out = append(out, report.TokenUnlockEvent{
			ProjectName: m.project,
			Change:      "unlock",
			UnlockDate:  todayLabel,
			Amount:      extractAmount(m.full),
			Impact:      m.title,
			Source:      m.url,
		})
	}
	return out
}

// fundraisingFromTrending presents the hottest coins as stand-in projects.
func fundraisingFromTrending(trending []report.TrendingEntry, n int) []report.FundraisingEvent {
	if len(trending) > n {
		trending = trending[:n]
	}
	out := make([]report.FundraisingEvent, 0, len(trending))
	for i, t := range trending {
		rank := t.Rank
		if rank <= 0 {
			rank = i + 1
		}
		out = append(out, report.FundraisingEvent{
			ProjectName: t.Name,
			Amount:      fmt.Sprintf("Rank #%d", rank),
			Round:       "Trending",
			Investors:   "Community",
			Date:        todayLabel,
			Sources:     []string{},
			Notes:       t.Symbol,
		})
	}
	return out
}

// riskAlertsFromLosers relabels the worst falling quotes as risk alerts.
func riskAlertsFromLosers(markets []report.MarketQuote, n int) []report.TokenUnlockEvent {
	var falling []report.MarketQuote
	for _, q := range markets {
		if q.Change24h < 0 {
			falling = append(falling, q)
		}
	}
	sort.SliceStable(falling, func(i, j int) bool { return falling[i].Change24h < falling[j].Change24h })
	if len(falling) > n {
		falling = falling[:n]
	}

	out := make([]report.TokenUnlockEvent, 0, len(falling))
	for _, q := range falling {
		out = append(out, report.TokenUnlockEvent{
			ProjectName: q.Symbol,
			Token:       riskAlertToken,
			Change:      "risk",
			UnlockDate:  "24h Drop",
			Amount:      fmt.Sprintf("%.2f%%", q.Change24h),
			Impact:      "Sharp 24h price drop",
			Source:      q.Source,
		})
	}
	return out
}

const riskAlertToken = "Risk Alert"
