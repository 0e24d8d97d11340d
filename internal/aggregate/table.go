package aggregate

import (
	"strconv"
	"strings"

	"github.com/web3-frozen/daily-report/internal/report"
)

func plain(v string) report.Cell { return report.Cell{Value: v} }

func link(v string) report.Cell {
	if v == "" || !(strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://")) {
		return plain(v)
	}
	return report.Cell{Value: v, Tag: report.TagLink}
}

func currency(v string) report.Cell { return report.Cell{Value: v, Tag: report.TagCurrency} }

func percent(v float64) report.Cell {
	tag := report.TagPercentPositive
	if v < 0 {
		tag = report.TagPercentNegative
	}
	return report.Cell{Value: report.FormatPercent(v), Tag: tag}
}

// amountCell tags free-form amounts as currency only when they parse.
func amountCell(v string) report.Cell {
	if report.ParseAmount(v) > 0 {
		return currency(v)
	}
	return plain(v)
}

// tables builds one tagged table per category in display order.
func tables(b *report.Bundle) []report.Table {
	out := make([]report.Table, 0, len(report.Categories))
	for _, c := range report.Categories {
		out = append(out, table(b, c))
	}
	return out
}

func table(b *report.Bundle, c report.Category) report.Table {
	t := report.Table{Category: c, Rows: [][]report.Cell{}}
	switch c {
	case report.CategoryMarkets:
		t.Title = "Market"
		t.Columns = []string{"Symbol", "Name", "Price", "24h Change", "Market Cap", "Source"}
		for _, q := range b.Markets {
			mcap := plain("-")
			if q.MarketCap > 0 {
				mcap = currency(report.FormatCompact(q.MarketCap))
			}
			t.Rows = append(t.Rows, []report.Cell{
				plain(q.Symbol), plain(q.Name), currency(report.FormatPrice(q.Price)),
				percent(q.Change24h), mcap, plain(q.Source),
			})
		}
	case report.CategoryNews:
		t.Title = "News"
		t.Columns = []string{"Title", "Published", "Source", "Currencies", "URL"}
		for _, n := range b.News {
			t.Rows = append(t.Rows, []report.Cell{
				plain(n.Title), plain(n.PublishedAt), plain(n.Source), plain(n.Currencies), link(n.URL),
			})
		}
	case report.CategoryFundraising:
		t.Title = "Fundraising / Hot Projects"
		t.Columns = []string{"Project", "Amount", "Round", "Sector", "Investors", "Date", "Notes", "Sources"}
		for _, f := range b.Fundraising {
			src := plain(strings.Join(f.Sources, ", "))
			if len(f.Sources) == 1 {
				src = link(f.Sources[0])
			}
			t.Rows = append(t.Rows, []report.Cell{
				plain(f.ProjectName), amountCell(f.Amount), plain(f.Round), plain(f.Sector),
				plain(f.Investors), plain(f.Date), plain(f.Notes), src,
			})
		}
	case report.CategoryAirdrops:
		t.Title = "Airdrops"
		t.Columns = []string{"Project", "Signal", "Task URL", "TGE Date", "Notes"}
		for _, a := range b.Airdrops {
			t.Rows = append(t.Rows, []report.Cell{
				plain(a.ProjectName), plain(a.Signal), link(a.TaskURL), plain(a.TGEDate), plain(a.Notes),
			})
		}
	case report.CategoryUnlocks:
		t.Title = "Unlocks / Risk"
		t.Columns = []string{"Project", "Token", "Change", "Unlock Date", "Amount", "Impact", "Source"}
		for _, u := range b.Unlocks {
			amt := amountCell(u.Amount)
			if u.Token == riskAlertToken {
				amt = report.Cell{Value: u.Amount, Tag: report.TagPercentNegative}
			}
			t.Rows = append(t.Rows, []report.Cell{
				plain(u.ProjectName), plain(u.Token), plain(u.Change), plain(u.UnlockDate),
				amt, plain(u.Impact), link(u.Source),
			})
		}
	case report.CategoryTrending:
		t.Title = "Trending"
		t.Columns = []string{"Rank", "Name", "Symbol", "Score"}
		for _, e := range b.Trending {
			t.Rows = append(t.Rows, []report.Cell{
				plain(strconv.Itoa(e.Rank)), plain(e.Name), plain(e.Symbol), plain(strconv.Itoa(e.Score)),
			})
		}
	case report.CategoryEcosystem:
		t.Title = "Chain Ecosystem"
		t.Columns = []string{"Chain", "Change", "Description", "Metrics", "Source"}
		for _, e := range b.Ecosystem {
			t.Rows = append(t.Rows, []report.Cell{
				plain(e.Chain), plain(e.ChangeType), plain(e.Description), plain(e.Metrics), link(e.Source),
			})
		}
	}
	return t
}
