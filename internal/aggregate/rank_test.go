package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3-frozen/daily-report/internal/report"
)

func quotes(changes map[string]float64, order ...string) []report.MarketQuote {
	out := make([]report.MarketQuote, 0, len(order))
	for _, s := range order {
		out = append(out, report.MarketQuote{Symbol: s, Change24h: changes[s]})
	}
	return out
}

func symbols(qs []report.MarketQuote) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Symbol)
	}
	return out
}

func TestGainersLosers(t *testing.T) {
	qs := quotes(map[string]float64{
		"A": 10, "B": 3, "C": 3.1, "D": -3, "E": -3.5, "F": -20, "G": 8, "H": 5, "I": -4,
	}, "A", "B", "C", "D", "E", "F", "G", "H", "I")

	assert.Equal(t, []string{"A", "G", "H"}, symbols(gainers(qs, 3, 3)))
	assert.Equal(t, []string{"F", "I", "E"}, symbols(losers(qs, -3, 3)))
	assert.Equal(t, []string{"A", "G", "H", "C"}, symbols(gainers(qs, 3, 10)))
	assert.Empty(t, gainers(nil, 3, 3))
}

func TestSortFundraising(t *testing.T) {
	in := []report.FundraisingEvent{
		{ProjectName: "none", Amount: "N/A"},
		{ProjectName: "small", Amount: "3k"},
		{ProjectName: "big", Amount: "$5.2M"},
		{ProjectName: "mid", Amount: "250,000"},
	}
	got := sortFundraising(in)
	require.Len(t, got, 4)
	assert.Equal(t, "big", got[0].ProjectName)
	assert.Equal(t, "mid", got[1].ProjectName)
	assert.Equal(t, "small", got[2].ProjectName)
	assert.Equal(t, "none", got[3].ProjectName)
	assert.Equal(t, "none", in[0].ProjectName, "input must not be reordered")
}

func TestHighlights_PriorityAndCaps(t *testing.T) {
	b := &report.Bundle{
		Markets: quotes(map[string]float64{"X": -9, "Y": -6, "Z": -4}, "X", "Y", "Z"),
		Fundraising: []report.FundraisingEvent{
			{ProjectName: "tiny", Amount: "$1M"},
			{ProjectName: "r1", Amount: "$6M"},
			{ProjectName: "r2", Amount: "$60M"},
			{ProjectName: "r3", Amount: "$7M"},
			{ProjectName: "r4", Amount: "$8M"},
		},
		Airdrops: []report.AirdropSignal{{ProjectName: "a1"}, {ProjectName: "a2"}, {ProjectName: "a3"}, {ProjectName: "a4"}},
		Unlocks:  []report.TokenUnlockEvent{{ProjectName: "u1"}, {ProjectName: "u2"}, {ProjectName: "u3"}},
	}
	hs := highlights(b, DefaultParams())

	var subjects []string
	for _, h := range hs {
		subjects = append(subjects, h.Subject)
	}
	assert.Equal(t, []string{
		"X", "Y",
		"r2", "r4", "r3",
		"a1", "a2", "a3",
		"u1", "u2",
	}, subjects)
	assert.Equal(t, report.HighlightRisk, hs[0].Kind)
	assert.Equal(t, report.HighlightUnlock, hs[len(hs)-1].Kind)
}

func TestHighlights_RiskAlertWording(t *testing.T) {
	b := &report.Bundle{Unlocks: []report.TokenUnlockEvent{{ProjectName: "ETH", Token: "Risk Alert", Amount: "-6.00%"}}}
	hs := highlights(b, DefaultParams())
	require.Len(t, hs, 1)
	assert.Contains(t, hs[0].Text, "risk alert")
	assert.Contains(t, hs[0].Text, "-6.00%")
}

func TestHighlights_NeverEmpty(t *testing.T) {
	cases := []*report.Bundle{
		{},
		{Markets: quotes(map[string]float64{"A": -4.9}, "A")},
		{Fundraising: []report.FundraisingEvent{{ProjectName: "x", Amount: "$5M"}}},
		{Fundraising: []report.FundraisingEvent{{ProjectName: "x", Amount: "Rank #1"}}},
	}
	for i, b := range cases {
		hs := highlights(b, DefaultParams())
		require.Len(t, hs, 1, "case %d", i)
		assert.Equal(t, report.HighlightNone, hs[0].Kind, "case %d", i)
	}
}

func TestTables_Tags(t *testing.T) {
	b := &report.Bundle{
		Markets: []report.MarketQuote{
			{Symbol: "BTC", Price: 50000, Change24h: 2, MarketCap: 1e12},
			{Symbol: "ETH", Price: 3000, Change24h: -6},
		},
		News:        []report.NewsItem{{Title: "t", URL: "https://x.example"}},
		Fundraising: []report.FundraisingEvent{{ProjectName: "p", Amount: "Rank #1"}, {ProjectName: "q", Amount: "$2M", Sources: []string{"https://a", "https://b"}}},
		Unlocks:     []report.TokenUnlockEvent{{ProjectName: "ETH", Token: "Risk Alert", Amount: "-6.00%", Source: "CoinGecko"}},
		Trending:    []report.TrendingEntry{{Name: "Pepe", Symbol: "PEPE", Rank: 1, Score: 1}},
		Ecosystem:   []report.EcosystemChange{{Chain: "Solana", ChangeType: "TVL", Source: "https://r.example/sol"}, {Chain: "Base", Source: "RootData"}},
	}
	ts := tables(b)
	require.Len(t, ts, len(report.Categories))

	market := ts[0]
	require.Equal(t, report.CategoryMarkets, market.Category)
	assert.Equal(t, report.Cell{Value: "$50,000.00", Tag: report.TagCurrency}, market.Rows[0][2])
	assert.Equal(t, report.Cell{Value: "+2.00%", Tag: report.TagPercentPositive}, market.Rows[0][3])
	assert.Equal(t, report.Cell{Value: "-6.00%", Tag: report.TagPercentNegative}, market.Rows[1][3])
	assert.Equal(t, report.TagCurrency, market.Rows[0][4].Tag)
	assert.Equal(t, report.TagPlain, market.Rows[1][4].Tag)

	news := ts[1]
	assert.Equal(t, report.TagLink, news.Rows[0][4].Tag)

	fund := ts[2]
	assert.Equal(t, report.TagPlain, fund.Rows[0][1].Tag)
	assert.Equal(t, report.TagCurrency, fund.Rows[1][1].Tag)
	assert.Equal(t, report.Cell{Value: "https://a, https://b"}, fund.Rows[1][7])

	unlocks := ts[4]
	assert.Equal(t, report.TagPercentNegative, unlocks.Rows[0][4].Tag)
	assert.Equal(t, report.TagPlain, unlocks.Rows[0][6].Tag)

	trending := ts[5]
	require.Equal(t, report.CategoryTrending, trending.Category)
	assert.Equal(t, []report.Cell{{Value: "1"}, {Value: "Pepe"}, {Value: "PEPE"}, {Value: "1"}}, trending.Rows[0])

	eco := ts[6]
	require.Equal(t, report.CategoryEcosystem, eco.Category)
	assert.Equal(t, "Chain Ecosystem", eco.Title)
	assert.Equal(t, report.Cell{Value: "https://r.example/sol", Tag: report.TagLink}, eco.Rows[0][4])
	assert.Equal(t, report.Cell{Value: "RootData"}, eco.Rows[1][4])

	for _, tbl := range ts {
		for _, row := range tbl.Rows {
			assert.Len(t, row, len(tbl.Columns), "row width for %s", tbl.Category)
		}
	}
}
