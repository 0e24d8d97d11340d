package render

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/web3-frozen/daily-report/internal/aggregate"
	"github.com/web3-frozen/daily-report/internal/report"
)

var testNow = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

func sampleBundle() *report.Bundle {
	return aggregate.Build(aggregate.Inputs{
		Markets: []report.MarketQuote{
			{Symbol: "BTC", Name: "Bitcoin", Price: 50000, Change24h: 4.2, MarketCap: 1e12, Source: report.SourceCoinGecko},
			{Symbol: "ETH", Name: "Ethereum", Price: 3000, Change24h: -6, Source: report.SourceCoinGecko},
		},
		News: []report.NewsItem{
			{Title: "XYZ raises $10M <b>now</b>", Currencies: "XYZ", URL: "https://news.example/xyz", Source: "The Block"},
		},
		Ecosystem: []report.EcosystemChange{
			{Chain: "Solana", ChangeType: "TVL", Metrics: "$9.1B", Source: "https://r.example/sol"},
			{Chain: "Base", ChangeType: "Bridge", Source: "RootData"},
			{Chain: "Solana", ChangeType: "Upgrade", Source: "RootData"},
		},
		Mood: &report.MarketMood{Index: 42, Classification: "Fear"},
	}, aggregate.DefaultParams(), testNow)
}

func emptyBundle() *report.Bundle {
	return aggregate.Build(aggregate.Inputs{}, aggregate.DefaultParams(), testNow)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Web3 Daily Report 2026-03-14: 1 news | 1 hot projects", Subject(sampleBundle()))
	assert.Equal(t, "Web3 Daily Report 2026-03-14: 0 news | 0 hot projects", Subject(emptyBundle()))
}

func TestNarrative(t *testing.T) {
	md := Narrative(sampleBundle())
	assert.Contains(t, md, "# Web3 Daily Report 2026-03-14")
	assert.Contains(t, md, "**BTC:** $50,000.00")
	assert.Contains(t, md, "42 / 100 (Fear)")
	assert.Contains(t, md, "BTC +4.20%")
	assert.Contains(t, md, "ETH -6.00%")
	assert.Contains(t, md, "largest: XYZ ($10M)")
	assert.Contains(t, md, "**[Risk]**")
	assert.Contains(t, md, "**Chain ecosystem updates:** 3 (Solana, Base)")

	empty := Narrative(emptyBundle())
	assert.Contains(t, empty, "price unavailable")
	assert.Contains(t, empty, "market calm")
	assert.Contains(t, empty, aggregate.DefaultParams().Placeholder)
	assert.NotContains(t, empty, "ecosystem")
}

func TestMarkdownToHTML(t *testing.T) {
	out, err := MarkdownToHTML(Narrative(sampleBundle()))
	require.NoError(t, err)
	assert.Contains(t, out, "<h2")
	assert.Contains(t, out, "<li>")
	assert.NotContains(t, out, "<b>now</b>")
}

func TestHTMLStructure(t *testing.T) {
	data, err := HTMLBytes(sampleBundle())
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, len(report.Categories), doc.Find("nav.tabs button.tab").Length())
	assert.Equal(t, len(report.Categories), doc.Find("section.panel").Length())
	assert.Equal(t, 1, doc.Find("button.tab.active").Length())

	markets := doc.Find("#tab-markets")
	assert.Equal(t, 2, markets.Find("tbody tr").Length())
	assert.Equal(t, "+4.20%", strings.TrimSpace(markets.Find("span.badge.up").First().Text()))
	assert.Equal(t, "-6.00%", strings.TrimSpace(markets.Find("span.badge.down").First().Text()))
	assert.Equal(t, 3, markets.Find("td.num").Length(), "two prices plus one market cap")

	href, ok := doc.Find("#tab-news a").Attr("href")
	require.True(t, ok)
	assert.Equal(t, "https://news.example/xyz", href)

	eco, ok := doc.Find("#tab-ecosystem a").Attr("href")
	require.True(t, ok)
	assert.Equal(t, "https://r.example/sol", eco)
	assert.Equal(t, 3, doc.Find("#tab-ecosystem tbody tr").Length())

	// Airdrops had no source and no matching news.
	air := doc.Find("#tab-airdrops tbody td.empty")
	assert.Equal(t, "No data", strings.TrimSpace(air.Text()))

	assert.Contains(t, doc.Find("section.narrative").Text(), "Highlights")
	assert.Equal(t, 0, doc.Find("section.narrative b").Length(), "provider text must stay escaped")
}

func TestXLSX(t *testing.T) {
	data, err := XLSXBytes(emptyBundle())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, len(report.Categories))
	assert.Equal(t, "Market", sheets[0])
	assert.Equal(t, "Fundraising - Hot Projects", sheets[2])

	for _, s := range sheets {
		v, err := f.GetCellValue(s, "A2")
		require.NoError(t, err)
		assert.Equal(t, "No data", v, "sheet %s", s)
	}

	header, err := f.GetCellValue("Market", "D1")
	require.NoError(t, err)
	assert.Equal(t, "24h Change", header)
}

func TestXLSXRows(t *testing.T) {
	data, err := XLSXBytes(sampleBundle())
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Market")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ETH", rows[2][0])
	assert.Equal(t, "-6.00%", rows[2][3])

	link, target, err := f.GetCellHyperLink("News", "E2")
	require.NoError(t, err)
	assert.True(t, link)
	assert.Equal(t, "https://news.example/xyz", target)

	eco, err := f.GetRows("Chain Ecosystem")
	require.NoError(t, err)
	require.Len(t, eco, 4)
	assert.Equal(t, "Base", eco[2][0])
}

func TestSheetNameLimits(t *testing.T) {
	long := report.Table{Title: strings.Repeat("x", 40)}
	assert.Len(t, sheetName(long), 31)
	assert.Equal(t, "markets", sheetName(report.Table{Category: report.CategoryMarkets}))
}

func TestParseFormats(t *testing.T) {
	assert.Equal(t, []Format{FormatHTML, FormatXLSX}, ParseFormats("html, XLSX,html,docx"))
	assert.Empty(t, ParseFormats(""))
}

func TestRendererWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRenderer(dir, []Format{FormatJSON, FormatXLSX, FormatHTML}, nil, logger)

	arts, err := r.Render(context.Background(), sampleBundle())
	require.NoError(t, err)
	require.Len(t, arts, 3)
	assert.Equal(t, FormatHTML, arts[0].Format, "html is rendered first")
	assert.Equal(t, "Web3_Daily_Report_2026-03-14.html", arts[0].Name)

	for _, a := range arts {
		info, err := os.Stat(filepath.Join(dir, a.Name))
		require.NoError(t, err)
		assert.Equal(t, int64(len(a.Data)), info.Size())
	}

	raw, err := os.ReadFile(filepath.Join(dir, "Web3_Daily_Report_2026-03-14.json"))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "2026-03-14", decoded["date"])
	assert.Contains(t, string(raw), `"tag": "percent_negative"`)
}

func TestRendererPDFFailureKeepsOthers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRenderer("", []Format{FormatPDF, FormatHTML}, nil, logger)

	arts, err := r.Render(context.Background(), emptyBundle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render pdf")
	require.Len(t, arts, 1)
	assert.Equal(t, FormatHTML, arts[0].Format)
	assert.Empty(t, arts[0].Path)
}
