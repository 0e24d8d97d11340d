package report

import "time"

// Category names one section of the report.
type Category string

const (
	CategoryMarkets     Category = "markets"
	CategoryNews        Category = "news"
	CategoryFundraising Category = "fundraising"
	CategoryAirdrops    Category = "airdrops"
	CategoryUnlocks     Category = "unlocks"
	CategoryTrending    Category = "trending"
	CategoryEcosystem   Category = "ecosystem"
)

// Categories is the fixed display order of report sections.
var Categories = []Category{
	CategoryMarkets,
	CategoryNews,
	CategoryFundraising,
	CategoryAirdrops,
	CategoryUnlocks,
	CategoryTrending,
	CategoryEcosystem,
}

// Step records which waterfall stage filled a category.
type Step string

const (
	StepPrimary    Step = "primary"
	StepSecondary  Step = "secondary"
	StepNews       Step = "news"
	StepLastResort Step = "last_resort"
	StepEmpty      Step = "empty"
)

// Tag is the display semantics of a cell. Renderers map tags to styles and
// never inspect the cell text.
type Tag int

const (
	TagPlain Tag = iota
	TagLink
	TagPercentPositive
	TagPercentNegative
	TagCurrency
)

func (t Tag) String() string {
	switch t {
	case TagLink:
		return "link"
	case TagPercentPositive:
		return "percent_positive"
	case TagPercentNegative:
		return "percent_negative"
	case TagCurrency:
		return "currency"
	default:
		return "plain"
	}
}

// MarshalText lets tags appear by name in the JSON bundle.
func (t Tag) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText accepts the names produced by MarshalText. Unknown names
// decode as plain.
func (t *Tag) UnmarshalText(b []byte) error {
	switch string(b) {
	case "link":
		*t = TagLink
	case "percent_positive":
		*t = TagPercentPositive
	case "percent_negative":
		*t = TagPercentNegative
	case "currency":
		*t = TagCurrency
	default:
		*t = TagPlain
	}
	return nil
}

// Cell is one rendered value together with its display tag.
type Cell struct {
	Value string `json:"value"`
	Tag   Tag    `json:"tag"`
}

// Table is the render-ready form of one category: a title, fixed column
// order and tagged rows.
type Table struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Columns  []string `json:"columns"`
	Rows     [][]Cell `json:"rows"`
}

// HighlightKind classifies a narrative line.
type HighlightKind string

const (
	HighlightRisk        HighlightKind = "risk"
	HighlightFundraising HighlightKind = "fundraising"
	HighlightAirdrop     HighlightKind = "airdrop"
	HighlightUnlock      HighlightKind = "unlock"
	HighlightNone        HighlightKind = "none"
)

// Highlight is one prioritized line of the executive summary.
type Highlight struct {
	Kind    HighlightKind `json:"kind"`
	Subject string        `json:"subject"`
	Text    string        `json:"text"`
}

// Summary holds the narrative facts computed by the aggregation engine.
type Summary struct {
	BTCPrice     float64           `json:"btc_price"`
	HasBTC       bool              `json:"has_btc"`
	Gainers      []MarketQuote     `json:"gainers"`
	Losers       []MarketQuote     `json:"losers"`
	LargestRaise *FundraisingEvent `json:"largest_raise,omitempty"`
	Mood         *MarketMood       `json:"mood,omitempty"`
}

// Bundle is the aggregated, render-ready output of one run. Every slice is
// non-nil, and Highlights always has at least one entry.
type Bundle struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Date        string             `json:"date"`
	Markets     []MarketQuote      `json:"markets"`
	Trending    []TrendingEntry    `json:"trending"`
	News        []NewsItem         `json:"news"`
	Fundraising []FundraisingEvent `json:"fundraising"`
	Airdrops    []AirdropSignal    `json:"airdrops"`
	Unlocks     []TokenUnlockEvent `json:"unlocks"`
	Ecosystem   []EcosystemChange  `json:"ecosystem"`
	Highlights  []Highlight        `json:"highlights"`
	Summary     Summary            `json:"summary"`
	Steps       map[Category]Step  `json:"steps"`
	Tables      []Table            `json:"tables"`
}

// Count returns the number of records in a category.
func (b *Bundle) Count(c Category) int {
	switch c {
	case CategoryMarkets:
		return len(b.Markets)
	case CategoryNews:
		return len(b.News)
	case CategoryFundraising:
		return len(b.Fundraising)
	case CategoryAirdrops:
		return len(b.Airdrops)
	case CategoryUnlocks:
		return len(b.Unlocks)
	case CategoryTrending:
		return len(b.Trending)
	case CategoryEcosystem:
		return len(b.Ecosystem)
	}
	return 0
}
