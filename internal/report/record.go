package report

// MarketQuote is a single coin's 24h market snapshot.
type MarketQuote struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Change24h   float64 `json:"change_24h_pct"`
	MarketCap   float64 `json:"market_cap"`
	LastUpdated string  `json:"last_updated"`
	Source      string  `json:"source"`
}

// TrendingEntry is a coin from a popularity ranking. Rank and Score are both
// 1-based.
type TrendingEntry struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Rank   int    `json:"rank"`
	Score  int    `json:"score"`
}

// NewsItem is a headline from the news provider.
type NewsItem struct {
	Title       string `json:"title"`
	PublishedAt string `json:"published_at"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	Currencies  string `json:"currencies"`
}

// FundraisingEvent is a funding round, or a hot project standing in for one.
type FundraisingEvent struct {
	ProjectName string   `json:"project_name"`
	Amount      string   `json:"amount"`
	Round       string   `json:"round"`
	Sector      string   `json:"sector"`
	Investors   string   `json:"investors"`
	Date        string   `json:"date"`
	Sources     []string `json:"sources"`
	Notes       string   `json:"notes"`
}

// AirdropSignal is a potential airdrop or task campaign.
type AirdropSignal struct {
	ProjectName string `json:"project_name"`
	Signal      string `json:"signal"`
	TaskURL     string `json:"task_url"`
	TGEDate     string `json:"tge_date"`
	Notes       string `json:"notes"`
}

// TokenUnlockEvent is a scheduled unlock or a risk alert derived from price action.
type TokenUnlockEvent struct {
	ProjectName string `json:"project_name"`
	Token       string `json:"token"`
	Change      string `json:"change"`
	UnlockDate  string `json:"unlock_date"`
	Amount      string `json:"amount"`
	Impact      string `json:"impact"`
	Source      string `json:"source"`
}

// EcosystemChange is a notable event on a major chain: an upgrade, a TVL
// shift or a new integration.
type EcosystemChange struct {
	Chain       string `json:"chain"`
	ChangeType  string `json:"change_type"`
	Description string `json:"description"`
	Metrics     string `json:"metrics"`
	Source      string `json:"source"`
}

// MarketMood is the Fear & Greed reading shown in the narrative header.
type MarketMood struct {
	Index          float64 `json:"index"`
	Classification string  `json:"classification"`
}

// Primary source name for market quotes derived from the Binance fallback.
const (
	SourceCoinGecko = "CoinGecko"
	SourceBinance   = "Binance"
)
