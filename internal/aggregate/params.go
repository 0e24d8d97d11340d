// Package aggregate turns the possibly-empty provider results of one run into
// a complete report bundle: it patches empty categories with a fixed fallback
// waterfall, ranks the data and selects the narrative highlights.
package aggregate

// Params tunes the fallback waterfall and highlight selection.
type Params struct {
	FundingKeywords []string `yaml:"funding_keywords"`
	AirdropKeywords []string `yaml:"airdrop_keywords"`
	UnlockKeywords  []string `yaml:"unlock_keywords"`

	// DerivedCap bounds every news-derived category.
	DerivedCap int `yaml:"derived_cap"`
	// TitleMaxLen is the rune limit for titles copied into derived records.
	TitleMaxLen int `yaml:"title_max_len"`

	TrendingFallbackN int `yaml:"trending_fallback_n"`
	LoserFallbackN    int `yaml:"loser_fallback_n"`

	GainThreshold     float64 `yaml:"gain_threshold"`
	LossThreshold     float64 `yaml:"loss_threshold"`
	MoversShown       int     `yaml:"movers_shown"`
	RiskDropThreshold float64 `yaml:"risk_drop_threshold"`
	LargeRaiseUSD     float64 `yaml:"large_raise_usd"`

	HighlightRiskN        int `yaml:"highlight_risk_n"`
	HighlightFundraisingN int `yaml:"highlight_fundraising_n"`
	HighlightAirdropsN    int `yaml:"highlight_airdrops_n"`
	HighlightUnlocksN     int `yaml:"highlight_unlocks_n"`

	Placeholder string `yaml:"placeholder"`
}

// DefaultParams returns the stock keyword sets, caps and thresholds.
func DefaultParams() Params {
	return Params{
		FundingKeywords: []string{
			"raise", "raised", "raises", "funding", "invest", "capital", "round", "million",
			"seed", "series a", "融资", "领投", "参投", "千万",
		},
		AirdropKeywords: []string{
			"airdrop", "snapshot", "claim", "testnet", "incentive", "points",
			"空投", "快照", "积分", "测试网", "奖励",
		},
		UnlockKeywords: []string{
			"unlock", "cliff", "vesting", "release", "circulation", "解锁", "释放",
		},
		DerivedCap:            10,
		TitleMaxLen:           80,
		TrendingFallbackN:     5,
		LoserFallbackN:        5,
		GainThreshold:         3,
		LossThreshold:         -3,
		MoversShown:           3,
		RiskDropThreshold:     -5,
		LargeRaiseUSD:         5_000_000,
		HighlightRiskN:        3,
		HighlightFundraisingN: 3,
		HighlightAirdropsN:    3,
		HighlightUnlocksN:     2,
		Placeholder:           "No major signal today. Market is quiet, no high-priority action.",
	}
}

// withDefaults fills zero-valued caps so a partially specified Params never
// disables a bound by accident.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.DerivedCap <= 0 {
		p.DerivedCap = d.DerivedCap
	}
	if p.TitleMaxLen <= 0 {
		p.TitleMaxLen = d.TitleMaxLen
	}
	if p.TrendingFallbackN <= 0 {
		p.TrendingFallbackN = d.TrendingFallbackN
	}
	if p.LoserFallbackN <= 0 {
		p.LoserFallbackN = d.LoserFallbackN
	}
	if p.MoversShown <= 0 {
		p.MoversShown = d.MoversShown
	}
	if p.HighlightRiskN <= 0 {
		p.HighlightRiskN = d.HighlightRiskN
	}
	if p.HighlightFundraisingN <= 0 {
		p.HighlightFundraisingN = d.HighlightFundraisingN
	}
	if p.HighlightAirdropsN <= 0 {
		p.HighlightAirdropsN = d.HighlightAirdropsN
	}
	if p.HighlightUnlocksN <= 0 {
		p.HighlightUnlocksN = d.HighlightUnlocksN
	}
	if p.Placeholder == "" {
		p.Placeholder = d.Placeholder
	}
	return p
}
