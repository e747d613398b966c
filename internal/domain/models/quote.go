package models

import "time"

// QuoteSnapshot holds point-in-time market and fundamental fields for a
// symbol. Every numeric field is optional: providers routinely omit
// coverage, and a missing value must stay distinguishable from zero.
type QuoteSnapshot struct {
	Symbol       string    `json:"symbol"`
	CurrentPrice *float64  `json:"current_price,omitempty"`
	TrailingPE   *float64  `json:"trailing_pe,omitempty"`
	ForwardPE    *float64  `json:"forward_pe,omitempty"`
	TrailingEPS  *float64  `json:"trailing_eps,omitempty"`
	ForwardEPS   *float64  `json:"forward_eps,omitempty"`
	Beta         *float64  `json:"beta,omitempty"`
	Sources      []string  `json:"sources,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// FundamentalPoint is one entry of a quarterly fundamentals series.
type FundamentalPoint struct {
	Period time.Time `json:"period"`
	Value  float64   `json:"value"`
}

// Fundamentals holds the historical series and growth estimate a provider
// supplies for a symbol. Series are ordered oldest-to-newest.
type Fundamentals struct {
	PESeries        []FundamentalPoint `json:"pe_series,omitempty"`
	EPSSeries       []FundamentalPoint `json:"eps_series,omitempty"`
	ConsensusGrowth *float64           `json:"consensus_growth,omitempty"` // fraction, e.g. 0.12

	// Trailing scalars, used to fill snapshot fields the quote sources miss.
	TrailingPE  *float64 `json:"trailing_pe,omitempty"`
	TrailingEPS *float64 `json:"trailing_eps,omitempty"`
	Beta        *float64 `json:"beta,omitempty"`
}

// PricePoint is one close of a price history series.
type PricePoint struct {
	Time  time.Time `json:"t"`
	Close float64   `json:"c"`
}

// PriceHistory is an ordered price series for charting.
type PriceHistory struct {
	Symbol string       `json:"symbol"`
	Range  string       `json:"range"`
	Points []PricePoint `json:"points"`
}

// Float returns a pointer to v. Convenience for building snapshots.
func Float(v float64) *float64 { return &v }
