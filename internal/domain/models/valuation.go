package models

// Reasons a model reports instead of a numeric range. These are displayed
// verbatim, so they read as short human phrases.
const (
	ReasonInsufficientHistory = "insufficient history"
	ReasonNegativeEarnings    = "negative earnings"
	ReasonNoEarningsData      = "no earnings data"
	ReasonNoGrowthEstimate    = "no growth estimate"
	ReasonNonPositiveGrowth   = "non-positive growth"
)

// ModelResult is a tagged fair-value outcome: either a (low, high) range or
// an unavailability reason. Reason == "" means the range is present; the two
// states are never combined so "unavailable" can never be mistaken for a
// zero-priced range.
type ModelResult struct {
	Low    *float64 `json:"low,omitempty"`
	High   *float64 `json:"high,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

// AvailableRange builds a computed result. Callers guarantee low <= high.
func AvailableRange(low, high float64) ModelResult {
	return ModelResult{Low: &low, High: &high}
}

// UnavailableRange builds an unavailable result carrying its reason.
func UnavailableRange(reason string) ModelResult {
	return ModelResult{Reason: reason}
}

// Available reports whether the result carries a numeric range.
func (m ModelResult) Available() bool {
	return m.Reason == "" && m.Low != nil && m.High != nil
}

// Mid returns the range midpoint; zero when unavailable.
func (m ModelResult) Mid() float64 {
	if !m.Available() {
		return 0
	}
	return (*m.Low + *m.High) / 2
}

// PEG reliability verdicts derived from the current PEG ratio.
const (
	VerdictUndervaluedGrowth = "undervalued growth"
	VerdictExpensiveGrowth   = "expensive growth"
	VerdictUnreliable        = "unreliable"
)

// ValuationResult carries both model outcomes plus the derived context the
// dashboard renders next to them. It is recomputed from scratch on every
// request and never persisted.
type ValuationResult struct {
	Symbol        string      `json:"symbol"`
	Weight        float64     `json:"weight"`
	BlendedGrowth *float64    `json:"blended_growth,omitempty"` // fraction
	CurrentPEG    *float64    `json:"current_peg,omitempty"`
	PEGVerdict    string      `json:"peg_verdict,omitempty"`
	PEMean        *float64    `json:"pe_mean,omitempty"`
	PEStdDev      *float64    `json:"pe_std_dev,omitempty"`
	HistoricalPE  ModelResult `json:"historical_pe"`
	PEG           ModelResult `json:"peg"`
	// Upside of each model midpoint vs the current price, in percent.
	HistoricalPEUpside *float64 `json:"historical_pe_upside,omitempty"`
	PEGUpside          *float64 `json:"peg_upside,omitempty"`
}
