package valuation

import (
	"math"

	"FairVal/internal/domain/models"
)

// Params holds the model constants. ReferencePEG is the PEG ratio treated as
// "fairly priced growth"; Tolerance is the half-width of the band placed
// around the PEG fair price.
type Params struct {
	ReferencePEG float64
	Tolerance    float64
}

// DefaultParams returns the conventional constants: PEG 1.0 and a ±10% band.
func DefaultParams() Params {
	return Params{ReferencePEG: 1.0, Tolerance: 0.10}
}

// Inputs collects everything the engine needs for one computation. The
// engine holds no state: identical inputs always produce identical results.
type Inputs struct {
	Snapshot        models.QuoteSnapshot
	PESeries        []models.FundamentalPoint
	ConsensusGrowth *float64 // fraction, from the provider
	HistoryGrowth   *float64 // fraction, user-entered
	Weight          float64  // w in [0,1]; 1 = pure consensus
}

// Blend combines consensus and historical growth as w*c + (1-w)*h.
// When one input is absent its weight is redistributed to the present one,
// i.e. the present value is returned unmodified; substituting zero for a
// missing input would understate growth and corrupt the PEG fair value.
// Returns ok=false when both inputs are absent.
func Blend(consensus, history *float64, w float64) (float64, bool) {
	switch {
	case consensus != nil && history != nil:
		return w**consensus + (1-w)**history, true
	case consensus != nil:
		return *consensus, true
	case history != nil:
		return *history, true
	default:
		return 0, false
	}
}

// MeanStdDev returns the mean and sample standard deviation (n-1 denominator)
// of values. ok is false for fewer than two points, where σ is undefined.
func MeanStdDev(values []float64) (mean, sd float64, ok bool) {
	n := len(values)
	if n < 2 {
		return 0, 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	sd = math.Sqrt(ss / float64(n-1))
	return mean, sd, true
}

// HistoricalPEFairValue prices the stock at one standard deviation around its
// own historical PE multiple: low = eps*(μ-σ), high = eps*(μ+σ). A negative
// low bound is clamped to zero since a fair price cannot be negative.
func HistoricalPEFairValue(trailingEPS *float64, series []models.FundamentalPoint) models.ModelResult {
	if trailingEPS == nil {
		return models.UnavailableRange(models.ReasonNoEarningsData)
	}
	if *trailingEPS <= 0 {
		return models.UnavailableRange(models.ReasonNegativeEarnings)
	}

	values := make([]float64, 0, len(series))
	for _, p := range series {
		values = append(values, p.Value)
	}
	mean, sd, ok := MeanStdDev(values)
	if !ok {
		return models.UnavailableRange(models.ReasonInsufficientHistory)
	}

	low := *trailingEPS * (mean - sd)
	high := *trailingEPS * (mean + sd)
	if low < 0 {
		low = 0
	}
	return models.AvailableRange(low, high)
}

// PEGFairValue prices the stock off its growth rate: a stock growing at G is
// "fairly" worth a PE of referencePEG * G(in percent), so
// fairPrice = eps * fairPE, with a ±tolerance band for estimation
// uncertainty. Undefined for non-positive growth or earnings.
func PEGFairValue(eps *float64, g float64, p Params) models.ModelResult {
	if eps == nil {
		return models.UnavailableRange(models.ReasonNoEarningsData)
	}
	if *eps <= 0 {
		return models.UnavailableRange(models.ReasonNegativeEarnings)
	}
	if g <= 0 {
		return models.UnavailableRange(models.ReasonNonPositiveGrowth)
	}

	fairPE := p.ReferencePEG * (g * 100)
	fairPrice := *eps * fairPE
	return models.AvailableRange(fairPrice*(1-p.Tolerance), fairPrice*(1+p.Tolerance))
}

// Compute runs both models and assembles the derived context. The two models
// are fully independent: either may be unavailable without affecting the
// other.
func Compute(in Inputs, p Params) models.ValuationResult {
	res := models.ValuationResult{
		Symbol: in.Snapshot.Symbol,
		Weight: in.Weight,
	}

	// Model 1: historical PE multiple off trailing earnings.
	res.HistoricalPE = HistoricalPEFairValue(in.Snapshot.TrailingEPS, in.PESeries)
	if values := seriesValues(in.PESeries); len(values) >= 2 {
		mean, sd, _ := MeanStdDev(values)
		res.PEMean = models.Float(mean)
		res.PEStdDev = models.Float(sd)
	}

	// Model 2: PEG off the blended growth rate and forward earnings,
	// falling back to trailing when no forward estimate exists.
	pegEPS := in.Snapshot.ForwardEPS
	if pegEPS == nil {
		pegEPS = in.Snapshot.TrailingEPS
	}

	g, ok := Blend(in.ConsensusGrowth, in.HistoryGrowth, in.Weight)
	if !ok {
		res.PEG = models.UnavailableRange(models.ReasonNoGrowthEstimate)
	} else {
		res.BlendedGrowth = models.Float(g)
		res.PEG = PEGFairValue(pegEPS, g, p)

		if in.Snapshot.TrailingPE != nil {
			if g > 0 {
				peg := *in.Snapshot.TrailingPE / (g * 100)
				res.CurrentPEG = models.Float(peg)
				if peg <= 0 {
					res.PEGVerdict = models.VerdictUnreliable
				} else if peg < 1.0 {
					res.PEGVerdict = models.VerdictUndervaluedGrowth
				} else {
					res.PEGVerdict = models.VerdictExpensiveGrowth
				}
			} else {
				res.PEGVerdict = models.VerdictUnreliable
			}
		}
	}

	if price := in.Snapshot.CurrentPrice; price != nil && *price > 0 {
		if res.HistoricalPE.Available() {
			res.HistoricalPEUpside = models.Float((res.HistoricalPE.Mid() - *price) / *price * 100)
		}
		if res.PEG.Available() {
			res.PEGUpside = models.Float((res.PEG.Mid() - *price) / *price * 100)
		}
	}

	return res
}

func seriesValues(series []models.FundamentalPoint) []float64 {
	values := make([]float64, 0, len(series))
	for _, p := range series {
		values = append(values, p.Value)
	}
	return values
}
