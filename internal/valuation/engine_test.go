package valuation

import (
	"math"
	"testing"

	"FairVal/internal/domain/models"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func peSeries(values ...float64) []models.FundamentalPoint {
	series := make([]models.FundamentalPoint, 0, len(values))
	for _, v := range values {
		series = append(series, models.FundamentalPoint{Value: v})
	}
	return series
}

func TestBlendBothPresent(t *testing.T) {
	g, ok := Blend(models.Float(0.20), models.Float(0.10), 0.7)
	if !ok {
		t.Fatalf("expected blend to succeed")
	}
	if !almostEqual(g, 0.17, 1e-12) {
		t.Fatalf("blend = %v; want 0.17", g)
	}
}

func TestBlendFallsBackToPresentInput(t *testing.T) {
	// A missing input must not be treated as zero: the present estimate is
	// used at full weight regardless of w.
	g, ok := Blend(models.Float(0.20), nil, 0.3)
	if !ok || g != 0.20 {
		t.Fatalf("consensus-only blend = %v, %v; want 0.20, true", g, ok)
	}
	g, ok = Blend(nil, models.Float(0.10), 0.9)
	if !ok || g != 0.10 {
		t.Fatalf("history-only blend = %v, %v; want 0.10, true", g, ok)
	}
}

func TestBlendBothMissing(t *testing.T) {
	if _, ok := Blend(nil, nil, 0.5); ok {
		t.Fatalf("expected blend to report no growth estimate")
	}
}

func TestBlendWeightBounds(t *testing.T) {
	c, h := models.Float(0.30), models.Float(0.10)
	if g, _ := Blend(c, h, 1); g != 0.30 {
		t.Fatalf("w=1 blend = %v; want pure consensus 0.30", g)
	}
	if g, _ := Blend(c, h, 0); g != 0.10 {
		t.Fatalf("w=0 blend = %v; want pure history 0.10", g)
	}
}

func TestMeanStdDevSample(t *testing.T) {
	mean, sd, ok := MeanStdDev([]float64{18, 20, 22, 24})
	if !ok {
		t.Fatalf("expected stats for 4 points")
	}
	if !almostEqual(mean, 21, 1e-12) {
		t.Fatalf("mean = %v; want 21", mean)
	}
	// Sample stddev with n-1 denominator: sqrt(20/3).
	if !almostEqual(sd, math.Sqrt(20.0/3.0), 1e-12) {
		t.Fatalf("stddev = %v; want %v", sd, math.Sqrt(20.0/3.0))
	}
}

func TestMeanStdDevTooFewPoints(t *testing.T) {
	if _, _, ok := MeanStdDev([]float64{15}); ok {
		t.Fatalf("expected no stats for a single point")
	}
	if _, _, ok := MeanStdDev(nil); ok {
		t.Fatalf("expected no stats for empty input")
	}
}

func TestHistoricalPEFairValue(t *testing.T) {
	res := HistoricalPEFairValue(models.Float(4), peSeries(18, 20, 22, 24))
	if !res.Available() {
		t.Fatalf("expected available range, got reason %q", res.Reason)
	}
	sd := math.Sqrt(20.0 / 3.0)
	if !almostEqual(*res.Low, 4*(21-sd), 1e-9) {
		t.Fatalf("low = %v; want %v", *res.Low, 4*(21-sd))
	}
	if !almostEqual(*res.High, 4*(21+sd), 1e-9) {
		t.Fatalf("high = %v; want %v", *res.High, 4*(21+sd))
	}
}

func TestHistoricalPEClampsNegativeLow(t *testing.T) {
	// Volatile series where μ-σ is negative: the low bound clamps to 0.
	res := HistoricalPEFairValue(models.Float(2), peSeries(1, 50))
	if !res.Available() {
		t.Fatalf("expected available range, got reason %q", res.Reason)
	}
	if *res.Low != 0 {
		t.Fatalf("low = %v; want clamped 0", *res.Low)
	}
}

func TestHistoricalPEUnavailable(t *testing.T) {
	cases := []struct {
		name   string
		eps    *float64
		series []models.FundamentalPoint
		reason string
	}{
		{"no eps", nil, peSeries(18, 20), models.ReasonNoEarningsData},
		{"negative eps", models.Float(-1.5), peSeries(18, 20), models.ReasonNegativeEarnings},
		{"zero eps", models.Float(0), peSeries(18, 20), models.ReasonNegativeEarnings},
		{"short series", models.Float(4), peSeries(20), models.ReasonInsufficientHistory},
	}
	for _, tc := range cases {
		res := HistoricalPEFairValue(tc.eps, tc.series)
		if res.Available() {
			t.Fatalf("%s: expected unavailable", tc.name)
		}
		if res.Reason != tc.reason {
			t.Fatalf("%s: reason = %q; want %q", tc.name, res.Reason, tc.reason)
		}
	}
}

func TestPEGFairValue(t *testing.T) {
	res := PEGFairValue(models.Float(6), 0.15, DefaultParams())
	if !res.Available() {
		t.Fatalf("expected available range, got reason %q", res.Reason)
	}
	// fairPE = 1.0 * 15 = 15, fair price 90, band ±10%.
	if !almostEqual(*res.Low, 81, 1e-9) || !almostEqual(*res.High, 99, 1e-9) {
		t.Fatalf("range = (%v, %v); want (81, 99)", *res.Low, *res.High)
	}
}

func TestPEGFairValueUnavailable(t *testing.T) {
	p := DefaultParams()
	if res := PEGFairValue(nil, 0.15, p); res.Reason != models.ReasonNoEarningsData {
		t.Fatalf("nil eps reason = %q", res.Reason)
	}
	if res := PEGFairValue(models.Float(-2), 0.15, p); res.Reason != models.ReasonNegativeEarnings {
		t.Fatalf("negative eps reason = %q", res.Reason)
	}
	if res := PEGFairValue(models.Float(6), 0, p); res.Reason != models.ReasonNonPositiveGrowth {
		t.Fatalf("zero growth reason = %q", res.Reason)
	}
	if res := PEGFairValue(models.Float(6), -0.05, p); res.Reason != models.ReasonNonPositiveGrowth {
		t.Fatalf("negative growth reason = %q", res.Reason)
	}
}

func TestComputeModelsAreIndependent(t *testing.T) {
	// Negative trailing earnings kill the historical model, but the PEG
	// model still runs off the forward estimate.
	in := Inputs{
		Snapshot: models.QuoteSnapshot{
			Symbol:       "NVDA",
			CurrentPrice: models.Float(100),
			TrailingEPS:  models.Float(-2),
			ForwardEPS:   models.Float(6),
		},
		PESeries:        peSeries(18, 20, 22, 24),
		ConsensusGrowth: models.Float(0.15),
		Weight:          1,
	}
	res := Compute(in, DefaultParams())
	if res.HistoricalPE.Available() {
		t.Fatalf("expected historical model unavailable")
	}
	if res.HistoricalPE.Reason != models.ReasonNegativeEarnings {
		t.Fatalf("historical reason = %q", res.HistoricalPE.Reason)
	}
	if !res.PEG.Available() {
		t.Fatalf("expected PEG model available, got reason %q", res.PEG.Reason)
	}
	if !almostEqual(*res.PEG.Low, 81, 1e-9) || !almostEqual(*res.PEG.High, 99, 1e-9) {
		t.Fatalf("PEG range = (%v, %v); want (81, 99)", *res.PEG.Low, *res.PEG.High)
	}
}

func TestComputeFullResult(t *testing.T) {
	in := Inputs{
		Snapshot: models.QuoteSnapshot{
			Symbol:       "AAPL",
			CurrentPrice: models.Float(80),
			TrailingPE:   models.Float(25),
			TrailingEPS:  models.Float(4),
			ForwardEPS:   models.Float(6),
		},
		PESeries:        peSeries(18, 20, 22, 24),
		ConsensusGrowth: models.Float(0.20),
		HistoryGrowth:   models.Float(0.10),
		Weight:          0.5,
	}
	res := Compute(in, DefaultParams())

	if res.BlendedGrowth == nil || !almostEqual(*res.BlendedGrowth, 0.15, 1e-12) {
		t.Fatalf("blended growth = %v; want 0.15", res.BlendedGrowth)
	}
	if res.PEMean == nil || !almostEqual(*res.PEMean, 21, 1e-12) {
		t.Fatalf("pe mean = %v; want 21", res.PEMean)
	}
	if res.CurrentPEG == nil || !almostEqual(*res.CurrentPEG, 25.0/15.0, 1e-12) {
		t.Fatalf("current peg = %v; want %v", res.CurrentPEG, 25.0/15.0)
	}
	if res.PEGVerdict != models.VerdictExpensiveGrowth {
		t.Fatalf("verdict = %q; want %q", res.PEGVerdict, models.VerdictExpensiveGrowth)
	}
	if !res.HistoricalPE.Available() || !res.PEG.Available() {
		t.Fatalf("expected both models available")
	}
	// PEG midpoint is 90 against a price of 80: +12.5% upside.
	if res.PEGUpside == nil || !almostEqual(*res.PEGUpside, 12.5, 1e-9) {
		t.Fatalf("peg upside = %v; want 12.5", res.PEGUpside)
	}
}

func TestComputeNoGrowthEstimate(t *testing.T) {
	in := Inputs{
		Snapshot: models.QuoteSnapshot{
			Symbol:      "KO",
			TrailingEPS: models.Float(2.5),
		},
		PESeries: peSeries(22, 24, 26),
		Weight:   0.7,
	}
	res := Compute(in, DefaultParams())
	if !res.HistoricalPE.Available() {
		t.Fatalf("expected historical model available, got %q", res.HistoricalPE.Reason)
	}
	if res.PEG.Available() || res.PEG.Reason != models.ReasonNoGrowthEstimate {
		t.Fatalf("PEG reason = %q; want %q", res.PEG.Reason, models.ReasonNoGrowthEstimate)
	}
	if res.BlendedGrowth != nil {
		t.Fatalf("expected no blended growth, got %v", *res.BlendedGrowth)
	}
}

func TestComputeVerdictUndervalued(t *testing.T) {
	in := Inputs{
		Snapshot: models.QuoteSnapshot{
			Symbol:      "MU",
			TrailingPE:  models.Float(12),
			TrailingEPS: models.Float(8),
		},
		ConsensusGrowth: models.Float(0.20),
		Weight:          1,
	}
	res := Compute(in, DefaultParams())
	if res.PEGVerdict != models.VerdictUndervaluedGrowth {
		t.Fatalf("verdict = %q; want %q", res.PEGVerdict, models.VerdictUndervaluedGrowth)
	}
}
