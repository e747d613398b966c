package finnhub

import (
	"context"
	"fmt"
	"sort"
	"time"

	"FairVal/internal/domain/models"
	drepo "FairVal/internal/domain/repository"
	"FairVal/internal/service/ratelimit"
	phttp "FairVal/pkg/http"
	"FairVal/pkg/util"
)

// Client fetches quotes and fundamentals from the Finnhub REST API. It
// implements both the QuoteProvider and FundamentalsProvider interfaces.
type Client struct {
	apiKey  string
	baseURL string
	http    *phttp.Client

	limiter      *ratelimit.Limiter
	rateCapacity float64
	ratePerSec   float64
}

// New creates a Finnhub client. The limiter keeps calls inside the free-tier
// quota; capacity <= 0 disables limiting.
func New(apiKey, baseURL string, timeout time.Duration, limiter *ratelimit.Limiter, rateCapacity, ratePerSec float64) *Client {
	return &Client{
		apiKey:       apiKey,
		baseURL:      baseURL,
		http:         phttp.NewClient(phttp.WithTimeout(timeout)),
		limiter:      limiter,
		rateCapacity: rateCapacity,
		ratePerSec:   ratePerSec,
	}
}

func (c *Client) Name() string { return "finnhub" }

type fhQuote struct {
	Current  float64 `json:"c"`
	High     float64 `json:"h"`
	Low      float64 `json:"l"`
	Open     float64 `json:"o"`
	PrevOpen float64 `json:"pc"`
	Time     int64   `json:"t"`
}

type fhSeriesPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"v"`
}

type fhMetric struct {
	Metric struct {
		PETTM       *float64 `json:"peTTM"`
		EPSTTM      *float64 `json:"epsTTM"`
		Beta        *float64 `json:"beta"`
		EPSGrowth5Y *float64 `json:"epsGrowth5Y"` // percent
	} `json:"metric"`
	Series struct {
		Quarterly struct {
			PE  []fhSeriesPoint `json:"pe"`
			EPS []fhSeriesPoint `json:"eps"`
		} `json:"quarterly"`
	} `json:"series"`
}

// Quote fetches the real-time quote for symbol. Finnhub answers unknown
// tickers with an all-zero quote rather than an error status.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error) {
	if err := c.acquire("quote"); err != nil {
		return nil, err
	}

	var q fhQuote
	err := c.http.SendAndParse(ctx, &phttp.RequestOptions{
		URL: c.baseURL + "/quote",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"token":  {c.apiKey},
		},
	}, &q)
	if err != nil {
		return nil, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}
	if q.Current == 0 && q.Time == 0 {
		return nil, fmt.Errorf("finnhub quote %s: %w", symbol, drepo.ErrSymbolNotFound)
	}

	return &models.QuoteSnapshot{
		Symbol:       symbol,
		CurrentPrice: models.Float(q.Current),
		Sources:      []string{c.Name()},
		FetchedAt:    time.Now().UTC(),
	}, nil
}

// Fundamentals fetches trailing metrics, the quarterly PE/EPS series, and
// the analyst consensus growth estimate for symbol.
func (c *Client) Fundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	m, err := c.metrics(ctx, symbol)
	if err != nil {
		return nil, err
	}

	f := &models.Fundamentals{
		PESeries:    toSeries(m.Series.Quarterly.PE),
		EPSSeries:   toSeries(m.Series.Quarterly.EPS),
		TrailingPE:  m.Metric.PETTM,
		TrailingEPS: m.Metric.EPSTTM,
		Beta:        m.Metric.Beta,
	}
	if m.Metric.EPSGrowth5Y != nil {
		// Finnhub reports growth in percent; the engine works in fractions.
		f.ConsensusGrowth = models.Float(*m.Metric.EPSGrowth5Y / 100)
	}
	return f, nil
}

func (c *Client) metrics(ctx context.Context, symbol string) (*fhMetric, error) {
	if err := c.acquire("metric"); err != nil {
		return nil, err
	}

	var m fhMetric
	err := c.http.SendAndParse(ctx, &phttp.RequestOptions{
		URL: c.baseURL + "/stock/metric",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"metric": {"all"},
			"token":  {c.apiKey},
		},
	}, &m)
	if err != nil {
		return nil, fmt.Errorf("finnhub metric %s: %w", symbol, err)
	}
	return &m, nil
}

func (c *Client) acquire(endpoint string) error {
	if c.limiter == nil || c.rateCapacity <= 0 {
		return nil
	}
	if !c.limiter.Allow("finnhub:"+endpoint, c.rateCapacity, c.ratePerSec) {
		return fmt.Errorf("finnhub %s: %w", endpoint, drepo.ErrRateLimited)
	}
	return nil
}

// toSeries converts Finnhub's newest-first quarterly series to the
// oldest-to-newest order the engine expects, dropping unparseable periods.
func toSeries(points []fhSeriesPoint) []models.FundamentalPoint {
	out := make([]models.FundamentalPoint, 0, len(points))
	for _, p := range points {
		period, ok := util.ParseTime(p.Period)
		if !ok {
			continue
		}
		out = append(out, models.FundamentalPoint{Period: period, Value: p.Value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out
}
