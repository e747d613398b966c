package yahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"FairVal/internal/domain/models"
	drepo "FairVal/internal/domain/repository"
	phttp "FairVal/pkg/http"
)

const userAgent = "Mozilla/5.0 (compatible; fairval/1.0)"

// Client fetches quote snapshots and price history from Yahoo Finance. It
// implements the QuoteProvider and ChartProvider interfaces.
//
// Yahoo's payloads are deep and loosely schemaed, so fields are plucked
// with gjson paths instead of struct decoding; absent paths simply leave
// the snapshot field nil.
type Client struct {
	baseURL  string
	rng      string
	interval string
	http     *phttp.Client
}

// New creates a Yahoo client. rng and interval are the defaults used for
// snapshot chart fetches, e.g. "5y" and "1wk".
func New(baseURL, rng, interval string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		rng:      rng,
		interval: interval,
		http:     phttp.NewClient(phttp.WithTimeout(timeout)),
	}
}

func (c *Client) Name() string { return "yahoo" }

// Quote builds a snapshot from the quoteSummary endpoint, falling back to
// the chart meta price when the summary carries no market price.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error) {
	body, err := c.fetch(ctx, fmt.Sprintf("%s/v10/finance/quoteSummary/%s", c.baseURL, symbol), map[string][]string{
		"modules": {"summaryDetail,defaultKeyStatistics,financialData"},
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo quoteSummary %s: %w", symbol, err)
	}

	root := gjson.GetBytes(body, "quoteSummary")
	if !root.Get("result.0").Exists() {
		// Yahoo writes "error": null on well-formed responses.
		if e := root.Get("error"); e.Exists() && e.Type != gjson.Null {
			return nil, fmt.Errorf("yahoo quoteSummary %s: %w", symbol, drepo.ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("yahoo quoteSummary %s: empty result", symbol)
	}
	result := root.Get("result.0")

	snap := &models.QuoteSnapshot{
		Symbol:       symbol,
		CurrentPrice: raw(result, "financialData.currentPrice"),
		TrailingPE:   raw(result, "summaryDetail.trailingPE"),
		ForwardPE:    raw(result, "summaryDetail.forwardPE"),
		TrailingEPS:  raw(result, "defaultKeyStatistics.trailingEps"),
		ForwardEPS:   raw(result, "defaultKeyStatistics.forwardEps"),
		Beta:         raw(result, "summaryDetail.beta"),
		Sources:      []string{c.Name()},
		FetchedAt:    time.Now().UTC(),
	}

	if snap.CurrentPrice == nil {
		hist, err := c.PriceHistory(ctx, symbol, "1mo")
		if err == nil && len(hist.Points) > 0 {
			snap.CurrentPrice = models.Float(hist.Points[len(hist.Points)-1].Close)
		}
	}
	return snap, nil
}

// PriceHistory fetches the close series for symbol over rng from the v8
// chart endpoint. An empty rng uses the configured default.
func (c *Client) PriceHistory(ctx context.Context, symbol, rng string) (*models.PriceHistory, error) {
	if rng == "" {
		rng = c.rng
	}
	body, err := c.fetch(ctx, fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, symbol), map[string][]string{
		"range":    {rng},
		"interval": {c.interval},
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}

	chart := gjson.GetBytes(body, "chart")
	if chart.Get("error").Exists() && chart.Get("error").Type != gjson.Null {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, drepo.ErrSymbolNotFound)
	}
	result := chart.Get("result.0")
	if !result.Exists() {
		return nil, fmt.Errorf("yahoo chart %s: empty result", symbol)
	}

	timestamps := result.Get("timestamp").Array()
	closes := result.Get("indicators.quote.0.close").Array()

	hist := &models.PriceHistory{
		Symbol: symbol,
		Range:  rng,
		Points: make([]models.PricePoint, 0, len(timestamps)),
	}
	for i, ts := range timestamps {
		if i >= len(closes) {
			break
		}
		// Yahoo pads holidays with null closes.
		if closes[i].Type == gjson.Null {
			continue
		}
		hist.Points = append(hist.Points, models.PricePoint{
			Time:  time.Unix(ts.Int(), 0).UTC(),
			Close: closes[i].Float(),
		})
	}
	return hist, nil
}

func (c *Client) fetch(ctx context.Context, url string, params map[string][]string) ([]byte, error) {
	var body []byte
	err := c.http.SendAndParse(ctx, &phttp.RequestOptions{
		URL:         url,
		Headers:     map[string]string{"User-Agent": userAgent},
		QueryParams: params,
	}, &body)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// raw plucks Yahoo's {raw, fmt} number wrapper, tolerating bare numbers.
func raw(result gjson.Result, path string) *float64 {
	v := result.Get(path + ".raw")
	if !v.Exists() {
		v = result.Get(path)
	}
	if !v.Exists() || v.Type != gjson.Number {
		return nil
	}
	return models.Float(v.Float())
}
