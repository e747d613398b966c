package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	drepo "FairVal/internal/domain/repository"
	"FairVal/internal/service/ratelimit"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Query().Get("symbol") {
		case "AAPL":
			w.Write([]byte(`{"c":182.5,"h":184.1,"l":181.0,"o":183.2,"pc":181.9,"t":1719849600}`))
		default:
			w.Write([]byte(`{"c":0,"h":0,"l":0,"o":0,"pc":0,"t":0}`))
		}
	})
	mux.HandleFunc("/stock/metric", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"metric": {"peTTM": 28.4, "epsTTM": 6.42, "beta": 1.25, "epsGrowth5Y": 12.5},
			"series": {"quarterly": {
				"pe":  [{"period":"2024-06-30","v":24},{"period":"2024-03-31","v":22},{"period":"2023-12-31","v":20}],
				"eps": [{"period":"2024-06-30","v":1.6},{"period":"2024-03-31","v":1.5}]
			}}
		}`))
	})
	return httptest.NewServer(mux)
}

func newTestClient(srv *httptest.Server) *Client {
	return New("test-key", srv.URL, 5*time.Second, nil, 0, 0)
}

func TestQuote(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	snap, err := newTestClient(srv).Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if snap.CurrentPrice == nil || *snap.CurrentPrice != 182.5 {
		t.Fatalf("price = %v; want 182.5", snap.CurrentPrice)
	}
	if len(snap.Sources) != 1 || snap.Sources[0] != "finnhub" {
		t.Fatalf("sources = %v", snap.Sources)
	}
}

func TestQuoteUnknownSymbol(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	// Finnhub answers unknown tickers with an all-zero quote body.
	_, err := newTestClient(srv).Quote(context.Background(), "NOPE")
	if !errors.Is(err, drepo.ErrSymbolNotFound) {
		t.Fatalf("err = %v; want ErrSymbolNotFound", err)
	}
}

func TestFundamentals(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	f, err := newTestClient(srv).Fundamentals(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Fundamentals: %v", err)
	}
	if f.ConsensusGrowth == nil || *f.ConsensusGrowth != 0.125 {
		t.Fatalf("consensus growth = %v; want 0.125 (percent converted to fraction)", f.ConsensusGrowth)
	}
	if len(f.PESeries) != 3 {
		t.Fatalf("pe series len = %d; want 3", len(f.PESeries))
	}
	// Finnhub sends newest-first; the series must come back oldest-first.
	if f.PESeries[0].Value != 20 || f.PESeries[2].Value != 24 {
		t.Fatalf("pe series order = %v", f.PESeries)
	}
}

func TestFundamentalsTrailingScalars(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	f, err := newTestClient(srv).Fundamentals(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Fundamentals: %v", err)
	}
	if f.TrailingPE == nil || *f.TrailingPE != 28.4 {
		t.Fatalf("trailing pe = %v; want 28.4", f.TrailingPE)
	}
	if f.TrailingEPS == nil || *f.TrailingEPS != 6.42 {
		t.Fatalf("trailing eps = %v; want 6.42", f.TrailingEPS)
	}
	if f.Beta == nil || *f.Beta != 1.25 {
		t.Fatalf("beta = %v; want 1.25", f.Beta)
	}
}

func TestQuoteRateLimited(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	c := New("test-key", srv.URL, 5*time.Second, ratelimit.New(), 1, 0)
	if _, err := c.Quote(context.Background(), "AAPL"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	_, err := c.Quote(context.Background(), "AAPL")
	if !errors.Is(err, drepo.ErrRateLimited) {
		t.Fatalf("err = %v; want ErrRateLimited", err)
	}
}

func TestQuoteUpstreamError(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	c := New("wrong-key", srv.URL, 5*time.Second, nil, 0, 0)
	if _, err := c.Quote(context.Background(), "AAPL"); err == nil {
		t.Fatalf("expected error on 401 response")
	}
}
