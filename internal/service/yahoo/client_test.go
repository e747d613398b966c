package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	drepo "FairVal/internal/domain/repository"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v10/finance/quoteSummary/", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.TrimPrefix(r.URL.Path, "/v10/finance/quoteSummary/")
		if symbol != "AAPL" {
			w.Write([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found"}}}`))
			return
		}
		w.Write([]byte(`{"quoteSummary":{"result":[{
			"summaryDetail": {"trailingPE":{"raw":28.4,"fmt":"28.40"},"forwardPE":{"raw":24.1,"fmt":"24.10"},"beta":{"raw":1.25,"fmt":"1.25"}},
			"defaultKeyStatistics": {"trailingEps":{"raw":6.42,"fmt":"6.42"},"forwardEps":{"raw":7.10,"fmt":"7.10"}},
			"financialData": {"currentPrice":{"raw":182.5,"fmt":"182.50"}}
		}],"error":null}}`))
	})
	mux.HandleFunc("/v8/finance/chart/", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		if symbol != "AAPL" {
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
			return
		}
		w.Write([]byte(`{"chart":{"result":[{
			"meta": {"regularMarketPrice": 182.5},
			"timestamp": [1717977600, 1718582400, 1719187200],
			"indicators": {"quote":[{"close":[180.1, null, 182.5]}]}
		}],"error":null}}`))
	})
	return httptest.NewServer(mux)
}

func newTestClient(srv *httptest.Server) *Client {
	return New(srv.URL, "5y", "1wk", 5*time.Second)
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
	if snap.TrailingPE == nil || *snap.TrailingPE != 28.4 {
		t.Fatalf("trailing pe = %v; want 28.4", snap.TrailingPE)
	}
	if snap.ForwardEPS == nil || *snap.ForwardEPS != 7.10 {
		t.Fatalf("forward eps = %v; want 7.10", snap.ForwardEPS)
	}
	if snap.Beta == nil || *snap.Beta != 1.25 {
		t.Fatalf("beta = %v; want 1.25", snap.Beta)
	}
}

func TestQuoteUnknownSymbol(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	_, err := newTestClient(srv).Quote(context.Background(), "NOPE")
	if !errors.Is(err, drepo.ErrSymbolNotFound) {
		t.Fatalf("err = %v; want ErrSymbolNotFound", err)
	}
}

func TestQuoteEmptyResultNullError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Quote(context.Background(), "AAPL")
	if err == nil {
		t.Fatalf("expected error for empty result")
	}
	if errors.Is(err, drepo.ErrSymbolNotFound) {
		t.Fatalf("null error field must not read as unknown symbol: %v", err)
	}
}

func TestPriceHistorySkipsNullCloses(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	hist, err := newTestClient(srv).PriceHistory(context.Background(), "AAPL", "5y")
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	// Three timestamps, one null close.
	if len(hist.Points) != 2 {
		t.Fatalf("points = %d; want 2", len(hist.Points))
	}
	if hist.Points[0].Close != 180.1 || hist.Points[1].Close != 182.5 {
		t.Fatalf("closes = %v", hist.Points)
	}
	if hist.Points[0].Time.Unix() != 1717977600 {
		t.Fatalf("first point time = %v", hist.Points[0].Time)
	}
}

func TestPriceHistoryDefaultRange(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	hist, err := newTestClient(srv).PriceHistory(context.Background(), "AAPL", "")
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if hist.Range != "5y" {
		t.Fatalf("range = %q; want configured default 5y", hist.Range)
	}
}

func TestPriceHistoryUnknownSymbol(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	_, err := newTestClient(srv).PriceHistory(context.Background(), "NOPE", "5y")
	if !errors.Is(err, drepo.ErrSymbolNotFound) {
		t.Fatalf("err = %v; want ErrSymbolNotFound", err)
	}
}
