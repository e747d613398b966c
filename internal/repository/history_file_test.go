package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"FairVal/internal/domain/models"
)

func newTestStore(t *testing.T, limit int) (*FileHistoryStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.jsonl")
	s := NewFileHistoryStore(path, limit).(*FileHistoryStore)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, path
}

func entry(ticker string, offset int) models.HistoryEntry {
	return models.HistoryEntry{
		Ticker:    ticker,
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(offset) * time.Minute),
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s, _ := newTestStore(t, 10)
	if got := s.List(); len(got) != 0 {
		t.Fatalf("expected empty history, got %v", got)
	}
}

func TestAppendOrdersMostRecentFirst(t *testing.T) {
	s, _ := newTestStore(t, 10)
	for i, tk := range []string{"AAPL", "MSFT", "NVDA"} {
		if err := s.Append(entry(tk, i)); err != nil {
			t.Fatalf("Append %s: %v", tk, err)
		}
	}
	got := s.List()
	want := []string{"NVDA", "MSFT", "AAPL"}
	for i, tk := range want {
		if got[i].Ticker != tk {
			t.Fatalf("list[%d] = %s; want %s (full: %v)", i, got[i].Ticker, tk, got)
		}
	}
}

func TestAppendDeduplicatesByTicker(t *testing.T) {
	s, _ := newTestStore(t, 10)
	s.Append(entry("AAPL", 0))
	s.Append(entry("MSFT", 1))
	if err := s.Append(entry("AAPL", 2)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got := s.List()
	if len(got) != 2 {
		t.Fatalf("len = %d; want 2 (dedupe): %v", len(got), got)
	}
	if got[0].Ticker != "AAPL" || got[1].Ticker != "MSFT" {
		t.Fatalf("order = %v; want repeated AAPL promoted to front", got)
	}
	if got[0].Timestamp != entry("AAPL", 2).Timestamp {
		t.Fatalf("timestamp not refreshed: %v", got[0].Timestamp)
	}
}

func TestAppendCapsAtLimit(t *testing.T) {
	s, _ := newTestStore(t, 10)
	// Eleven distinct tickers: the first falls off, the ten most recent stay.
	for i := 0; i < 11; i++ {
		if err := s.Append(entry(fmt.Sprintf("T%02d", i), i)); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	got := s.List()
	if len(got) != 10 {
		t.Fatalf("len = %d; want 10", len(got))
	}
	if got[0].Ticker != "T10" || got[9].Ticker != "T01" {
		t.Fatalf("unexpected window: first=%s last=%s", got[0].Ticker, got[9].Ticker)
	}
}

func TestHistorySurvivesReload(t *testing.T) {
	s, path := newTestStore(t, 10)
	s.Append(entry("AAPL", 0))
	s.Append(entry("MSFT", 1))

	reloaded := NewFileHistoryStore(path, 10).(*FileHistoryStore)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := reloaded.List()
	if len(got) != 2 || got[0].Ticker != "MSFT" {
		t.Fatalf("reloaded = %v", got)
	}
}

func TestLoadSkipsCorruptLines(t *testing.T) {
	s, path := newTestStore(t, 10)
	s.Append(entry("AAPL", 0))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.WriteString("{not json\n")
	f.Close()

	reloaded := NewFileHistoryStore(path, 10).(*FileHistoryStore)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := reloaded.List()
	if len(got) != 1 || got[0].Ticker != "AAPL" {
		t.Fatalf("reloaded = %v; want the one valid entry", got)
	}
}
