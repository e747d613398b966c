package models

import "time"

// HistoryEntry records one successful ticker lookup.
type HistoryEntry struct {
	Ticker    string    `json:"ticker"`
	Timestamp time.Time `json:"timestamp"`
}

// LookupEvent is the audit record published after each lookup attempt.
type LookupEvent struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Weight    float64   `json:"weight"`
	Status    string    `json:"status"` // "ok" or "provider_error"
}
