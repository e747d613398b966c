package repository

import (
	"context"
	"time"

	"FairVal/internal/domain/models"
)

// QuoteProvider supplies the point-in-time snapshot for a symbol.
type QuoteProvider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error)
}

// FundamentalsProvider supplies historical PE/EPS series and the analyst
// consensus growth estimate.
type FundamentalsProvider interface {
	Name() string
	Fundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error)
}

// ChartProvider supplies the price history used for charting.
type ChartProvider interface {
	Name() string
	PriceHistory(ctx context.Context, symbol, rng string) (*models.PriceHistory, error)
}

// HistoryStore is the persisted search history: a small ordered log,
// deduplicated by ticker and capped to the configured limit.
type HistoryStore interface {
	Load() error
	Append(entry models.HistoryEntry) error
	List() []models.HistoryEntry
}

// SnapshotArchive keeps fetched snapshots for offline analysis and as a
// chart fallback when a provider has no coverage.
type SnapshotArchive interface {
	Store(ctx context.Context, snap *models.QuoteSnapshot) error
	Prices(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.PricePoint, error)
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher emits lookup audit events.
type EventPublisher interface {
	Publish(ctx context.Context, ev *models.LookupEvent) error
	Close() error
}

// Metrics abstracts the Prometheus recorder.
type Metrics interface {
	RecordLookup(status string)
	RecordProviderError(provider string)
	RecordUnavailable(model, reason string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
