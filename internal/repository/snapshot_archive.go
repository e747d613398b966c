package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FairVal/internal/domain/models"
	drepo "FairVal/internal/domain/repository"
)

// SnapshotSchema returns the statements creating the archive table in
// database. Applied at startup via the ClickHouse client's schema init.
func SnapshotSchema(database string) []string {
	return []string{
		"CREATE DATABASE IF NOT EXISTS " + database,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.snapshots (
		ts            DateTime,
		symbol        LowCardinality(String),
		price         Nullable(Float64),
		trailing_pe   Nullable(Float64),
		forward_pe    Nullable(Float64),
		trailing_eps  Nullable(Float64),
		forward_eps   Nullable(Float64),
		beta          Nullable(Float64),
		sources       String
	) ENGINE = MergeTree()
	ORDER BY (symbol, ts)
	TTL ts + INTERVAL 2 YEAR`, database),
	}
}

// ClickHouseSnapshotArchive implements SnapshotArchive on ClickHouse. Every
// successful lookup appends one row; the price column doubles as a chart
// fallback for symbols the chart provider stops covering.
type ClickHouseSnapshotArchive struct {
	db    *sql.DB
	table string
}

// NewClickHouseSnapshotArchive creates the archive over an open connection.
// The connection lifecycle is owned by the caller.
func NewClickHouseSnapshotArchive(db *sql.DB, table string) drepo.SnapshotArchive {
	return &ClickHouseSnapshotArchive{db: db, table: table}
}

func (a *ClickHouseSnapshotArchive) Store(ctx context.Context, snap *models.QuoteSnapshot) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (ts, symbol, price, trailing_pe, forward_pe, trailing_eps, forward_eps, beta, sources) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		a.table,
	)
	_, err := a.db.ExecContext(ctx, q,
		snap.FetchedAt,
		snap.Symbol,
		snap.CurrentPrice,
		snap.TrailingPE,
		snap.ForwardPE,
		snap.TrailingEPS,
		snap.ForwardEPS,
		snap.Beta,
		strings.Join(snap.Sources, ","),
	)
	if err != nil {
		return fmt.Errorf("archive snapshot %s: %w", snap.Symbol, err)
	}
	return nil
}

func (a *ClickHouseSnapshotArchive) Prices(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.PricePoint, error) {
	q := fmt.Sprintf(
		"SELECT ts, price FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? AND price IS NOT NULL ORDER BY ts ASC LIMIT ?",
		a.table,
	)
	rows, err := a.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query archive %s: %w", symbol, err)
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var (
			ts    time.Time
			price float64
		)
		if err := rows.Scan(&ts, &price); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		points = append(points, models.PricePoint{Time: ts, Close: price})
	}
	return points, rows.Err()
}

func (a *ClickHouseSnapshotArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseSnapshotArchive) Close() error {
	return nil // connection owned by pkg client
}
