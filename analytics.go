package main

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/quietpawn/deckforge/models"
)

// CoverageSink exports one analytics row per deck build to ClickHouse,
// so coverage trends across corpus dumps can be queried outside the
// local DuckDB file. A nil sink is valid and drops everything.
type CoverageSink struct {
	conn driver.Conn
}

// NewCoverageSink creates a CoverageSink over the given connection.
// Pass nil when analytics export is disabled.
func NewCoverageSink(conn driver.Conn) *CoverageSink {
	if conn == nil {
		return nil
	}
	return &CoverageSink{conn: conn}
}

// EnsureSchema creates the deck_coverage table if it does not exist.
func (s *CoverageSink) EnsureSchema(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS deck_coverage (
			deck_id String,
			band String,
			min_rating Int32,
			max_rating Int32,
			deck_size Int32,
			skipped Int32,
			tranche_themes Int32,
			deck_themes Int32,
			coverage_ratio Float64,
			built_at DateTime
		) ENGINE = MergeTree()
		ORDER BY (band, built_at)
	`)
}

// Record inserts one coverage row for a finished deck build.
func (s *CoverageSink) Record(deck *models.DeckRecord, coverage models.CoverageReport) error {
	if s == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.conn.Exec(ctx, `
		INSERT INTO deck_coverage
			(deck_id, band, min_rating, max_rating, deck_size, skipped, tranche_themes, deck_themes, coverage_ratio, built_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		deck.ID, deck.Band.Label, int32(deck.Band.MinRating), int32(deck.Band.MaxRating),
		int32(deck.Size), int32(deck.Skipped),
		int32(coverage.TrancheThemeCount), int32(coverage.DeckThemeCount),
		coverage.CoverageRatio, deck.CreatedAt,
	)
}

// Ping reports whether the analytics backend is reachable.
func (s *CoverageSink) Ping(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.conn.Ping(ctx)
}
