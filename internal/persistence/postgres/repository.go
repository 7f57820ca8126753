// Package postgres stores activity metrics in Postgres.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/timestats/internal/observability"
	"example.com/timestats/internal/stats"
)

// Repository provides Postgres-backed persistence for activity metrics.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRecords returns every stored record ordered by position then title.
// Rows are grouped case-insensitively by title.
func (r *Repository) ListRecords(ctx context.Context) (stats.Snapshot, error) {
	const query = `SELECT title, timeframe, current_hours, previous_hours
        FROM time_stats ORDER BY position, title, timeframe`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query time_stats: %w", err)
	}
	defer rows.Close()

	snap := stats.Snapshot{}
	index := make(map[string]int)
	for rows.Next() {
		var (
			title     string
			timeframe string
			metric    stats.Metric
		)
		if err := rows.Scan(&title, &timeframe, &metric.Current, &metric.Previous); err != nil {
			return nil, fmt.Errorf("scan time_stats: %w", err)
		}
		key := strings.ToLower(title)
		i, ok := index[key]
		if !ok {
			i = len(snap)
			index[key] = i
			snap = append(snap, stats.ActivityRecord{Title: title, Timeframes: make(map[stats.Timeframe]stats.Metric, 3)})
		}
		snap[i].Timeframes[stats.Timeframe(timeframe)] = metric
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time_stats: %w", err)
	}
	return snap, nil
}

// UpsertMetric inserts or replaces the metric for one (title, timeframe) pair.
// Titles match existing rows case-insensitively. A nil position keeps the stored position.
func (r *Repository) UpsertMetric(ctx context.Context, update stats.MetricUpdate) error {
	const query = `WITH existing AS (SELECT title FROM time_stats WHERE lower(title) = lower($1) LIMIT 1)
        INSERT INTO time_stats (title, timeframe, current_hours, previous_hours, position, updated_at)
        VALUES (COALESCE((SELECT title FROM existing), $1), $2, $3, $4, COALESCE($5::int, 0), $6)
        ON CONFLICT (title, timeframe) DO UPDATE SET
            current_hours = EXCLUDED.current_hours,
            previous_hours = EXCLUDED.previous_hours,
            position = COALESCE($5::int, time_stats.position),
            updated_at = EXCLUDED.updated_at`

	if err := update.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := r.pool.Exec(ctx, query, update.Title, string(update.Timeframe), update.Current, update.Previous, update.Position, now); err != nil {
		return fmt.Errorf("upsert time_stats: %w", err)
	}
	observability.RecordMetricUpserted(now)
	return nil
}

// Ping verifies connectivity for health checks.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
