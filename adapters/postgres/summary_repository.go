package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"quantbin/domain/report"
	"quantbin/ports"
)

// summaryRepository implements the SummaryStorePort interface
type summaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *sqlx.DB) ports.SummaryStorePort {
	return &summaryRepository{db: db}
}

// Connect opens a Postgres connection and verifies it.
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

const schema = `CREATE TABLE IF NOT EXISTS bin_summaries (
	id UUID PRIMARY KEY,
	model TEXT NOT NULL,
	uncertainty_type TEXT NOT NULL,
	metric TEXT NOT NULL,
	bin_means JSONB NOT NULL,
	target_mean DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bin_summaries_created_at ON bin_summaries (created_at DESC)`

// EnsureSchema creates the summary table if it does not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveSummaries stores one batch of summary rows in a single transaction.
func (r *summaryRepository) SaveSummaries(ctx context.Context, summaries []report.Summary) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO bin_summaries (
		id, model, uncertainty_type, metric, bin_means, target_mean, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, s := range summaries {
		binMeansJSON, err := json.Marshal(s.BinMeans)
		if err != nil {
			return fmt.Errorf("failed to marshal bin means: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query,
			s.ID, s.Model, s.UncertaintyType, s.Metric, binMeansJSON, s.TargetMean, s.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert summary %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit summaries: %w", err)
	}
	return nil
}

// ListRecent returns the most recently stored rows, newest first.
func (r *summaryRepository) ListRecent(ctx context.Context, limit int) ([]report.Summary, error) {
	query := `SELECT id, model, uncertainty_type, metric, bin_means, target_mean, created_at
	FROM bin_summaries
	ORDER BY created_at DESC, model, uncertainty_type, metric
	LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []report.Summary
	for rows.Next() {
		var s report.Summary
		var binMeansJSON []byte
		if err := rows.Scan(
			&s.ID, &s.Model, &s.UncertaintyType, &s.Metric, &binMeansJSON, &s.TargetMean, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		if err := json.Unmarshal(binMeansJSON, &s.BinMeans); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bin means: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summaries: %w", err)
	}
	return summaries, nil
}
