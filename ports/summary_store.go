package ports

import (
	"context"

	"quantbin/domain/report"
)

// SummaryStorePort persists finalized evaluation summary rows.
type SummaryStorePort interface {
	// SaveSummaries stores one batch of summary rows atomically.
	SaveSummaries(ctx context.Context, summaries []report.Summary) error

	// ListRecent returns the most recently stored rows, newest first.
	ListRecent(ctx context.Context, limit int) ([]report.Summary, error)
}
