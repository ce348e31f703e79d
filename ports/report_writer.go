package ports

import (
	"context"

	"quantbin/domain/report"
)

// ReportWriterPort renders finalized summary rows to an external artifact
// (workbook, document).
type ReportWriterPort interface {
	// WriteReport writes all summary rows to the given path, one section per
	// metric.
	WriteReport(ctx context.Context, path string, summaries []report.Summary) error
}
