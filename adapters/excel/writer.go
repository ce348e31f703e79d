package excel

import (
	"context"
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"

	"quantbin/domain/report"
	"quantbin/ports"
)

// ReportWriter renders summary rows into an xlsx workbook, one sheet per
// metric. Columns are the worst-to-best bin labels (B_N down to B_1)
// followed by the cross-target mean.
type ReportWriter struct{}

// NewReportWriter creates a workbook report writer.
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

var _ ports.ReportWriterPort = (*ReportWriter)(nil)

// WriteReport writes all summary rows to path. Metrics with no rows get no
// sheet.
func (w *ReportWriter) WriteReport(ctx context.Context, path string, summaries []report.Summary) error {
	byMetric := make(map[report.Metric][]report.Summary)
	for _, s := range summaries {
		byMetric[s.Metric] = append(byMetric[s.Metric], s)
	}

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for _, metric := range report.AllMetrics {
		rows := byMetric[metric]
		if len(rows) == 0 {
			continue
		}
		sheet := string(metric)
		if first {
			// Rename the default sheet instead of leaving it dangling.
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", sheet, err)
			}
			first = false
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
			}
		}
		if err := writeMetricSheet(f, sheet, rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report workbook: %w", err)
	}
	log.Printf("[ReportWriter] wrote %d summary rows to %s", len(summaries), path)
	return nil
}

func writeMetricSheet(f *excelize.File, sheet string, rows []report.Summary) error {
	numBins := 0
	for _, s := range rows {
		if len(s.BinMeans) > numBins {
			numBins = len(s.BinMeans)
		}
	}

	header := []interface{}{"Model", "Uncertainty"}
	for _, label := range report.BinLabels(numBins) {
		header = append(header, label)
	}
	header = append(header, "Target Mean")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header on %s: %w", sheet, err)
	}

	for i, s := range rows {
		row := []interface{}{string(s.Model), string(s.UncertaintyType)}
		for _, v := range s.BinMeans {
			if v == nil {
				row = append(row, "") // bin never populated
			} else {
				row = append(row, *v)
			}
		}
		row = append(row, s.TargetMean)

		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d on %s: %w", i+2, sheet, err)
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return fmt.Errorf("failed to write row %d on %s: %w", i+2, sheet, err)
		}
	}
	return nil
}
