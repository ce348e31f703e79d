package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"quantbin/domain/binning"
	"quantbin/domain/core"
	"quantbin/ports"
)

// Column layout of per-model prediction tables. Error and bin columns
// repeat per uncertainty type.
const (
	colUID    = "uid"
	colTarget = "target_idx"
	colFold   = "Testing Fold"

	errorColSuffix  = " Error"
	binsColSuffix   = " Uncertainty bins"
	boundsColSuffix = " Uncertainty bounds"
	boundsColFold   = "fold"
)

// TableReader loads per-model sample and bound tables from a data directory.
// Each model has one table file <dir>/<model>.xlsx (or .csv) and optionally
// one bound file <dir>/<model>_bounds.xlsx (or .csv).
type TableReader struct {
	dir   string
	types []core.UncertaintyType
}

// NewTableReader creates a reader for one data directory. Only the given
// uncertainty types are parsed out of the tables.
func NewTableReader(dir string, types []core.UncertaintyType) *TableReader {
	return &TableReader{dir: dir, types: types}
}

var _ ports.TableSourcePort = (*TableReader)(nil)

// ReadSamples loads the full sample table for a model.
func (r *TableReader) ReadSamples(ctx context.Context, model core.ModelName) (*binning.SampleTable, error) {
	rows, err := r.readFile(string(model))
	if err != nil {
		return nil, err
	}
	table, err := parseSampleRows(rows, r.types)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", model, err)
	}
	log.Printf("[TableReader] %s: %d sample rows", model, len(table.Records))
	return table, nil
}

// ReadBounds loads the learned bound table for a model.
func (r *TableReader) ReadBounds(ctx context.Context, model core.ModelName) (*binning.BoundTable, error) {
	rows, err := r.readFile(string(model) + "_bounds")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: model %s", core.ErrMissingBounds, model)
		}
		return nil, err
	}
	table, err := parseBoundRows(rows, r.types)
	if err != nil {
		return nil, fmt.Errorf("model %s bounds: %w", model, err)
	}
	log.Printf("[TableReader] %s: %d bound rows", model, len(table.Rows))
	return table, nil
}

// readFile resolves <dir>/<stem>.xlsx then <dir>/<stem>.csv and returns the
// raw string rows.
func (r *TableReader) readFile(stem string) ([][]string, error) {
	xlsxPath := filepath.Join(r.dir, stem+".xlsx")
	if _, err := os.Stat(xlsxPath); err == nil {
		return readXLSX(xlsxPath)
	}
	csvPath := filepath.Join(r.dir, stem+".csv")
	if _, err := os.Stat(csvPath); err != nil {
		return nil, err
	}
	return readCSV(csvPath)
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// headerIndex maps trimmed header names to column positions.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseSampleRows converts raw string rows into a sample table. Every
// requested uncertainty type must have its Error and Uncertainty bins
// columns present.
func parseSampleRows(rows [][]string, types []core.UncertaintyType) (*binning.SampleTable, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("table must have a header row and at least one data row")
	}
	idx := headerIndex(rows[0])

	for _, name := range []string{colUID, colTarget, colFold} {
		if _, ok := idx[name]; !ok {
			return nil, core.NewColumnError(name)
		}
	}
	for _, ut := range types {
		if _, ok := idx[string(ut)+errorColSuffix]; !ok {
			return nil, core.NewColumnError(string(ut) + errorColSuffix)
		}
		if _, ok := idx[string(ut)+binsColSuffix]; !ok {
			return nil, core.NewColumnError(string(ut) + binsColSuffix)
		}
	}

	table := &binning.SampleTable{}
	for n, row := range rows[1:] {
		uid := cell(row, idx[colUID])
		if uid == "" {
			return nil, fmt.Errorf("row %d: empty uid", n+2)
		}
		target, err := strconv.Atoi(cell(row, idx[colTarget]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid target_idx: %w", n+2, err)
		}
		fold, err := strconv.Atoi(cell(row, idx[colFold]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid fold: %w", n+2, err)
		}

		rec := binning.SampleRecord{
			UID:       core.UID(uid),
			TargetIdx: target,
			Fold:      fold,
			Errors:    make(map[core.UncertaintyType]float64, len(types)),
			Bins:      make(map[core.UncertaintyType]int, len(types)),
		}
		for _, ut := range types {
			errVal, err := strconv.ParseFloat(cell(row, idx[string(ut)+errorColSuffix]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid %s error: %w", n+2, ut, err)
			}
			bin, err := strconv.Atoi(cell(row, idx[string(ut)+binsColSuffix]))
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid %s bin: %w", n+2, ut, err)
			}
			rec.Errors[ut] = errVal
			rec.Bins[ut] = bin
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

// parseBoundRows converts raw string rows into a bound table. A bounds cell
// holds one threshold sequence per target, targets separated by "|" and
// thresholds by ",": e.g. "10.5,20.25|9,18".
func parseBoundRows(rows [][]string, types []core.UncertaintyType) (*binning.BoundTable, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("bound table must have a header row and at least one data row")
	}
	idx := headerIndex(rows[0])

	if _, ok := idx[boundsColFold]; !ok {
		return nil, core.NewColumnError(boundsColFold)
	}
	for _, ut := range types {
		if _, ok := idx[string(ut)+boundsColSuffix]; !ok {
			return nil, core.NewColumnError(string(ut) + boundsColSuffix)
		}
	}

	table := &binning.BoundTable{}
	for n, row := range rows[1:] {
		fold, err := strconv.Atoi(cell(row, idx[boundsColFold]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid fold: %w", n+2, err)
		}
		rec := binning.BoundRow{
			Fold:       fold,
			Thresholds: make(map[core.UncertaintyType][][]float64, len(types)),
		}
		for _, ut := range types {
			raw := cell(row, idx[string(ut)+boundsColSuffix])
			thresholds, err := parseBoundCell(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid %s bounds: %w", n+2, ut, err)
			}
			rec.Thresholds[ut] = thresholds
		}
		table.Rows = append(table.Rows, rec)
	}
	return table, nil
}

func parseBoundCell(raw string) ([][]float64, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty bounds cell")
	}
	var out [][]float64
	for _, targetPart := range strings.Split(raw, "|") {
		var thresholds []float64
		for _, v := range strings.Split(targetPart, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid threshold %q", v)
			}
			thresholds = append(thresholds, f)
		}
		out = append(out, thresholds)
	}
	return out, nil
}
