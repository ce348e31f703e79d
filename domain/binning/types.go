package binning

import (
	"fmt"

	"quantbin/domain/core"
)

// ============================================================================
// SAMPLE TABLES (inputs, fully materialized before scoring)
// ============================================================================

// SampleRecord is one row of a per-model bin-prediction table. Errors and
// Bins are keyed by uncertainty type; a record carries one error magnitude
// and one predicted quantile bin per type. Records are immutable once built.
type SampleRecord struct {
	UID       core.UID                         `json:"uid"`
	TargetIdx int                              `json:"target_idx"`
	Fold      int                              `json:"fold"`
	Errors    map[core.UncertaintyType]float64 `json:"errors"`
	Bins      map[core.UncertaintyType]int     `json:"bins"`
}

// SampleTable is the full per-model table of sample records, in ingestion
// row order. Row order is load-bearing: group membership lists downstream
// preserve it.
type SampleTable struct {
	Records []SampleRecord `json:"records"`
}

// HasType reports whether every record carries the error and bin columns for
// the given uncertainty type. An empty table has no columns at all.
func (t *SampleTable) HasType(ut core.UncertaintyType) bool {
	if len(t.Records) == 0 {
		return false
	}
	for i := range t.Records {
		if _, ok := t.Records[i].Errors[ut]; !ok {
			return false
		}
		if _, ok := t.Records[i].Bins[ut]; !ok {
			return false
		}
	}
	return true
}

// ============================================================================
// BOUND TABLES (learned error bounds, one row per fold)
// ============================================================================

// BoundRow holds, for one fold, the learned error-bound thresholds per
// uncertainty type. Thresholds[ut][target] is an ordered sequence of
// numBins-1 values defining numBins intervals for that target.
type BoundRow struct {
	Fold       int                                  `json:"fold"`
	Thresholds map[core.UncertaintyType][][]float64 `json:"thresholds"`
}

// BoundTable is the per-model learned bound table.
type BoundTable struct {
	Rows []BoundRow `json:"rows"`
}

// FoldBounds returns the per-target threshold sequences for a fold and
// uncertainty type. Best-to-worst bin order, as learned upstream.
func (b *BoundTable) FoldBounds(fold int, ut core.UncertaintyType) ([][]float64, error) {
	for i := range b.Rows {
		if b.Rows[i].Fold != fold {
			continue
		}
		bounds, ok := b.Rows[i].Thresholds[ut]
		if !ok {
			return nil, core.NewColumnError(string(ut))
		}
		return bounds, nil
	}
	return nil, fmt.Errorf("%w: fold %d", core.ErrMissingBoundRow, fold)
}

// ============================================================================
// EVALUATION CONFIG
// ============================================================================

// Config carries the scalar knobs shared by every scorer. EffectiveBins is
// the bin count scorers actually operate on: 3 when CombineMiddleBins is
// set, NumBins otherwise. NumBins always keeps the original count because
// the quantile partitioner needs it to re-derive the uncombined thresholds.
type Config struct {
	NumBins            int     `json:"num_bins"`
	EffectiveBins      int     `json:"effective_bins"`
	Targets            []int   `json:"targets"`
	NumFolds           int     `json:"num_folds"`
	CombineMiddleBins  bool    `json:"combine_middle_bins"`
	ErrorScalingFactor float64 `json:"error_scaling_factor"`
}

// NewConfig builds a validated evaluation config. ErrorScalingFactor
// defaults to 1.0.
func NewConfig(numBins int, targets []int, numFolds int, combineMiddleBins bool) (Config, error) {
	cfg := Config{
		NumBins:            numBins,
		EffectiveBins:      numBins,
		Targets:            targets,
		NumFolds:           numFolds,
		CombineMiddleBins:  combineMiddleBins,
		ErrorScalingFactor: 1.0,
	}
	if combineMiddleBins {
		cfg.EffectiveBins = 3
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the config invariants before any fold is processed.
func (c Config) Validate() error {
	if c.NumBins < 2 {
		return fmt.Errorf("%w: got %d", core.ErrNoBins, c.NumBins)
	}
	if c.NumFolds < 1 {
		return fmt.Errorf("%w: got %d", core.ErrNoFolds, c.NumFolds)
	}
	if len(c.Targets) == 0 {
		return core.ErrNoTargets
	}
	return nil
}
