package estimation

import (
	"fmt"

	"quantbin/domain/binning"
	"quantbin/domain/core"
)

// BinningType selects how quantile bin boundaries are derived.
type BinningType string

const (
	// BinningQuantile cuts at empirical uncertainty quantiles (recommended).
	BinningQuantile BinningType = "quantile"
	// BinningErrorWise would cut at fixed error thresholds; intentionally
	// unimplemented upstream and kept that way here.
	BinningErrorWise BinningType = "error-wise"
)

// EstimatedBounds holds, per interior bin boundary, the uncertainty value
// the boundary sits at and the error bound the isotonic fit predicts there.
// Both sequences are ordered best to worst bin and have numBins-1 entries
// (2 after combine-middle-bins).
type EstimatedBounds struct {
	UncertaintyBoundaries []float64 `json:"uncertainty_boundaries"`
	EstimatedErrors       []float64 `json:"estimated_errors"`
}

// EstimateQuantileBounds fits a monotonic regression of error on
// uncertainty and emits the quantile boundary values plus the predicted
// error bound at each boundary. With combineMiddleBins only the outer
// boundary pair is kept, consistent with the 3-way collapsed partition.
func EstimateQuantileBounds(errors, uncertainties []float64, numBins int, typ BinningType, combineMiddleBins bool) (*EstimatedBounds, error) {
	if len(errors) != len(uncertainties) {
		return nil, core.NewLengthMismatchError(len(errors), len(uncertainties))
	}
	if len(errors) == 0 {
		return nil, fmt.Errorf("no samples to estimate bounds from")
	}
	switch typ {
	case BinningQuantile:
	case BinningErrorWise:
		return nil, fmt.Errorf("%w: error-wise quantile binning", core.ErrNotImplemented)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownBinningType, typ)
	}

	iso, err := FitIsotonic(uncertainties, errors)
	if err != nil {
		return nil, err
	}

	// Boundary values use the same linear-interpolation quantile definition
	// as the ground-truth partitioner, so estimated bounds and quantile
	// groups cut the data at identical points.
	out := &EstimatedBounds{}
	for _, boundary := range binning.QuantileThresholds(uncertainties, numBins) {
		out.UncertaintyBoundaries = append(out.UncertaintyBoundaries, boundary)
		out.EstimatedErrors = append(out.EstimatedErrors, iso.Predict(boundary))
	}

	if combineMiddleBins && len(out.UncertaintyBoundaries) >= 2 {
		out.UncertaintyBoundaries = []float64{
			out.UncertaintyBoundaries[0],
			out.UncertaintyBoundaries[len(out.UncertaintyBoundaries)-1],
		}
		out.EstimatedErrors = []float64{
			out.EstimatedErrors[0],
			out.EstimatedErrors[len(out.EstimatedErrors)-1],
		}
	}
	return out, nil
}
