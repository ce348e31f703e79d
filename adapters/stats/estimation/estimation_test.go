package estimation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantbin/domain/core"
)

func TestFitIsotonic(t *testing.T) {
	t.Run("already monotone data is untouched", func(t *testing.T) {
		iso, err := FitIsotonic([]float64{1, 2, 3, 4}, []float64{10, 20, 30, 40})
		require.NoError(t, err)
		assert.Equal(t, 20.0, iso.Predict(2))
		assert.InDelta(t, 25.0, iso.Predict(2.5), 1e-12)
	})

	t.Run("violators pool to the block mean", func(t *testing.T) {
		// y dips at x=2; PAVA pools {5, 1} into two 3s.
		iso, err := FitIsotonic([]float64{1, 2, 3}, []float64{5, 1, 7})
		require.NoError(t, err)
		assert.Equal(t, 3.0, iso.Predict(1))
		assert.Equal(t, 3.0, iso.Predict(2))
		assert.Equal(t, 7.0, iso.Predict(3))
	})

	t.Run("prediction clips outside the training range", func(t *testing.T) {
		iso, err := FitIsotonic([]float64{1, 2}, []float64{10, 20})
		require.NoError(t, err)
		assert.Equal(t, 10.0, iso.Predict(-5))
		assert.Equal(t, 20.0, iso.Predict(100))
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := FitIsotonic([]float64{1, 2}, []float64{1})
		assert.ErrorIs(t, err, core.ErrLengthMismatch)
	})
}

func TestEstimateQuantileBounds(t *testing.T) {
	uncerts := []float64{1, 2, 3, 4}
	errs := []float64{1, 2, 3, 4} // identity relation, fit is exact

	t.Run("quartile boundaries with predicted bounds", func(t *testing.T) {
		got, err := EstimateQuantileBounds(errs, uncerts, 4, BinningQuantile, false)
		require.NoError(t, err)
		require.Len(t, got.UncertaintyBoundaries, 3)
		assert.InDelta(t, 1.75, got.UncertaintyBoundaries[0], 1e-12)
		assert.InDelta(t, 2.5, got.UncertaintyBoundaries[1], 1e-12)
		assert.InDelta(t, 3.25, got.UncertaintyBoundaries[2], 1e-12)
		// Identity fit: predicted error bound equals the boundary itself.
		for i := range got.UncertaintyBoundaries {
			assert.InDelta(t, got.UncertaintyBoundaries[i], got.EstimatedErrors[i], 1e-12)
		}
	})

	t.Run("combine middle bins keeps the outer pair", func(t *testing.T) {
		got, err := EstimateQuantileBounds(errs, uncerts, 4, BinningQuantile, true)
		require.NoError(t, err)
		require.Len(t, got.UncertaintyBoundaries, 2)
		assert.InDelta(t, 1.75, got.UncertaintyBoundaries[0], 1e-12)
		assert.InDelta(t, 3.25, got.UncertaintyBoundaries[1], 1e-12)
		require.Len(t, got.EstimatedErrors, 2)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := EstimateQuantileBounds([]float64{1}, uncerts, 4, BinningQuantile, false)
		assert.ErrorIs(t, err, core.ErrLengthMismatch)
	})

	t.Run("error-wise binning is unimplemented", func(t *testing.T) {
		_, err := EstimateQuantileBounds(errs, uncerts, 4, BinningErrorWise, false)
		assert.ErrorIs(t, err, core.ErrNotImplemented)
	})

	t.Run("unknown binning type", func(t *testing.T) {
		_, err := EstimateQuantileBounds(errs, uncerts, 4, "banded", false)
		assert.ErrorIs(t, err, core.ErrUnknownBinningType)
	})
}
