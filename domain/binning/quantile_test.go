package binning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantbin/domain/core"
)

func sliceForErrors(t *testing.T, errs map[core.UID]float64, order []core.UID) *TargetSlice {
	t.Helper()
	ts := &TargetSlice{
		TargetIdx: 0,
		UIDs:      order,
		Errors:    errs,
		Bins:      make(map[core.UID]int),
	}
	return ts
}

func TestQuantileThresholds(t *testing.T) {
	t.Run("median of four", func(t *testing.T) {
		got := QuantileThresholds([]float64{1, 2, 3, 4}, 2)
		require.Len(t, got, 1)
		assert.InDelta(t, 2.5, got[0], 1e-12)
	})

	t.Run("quartiles", func(t *testing.T) {
		got := QuantileThresholds([]float64{1, 2, 3, 4}, 4)
		require.Len(t, got, 3)
		assert.InDelta(t, 1.75, got[0], 1e-12)
		assert.InDelta(t, 2.5, got[1], 1e-12)
		assert.InDelta(t, 3.25, got[2], 1e-12)
	})

	t.Run("interpolates between order statistics", func(t *testing.T) {
		// h = p*(n-1): the 1/3 quantile of five values sits a third of the
		// way from index 1 to 2, the 2/3 quantile two thirds from 2 to 3.
		got := QuantileThresholds([]float64{10, 20, 30, 40, 50}, 3)
		require.Len(t, got, 2)
		assert.InDelta(t, 20.0+10.0/3.0, got[0], 1e-12)
		assert.InDelta(t, 30.0+20.0/3.0, got[1], 1e-12)
	})

	t.Run("single sample", func(t *testing.T) {
		got := QuantileThresholds([]float64{7}, 2)
		require.Len(t, got, 1)
		assert.InDelta(t, 7.0, got[0], 1e-12)
	})

	t.Run("unsorted input", func(t *testing.T) {
		got := QuantileThresholds([]float64{4, 1, 3, 2}, 2)
		require.Len(t, got, 1)
		assert.InDelta(t, 2.5, got[0], 1e-12)
	})
}

func TestPartitionByQuantile(t *testing.T) {
	order := []core.UID{"a", "b", "c", "d", "e", "f"}
	errs := map[core.UID]float64{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6}

	t.Run("partition covers all ids exactly once", func(t *testing.T) {
		qg := PartitionByQuantile(sliceForErrors(t, errs, order), 3, false)
		require.Len(t, qg.UIDs, 3)

		seen := make(map[core.UID]int)
		for _, group := range qg.UIDs {
			for _, uid := range group {
				seen[uid]++
			}
		}
		require.Len(t, seen, len(order))
		for uid, n := range seen {
			assert.Equal(t, 1, n, "uid %s assigned to %d groups", uid, n)
		}
	})

	t.Run("groups keep row order", func(t *testing.T) {
		qg := PartitionByQuantile(sliceForErrors(t, errs, order), 2, false)
		require.Len(t, qg.UIDs, 2)
		assert.Equal(t, []core.UID{"a", "b", "c"}, qg.UIDs[0])
		assert.Equal(t, []core.UID{"d", "e", "f"}, qg.UIDs[1])
	})

	t.Run("combine middle bins collapses to three groups", func(t *testing.T) {
		full := PartitionByQuantile(sliceForErrors(t, errs, order), 6, false)
		combined := PartitionByQuantile(sliceForErrors(t, errs, order), 6, true)

		require.Len(t, full.UIDs, 6)
		require.Len(t, combined.UIDs, 3)

		// Outer groups survive unchanged; everything between folds into one.
		assert.Equal(t, full.UIDs[0], combined.UIDs[0])
		assert.Equal(t, full.UIDs[5], combined.UIDs[2])

		var middle []core.UID
		for _, g := range full.UIDs[1:5] {
			middle = append(middle, g...)
		}
		assert.ElementsMatch(t, middle, combined.UIDs[1])
	})

	t.Run("reverse flips group axis", func(t *testing.T) {
		qg := PartitionByQuantile(sliceForErrors(t, errs, order), 2, false)
		first := qg.UIDs[0]
		qg.Reverse()
		assert.Equal(t, first, qg.UIDs[1])
	})
}
