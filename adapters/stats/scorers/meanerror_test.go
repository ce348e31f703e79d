package scorers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantbin/domain/binning"
)

func floatPtr(v float64) *float64 { return &v }

func TestEvaluateMeanErrors(t *testing.T) {
	cfg, err := binning.NewConfig(2, []int{0}, 1, false)
	require.NoError(t, err)

	in := inputsFor(
		record("a", 0, 0, 2.0, 0),
		record("b", 0, 0, 4.0, 0),
		record("c", 0, 0, 10.0, 1),
	)

	res, err := EvaluateMeanErrors(context.Background(), cfg, in)
	require.NoError(t, err)

	// Raw per-bin means [3, 10], reversed to worst-first for display.
	assert.Equal(t, [][]*float64{{floatPtr(10)}, {floatPtr(3)}}, res.MeanBins[testKey])
	assert.Equal(t, [][]float64{{10}, {3}}, res.BinsTargetsSep[testKey])
	assert.Equal(t, [][]float64{{10}, {2, 4}}, res.ConcatNoSep[testKey])
	// Per-target mean of bin means: (3 + 10) / 2.
	assert.Equal(t, []float64{6.5}, res.MeanTargets[testKey])
	assert.Equal(t, [][]float64{{10}, {2, 4}}, res.ConcatTargetSepAll[0][testKey])
	assert.Equal(t, [][][]float64{{{10}}, {{2, 4}}}, res.ConcatTargetSepFoldwise[0][testKey])
}

func TestEvaluateMeanErrors_ScalingFactor(t *testing.T) {
	cfg, err := binning.NewConfig(2, []int{0}, 1, false)
	require.NoError(t, err)
	cfg.ErrorScalingFactor = 2.0

	in := inputsFor(
		record("a", 0, 0, 2.0, 0),
		record("b", 0, 0, 4.0, 0),
		record("c", 0, 0, 10.0, 1),
	)

	res, err := EvaluateMeanErrors(context.Background(), cfg, in)
	require.NoError(t, err)

	assert.Equal(t, [][]*float64{{floatPtr(20)}, {floatPtr(6)}}, res.MeanBins[testKey])
	assert.Equal(t, []float64{13}, res.MeanTargets[testKey])
	assert.Equal(t, [][]float64{{20}, {4, 8}}, res.ConcatNoSep[testKey])
}

func TestEvaluateMeanErrors_EmptyBinStaysNil(t *testing.T) {
	cfg, err := binning.NewConfig(3, []int{0}, 1, false)
	require.NoError(t, err)

	// No sample ever lands in bin 2; its cross-fold summary keeps a nil
	// marker rather than a fabricated zero, and it never drags down the
	// per-target mean.
	in := inputsFor(
		record("a", 0, 0, 2.0, 0),
		record("b", 0, 0, 8.0, 1),
	)

	res, err := EvaluateMeanErrors(context.Background(), cfg, in)
	require.NoError(t, err)

	mean := res.MeanBins[testKey]
	require.Len(t, mean, 3)
	require.Len(t, mean[0], 1)
	assert.Nil(t, mean[0][0]) // reversed: empty bin 2 now leads
	assert.Equal(t, floatPtr(8), mean[1][0])
	assert.Equal(t, floatPtr(2), mean[2][0])
	assert.Equal(t, []float64{5}, res.MeanTargets[testKey])
}
