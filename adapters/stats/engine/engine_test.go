package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantbin/adapters/stats/engine"
	"quantbin/adapters/stats/scorers"
	"quantbin/domain/binning"
	"quantbin/domain/core"
)

const smha = core.UncertaintyType("S-MHA")

func record(uid core.UID, fold int, errVal float64, bin int) binning.SampleRecord {
	return binning.SampleRecord{
		UID:    uid,
		Fold:   fold,
		Errors: map[core.UncertaintyType]float64{smha: errVal},
		Bins:   map[core.UncertaintyType]int{smha: bin},
	}
}

func twoModelInputs() engine.Inputs {
	return engine.Inputs{
		Tables: map[core.ModelName]*binning.SampleTable{
			"resnet": {Records: []binning.SampleRecord{
				record("a", 0, 1.0, 0),
				record("b", 0, 4.0, 1),
				record("c", 1, 2.0, 0),
				record("d", 1, 8.0, 1),
			}},
			"unet": {Records: []binning.SampleRecord{
				record("e", 0, 3.0, 0),
				record("f", 0, 6.0, 1),
				record("g", 1, 5.0, 0),
				record("h", 1, 9.0, 1),
			}},
		},
		Pairs: []core.UncertaintyPair{{Type: smha, Label: "S-MHA"}},
	}
}

func TestEngine_FoldwiseAxisFollowsFoldOrder(t *testing.T) {
	cfg, err := binning.NewConfig(2, []int{0}, 2, false)
	require.NoError(t, err)

	out, err := engine.New(cfg).Evaluate(context.Background(), twoModelInputs(), scorers.NewErrorScorer())
	require.NoError(t, err)
	res, ok := out.(*scorers.ErrorResults)
	require.True(t, ok)

	key := core.EvalKey{Model: "resnet", UncertaintyType: smha}
	mean := res.MeanBins[key]
	require.Len(t, mean, 2)
	// Display order is worst bin first; within each bin, fold 0 then fold 1.
	assert.Equal(t, 4.0, *mean[0][0])
	assert.Equal(t, 8.0, *mean[0][1])
	assert.Equal(t, 1.0, *mean[1][0])
	assert.Equal(t, 2.0, *mean[1][1])
}

func TestEngine_WorkerCountDoesNotChangeResults(t *testing.T) {
	cfg, err := binning.NewConfig(2, []int{0}, 2, false)
	require.NoError(t, err)
	in := twoModelInputs()

	sequential, err := engine.New(cfg).WithWorkers(1).Evaluate(context.Background(), in, scorers.NewErrorScorer())
	require.NoError(t, err)
	parallel, err := engine.New(cfg).WithWorkers(8).Evaluate(context.Background(), in, scorers.NewErrorScorer())
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestEngine_EveryModelGetsScored(t *testing.T) {
	cfg, err := binning.NewConfig(2, []int{0}, 2, false)
	require.NoError(t, err)

	out, err := engine.New(cfg).Evaluate(context.Background(), twoModelInputs(), scorers.NewJaccardScorer())
	require.NoError(t, err)
	res, ok := out.(*scorers.JaccardResults)
	require.True(t, ok)

	require.Len(t, res.MeanBins, 2)
	assert.Contains(t, res.MeanBins, core.EvalKey{Model: "resnet", UncertaintyType: smha})
	assert.Contains(t, res.MeanBins, core.EvalKey{Model: "unet", UncertaintyType: smha})
}

func TestEngine_ValidatesConfig(t *testing.T) {
	cfg := binning.Config{NumBins: 1, EffectiveBins: 1, Targets: []int{0}, NumFolds: 1}
	_, err := engine.New(cfg).Evaluate(context.Background(), twoModelInputs(), scorers.NewErrorScorer())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNoBins)

	cfg = binning.Config{NumBins: 2, EffectiveBins: 2, NumFolds: 1}
	_, err = engine.New(cfg).Evaluate(context.Background(), twoModelInputs(), scorers.NewErrorScorer())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNoTargets)
}

func TestEngine_MissingBoundsFailsBeforeScoring(t *testing.T) {
	cfg, err := binning.NewConfig(2, []int{0}, 2, false)
	require.NoError(t, err)

	in := twoModelInputs()
	in.Bounds = map[core.ModelName]*binning.BoundTable{
		"resnet": {Rows: []binning.BoundRow{
			{Fold: 0, Thresholds: map[core.UncertaintyType][][]float64{smha: {{2.0}}}},
			{Fold: 1, Thresholds: map[core.UncertaintyType][][]float64{smha: {{2.0}}}},
		}},
		// no table for unet
	}

	_, err = engine.New(cfg).Evaluate(context.Background(), in, scorers.NewBoundScorer())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingBounds)
}

func TestEngine_CancelledContext(t *testing.T) {
	cfg, err := binning.NewConfig(2, []int{0}, 2, false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = engine.New(cfg).Evaluate(ctx, twoModelInputs(), scorers.NewErrorScorer())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
