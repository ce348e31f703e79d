package scorers

import (
	"context"
	"fmt"

	"quantbin/adapters/stats/engine"
	"quantbin/domain/binning"
)

// Typed entry points over the aggregation engine. Each runs one strategy
// over every (model, uncertainty type, fold) combination and returns the
// scorer's concrete result shape.

// EvaluateJaccard scores predicted bin membership against ground-truth
// error quantile membership for every model and uncertainty pair.
func EvaluateJaccard(ctx context.Context, cfg binning.Config, in engine.Inputs) (*JaccardResults, error) {
	out, err := engine.New(cfg).Evaluate(ctx, in, NewJaccardScorer())
	if err != nil {
		return nil, err
	}
	res, ok := out.(*JaccardResults)
	if !ok {
		return nil, fmt.Errorf("jaccard: unexpected result type %T", out)
	}
	return res, nil
}

// EvaluateBounds scores true errors against learned per-bin error-bound
// intervals. Inputs.Bounds must carry a bound table for every model.
func EvaluateBounds(ctx context.Context, cfg binning.Config, in engine.Inputs) (*BoundResults, error) {
	out, err := engine.New(cfg).Evaluate(ctx, in, NewBoundScorer())
	if err != nil {
		return nil, err
	}
	res, ok := out.(*BoundResults)
	if !ok {
		return nil, fmt.Errorf("bounds: unexpected result type %T", out)
	}
	return res, nil
}

// EvaluateMeanErrors computes the mean true error per predicted bin.
// cfg.ErrorScalingFactor scales every error before averaging.
func EvaluateMeanErrors(ctx context.Context, cfg binning.Config, in engine.Inputs) (*ErrorResults, error) {
	out, err := engine.New(cfg).Evaluate(ctx, in, NewErrorScorer())
	if err != nil {
		return nil, err
	}
	res, ok := out.(*ErrorResults)
	if !ok {
		return nil, fmt.Errorf("mean-error: unexpected result type %T", out)
	}
	return res, nil
}
