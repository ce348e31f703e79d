package engine

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"quantbin/domain/binning"
	"quantbin/domain/core"
	"quantbin/ports"
)

// Strategy is the pluggable scorer behavior driven by the aggregation
// engine. One conforming implementation exists per scoring family
// (Jaccard/recall/precision, bound accuracy, mean error). The engine owns
// the control flow; strategies own the numbers.
//
// Lifecycle per (model, uncertainty type) unit:
// NewAccumulator -> ScoreFold+Accumulate per fold (ascending fold id) ->
// Merge into the overall results under the unit's key. Finalize runs once
// after every unit has merged.
type Strategy interface {
	Name() string
	// RequiresBounds reports whether the strategy needs a learned bound
	// table; the engine fails fast before processing any fold if one is
	// missing.
	RequiresBounds() bool

	NewResults(cfg binning.Config) any
	NewAccumulator(cfg binning.Config) any
	ScoreFold(req *FoldRequest) (any, error)
	Accumulate(cfg binning.Config, acc, score any) error
	Merge(cfg binning.Config, results any, key core.EvalKey, acc any) error
	Finalize(results any) any
}

// FoldRequest carries everything a strategy needs to score one fold.
type FoldRequest struct {
	Key    core.EvalKey
	Fold   int
	Data   *binning.FoldData
	Bounds [][]float64 // per-target threshold rows; set only for bound strategies
	Cfg    binning.Config
}

// Inputs are the fully materialized evaluation inputs. The shape is shared
// with the ports layer so sources can hand their loaded tables straight to
// the engine.
type Inputs = ports.EvaluationInputs

// Engine runs a Strategy over every (model, uncertainty type, fold)
// combination and reduces the per-unit accumulators into the final result
// shape. Units are independent, so they run on an errgroup; the merge step
// is sequential in sorted model order then pair order, which keeps result
// contents deterministic.
type Engine struct {
	cfg     binning.Config
	workers int
}

// New creates an engine for one evaluation config.
func New(cfg binning.Config) *Engine {
	return &Engine{cfg: cfg, workers: runtime.GOMAXPROCS(0)}
}

// WithWorkers caps the number of concurrently scored units. A cap of 1
// degrades to the fully sequential reference behavior.
func (e *Engine) WithWorkers(n int) *Engine {
	if n > 0 {
		e.workers = n
	}
	return e
}

type unit struct {
	key   core.EvalKey
	table *binning.SampleTable
	acc   any
}

// Evaluate drives the full model -> uncertainty type -> fold -> target ->
// bin progression and returns the strategy's finalized results.
func (e *Engine) Evaluate(ctx context.Context, in Inputs, s Strategy) (any, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	units, err := e.buildUnits(in, s)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range units {
		u := &units[i]
		g.Go(func() error {
			return e.runUnit(ctx, in, s, u)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := s.NewResults(e.cfg)
	for i := range units {
		if err := s.Merge(e.cfg, results, units[i].key, units[i].acc); err != nil {
			return nil, fmt.Errorf("merge %s for %s: %w", s.Name(), units[i].key, err)
		}
	}
	return s.Finalize(results), nil
}

// buildUnits expands the inputs into one unit per (model, pair) and runs
// the fail-fast configuration checks before any fold is touched.
func (e *Engine) buildUnits(in Inputs, s Strategy) ([]unit, error) {
	models := make([]core.ModelName, 0, len(in.Tables))
	for model := range in.Tables {
		models = append(models, model)
	}
	sort.Slice(models, func(i, j int) bool { return models[i] < models[j] })

	var units []unit
	for _, model := range models {
		if model == "" {
			return nil, core.ErrMissingModel
		}
		if s.RequiresBounds() {
			if in.Bounds == nil || in.Bounds[model] == nil {
				return nil, fmt.Errorf("%w: model %s", core.ErrMissingBounds, model)
			}
		}
		for _, pair := range in.Pairs {
			units = append(units, unit{
				key:   core.EvalKey{Model: model, UncertaintyType: pair.Type},
				table: in.Tables[model],
			})
		}
	}
	return units, nil
}

// runUnit scores all folds of one unit into its own accumulator.
// Accumulation order is ascending fold id; downstream consumers index
// fold-wise lists positionally.
func (e *Engine) runUnit(ctx context.Context, in Inputs, s Strategy, u *unit) error {
	u.acc = s.NewAccumulator(e.cfg)
	for fold := 0; fold < e.cfg.NumFolds; fold++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := binning.ExtractFold(u.table, fold, u.key.UncertaintyType)
		if err != nil {
			return fmt.Errorf("%s fold %d: %w", u.key, fold, err)
		}

		req := &FoldRequest{Key: u.key, Fold: fold, Data: data, Cfg: e.cfg}
		if s.RequiresBounds() {
			bounds, err := e.foldBounds(in, u.key, fold)
			if err != nil {
				return err
			}
			req.Bounds = bounds
		}

		score, err := s.ScoreFold(req)
		if err != nil {
			return fmt.Errorf("%s fold %d: %w", u.key, fold, err)
		}
		if err := s.Accumulate(e.cfg, u.acc, score); err != nil {
			return fmt.Errorf("%s fold %d: %w", u.key, fold, err)
		}
	}
	return nil
}

func (e *Engine) foldBounds(in Inputs, key core.EvalKey, fold int) ([][]float64, error) {
	bounds, err := in.Bounds[key.Model].FoldBounds(fold, key.UncertaintyType)
	if err != nil {
		return nil, fmt.Errorf("%s fold %d: %w", key, fold, err)
	}
	if len(bounds) < len(e.cfg.Targets) {
		return nil, fmt.Errorf("%w: fold %d has %d target rows, need %d",
			core.ErrBoundsShape, fold, len(bounds), len(e.cfg.Targets))
	}
	for i, row := range bounds[:len(e.cfg.Targets)] {
		if len(row) != e.cfg.EffectiveBins-1 {
			return nil, fmt.Errorf("%w: fold %d target row %d has %d thresholds, need %d",
				core.ErrBoundsShape, fold, i, len(row), e.cfg.EffectiveBins-1)
		}
	}
	return bounds, nil
}
