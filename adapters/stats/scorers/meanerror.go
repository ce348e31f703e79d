package scorers

import (
	"fmt"

	"quantbin/adapters/stats/engine"
	"quantbin/domain/binning"
	"quantbin/domain/core"
)

// ErrorScorer computes the mean true error achieved within each predicted
// bin. Empty bins are skipped, never zeroed: they contribute nothing to the
// per-target mean of bin means and surface as nil markers in the per-bin
// cross-fold summary.
type ErrorScorer struct{}

// NewErrorScorer creates the mean-error strategy.
func NewErrorScorer() *ErrorScorer {
	return &ErrorScorer{}
}

func (s *ErrorScorer) Name() string         { return "mean-error" }
func (s *ErrorScorer) RequiresBounds() bool { return false }

type errorFoldScore struct {
	meanTargets      float64
	meanBins         []*float64    // [bin], nil when every target left it empty
	allBins          [][]float64   // [bin] per-target means, empties omitted
	concatTargetsSep [][][]float64 // [target][bin] raw scaled errors this fold
}

type errorAccumulator struct {
	meanTargets    []float64
	meanBins       [][]*float64    // [bin][fold]
	allBins        [][]float64     // [bin] per-target means pooled
	concatNoSep    [][]float64     // [bin] raw errors pooled across targets+folds
	concatFoldwise [][][][]float64 // [target][bin][fold][i]
	concatAll      [][][]float64   // [target][bin][i]
}

func (s *ErrorScorer) NewAccumulator(cfg binning.Config) any {
	numBins := cfg.EffectiveBins
	acc := &errorAccumulator{
		meanBins:       make([][]*float64, numBins),
		allBins:        make([][]float64, numBins),
		concatNoSep:    make([][]float64, numBins),
		concatFoldwise: make([][][][]float64, len(cfg.Targets)),
		concatAll:      make([][][]float64, len(cfg.Targets)),
	}
	for t := range cfg.Targets {
		acc.concatFoldwise[t] = make([][][]float64, numBins)
		acc.concatAll[t] = make([][]float64, numBins)
	}
	return acc
}

func (s *ErrorScorer) NewResults(cfg binning.Config) any {
	res := &ErrorResults{
		MeanBins:                make(map[core.EvalKey][][]*float64),
		BinsTargetsSep:          make(map[core.EvalKey][][]float64),
		ConcatNoSep:             make(map[core.EvalKey][][]float64),
		MeanTargets:             make(map[core.EvalKey][]float64),
		ConcatTargetSepFoldwise: make([]map[core.EvalKey][][][]float64, len(cfg.Targets)),
		ConcatTargetSepAll:      make([]map[core.EvalKey][][]float64, len(cfg.Targets)),
	}
	for t := range cfg.Targets {
		res.ConcatTargetSepFoldwise[t] = make(map[core.EvalKey][][][]float64)
		res.ConcatTargetSepAll[t] = make(map[core.EvalKey][][]float64)
	}
	return res
}

// ScoreFold computes per-bin mean errors for one fold. Errors are scaled by
// the configured scaling factor as they are read.
func (s *ErrorScorer) ScoreFold(req *engine.FoldRequest) (any, error) {
	cfg := req.Cfg
	numBins := cfg.EffectiveBins
	scale := cfg.ErrorScalingFactor
	if scale == 0 {
		scale = 1.0
	}

	score := &errorFoldScore{
		meanBins:         make([]*float64, numBins),
		allBins:          make([][]float64, numBins),
		concatTargetsSep: make([][][]float64, len(cfg.Targets)),
	}
	for t := range cfg.Targets {
		score.concatTargetsSep[t] = make([][]float64, numBins)
	}

	var targetMeans []float64
	for ti, targetIdx := range cfg.Targets {
		ts := req.Data.Target(targetIdx, scale)
		groups, err := binning.GroupByBin(ts, numBins)
		if err != nil {
			return nil, err
		}

		var binMeans []float64
		for bin := 0; bin < numBins; bin++ {
			errs := groups.Errors[bin]
			if len(errs) == 0 {
				continue
			}
			m := meanOf(errs)
			score.allBins[bin] = append(score.allBins[bin], m)
			score.concatTargetsSep[ti][bin] = errs
			binMeans = append(binMeans, m)
		}
		if len(binMeans) > 0 {
			targetMeans = append(targetMeans, meanOf(binMeans))
		}
	}

	score.meanTargets = meanOf(targetMeans)
	for bin := 0; bin < numBins; bin++ {
		if len(score.allBins[bin]) > 0 {
			m := meanOf(score.allBins[bin])
			score.meanBins[bin] = &m
		}
	}
	return score, nil
}

func (s *ErrorScorer) Accumulate(cfg binning.Config, accAny, scoreAny any) error {
	acc, ok := accAny.(*errorAccumulator)
	if !ok {
		return fmt.Errorf("mean-error: unexpected accumulator %T", accAny)
	}
	score, ok := scoreAny.(*errorFoldScore)
	if !ok {
		return fmt.Errorf("mean-error: unexpected fold score %T", scoreAny)
	}

	acc.meanTargets = append(acc.meanTargets, score.meanTargets)
	for bin := range score.meanBins {
		acc.meanBins[bin] = append(acc.meanBins[bin], score.meanBins[bin])
		acc.allBins[bin] = append(acc.allBins[bin], score.allBins[bin]...)

		// Pooled variant flattens in a fixed order: bin-major, then
		// target-major within the fold.
		for t := range acc.concatFoldwise {
			raw := score.concatTargetsSep[t][bin]
			acc.concatNoSep[bin] = append(acc.concatNoSep[bin], raw...)
			if len(raw) > 0 {
				acc.concatFoldwise[t][bin] = append(acc.concatFoldwise[t][bin], raw)
				acc.concatAll[t][bin] = append(acc.concatAll[t][bin], raw...)
			}
		}
	}
	return nil
}

func (s *ErrorScorer) Merge(cfg binning.Config, resultsAny any, key core.EvalKey, accAny any) error {
	res, ok := resultsAny.(*ErrorResults)
	if !ok {
		return fmt.Errorf("mean-error: unexpected results %T", resultsAny)
	}
	acc, ok := accAny.(*errorAccumulator)
	if !ok {
		return fmt.Errorf("mean-error: unexpected accumulator %T", accAny)
	}

	// Every bin axis reverses to worst -> best for display.
	res.MeanBins[key] = reverseMaybeFloats(acc.meanBins)
	res.BinsTargetsSep[key] = reverseFloats(acc.allBins)
	res.ConcatNoSep[key] = reverseFloats(acc.concatNoSep)
	res.MeanTargets[key] = acc.meanTargets
	for t := range res.ConcatTargetSepFoldwise {
		res.ConcatTargetSepFoldwise[t][key] = reverseNested(acc.concatFoldwise[t])
		res.ConcatTargetSepAll[t][key] = reverseFloats(acc.concatAll[t])
	}
	return nil
}

func (s *ErrorScorer) Finalize(resultsAny any) any {
	return resultsAny
}
