package scorers

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"quantbin/adapters/stats/engine"
	"quantbin/domain/binning"
	"quantbin/domain/core"
)

// BoundScorer checks true errors against the learned per-bin error-bound
// intervals. Unlike the Jaccard scorer it works in the scorer-internal
// best-to-worst bin order; only the finalized mean aggregates are
// display-reversed at merge time.
type BoundScorer struct{}

// NewBoundScorer creates the bound-accuracy strategy.
func NewBoundScorer() *BoundScorer {
	return &BoundScorer{}
}

func (s *BoundScorer) Name() string         { return "bounds" }
func (s *BoundScorer) RequiresBounds() bool { return true }

type boundFoldScore struct {
	meanTargets      float64     // weighted per-target accuracies, averaged
	meanBins         []float64   // [bin] size-weighted mean across targets
	allBins          [][]float64 // [bin][target] raw accuracies
	concatTargetsSep [][][]float64
}

type boundAccumulator struct {
	meanTargets     []float64
	meanBins        [][]float64 // [bin][fold]
	binsNoTargetSep [][]float64 // [bin] raw accuracies pooled across folds
	concatFoldwise  [][][]float64
	concatAll       [][][]float64
}

func (s *BoundScorer) NewAccumulator(cfg binning.Config) any {
	numBins := cfg.EffectiveBins
	acc := &boundAccumulator{
		meanBins:        make([][]float64, numBins),
		binsNoTargetSep: make([][]float64, numBins),
		concatFoldwise:  make([][][]float64, len(cfg.Targets)),
		concatAll:       make([][][]float64, len(cfg.Targets)),
	}
	for t := range cfg.Targets {
		acc.concatFoldwise[t] = make([][]float64, numBins)
		acc.concatAll[t] = make([][]float64, numBins)
	}
	return acc
}

func (s *BoundScorer) NewResults(cfg binning.Config) any {
	res := &BoundResults{
		MeanBins:                make(map[core.EvalKey][][]float64),
		BinsNoTargetSep:         make(map[core.EvalKey][][]float64),
		MeanTargets:             make(map[core.EvalKey][]float64),
		ConcatTargetSepFoldwise: make([]map[core.EvalKey][][]float64, len(cfg.Targets)),
		ConcatTargetSepAll:      make([]map[core.EvalKey][][]float64, len(cfg.Targets)),
	}
	for t := range cfg.Targets {
		res.ConcatTargetSepFoldwise[t] = make(map[core.EvalKey][][]float64)
		res.ConcatTargetSepAll[t] = make(map[core.EvalKey][][]float64)
	}
	return res
}

// inBounds applies the interval membership test for predicted bin q of
// numBins: bin 0 is (0, t[0]], interior bins are (t[q-1], t[q]], the last
// bin is (t[last], +inf).
func inBounds(err float64, q, numBins int, thresholds []float64) bool {
	switch {
	case q == 0:
		return err > 0 && err <= thresholds[0]
	case q < numBins-1:
		return err > thresholds[q-1] && err <= thresholds[q]
	default:
		return err > thresholds[numBins-2]
	}
}

// ScoreFold evaluates bound accuracy for one fold. Two empty-ish cases are
// deliberately distinct and order-independent: a bin with no samples scores
// 1.0, a bin with samples but no correct ones scores 0.0.
func (s *BoundScorer) ScoreFold(req *engine.FoldRequest) (any, error) {
	cfg := req.Cfg
	numBins := cfg.EffectiveBins

	score := &boundFoldScore{
		meanBins:         make([]float64, numBins),
		allBins:          make([][]float64, numBins),
		concatTargetsSep: make([][][]float64, len(cfg.Targets)),
	}
	for t := range cfg.Targets {
		score.concatTargetsSep[t] = make([][]float64, numBins)
	}

	binSizes := make([][]float64, numBins) // [bin][target] populations
	var targetAccs []float64

	for ti, targetIdx := range cfg.Targets {
		ts := req.Data.Target(targetIdx, 1.0)
		groups, err := binning.GroupByBin(ts, numBins)
		if err != nil {
			return nil, err
		}
		thresholds := req.Bounds[ti]

		accs := make([]float64, numBins)
		sizes := make([]float64, numBins)
		for q := 0; q < numBins; q++ {
			inBin := groups.Errors[q]

			var acc float64
			if len(inBin) == 0 {
				acc = 1.0
			} else {
				correct := 0
				for _, e := range inBin {
					if inBounds(e, q, numBins, thresholds) {
						correct++
					}
				}
				acc = float64(correct) / float64(len(inBin))
			}

			score.allBins[q] = append(score.allBins[q], acc)
			score.concatTargetsSep[ti][q] = append(score.concatTargetsSep[ti][q], acc)
			binSizes[q] = append(binSizes[q], float64(len(inBin)))
			accs[q] = acc
			sizes[q] = float64(len(inBin))
		}

		// A target with no samples at all has an undefined weighted mean;
		// it contributes nothing rather than dividing by zero.
		if floats.Sum(sizes) > 0 {
			targetAccs = append(targetAccs, stat.Mean(accs, sizes))
		}
	}

	for q := 0; q < numBins; q++ {
		if floats.Sum(binSizes[q]) == 0 {
			score.meanBins[q] = 0.0
			continue
		}
		score.meanBins[q] = stat.Mean(score.allBins[q], binSizes[q])
	}
	score.meanTargets = meanOf(targetAccs)
	return score, nil
}

func (s *BoundScorer) Accumulate(cfg binning.Config, accAny, scoreAny any) error {
	acc, ok := accAny.(*boundAccumulator)
	if !ok {
		return fmt.Errorf("bounds: unexpected accumulator %T", accAny)
	}
	score, ok := scoreAny.(*boundFoldScore)
	if !ok {
		return fmt.Errorf("bounds: unexpected fold score %T", scoreAny)
	}

	acc.meanTargets = append(acc.meanTargets, score.meanTargets)
	for bin := range score.meanBins {
		acc.meanBins[bin] = append(acc.meanBins[bin], score.meanBins[bin])
		acc.binsNoTargetSep[bin] = append(acc.binsNoTargetSep[bin], score.allBins[bin]...)
		for t := range acc.concatFoldwise {
			acc.concatFoldwise[t][bin] = append(acc.concatFoldwise[t][bin], score.concatTargetsSep[t][bin]...)
			acc.concatAll[t][bin] = append(acc.concatAll[t][bin], score.concatTargetsSep[t][bin]...)
		}
	}
	return nil
}

func (s *BoundScorer) Merge(cfg binning.Config, resultsAny any, key core.EvalKey, accAny any) error {
	res, ok := resultsAny.(*BoundResults)
	if !ok {
		return fmt.Errorf("bounds: unexpected results %T", resultsAny)
	}
	acc, ok := accAny.(*boundAccumulator)
	if !ok {
		return fmt.Errorf("bounds: unexpected accumulator %T", accAny)
	}

	// Reverse so the mean aggregates read worst to best, B_N -> B_1.
	res.MeanBins[key] = reverseFloats(acc.meanBins)
	res.BinsNoTargetSep[key] = reverseFloats(acc.binsNoTargetSep)
	res.MeanTargets[key] = acc.meanTargets
	for t := range res.ConcatTargetSepFoldwise {
		res.ConcatTargetSepFoldwise[t][key] = acc.concatFoldwise[t]
		res.ConcatTargetSepAll[t][key] = acc.concatAll[t]
	}
	return nil
}

func (s *BoundScorer) Finalize(resultsAny any) any {
	return resultsAny
}
