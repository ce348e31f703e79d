package scorers

import (
	"fmt"

	"quantbin/adapters/stats/engine"
	"quantbin/domain/binning"
	"quantbin/domain/core"
)

// JaccardScorer compares predicted-bin groups against ground-truth quantile
// groups, producing per-bin Jaccard similarity, recall and precision. Both
// partitions are reversed identically before pairwise comparison, so bin 0
// of every per-bin output is the worst-confidence bin.
type JaccardScorer struct{}

// NewJaccardScorer creates the Jaccard/recall/precision strategy.
func NewJaccardScorer() *JaccardScorer {
	return &JaccardScorer{}
}

func (s *JaccardScorer) Name() string         { return "jaccard" }
func (s *JaccardScorer) RequiresBounds() bool { return false }

// jaccardFoldScore is the raw output of one fold.
type jaccardFoldScore struct {
	meanTargets          float64
	meanTargetsRecall    float64
	meanTargetsPrecision float64

	meanBins          []float64 // [bin] mean over targets
	meanBinsRecall    []float64
	meanBinsPrecision []float64

	allBins          [][]float64 // [bin][target] raw values
	allBinsRecall    [][]float64
	allBinsPrecision [][]float64

	concatTargetsSep [][][]float64 // [target][bin] raw values
}

// jaccardAccumulator grows fold-wise; every slice gains exactly one
// contribution per fold, in ascending fold order.
type jaccardAccumulator struct {
	meanTargets          []float64
	meanTargetsRecall    []float64
	meanTargetsPrecision []float64

	meanBins          [][]float64 // [bin][fold]
	meanBinsRecall    [][]float64
	meanBinsPrecision [][]float64

	allBins          [][]float64 // [bin] pooled across folds
	allBinsRecall    [][]float64
	allBinsPrecision [][]float64

	concatFoldwise [][][]float64 // [target][bin][fold]
	concatAll      [][][]float64
}

func (s *JaccardScorer) NewAccumulator(cfg binning.Config) any {
	numBins := cfg.EffectiveBins
	acc := &jaccardAccumulator{
		meanBins:          make([][]float64, numBins),
		meanBinsRecall:    make([][]float64, numBins),
		meanBinsPrecision: make([][]float64, numBins),
		allBins:           make([][]float64, numBins),
		allBinsRecall:     make([][]float64, numBins),
		allBinsPrecision:  make([][]float64, numBins),
		concatFoldwise:    make([][][]float64, len(cfg.Targets)),
		concatAll:         make([][][]float64, len(cfg.Targets)),
	}
	for t := range cfg.Targets {
		acc.concatFoldwise[t] = make([][]float64, numBins)
		acc.concatAll[t] = make([][]float64, numBins)
	}
	return acc
}

func (s *JaccardScorer) NewResults(cfg binning.Config) any {
	res := &JaccardResults{
		MeanBins:                make(map[core.EvalKey][][]float64),
		BinsTargetsSep:          make(map[core.EvalKey][][]float64),
		RecallMeanBins:          make(map[core.EvalKey][][]float64),
		RecallBinsTargetsSep:    make(map[core.EvalKey][][]float64),
		PrecisionMeanBins:       make(map[core.EvalKey][][]float64),
		PrecisionBinsTargetsSep: make(map[core.EvalKey][][]float64),
		MeanTargets:             make(map[core.EvalKey][]float64),
		RecallMeanTargets:       make(map[core.EvalKey][]float64),
		PrecisionMeanTargets:    make(map[core.EvalKey][]float64),
		ConcatTargetSepFoldwise: make([]map[core.EvalKey][][]float64, len(cfg.Targets)),
		ConcatTargetSepAll:      make([]map[core.EvalKey][][]float64, len(cfg.Targets)),
	}
	for t := range cfg.Targets {
		res.ConcatTargetSepFoldwise[t] = make(map[core.EvalKey][][]float64)
		res.ConcatTargetSepAll[t] = make(map[core.EvalKey][][]float64)
	}
	return res
}

// ScoreFold scores one fold: per target it builds the predicted bin groups
// and the quantile-derived ground-truth groups over the same bin count,
// reverses both, then compares per bin.
func (s *JaccardScorer) ScoreFold(req *engine.FoldRequest) (any, error) {
	cfg := req.Cfg
	numBins := cfg.EffectiveBins

	score := &jaccardFoldScore{
		allBins:          make([][]float64, numBins),
		allBinsRecall:    make([][]float64, numBins),
		allBinsPrecision: make([][]float64, numBins),
		concatTargetsSep: make([][][]float64, len(cfg.Targets)),
	}
	for t := range cfg.Targets {
		score.concatTargetsSep[t] = make([][]float64, numBins)
	}

	var targetJacc, targetRecall, targetPrecision []float64

	for ti, targetIdx := range cfg.Targets {
		ts := req.Data.Target(targetIdx, 1.0)
		// The quantile partition is undefined over zero samples; surface
		// the bad target instead of letting the threshold math blow up.
		if len(ts.UIDs) == 0 {
			return nil, fmt.Errorf("%w: target %d fold %d", core.ErrEmptyTarget, targetIdx, req.Fold)
		}

		pred, err := binning.GroupByBin(ts, numBins)
		if err != nil {
			return nil, err
		}
		gt := binning.PartitionByQuantile(ts, cfg.NumBins, cfg.CombineMiddleBins)
		if len(gt.UIDs) != numBins {
			return nil, fmt.Errorf("quantile partition produced %d groups, want %d", len(gt.UIDs), numBins)
		}

		// Flip both partitions so index 0 is the worst-confidence bin.
		pred.Reverse()
		gt.Reverse()

		var binJacc, binRecall, binPrecision []float64
		for bin := 0; bin < numBins; bin++ {
			predKeys := pred.UIDs[bin]
			gtKeys := gt.UIDs[bin]

			jacc := jaccardSimilarity(predKeys, gtKeys)
			score.allBins[bin] = append(score.allBins[bin], jacc)
			score.concatTargetsSep[ti][bin] = append(score.concatTargetsSep[ti][bin], jacc)
			binJacc = append(binJacc, jacc)

			// An empty ground-truth group means nothing to recall, but any
			// prediction into it is wrong.
			var recall, precision float64
			if len(gtKeys) == 0 {
				recall = 1.0
				precision = 0.0
			} else {
				hits := intersectionCount(predKeys, gtKeys)
				recall = float64(hits) / float64(len(gtKeys))
				if len(predKeys) == 0 {
					precision = 0.0
				} else {
					precision = float64(hits) / float64(len(predKeys))
				}
			}
			binRecall = append(binRecall, recall)
			binPrecision = append(binPrecision, precision)
			score.allBinsRecall[bin] = append(score.allBinsRecall[bin], recall)
			score.allBinsPrecision[bin] = append(score.allBinsPrecision[bin], precision)
		}

		targetJacc = append(targetJacc, meanOf(binJacc))
		targetRecall = append(targetRecall, meanOf(binRecall))
		targetPrecision = append(targetPrecision, meanOf(binPrecision))
	}

	score.meanTargets = meanOf(targetJacc)
	score.meanTargetsRecall = meanOf(targetRecall)
	score.meanTargetsPrecision = meanOf(targetPrecision)
	score.meanBins = make([]float64, numBins)
	score.meanBinsRecall = make([]float64, numBins)
	score.meanBinsPrecision = make([]float64, numBins)
	for bin := 0; bin < numBins; bin++ {
		score.meanBins[bin] = meanOf(score.allBins[bin])
		score.meanBinsRecall[bin] = meanOf(score.allBinsRecall[bin])
		score.meanBinsPrecision[bin] = meanOf(score.allBinsPrecision[bin])
	}
	return score, nil
}

func (s *JaccardScorer) Accumulate(cfg binning.Config, accAny, scoreAny any) error {
	acc, ok := accAny.(*jaccardAccumulator)
	if !ok {
		return fmt.Errorf("jaccard: unexpected accumulator %T", accAny)
	}
	score, ok := scoreAny.(*jaccardFoldScore)
	if !ok {
		return fmt.Errorf("jaccard: unexpected fold score %T", scoreAny)
	}

	acc.meanTargets = append(acc.meanTargets, score.meanTargets)
	acc.meanTargetsRecall = append(acc.meanTargetsRecall, score.meanTargetsRecall)
	acc.meanTargetsPrecision = append(acc.meanTargetsPrecision, score.meanTargetsPrecision)

	for bin := range score.meanBins {
		acc.meanBins[bin] = append(acc.meanBins[bin], score.meanBins[bin])
		acc.allBins[bin] = append(acc.allBins[bin], score.allBins[bin]...)

		acc.meanBinsRecall[bin] = append(acc.meanBinsRecall[bin], score.meanBinsRecall[bin])
		acc.allBinsRecall[bin] = append(acc.allBinsRecall[bin], score.allBinsRecall[bin]...)

		acc.meanBinsPrecision[bin] = append(acc.meanBinsPrecision[bin], score.meanBinsPrecision[bin])
		acc.allBinsPrecision[bin] = append(acc.allBinsPrecision[bin], score.allBinsPrecision[bin]...)

		for t := range acc.concatFoldwise {
			acc.concatFoldwise[t][bin] = append(acc.concatFoldwise[t][bin], score.concatTargetsSep[t][bin]...)
			acc.concatAll[t][bin] = append(acc.concatAll[t][bin], score.concatTargetsSep[t][bin]...)
		}
	}
	return nil
}

func (s *JaccardScorer) Merge(cfg binning.Config, resultsAny any, key core.EvalKey, accAny any) error {
	res, ok := resultsAny.(*JaccardResults)
	if !ok {
		return fmt.Errorf("jaccard: unexpected results %T", resultsAny)
	}
	acc, ok := accAny.(*jaccardAccumulator)
	if !ok {
		return fmt.Errorf("jaccard: unexpected accumulator %T", accAny)
	}

	res.MeanBins[key] = acc.meanBins
	res.BinsTargetsSep[key] = acc.allBins
	res.RecallMeanBins[key] = acc.meanBinsRecall
	res.RecallBinsTargetsSep[key] = acc.allBinsRecall
	res.PrecisionMeanBins[key] = acc.meanBinsPrecision
	res.PrecisionBinsTargetsSep[key] = acc.allBinsPrecision
	res.MeanTargets[key] = acc.meanTargets
	res.RecallMeanTargets[key] = acc.meanTargetsRecall
	res.PrecisionMeanTargets[key] = acc.meanTargetsPrecision

	for t := range res.ConcatTargetSepFoldwise {
		res.ConcatTargetSepFoldwise[t][key] = acc.concatFoldwise[t]
		res.ConcatTargetSepAll[t][key] = acc.concatAll[t]
	}
	return nil
}

func (s *JaccardScorer) Finalize(resultsAny any) any {
	// Bin order was fixed inside ScoreFold; nothing further to reshape.
	return resultsAny
}
