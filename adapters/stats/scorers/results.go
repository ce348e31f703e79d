package scorers

import (
	"quantbin/domain/core"
)

// Result containers returned by the three strategies. Axis conventions:
// the inner bin axis of every "per bin" field is index 0..numBins-1; where a
// field is display-reversed (worst confidence first, B_N -> B_1) it says so.
// Target-separated variants are slices indexed by target position in
// Config.Targets, each holding the same kind of per-key map.

// JaccardResults holds the finalized Jaccard/recall/precision outputs.
// Bin order here is already worst-to-best: the scorer reverses both the
// predicted and ground-truth partitions before comparing, so no reversal
// happens at merge time.
type JaccardResults struct {
	// MeanBins[key][bin][fold]: per-fold mean over targets of the bin's value.
	MeanBins map[core.EvalKey][][]float64
	// BinsTargetsSep[key][bin]: raw per-target values pooled across folds.
	BinsTargetsSep map[core.EvalKey][][]float64

	RecallMeanBins       map[core.EvalKey][][]float64
	RecallBinsTargetsSep map[core.EvalKey][][]float64

	PrecisionMeanBins       map[core.EvalKey][][]float64
	PrecisionBinsTargetsSep map[core.EvalKey][][]float64

	// MeanTargets[key][fold]: per-fold overall summary (mean of per-target means).
	MeanTargets          map[core.EvalKey][]float64
	RecallMeanTargets    map[core.EvalKey][]float64
	PrecisionMeanTargets map[core.EvalKey][]float64

	// ConcatTargetSepFoldwise[target][key][bin][fold] and
	// ConcatTargetSepAll[target][key][bin]: per-target per-bin values kept
	// separated by target, fold-wise and pooled.
	ConcatTargetSepFoldwise []map[core.EvalKey][][]float64
	ConcatTargetSepAll      []map[core.EvalKey][][]float64
}

// BoundResults holds the finalized bound-accuracy outputs.
type BoundResults struct {
	// MeanBins[key][bin][fold]: per-fold size-weighted bin accuracy,
	// display-reversed (worst -> best).
	MeanBins map[core.EvalKey][][]float64
	// BinsNoTargetSep[key][bin]: raw per-target accuracies pooled across
	// folds, display-reversed.
	BinsNoTargetSep map[core.EvalKey][][]float64

	// MeanTargets[key][fold]: per-fold weighted mean over targets.
	MeanTargets map[core.EvalKey][]float64

	// Target-separated accuracies keep the scorer-internal best -> worst
	// bin order, matching the contract of the concatenated aggregates.
	ConcatTargetSepFoldwise []map[core.EvalKey][][]float64
	ConcatTargetSepAll      []map[core.EvalKey][][]float64
}

// ErrorResults holds the finalized mean-error outputs.
type ErrorResults struct {
	// MeanBins[key][bin][fold]: per-fold mean over targets of the bin's
	// mean error, display-reversed. A nil entry is the explicit no-value
	// marker for a bin that was empty for every target in that fold; it is
	// never coerced to 0.
	MeanBins map[core.EvalKey][][]*float64
	// BinsTargetsSep[key][bin]: per-target bin means pooled across folds,
	// display-reversed.
	BinsTargetsSep map[core.EvalKey][][]float64
	// ConcatNoSep[key][bin]: every raw sample error pooled across targets
	// and folds, display-reversed. Flattening order within a fold is
	// bin-major, then target-major.
	ConcatNoSep map[core.EvalKey][][]float64

	// MeanTargets[key][fold]: per-fold mean over targets of non-empty-bin means.
	MeanTargets map[core.EvalKey][]float64

	// ConcatTargetSepFoldwise[target][key][bin][fold][i]: raw errors kept
	// per fold; ConcatTargetSepAll[target][key][bin][i]: flattened across
	// folds. Both display-reversed along the bin axis.
	ConcatTargetSepFoldwise []map[core.EvalKey][][][]float64
	ConcatTargetSepAll      []map[core.EvalKey][][]float64
}
