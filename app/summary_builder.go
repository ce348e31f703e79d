package app

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"quantbin/adapters/stats/scorers"
	"quantbin/domain/core"
	"quantbin/domain/report"
)

// buildSummaries flattens the finalized result containers into one summary
// row per (key, metric): the cross-fold mean of each bin column plus the
// mean of the per-fold target means. Bin order stays worst-first, as the
// containers hand it over.
func buildSummaries(jaccard *scorers.JaccardResults, bounds *scorers.BoundResults, errRes *scorers.ErrorResults) []report.Summary {
	keys := sortedKeys(jaccard.MeanBins)
	now := time.Now().UTC()

	var rows []report.Summary
	add := func(key core.EvalKey, metric report.Metric, binMeans []*float64, targetMean float64) {
		rows = append(rows, report.Summary{
			ID:              core.NewUID(),
			Model:           key.Model,
			UncertaintyType: key.UncertaintyType,
			Metric:          metric,
			BinMeans:        binMeans,
			TargetMean:      targetMean,
			CreatedAt:       now,
		})
	}

	for _, key := range keys {
		add(key, report.MetricJaccard, foldMeans(jaccard.MeanBins[key]), meanOf(jaccard.MeanTargets[key]))
		add(key, report.MetricRecall, foldMeans(jaccard.RecallMeanBins[key]), meanOf(jaccard.RecallMeanTargets[key]))
		add(key, report.MetricPrecision, foldMeans(jaccard.PrecisionMeanBins[key]), meanOf(jaccard.PrecisionMeanTargets[key]))
		if bounds != nil {
			add(key, report.MetricBoundAccuracy, foldMeans(bounds.MeanBins[key]), meanOf(bounds.MeanTargets[key]))
		}
		add(key, report.MetricMeanError, sparseFoldMeans(errRes.MeanBins[key]), meanOf(errRes.MeanTargets[key]))
	}
	return rows
}

func sortedKeys(m map[core.EvalKey][][]float64) []core.EvalKey {
	keys := make([]core.EvalKey, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Model != keys[j].Model {
			return keys[i].Model < keys[j].Model
		}
		return keys[i].UncertaintyType < keys[j].UncertaintyType
	})
	return keys
}

// foldMeans reduces a [bin][fold] matrix to one mean per bin.
func foldMeans(binFolds [][]float64) []*float64 {
	out := make([]*float64, len(binFolds))
	for bin, folds := range binFolds {
		m := meanOf(folds)
		out[bin] = &m
	}
	return out
}

// sparseFoldMeans reduces a [bin][fold] matrix with no-value markers:
// nil fold entries are dropped, and a bin empty in every fold stays nil.
func sparseFoldMeans(binFolds [][]*float64) []*float64 {
	out := make([]*float64, len(binFolds))
	for bin, folds := range binFolds {
		var present []float64
		for _, v := range folds {
			if v != nil {
				present = append(present, *v)
			}
		}
		if len(present) > 0 {
			m := meanOf(present)
			out[bin] = &m
		}
	}
	return out
}

func meanOf(values []float64) float64 {
	m, _ := stats.Mean(values)
	return m
}
