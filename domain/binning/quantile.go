package binning

import (
	"math"
	"sort"

	"quantbin/domain/core"
)

// QuantileGroups is the ground-truth counterpart of BinGroups: sample ids
// partitioned by true-error quantile rather than by predicted bin.
type QuantileGroups struct {
	Thresholds []float64
	UIDs       [][]core.UID
	Errors     [][]float64
}

// QuantileThresholds computes the numQuantileBins-1 empirical thresholds at
// quantiles 1/Q, 2/Q, ..., (Q-1)/Q using the linear interpolation quantile
// definition: index h = p*(n-1), interpolating between the two surrounding
// order statistics. The median of [1,2,3,4] is 2.5 under this definition.
func QuantileThresholds(errors []float64, numQuantileBins int) []float64 {
	sorted := make([]float64, len(errors))
	copy(sorted, errors)
	sort.Float64s(sorted)

	thresholds := make([]float64, 0, numQuantileBins-1)
	for q := 1; q < numQuantileBins; q++ {
		p := float64(q) / float64(numQuantileBins)
		thresholds = append(thresholds, quantileLinear(sorted, p))
	}
	return thresholds
}

func quantileLinear(sorted []float64, p float64) float64 {
	n := len(sorted)
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// PartitionByQuantile partitions a target slice's ids into quantile-derived
// groups. With combineMiddleBins only the first and last thresholds are
// kept, collapsing every interior group into one and yielding exactly 3
// groups; this mirrors the collapsing applied when bins were assigned
// upstream and must stay consistent with it.
//
// Partition rule for threshold sequence t: group 0 is error <= t[0],
// interior group q is t[q-1] < error <= t[q], the final group is
// error > t[last].
func PartitionByQuantile(ts *TargetSlice, numQuantileBins int, combineMiddleBins bool) *QuantileGroups {
	trueErrors := make([]float64, 0, len(ts.UIDs))
	for _, uid := range ts.UIDs {
		if e, ok := ts.Errors[uid]; ok {
			trueErrors = append(trueErrors, e)
		}
	}

	thresholds := QuantileThresholds(trueErrors, numQuantileBins)
	if combineMiddleBins && len(thresholds) >= 2 {
		thresholds = []float64{thresholds[0], thresholds[len(thresholds)-1]}
	}

	numGroups := len(thresholds) + 1
	qg := &QuantileGroups{
		Thresholds: thresholds,
		UIDs:       make([][]core.UID, numGroups),
		Errors:     make([][]float64, numGroups),
	}

	for q := 0; q < numGroups; q++ {
		for _, uid := range ts.UIDs {
			err, ok := ts.Errors[uid]
			if !ok {
				continue
			}
			var member bool
			switch {
			case q == 0:
				member = err <= thresholds[0]
			case q < len(thresholds):
				member = err > thresholds[q-1] && err <= thresholds[q]
			default:
				member = err > thresholds[len(thresholds)-1]
			}
			if member {
				qg.UIDs[q] = append(qg.UIDs[q], uid)
				qg.Errors[q] = append(qg.Errors[q], err)
			}
		}
	}
	return qg
}

// Reverse flips the group axis in place, matching BinGroups.Reverse.
func (qg *QuantileGroups) Reverse() {
	for i, j := 0, len(qg.UIDs)-1; i < j; i, j = i+1, j-1 {
		qg.UIDs[i], qg.UIDs[j] = qg.UIDs[j], qg.UIDs[i]
		qg.Errors[i], qg.Errors[j] = qg.Errors[j], qg.Errors[i]
	}
}
