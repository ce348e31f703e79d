package binning

import (
	"quantbin/domain/core"
)

// BinGroups partitions a target slice's sample ids into numBins disjoint
// groups by predicted bin label, index 0 = most confident. UIDs and Errors
// are parallel per bin, in table row order.
type BinGroups struct {
	UIDs   [][]core.UID
	Errors [][]float64
}

// GroupByBin joins bin labels to errors in one pass keyed by uid and
// buckets the result by predicted bin. A uid carrying a bin label but no
// error is a data-integrity fault and fails loudly: silently dropping it
// would corrupt every size-weighted mean downstream.
func GroupByBin(ts *TargetSlice, numBins int) (*BinGroups, error) {
	g := &BinGroups{
		UIDs:   make([][]core.UID, numBins),
		Errors: make([][]float64, numBins),
	}
	for _, uid := range ts.UIDs {
		bin, ok := ts.Bins[uid]
		if !ok {
			continue
		}
		if bin < 0 || bin >= numBins {
			continue
		}
		err, ok := ts.Errors[uid]
		if !ok {
			return nil, core.NewUIDMismatchError(uid, ts.TargetIdx)
		}
		g.UIDs[bin] = append(g.UIDs[bin], uid)
		g.Errors[bin] = append(g.Errors[bin], err)
	}
	return g, nil
}

// Reverse flips the bin axis in place so index 0 becomes the worst
// confidence bin (display order B_N -> B_1). Scorers that compare against
// quantile groups reverse both partitions identically before pairing.
func (g *BinGroups) Reverse() {
	for i, j := 0, len(g.UIDs)-1; i < j; i, j = i+1, j-1 {
		g.UIDs[i], g.UIDs[j] = g.UIDs[j], g.UIDs[i]
		g.Errors[i], g.Errors[j] = g.Errors[j], g.Errors[i]
	}
}
