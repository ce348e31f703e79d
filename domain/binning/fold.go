package binning

import (
	"quantbin/domain/core"
)

// FoldData is the reduced view of a sample table for one fold and one
// uncertainty type: parallel (uid, target, error) and (uid, target, bin)
// records in table row order.
type FoldData struct {
	Fold            int
	UncertaintyType core.UncertaintyType
	UIDs            []core.UID
	TargetIdxs      []int
	Errors          []float64
	Bins            []int
}

// ExtractFold produces the fold data view for one fold and uncertainty
// type. It fails only when the uncertainty type's columns are absent from
// the table; an empty fold is a valid (empty) view.
func ExtractFold(table *SampleTable, fold int, ut core.UncertaintyType) (*FoldData, error) {
	if !table.HasType(ut) {
		return nil, core.NewColumnError(string(ut))
	}

	fd := &FoldData{Fold: fold, UncertaintyType: ut}
	for i := range table.Records {
		rec := &table.Records[i]
		if rec.Fold != fold {
			continue
		}
		fd.UIDs = append(fd.UIDs, rec.UID)
		fd.TargetIdxs = append(fd.TargetIdxs, rec.TargetIdx)
		fd.Errors = append(fd.Errors, rec.Errors[ut])
		fd.Bins = append(fd.Bins, rec.Bins[ut])
	}
	return fd, nil
}

// TargetSlice is the per-target reduction of a fold data view: the
// row-ordered uid list plus the error and bin lookups joined by uid.
// The explicit UIDs slice keeps group membership order deterministic;
// map iteration order never leaks into results.
type TargetSlice struct {
	TargetIdx int
	UIDs      []core.UID
	Errors    map[core.UID]float64
	Bins      map[core.UID]int
}

// Target reduces the fold view to one target index. errorScale multiplies
// every error as it is copied in (pass 1.0 for unscaled).
func (fd *FoldData) Target(targetIdx int, errorScale float64) *TargetSlice {
	ts := &TargetSlice{
		TargetIdx: targetIdx,
		Errors:    make(map[core.UID]float64),
		Bins:      make(map[core.UID]int),
	}
	for i, uid := range fd.UIDs {
		if fd.TargetIdxs[i] != targetIdx {
			continue
		}
		ts.UIDs = append(ts.UIDs, uid)
		ts.Errors[uid] = fd.Errors[i] * errorScale
		ts.Bins[uid] = fd.Bins[i]
	}
	return ts
}
