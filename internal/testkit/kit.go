package testkit

import (
	"math/rand"
	"sort"

	"quantbin/domain/binning"
	"quantbin/domain/core"
	"quantbin/ports"
)

// Kit generates synthetic evaluation inputs. All randomness flows through
// one seeded source, so a fixed seed reproduces the same tables.
type Kit struct {
	rng *rand.Rand
}

// New creates a kit with a deterministic seed.
func New(seed int64) *Kit {
	return &Kit{rng: rand.New(rand.NewSource(seed))}
}

// SampleTable generates samplesPerFold rows for every (fold, target)
// combination. Errors are positive and loosely correlated with the predicted
// bin, so scorers see plausible rather than pure-noise inputs.
func (k *Kit) SampleTable(samplesPerFold, numFolds int, targets []int, types []core.UncertaintyType, numBins int) *binning.SampleTable {
	table := &binning.SampleTable{}
	for fold := 0; fold < numFolds; fold++ {
		for _, target := range targets {
			for i := 0; i < samplesPerFold; i++ {
				rec := binning.SampleRecord{
					UID:       core.NewUID(),
					TargetIdx: target,
					Fold:      fold,
					Errors:    make(map[core.UncertaintyType]float64, len(types)),
					Bins:      make(map[core.UncertaintyType]int, len(types)),
				}
				for _, ut := range types {
					bin := k.rng.Intn(numBins)
					// Higher-confidence bins tend toward smaller errors.
					base := float64(numBins-bin) * 2.0
					rec.Bins[ut] = bin
					rec.Errors[ut] = base + k.rng.Float64()*2.0
				}
				table.Records = append(table.Records, rec)
			}
		}
	}
	return table
}

// BoundTable generates one bound row per fold with ascending thresholds per
// target, shaped for numBins bins (numBins-1 thresholds each).
func (k *Kit) BoundTable(numFolds int, numTargets, numBins int, types []core.UncertaintyType) *binning.BoundTable {
	table := &binning.BoundTable{}
	for fold := 0; fold < numFolds; fold++ {
		row := binning.BoundRow{
			Fold:       fold,
			Thresholds: make(map[core.UncertaintyType][][]float64, len(types)),
		}
		for _, ut := range types {
			perTarget := make([][]float64, numTargets)
			for t := 0; t < numTargets; t++ {
				thresholds := make([]float64, numBins-1)
				for i := range thresholds {
					thresholds[i] = 2.0 + k.rng.Float64()*10.0
				}
				sort.Float64s(thresholds)
				perTarget[t] = thresholds
			}
			row.Thresholds[ut] = perTarget
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// Inputs bundles generated tables for a set of models into evaluation
// inputs, bounds included.
func (k *Kit) Inputs(models []core.ModelName, samplesPerFold, numFolds int, targets []int, types []core.UncertaintyType, numBins int) ports.EvaluationInputs {
	in := ports.EvaluationInputs{
		Tables: make(map[core.ModelName]*binning.SampleTable, len(models)),
		Bounds: make(map[core.ModelName]*binning.BoundTable, len(models)),
	}
	for _, ut := range types {
		in.Pairs = append(in.Pairs, core.UncertaintyPair{Type: ut, Label: string(ut)})
	}
	for _, model := range models {
		in.Tables[model] = k.SampleTable(samplesPerFold, numFolds, targets, types, numBins)
		in.Bounds[model] = k.BoundTable(numFolds, len(targets), numBins, types)
	}
	return in
}
