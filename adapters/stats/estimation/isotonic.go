package estimation

import (
	"sort"

	"quantbin/domain/core"
)

// Isotonic is a fitted monotonically increasing regression of error on
// uncertainty, fit by pool-adjacent-violators. Prediction linearly
// interpolates between training points and clips outside the training
// range, matching the out-of-bounds behavior the bound pipeline expects.
type Isotonic struct {
	xs []float64 // sorted training uncertainties
	ys []float64 // fitted non-decreasing errors
}

// FitIsotonic fits the regression over (uncertainty, error) pairs.
func FitIsotonic(uncertainties, errors []float64) (*Isotonic, error) {
	if len(uncertainties) != len(errors) {
		return nil, core.NewLengthMismatchError(len(errors), len(uncertainties))
	}
	n := len(uncertainties)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return uncertainties[order[a]] < uncertainties[order[b]]
	})

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, idx := range order {
		xs[i] = uncertainties[idx]
		ys[i] = errors[idx]
	}

	// Pool adjacent violators: merge neighboring blocks whose means
	// decrease, then expand block means back out.
	type block struct {
		sum    float64
		weight float64
	}
	blocks := make([]block, 0, n)
	sizes := make([]int, 0, n)
	for _, y := range ys {
		blocks = append(blocks, block{sum: y, weight: 1})
		sizes = append(sizes, 1)
		for len(blocks) > 1 {
			last := len(blocks) - 1
			if blocks[last-1].sum/blocks[last-1].weight <= blocks[last].sum/blocks[last].weight {
				break
			}
			blocks[last-1].sum += blocks[last].sum
			blocks[last-1].weight += blocks[last].weight
			sizes[last-1] += sizes[last]
			blocks = blocks[:last]
			sizes = sizes[:last]
		}
	}

	fitted := make([]float64, 0, n)
	for i, b := range blocks {
		mean := b.sum / b.weight
		for j := 0; j < sizes[i]; j++ {
			fitted = append(fitted, mean)
		}
	}

	return &Isotonic{xs: xs, ys: fitted}, nil
}

// Predict evaluates the fitted regression at x.
func (iso *Isotonic) Predict(x float64) float64 {
	n := len(iso.xs)
	if n == 0 {
		return 0
	}
	if x <= iso.xs[0] {
		return iso.ys[0]
	}
	if x >= iso.xs[n-1] {
		return iso.ys[n-1]
	}
	hi := sort.SearchFloat64s(iso.xs, x)
	lo := hi - 1
	if iso.xs[hi] == iso.xs[lo] {
		return iso.ys[hi]
	}
	frac := (x - iso.xs[lo]) / (iso.xs[hi] - iso.xs[lo])
	return iso.ys[lo] + frac*(iso.ys[hi]-iso.ys[lo])
}
