package scorers

import (
	"github.com/montanaflynn/stats"

	"quantbin/domain/core"
)

// meanOf is the shared mean used by every scorer. An empty input yields
// NaN, matching the reference numerics; callers that must skip empty
// inputs filter before calling.
func meanOf(values []float64) float64 {
	m, _ := stats.Mean(values)
	return m
}

// jaccardSimilarity computes |a∩b| / |a∪b| over two id lists. The empty/
// empty case is defined as 0 rather than an error so per-bin values stay
// comparable across bins.
func jaccardSimilarity(a, b []core.UID) float64 {
	inB := make(map[core.UID]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	intersection := 0
	for _, id := range a {
		if _, ok := inB[id]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// intersectionCount counts members of a that also appear in b.
func intersectionCount(a, b []core.UID) int {
	inB := make(map[core.UID]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	n := 0
	for _, id := range a {
		if _, ok := inB[id]; ok {
			n++
		}
	}
	return n
}

// reverseFloats returns a reversed copy along the outer axis.
func reverseFloats(xs [][]float64) [][]float64 {
	out := make([][]float64, len(xs))
	for i := range xs {
		out[i] = xs[len(xs)-1-i]
	}
	return out
}

func reverseMaybeFloats(xs [][]*float64) [][]*float64 {
	out := make([][]*float64, len(xs))
	for i := range xs {
		out[i] = xs[len(xs)-1-i]
	}
	return out
}

func reverseNested(xs [][][]float64) [][][]float64 {
	out := make([][][]float64, len(xs))
	for i := range xs {
		out[i] = xs[len(xs)-1-i]
	}
	return out
}
