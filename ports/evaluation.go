package ports

import (
	"context"

	"quantbin/domain/binning"
	"quantbin/domain/core"
	"quantbin/domain/report"
)

// EvaluationInputs are the fully materialized evaluation inputs: one sample
// table per model, the ordered uncertainty pairs to evaluate, and (for bound
// scoring) one bound table per model.
type EvaluationInputs struct {
	Tables map[core.ModelName]*binning.SampleTable
	Pairs  []core.UncertaintyPair
	Bounds map[core.ModelName]*binning.BoundTable
}

// EvaluationPort runs every applicable scorer over the inputs and returns
// the finalized summary rows, worst bin first.
type EvaluationPort interface {
	Summarize(ctx context.Context, in EvaluationInputs) ([]report.Summary, error)
}
