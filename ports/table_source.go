package ports

import (
	"context"

	"quantbin/domain/binning"
	"quantbin/domain/core"
)

// TableSourcePort loads the materialized evaluation inputs for one model:
// the per-sample bin prediction table and, when the source carries them, the
// learned per-fold error bounds.
type TableSourcePort interface {
	// ReadSamples loads the full sample table for a model.
	ReadSamples(ctx context.Context, model core.ModelName) (*binning.SampleTable, error)

	// ReadBounds loads the learned bound table for a model. Sources without
	// bound data return ErrMissingBounds.
	ReadBounds(ctx context.Context, model core.ModelName) (*binning.BoundTable, error)
}
