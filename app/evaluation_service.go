package app

import (
	"context"
	"fmt"
	"log"

	"quantbin/adapters/stats/scorers"
	"quantbin/domain/binning"
	"quantbin/domain/report"
	"quantbin/ports"
)

// EvaluationService orchestrates the three scoring families over one shared
// set of inputs and reduces the finalized results to summary rows. Bound
// accuracy only runs when the inputs carry bound tables; the other two
// always run.
type EvaluationService struct {
	cfg   binning.Config
	store ports.SummaryStorePort // optional; nil disables persistence
}

// NewEvaluationService creates an evaluation service for one config.
func NewEvaluationService(cfg binning.Config, store ports.SummaryStorePort) *EvaluationService {
	return &EvaluationService{cfg: cfg, store: store}
}

// Config returns the evaluation config the service was built with.
func (s *EvaluationService) Config() binning.Config {
	return s.cfg
}

// WithConfig returns a service running the same store under a different
// config. Used by callers that allow per-request overrides.
func (s *EvaluationService) WithConfig(cfg binning.Config) *EvaluationService {
	return &EvaluationService{cfg: cfg, store: s.store}
}

// EvaluationOutcome bundles the full result containers with the flattened
// summary rows derived from them.
type EvaluationOutcome struct {
	Jaccard   *scorers.JaccardResults `json:"jaccard"`
	Bounds    *scorers.BoundResults   `json:"bounds,omitempty"`
	Errors    *scorers.ErrorResults   `json:"errors"`
	Summaries []report.Summary        `json:"summaries"`
}

// EvaluateAll runs every applicable scorer and builds the summary rows.
func (s *EvaluationService) EvaluateAll(ctx context.Context, in ports.EvaluationInputs) (*EvaluationOutcome, error) {
	log.Printf("[Evaluation] %d models, %d uncertainty pairs, %d folds, %d bins",
		len(in.Tables), len(in.Pairs), s.cfg.NumFolds, s.cfg.EffectiveBins)

	jaccard, err := scorers.EvaluateJaccard(ctx, s.cfg, in)
	if err != nil {
		return nil, fmt.Errorf("jaccard evaluation: %w", err)
	}
	errRes, err := scorers.EvaluateMeanErrors(ctx, s.cfg, in)
	if err != nil {
		return nil, fmt.Errorf("mean-error evaluation: %w", err)
	}

	out := &EvaluationOutcome{Jaccard: jaccard, Errors: errRes}
	if len(in.Bounds) > 0 {
		bounds, err := scorers.EvaluateBounds(ctx, s.cfg, in)
		if err != nil {
			return nil, fmt.Errorf("bound evaluation: %w", err)
		}
		out.Bounds = bounds
	} else {
		log.Printf("[Evaluation] no bound tables supplied, skipping bound accuracy")
	}

	out.Summaries = buildSummaries(jaccard, out.Bounds, errRes)
	log.Printf("[Evaluation] produced %d summary rows", len(out.Summaries))
	return out, nil
}

// Summarize implements ports.EvaluationPort.
func (s *EvaluationService) Summarize(ctx context.Context, in ports.EvaluationInputs) ([]report.Summary, error) {
	out, err := s.EvaluateAll(ctx, in)
	if err != nil {
		return nil, err
	}
	return out.Summaries, nil
}

// Persist stores summary rows through the configured store. A service built
// without a store refuses rather than silently dropping the rows.
func (s *EvaluationService) Persist(ctx context.Context, summaries []report.Summary) error {
	if s.store == nil {
		return fmt.Errorf("no summary store configured")
	}
	if err := s.store.SaveSummaries(ctx, summaries); err != nil {
		return fmt.Errorf("persist summaries: %w", err)
	}
	log.Printf("[Evaluation] persisted %d summary rows", len(summaries))
	return nil
}
