package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantbin/domain/binning"
	"quantbin/domain/core"
	"quantbin/domain/report"
	"quantbin/internal/testkit"
	"quantbin/ports"
)

type memoryStore struct {
	saved []report.Summary
}

func (m *memoryStore) SaveSummaries(ctx context.Context, summaries []report.Summary) error {
	m.saved = append(m.saved, summaries...)
	return nil
}

func (m *memoryStore) ListRecent(ctx context.Context, limit int) ([]report.Summary, error) {
	if limit > len(m.saved) {
		limit = len(m.saved)
	}
	return m.saved[:limit], nil
}

func serviceFixture(t *testing.T) (*EvaluationService, ports.EvaluationInputs, *memoryStore) {
	t.Helper()
	cfg, err := binning.NewConfig(3, []int{0, 1}, 2, false)
	require.NoError(t, err)

	kit := testkit.New(42)
	in := kit.Inputs(
		[]core.ModelName{"resnet", "unet"},
		20, cfg.NumFolds, cfg.Targets,
		[]core.UncertaintyType{"S-MHA"},
		cfg.NumBins,
	)
	store := &memoryStore{}
	return NewEvaluationService(cfg, store), in, store
}

func TestEvaluationService_EvaluateAll(t *testing.T) {
	service, in, _ := serviceFixture(t)

	out, err := service.EvaluateAll(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, out.Jaccard)
	require.NotNil(t, out.Bounds)
	require.NotNil(t, out.Errors)

	// 2 models x 1 type x 5 metrics.
	require.Len(t, out.Summaries, 10)
	for _, s := range out.Summaries {
		assert.Len(t, s.BinMeans, 3)
		assert.NotEmpty(t, s.ID)
	}

	// Deterministic key order: resnet rows before unet rows.
	assert.Equal(t, core.ModelName("resnet"), out.Summaries[0].Model)
	assert.Equal(t, core.ModelName("unet"), out.Summaries[5].Model)
}

func TestEvaluationService_SkipsBoundsWithoutTables(t *testing.T) {
	service, in, _ := serviceFixture(t)
	in.Bounds = nil

	out, err := service.EvaluateAll(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, out.Bounds)

	// 4 metrics per key without bound accuracy.
	assert.Len(t, out.Summaries, 8)
	for _, s := range out.Summaries {
		assert.NotEqual(t, report.MetricBoundAccuracy, s.Metric)
	}
}

func TestEvaluationService_Persist(t *testing.T) {
	service, in, store := serviceFixture(t)

	out, err := service.EvaluateAll(context.Background(), in)
	require.NoError(t, err)
	require.NoError(t, service.Persist(context.Background(), out.Summaries))
	assert.Len(t, store.saved, len(out.Summaries))

	bare := NewEvaluationService(service.Config(), nil)
	assert.Error(t, bare.Persist(context.Background(), out.Summaries))
}
