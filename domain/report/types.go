package report

import (
	"fmt"
	"time"

	"quantbin/domain/core"
)

// Metric names one scored quantity in a summary row.
type Metric string

const (
	MetricJaccard       Metric = "jaccard"
	MetricRecall        Metric = "recall"
	MetricPrecision     Metric = "precision"
	MetricBoundAccuracy Metric = "bound-accuracy"
	MetricMeanError     Metric = "mean-error"
)

// AllMetrics is the fixed report ordering.
var AllMetrics = []Metric{
	MetricJaccard,
	MetricRecall,
	MetricPrecision,
	MetricBoundAccuracy,
	MetricMeanError,
}

// Summary is one finalized report row: the cross-fold mean of a metric per
// bin for one (model, uncertainty type). BinMeans reads worst bin first,
// matching the display order of the finalized result containers; a bin no
// sample ever reached carries a nil entry.
type Summary struct {
	ID              core.UID             `json:"id" db:"id"`
	Model           core.ModelName       `json:"model" db:"model"`
	UncertaintyType core.UncertaintyType `json:"uncertainty_type" db:"uncertainty_type"`
	Metric          Metric               `json:"metric" db:"metric"`
	BinMeans        []*float64           `json:"bin_means"`
	TargetMean      float64              `json:"target_mean" db:"target_mean"`
	CreatedAt       time.Time            `json:"created_at" db:"created_at"`
}

// Key returns the evaluation key this row belongs to.
func (s Summary) Key() core.EvalKey {
	return core.EvalKey{Model: s.Model, UncertaintyType: s.UncertaintyType}
}

// BinLabels renders the workbook column labels for n bins, worst to best:
// B_n down to B_1.
func BinLabels(n int) []string {
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		labels[i] = fmt.Sprintf("B_%d", n-i)
	}
	return labels
}
