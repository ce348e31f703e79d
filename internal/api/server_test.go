package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantbin/adapters/stats/scorers"
	"quantbin/app"
	"quantbin/domain/binning"
	"quantbin/domain/core"
	"quantbin/domain/report"
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

func testServer(t *testing.T) (*Server, *memoryStore) {
	t.Helper()
	cfg, err := binning.NewConfig(2, []int{0}, 2, false)
	require.NoError(t, err)
	store := &memoryStore{}
	service := app.NewEvaluationService(cfg, store)
	return NewServer(Config{Port: "0"}, service, store), store
}

func perfectRequest() EvaluateRequest {
	rec := func(uid core.UID, fold int, errVal float64, bin int) binning.SampleRecord {
		return binning.SampleRecord{
			UID:       uid,
			TargetIdx: 0,
			Fold:      fold,
			Errors:    map[core.UncertaintyType]float64{"S-MHA": errVal},
			Bins:      map[core.UncertaintyType]int{"S-MHA": bin},
		}
	}
	return EvaluateRequest{
		Tables: map[core.ModelName]*binning.SampleTable{
			"resnet": {Records: []binning.SampleRecord{
				rec("a", 0, 1, 0), rec("b", 0, 2, 1),
				rec("c", 1, 3, 0), rec("d", 1, 4, 1),
			}},
		},
		Pairs: []core.UncertaintyPair{{Type: "S-MHA"}},
	}
}

func postJSON(t *testing.T, srv *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Healthz(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_EvaluateJaccard(t *testing.T) {
	srv, _ := testServer(t)
	w := postJSON(t, srv, "/evaluate/jaccard", perfectRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res scorers.JaccardResults
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	key := core.EvalKey{Model: "resnet", UncertaintyType: "S-MHA"}
	assert.Equal(t, [][]float64{{1, 1}, {1, 1}}, res.MeanBins[key])
}

func TestServer_EvaluateAllPersists(t *testing.T) {
	srv, store := testServer(t)
	w := postJSON(t, srv, "/evaluate", perfectRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	// jaccard, recall, precision, mean-error rows for the single key.
	assert.Len(t, store.saved, 4)
}

func TestServer_EvaluateRejectsEmptyBody(t *testing.T) {
	srv, _ := testServer(t)
	w := postJSON(t, srv, "/evaluate/jaccard", EvaluateRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_EvaluateBoundsWithoutTables(t *testing.T) {
	srv, _ := testServer(t)
	w := postJSON(t, srv, "/evaluate/bounds", perfectRequest())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_SummaryRendersHTML(t *testing.T) {
	srv, store := testServer(t)
	postJSON(t, srv, "/evaluate", perfectRequest())
	require.NotEmpty(t, store.saved)

	req := httptest.NewRequest(http.MethodGet, "/summary", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "resnet")
}
