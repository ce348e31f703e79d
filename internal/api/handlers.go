package api

import (
	"encoding/json"
	"net/http"

	"quantbin/adapters/stats/scorers"
	"quantbin/domain/binning"
	"quantbin/domain/core"
	"quantbin/ports"
)

// EvaluateRequest is the JSON body accepted by the /evaluate endpoints. An
// omitted config falls back to the service defaults.
type EvaluateRequest struct {
	Config *binning.Config                               `json:"config,omitempty"`
	Tables map[core.ModelName]*binning.SampleTable       `json:"tables"`
	Pairs  []core.UncertaintyPair                        `json:"pairs"`
	Bounds map[core.ModelName]*binning.BoundTable        `json:"bounds,omitempty"`
}

func (s *Server) decodeEvaluate(w http.ResponseWriter, r *http.Request) (binning.Config, ports.EvaluationInputs, bool) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return binning.Config{}, ports.EvaluationInputs{}, false
	}
	if len(req.Tables) == 0 || len(req.Pairs) == 0 {
		writeError(w, http.StatusBadRequest, "tables and pairs are required")
		return binning.Config{}, ports.EvaluationInputs{}, false
	}

	cfg := s.service.Config()
	if req.Config != nil {
		cfg = *req.Config
		if cfg.EffectiveBins == 0 {
			cfg.EffectiveBins = cfg.NumBins
			if cfg.CombineMiddleBins {
				cfg.EffectiveBins = 3
			}
		}
		if err := cfg.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return binning.Config{}, ports.EvaluationInputs{}, false
		}
	}

	in := ports.EvaluationInputs{Tables: req.Tables, Pairs: req.Pairs, Bounds: req.Bounds}
	return cfg, in, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvaluateJaccard(w http.ResponseWriter, r *http.Request) {
	cfg, in, ok := s.decodeEvaluate(w, r)
	if !ok {
		return
	}
	res, err := scorers.EvaluateJaccard(r.Context(), cfg, in)
	if err != nil {
		writeEvaluationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEvaluateBounds(w http.ResponseWriter, r *http.Request) {
	cfg, in, ok := s.decodeEvaluate(w, r)
	if !ok {
		return
	}
	res, err := scorers.EvaluateBounds(r.Context(), cfg, in)
	if err != nil {
		writeEvaluationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEvaluateErrors(w http.ResponseWriter, r *http.Request) {
	cfg, in, ok := s.decodeEvaluate(w, r)
	if !ok {
		return
	}
	res, err := scorers.EvaluateMeanErrors(r.Context(), cfg, in)
	if err != nil {
		writeEvaluationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleEvaluateAll runs every applicable scorer, persists the summary rows
// when a store is configured, and returns the full outcome.
func (s *Server) handleEvaluateAll(w http.ResponseWriter, r *http.Request) {
	cfg, in, ok := s.decodeEvaluate(w, r)
	if !ok {
		return
	}
	out, err := s.service.WithConfig(cfg).EvaluateAll(r.Context(), in)
	if err != nil {
		writeEvaluationError(w, err)
		return
	}
	if s.store != nil {
		if err := s.store.SaveSummaries(r.Context(), out.Summaries); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to persist summaries: "+err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// writeEvaluationError maps domain errors onto HTTP status codes: bad
// configuration is the caller's fault, broken inputs are unprocessable,
// anything else is a server error.
func writeEvaluationError(w http.ResponseWriter, err error) {
	switch {
	case core.IsConfigError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case core.IsIntegrityError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
