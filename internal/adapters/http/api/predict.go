// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/okian/entretien/internal/domain/model"
	"github.com/okian/entretien/pkg/metrics"
)

// PredictDependencies defines the interface for single-record scoring.
type PredictDependencies interface {
	PredictOne(ctx context.Context, raw json.RawMessage) (model.Prediction, error)
}

// PredictHandler handles single-candidate prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePostPredict handles POST /predict requests.
func (h *PredictHandler) HandlePostPredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	pred, err := h.deps.PredictOne(r.Context(), raw)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	metrics.RecordPrediction("predict", strconv.Itoa(pred.Label), pred.Probability)
	writeJSON(w, http.StatusOK, pred)
}
