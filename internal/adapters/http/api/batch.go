// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	service "github.com/okian/entretien/internal/app"
	"github.com/okian/entretien/pkg/metrics"
)

// BatchDependencies defines the interface for batch scoring.
type BatchDependencies interface {
	PredictBatch(ctx context.Context, raws []json.RawMessage) ([]service.BatchItem, error)
}

// BatchHandler handles batch prediction requests.
type BatchHandler struct {
	deps BatchDependencies
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps BatchDependencies) *BatchHandler {
	return &BatchHandler{deps: deps}
}

// batchErrorEntry is the per-index failure shape; successful indices carry
// the plain prediction object instead.
type batchErrorEntry struct {
	Error errorBody `json:"error"`
}

// HandlePostBatch handles POST /predict/batch requests. The response array
// is positionally aligned with the request array: index i holds either a
// prediction or the error that kept record i from producing one.
func (h *BatchHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_predict_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var raws []json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raws); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	items, err := h.deps.PredictBatch(r.Context(), raws)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyBatch):
			writeError(w, http.StatusBadRequest, "empty_batch", WrapKind(op, ErrBadRequest, err))
		case errors.Is(err, service.ErrBatchTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "batch_too_large", WrapKind(op, ErrPayloadTooLarge, err))
		default:
			writeDomainError(w, err)
		}
		return
	}

	out := make([]any, len(items))
	for i, item := range items {
		if item.Err != nil {
			_, body := classify(item.Err)
			out[i] = batchErrorEntry{Error: body}
			continue
		}
		metrics.RecordPrediction("predict_batch", strconv.Itoa(item.Prediction.Label), item.Prediction.Probability)
		out[i] = item.Prediction
	}
	writeJSON(w, http.StatusOK, out)
}
