// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/entretien/internal/app"
	"github.com/okian/entretien/internal/domain/model"
	"github.com/okian/entretien/internal/domain/pipeline"
	"github.com/okian/entretien/internal/domain/schema"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// PredictOne validates and scores a single raw candidate record.
	PredictOne(ctx context.Context, raw json.RawMessage) (model.Prediction, error)

	// PredictBatch scores raw records positionally, one outcome per input.
	PredictBatch(ctx context.Context, raws []json.RawMessage) ([]service.BatchItem, error)

	// Ready reports whether the artifact is loaded and workers are running.
	Ready() bool

	// ArtifactVersion identifies the pipeline currently serving traffic.
	ArtifactVersion() string
}

// Prediction mirrors the wire shape returned by scoring operations.
type Prediction = model.Prediction

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
	batchHandler   *BatchHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(deps),
		statsHandler:   NewStatsHandler(statsProvider),
		predictHandler: NewPredictHandler(deps),
		batchHandler:   NewBatchHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/predict/batch", RequestIDMiddleware(MetricsMiddleware(s.batchHandler.HandlePostBatch, "predict_batch")))
	mux.HandleFunc("/predict", RequestIDMiddleware(MetricsMiddleware(s.predictHandler.HandlePostPredict, "predict")))
}

// errorBody mirrors the OpenAPI error schema. Fields is populated only for
// validation failures and names every offending attribute at once.
type errorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  []schema.FieldError `json:"fields,omitempty"`
}

// classify maps domain errors to an HTTP status and a wire body. Anything it
// does not recognize is reported as an internal error.
func classify(err error) (int, errorBody) {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{
			Code:    "validation_error",
			Message: "candidate record failed validation",
			Fields:  verr.Fields,
		}
	case errors.Is(err, service.ErrNotReady):
		return http.StatusServiceUnavailable, errorBody{Code: "not_ready", Message: "service is not ready"}
	case errors.Is(err, service.ErrBusy):
		return http.StatusTooManyRequests, errorBody{Code: "backpressure", Message: "inference queue is full"}
	case errors.Is(err, pipeline.ErrInference):
		return http.StatusUnprocessableEntity, errorBody{Code: "inference_error", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Code: "internal_error", Message: err.Error()}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorBody{Code: code, Message: msg})
}

// writeDomainError renders errors coming back from the prediction service.
func writeDomainError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	writeJSON(w, status, body)
}
