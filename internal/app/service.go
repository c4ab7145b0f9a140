// Package service provides the core prediction service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/entretien/internal/adapters/artifact"
	jobqueue "github.com/okian/entretien/internal/adapters/mq/queue"
	workerpool "github.com/okian/entretien/internal/adapters/mq/worker"
	"github.com/okian/entretien/internal/domain/cache"
	"github.com/okian/entretien/internal/domain/model"
	"github.com/okian/entretien/internal/domain/pipeline"
	"github.com/okian/entretien/internal/domain/schema"
	"github.com/okian/entretien/pkg/logger"
	"github.com/okian/entretien/pkg/metrics"
)

// BatchItem is the per-index outcome of a batch request: either a
// prediction or the error that kept index i from producing one.
type BatchItem struct {
	Prediction *model.Prediction
	Err        error
}

// Service owns the loaded artifact and serves predictions. It has two
// states: unready (before Start returns) and ready. The artifact is
// published exactly once and never mutated, so request paths read it
// without locking.
type Service struct {
	mu sync.RWMutex

	// Configuration
	artifactPath string
	maxBatchSize int
	workerCount  int
	queueSize    int
	cacheSize    int
	strictFields bool

	// Core components
	art         *artifact.Artifact
	pipe        *pipeline.Pipeline
	validator   *schema.Validator
	predictions cache.Cache
	jobQueue    *jobqueue.InMemoryQueue
	workerPool  *workerpool.Pool

	// State
	started   bool
	startedAt time.Time
	served    atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithArtifactPath sets the pipeline artifact location.
func WithArtifactPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.artifactPath = path
		}
	}
}

// WithMaxBatchSize caps accepted batch lengths.
func WithMaxBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatchSize = n
		}
	}
}

// WithWorkerCount sets the number of inference workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the inference job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCacheSize bounds the prediction cache. Zero or negative disables it.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		s.cacheSize = size
	}
}

// WithStrictFields rejects unknown fields in request bodies.
func WithStrictFields(strict bool) Option {
	return func(s *Service) {
		s.strictFields = strict
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		artifactPath: "model/pipeline_entretien.json",
		maxBatchSize: 256,
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    4096,
		cacheSize:    10_000,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the artifact and brings up the inference workers. Any
// failure leaves the service unready; callers must treat it as fatal.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting prediction service...",
		logger.String("artifactPath", s.artifactPath),
	)

	art, err := artifact.Load(ctx, s.artifactPath)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	s.art = art
	s.pipe = art.Pipeline()
	metrics.SetArtifactInfo(art.Version())

	s.validator = schema.New(schema.WithStrictFields(s.strictFields))

	if s.cacheSize > 0 {
		s.predictions = cache.New(cache.WithMaxSize(s.cacheSize))
	}

	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.pipe)
	s.workerPool.Start(ctx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "prediction service started",
		logger.String("artifactVersion", art.Version()),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("cacheSize", s.cacheSize),
		logger.Int("maxBatchSize", s.maxBatchSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping prediction service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "prediction service stopped")
}

// Ready reports whether the artifact is loaded and workers are running.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// ArtifactVersion returns the version of the loaded artifact.
func (s *Service) ArtifactVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.art == nil {
		return ""
	}
	return s.art.Version()
}

// MaxBatchSize returns the configured batch cap.
func (s *Service) MaxBatchSize() int {
	return s.maxBatchSize
}

// PredictOne validates one raw record and returns its prediction.
// Validation failures surface as *schema.ValidationError; a saturated
// queue surfaces as ErrBusy.
func (s *Service) PredictOne(ctx context.Context, raw json.RawMessage) (model.Prediction, error) {
	if !s.Ready() {
		return model.Prediction{}, ErrNotReady
	}

	c, err := s.validator.Validate(raw)
	if err != nil {
		recordValidationFailure(err)
		return model.Prediction{}, err
	}

	if pred, ok := s.cacheGet(ctx, c); ok {
		return pred, nil
	}

	reply := make(chan jobqueue.Result, 1)
	if !s.jobQueue.Enqueue(ctx, jobqueue.Job{Candidate: c, Reply: reply}) {
		return model.Prediction{}, ErrBusy
	}

	select {
	case res := <-reply:
		if res.Err != nil {
			metrics.RecordInferenceError()
			return model.Prediction{}, res.Err
		}
		s.cachePut(ctx, c, res.Prediction)
		s.served.Add(1)
		return res.Prediction, nil
	case <-ctx.Done():
		return model.Prediction{}, fmt.Errorf("prediction abandoned: %w", ctx.Err())
	}
}

// PredictBatch validates every element independently and predicts the
// valid ones, preserving input order. Invalid items are reported per
// index and never block the rest of the batch.
func (s *Service) PredictBatch(ctx context.Context, raws []json.RawMessage) ([]BatchItem, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}
	if len(raws) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(raws) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: %d records exceed the limit of %d", ErrBatchTooLarge, len(raws), s.maxBatchSize)
	}

	metrics.RecordBatchSize(len(raws))

	items := make([]BatchItem, len(raws))
	candidates := make([]model.Candidate, len(raws))
	pending := 0

	reply := make(chan jobqueue.Result, len(raws))

	for i, raw := range raws {
		c, err := s.validator.Validate(raw)
		if err != nil {
			recordValidationFailure(err)
			items[i] = BatchItem{Err: err}
			continue
		}
		candidates[i] = c

		if pred, ok := s.cacheGet(ctx, c); ok {
			p := pred
			items[i] = BatchItem{Prediction: &p}
			s.served.Add(1)
			continue
		}

		if s.jobQueue.Enqueue(ctx, jobqueue.Job{Index: i, Candidate: c, Reply: reply}) {
			pending++
			continue
		}

		// The batch was already admitted, so a saturated queue degrades
		// to inline scoring instead of failing the item.
		items[i] = s.predictInline(ctx, c)
	}

	for ; pending > 0; pending-- {
		select {
		case res := <-reply:
			if res.Err != nil {
				metrics.RecordInferenceError()
				items[res.Index] = BatchItem{Err: res.Err}
				continue
			}
			p := res.Prediction
			items[res.Index] = BatchItem{Prediction: &p}
			s.cachePut(ctx, candidates[res.Index], p)
			s.served.Add(1)
		case <-ctx.Done():
			return nil, fmt.Errorf("batch abandoned: %w", ctx.Err())
		}
	}

	return items, nil
}

// predictInline applies the pipeline on the calling goroutine.
func (s *Service) predictInline(ctx context.Context, c model.Candidate) BatchItem {
	start := time.Now()
	pred, err := s.pipe.PredictOne(ctx, c)
	metrics.RecordInferenceLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordInferenceError()
		return BatchItem{Err: err}
	}
	s.cachePut(ctx, c, pred)
	s.served.Add(1)
	return BatchItem{Prediction: &pred}
}

func (s *Service) cacheGet(ctx context.Context, c model.Candidate) (model.Prediction, bool) {
	if s.predictions == nil {
		return model.Prediction{}, false
	}
	pred, ok := s.predictions.Get(ctx, c.Key())
	if ok {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return pred, ok
}

func (s *Service) cachePut(ctx context.Context, c model.Candidate, pred model.Prediction) {
	if s.predictions == nil {
		return
	}
	s.predictions.Put(ctx, c.Key(), pred)
	metrics.UpdateCacheSize(s.predictions.Size())
}

// recordValidationFailure exports per-field failure counters.
func recordValidationFailure(err error) {
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	for _, fe := range verr.Fields {
		field := fe.Field
		if field == "" {
			field = "_body"
		}
		metrics.RecordValidationFailure(field)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"ready":        s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"maxBatchSize": s.maxBatchSize,
	}

	if s.started {
		stats["artifactVersion"] = s.art.Version()
		stats["threshold"] = s.pipe.Threshold()
		stats["predictionsServed"] = s.served.Load()
		stats["queueLength"] = s.jobQueue.Len(context.Background())
		stats["uptimeSeconds"] = int(time.Since(s.startedAt).Seconds())
		if s.predictions != nil {
			stats["cacheEntries"] = s.predictions.Size()
		}
	}

	return stats
}
