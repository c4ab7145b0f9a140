// Package pipeline composes the fitted feature transform and classifier
// stages into the prediction pipeline applied to candidate records.
//
// Both stages are fitted offline and loaded from the artifact; nothing in
// this package re-fits or adapts them at inference time. A Pipeline is
// immutable after construction and safe for concurrent use.
package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/entretien/internal/domain/model"
)

// Default decision threshold when the artifact does not carry one.
const defaultThreshold = 0.5

// probabilityDecimals matches the rounding applied by the original service.
const probabilityDecimals = 4

// Transformer converts a candidate into the fixed-order numeric feature
// vector the classifier was trained on.
type Transformer interface {
	// Transform encodes one record. It fails if a categorical value was
	// absent from the training-time encoding.
	Transform(c model.Candidate) ([]float64, error)

	// Width reports the length of produced feature vectors.
	Width() int
}

// Classifier produces the positive-class probability for a feature vector.
type Classifier interface {
	Probability(features []float64) float64
}

// Pipeline applies Transformer then Classifier and derives the label from
// the decision threshold.
type Pipeline struct {
	transform Transformer
	classify  Classifier
	threshold float64
	version   string
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithThreshold sets the decision threshold. Values outside (0,1) are ignored.
func WithThreshold(threshold float64) Option {
	return func(p *Pipeline) {
		if threshold > 0 && threshold < 1 {
			p.threshold = threshold
		}
	}
}

// WithVersion records the artifact version the pipeline was built from.
func WithVersion(version string) Option {
	return func(p *Pipeline) {
		p.version = version
	}
}

// New composes the two fitted stages.
func New(t Transformer, c Classifier, opts ...Option) (*Pipeline, error) {
	if t == nil || c == nil {
		return nil, fmt.Errorf("%w: both stages are required", ErrInference)
	}
	p := &Pipeline{
		transform: t,
		classify:  c,
		threshold: defaultThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Version returns the artifact version the pipeline was built from.
func (p *Pipeline) Version() string { return p.version }

// Threshold returns the decision threshold in effect.
func (p *Pipeline) Threshold() float64 { return p.threshold }

// PredictOne applies the pipeline to a single validated record.
func (p *Pipeline) PredictOne(_ context.Context, c model.Candidate) (model.Prediction, error) {
	features, err := p.transform.Transform(c)
	if err != nil {
		return model.Prediction{}, err
	}

	probability := roundProbability(p.classify.Probability(features))

	label := 0
	if probability >= p.threshold {
		label = 1
	}

	return model.Prediction{Label: label, Probability: probability}, nil
}

// PredictMany applies the identical per-record logic as PredictOne to each
// record in order. Results are element-wise equal to sequential PredictOne
// calls; batching exists only so callers can amortize dispatch.
func (p *Pipeline) PredictMany(ctx context.Context, cs []model.Candidate) ([]model.Prediction, error) {
	out := make([]model.Prediction, len(cs))
	for i, c := range cs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInference, err)
		}
		pred, err := p.PredictOne(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = pred
	}
	return out, nil
}

// roundProbability keeps the wire format stable at four decimals.
func roundProbability(p float64) float64 {
	shift := math.Pow10(probabilityDecimals)
	return math.Round(p*shift) / shift
}
