// Package artifact loads the serialized pipeline artifact produced by
// offline training.
//
// The artifact is read exactly once at startup, shape-checked, and turned
// into an immutable pipeline shared by all requests. A missing or malformed
// artifact is a deployment error: callers must treat any failure from Load
// as fatal and never retry.
package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/okian/entretien/internal/domain/pipeline"
	"github.com/okian/entretien/pkg/logger"
)

// supportedSchemaVersion is the artifact layout this build understands.
const supportedSchemaVersion = 1

// classifierLogistic is the only classifier type the service can execute.
const classifierLogistic = "logistic_regression"

// document mirrors the artifact file layout. The training notebook exports
// this exact shape.
type document struct {
	SchemaVersion int    `json:"schema_version"`
	Version       string `json:"version"`
	Transform     struct {
		Numeric []struct {
			Field string  `json:"field"`
			Mean  float64 `json:"mean"`
			Scale float64 `json:"scale"`
		} `json:"numeric"`
		Categorical []struct {
			Field      string   `json:"field"`
			Categories []string `json:"categories"`
		} `json:"categorical"`
	} `json:"transform"`
	Classifier struct {
		Type      string    `json:"type"`
		Weights   []float64 `json:"weights"`
		Intercept float64   `json:"intercept"`
		Threshold float64   `json:"threshold"`
	} `json:"classifier"`
}

// Artifact is the loaded, immutable transform+classifier bundle.
type Artifact struct {
	version  string
	pipeline *pipeline.Pipeline
}

// Version returns the artifact's version identifier.
func (a *Artifact) Version() string { return a.version }

// Pipeline returns the composed pipeline built from the artifact.
func (a *Artifact) Pipeline() *pipeline.Pipeline { return a.pipeline }

// Load reads and verifies the artifact at path.
func Load(ctx context.Context, path string) (*Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrArtifactLoad, path, err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrArtifactLoad, path, err)
	}

	if doc.SchemaVersion != supportedSchemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema_version %d (want %d)",
			ErrArtifactLoad, doc.SchemaVersion, supportedSchemaVersion)
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("%w: artifact carries no version", ErrArtifactLoad)
	}
	if doc.Classifier.Type != classifierLogistic {
		return nil, fmt.Errorf("%w: unsupported classifier type %q", ErrArtifactLoad, doc.Classifier.Type)
	}
	if doc.Classifier.Threshold < 0 || doc.Classifier.Threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %g outside [0,1]", ErrArtifactLoad, doc.Classifier.Threshold)
	}

	numeric := make([]pipeline.NumericFeature, len(doc.Transform.Numeric))
	for i, nf := range doc.Transform.Numeric {
		numeric[i] = pipeline.NumericFeature{Field: nf.Field, Mean: nf.Mean, Scale: nf.Scale}
	}
	categorical := make([]pipeline.CategoricalFeature, len(doc.Transform.Categorical))
	for i, cf := range doc.Transform.Categorical {
		categorical[i] = pipeline.CategoricalFeature{Field: cf.Field, Categories: cf.Categories}
	}

	encoder, err := pipeline.NewEncoder(numeric, categorical)
	if err != nil {
		return nil, fmt.Errorf("%w: transform stage: %v", ErrArtifactLoad, err)
	}

	classifier, err := pipeline.NewLogisticModel(doc.Classifier.Weights, doc.Classifier.Intercept)
	if err != nil {
		return nil, fmt.Errorf("%w: classifier stage: %v", ErrArtifactLoad, err)
	}

	if classifier.Width() != encoder.Width() {
		return nil, fmt.Errorf("%w: classifier expects %d features, transform produces %d",
			ErrArtifactLoad, classifier.Width(), encoder.Width())
	}

	opts := []pipeline.Option{pipeline.WithVersion(doc.Version)}
	if doc.Classifier.Threshold > 0 {
		opts = append(opts, pipeline.WithThreshold(doc.Classifier.Threshold))
	}
	p, err := pipeline.New(encoder, classifier, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactLoad, err)
	}

	logger.Get().Info(ctx, "pipeline artifact loaded",
		logger.String("path", path),
		logger.String("version", doc.Version),
		logger.Int("features", encoder.Width()),
		logger.Float64("threshold", p.Threshold()),
	)

	return &Artifact{version: doc.Version, pipeline: p}, nil
}
