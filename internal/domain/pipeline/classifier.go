package pipeline

import (
	"fmt"
	"math"
)

// LogisticModel implements Classifier with fitted logistic-regression
// parameters.
type LogisticModel struct {
	weights   []float64
	intercept float64
}

// NewLogisticModel builds the classifier stage. Width must match the
// transform stage; the artifact loader enforces that before composing.
func NewLogisticModel(weights []float64, intercept float64) (*LogisticModel, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: classifier has no weights", ErrInference)
	}
	w := make([]float64, len(weights))
	copy(w, weights)
	return &LogisticModel{weights: w, intercept: intercept}, nil
}

// Width returns the expected feature vector length.
func (m *LogisticModel) Width() int { return len(m.weights) }

// Probability returns sigmoid(w.x + b).
func (m *LogisticModel) Probability(features []float64) float64 {
	z := m.intercept
	for i, w := range m.weights {
		z += w * features[i]
	}
	return 1 / (1 + math.Exp(-z))
}
