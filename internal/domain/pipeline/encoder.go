package pipeline

import (
	"fmt"

	"github.com/okian/entretien/internal/domain/model"
)

// NumericFeature is one standard-scaled numeric input in artifact order.
type NumericFeature struct {
	Field string
	Mean  float64
	Scale float64
}

// CategoricalFeature is one one-hot encoded input with its training-time
// category set in artifact order.
type CategoricalFeature struct {
	Field      string
	Categories []string
}

// Encoder implements Transformer using the scaler and category sets fitted
// at training time.
type Encoder struct {
	numeric     []NumericFeature
	categorical []CategoricalFeature
	width       int
}

// NewEncoder builds an Encoder, rejecting stages that reference unknown
// candidate fields or carry degenerate parameters.
func NewEncoder(numeric []NumericFeature, categorical []CategoricalFeature) (*Encoder, error) {
	if len(numeric) == 0 && len(categorical) == 0 {
		return nil, fmt.Errorf("%w: transform stage has no features", ErrEncode)
	}

	var probe model.Candidate
	width := 0
	for _, nf := range numeric {
		if _, ok := probe.Numeric(nf.Field); !ok {
			return nil, fmt.Errorf("%w: unknown numeric field %q", ErrEncode, nf.Field)
		}
		if nf.Scale == 0 {
			return nil, fmt.Errorf("%w: zero scale for field %q", ErrEncode, nf.Field)
		}
		width++
	}
	for _, cf := range categorical {
		if _, ok := probe.Categorical(cf.Field); !ok {
			return nil, fmt.Errorf("%w: unknown categorical field %q", ErrEncode, cf.Field)
		}
		if len(cf.Categories) == 0 {
			return nil, fmt.Errorf("%w: empty category set for field %q", ErrEncode, cf.Field)
		}
		width += len(cf.Categories)
	}

	return &Encoder{numeric: numeric, categorical: categorical, width: width}, nil
}

// Width returns the feature vector length.
func (e *Encoder) Width() int { return e.width }

// Transform encodes one candidate: scaled numerics in artifact order,
// followed by the one-hot block of each categorical field.
func (e *Encoder) Transform(c model.Candidate) ([]float64, error) {
	features := make([]float64, 0, e.width)

	for _, nf := range e.numeric {
		v, _ := c.Numeric(nf.Field)
		features = append(features, (v-nf.Mean)/nf.Scale)
	}

	for _, cf := range e.categorical {
		v, _ := c.Categorical(cf.Field)
		hot := -1
		for i, cat := range cf.Categories {
			if cat == v {
				hot = i
				break
			}
		}
		if hot < 0 {
			// Validated input the artifact cannot represent. Reported,
			// never silently defaulted.
			return nil, fmt.Errorf("%w: %w: field %q value %q not in training categories",
				ErrInference, ErrEncode, cf.Field, v)
		}
		for i := range cf.Categories {
			if i == hot {
				features = append(features, 1)
			} else {
				features = append(features, 0)
			}
		}
	}

	return features, nil
}
