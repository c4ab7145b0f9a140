package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is the sentinel kind matched by errors.Is for any
// ValidationError returned from this package.
var ErrValidation = errors.New("validation failed")

// FieldError describes one violated field: its wire name, the rejected
// value, and a human-readable reason.
type FieldError struct {
	Field  string `json:"field"`
	Value  any    `json:"value,omitempty"`
	Reason string `json:"reason"`
}

// ValidationError aggregates every violation found in one record.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		if fe.Field == "" {
			parts[i] = fe.Reason
			continue
		}
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
