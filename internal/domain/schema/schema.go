// Package schema validates raw candidate records against the declared
// field constraints before any inference is attempted.
//
// Validation runs in two passes over a declarative constraint table:
// presence and type coercion first, then bounds and enumeration membership.
// Violations from both passes are collected into a single ValidationError so
// callers can fix every problem in one round trip.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/entretien/internal/domain/model"
)

type kind int

const (
	kindInt kind = iota
	kindFloat
	kindString
)

// constraint describes one accepted field: its wire name, JSON type, and
// domain. Bounds and enums must stay in sync with the validate tags on
// model.Candidate; the table supplies the human-readable reasons.
type constraint struct {
	name string
	kind kind
	min  float64
	max  float64
	enum []string
}

var table = []constraint{
	{name: "age", kind: kindInt, min: 15, max: 70},
	{name: "diplome", kind: kindString, enum: []string{"BTS", "Licence", "Master", "Doctorat"}},
	{name: "note_anglais", kind: kindFloat, min: 0, max: 100},
	{name: "experience", kind: kindInt, min: 0, max: 50},
	{name: "entreprises_precedentes", kind: kindInt, min: 0, max: 20},
	{name: "distance_km", kind: kindFloat, min: 0, max: 1000},
	{name: "score_entretien", kind: kindFloat, min: 0, max: 10},
	{name: "score_competence", kind: kindFloat, min: 0, max: 10},
	{name: "score_personnalite", kind: kindFloat, min: 0, max: 100},
	{name: "sexe", kind: kindString, enum: []string{"M", "F"}},
}

// Validator checks raw JSON candidate records.
type Validator struct {
	strict   bool
	validate *validator.Validate
}

// Option applies a configuration option to the Validator.
type Option func(*Validator)

// WithStrictFields makes the validator reject unknown fields instead of
// ignoring them.
func WithStrictFields(strict bool) Option {
	return func(v *Validator) {
		v.strict = strict
	}
}

// New creates a Validator with the declared constraint table.
func New(opts ...Option) *Validator {
	v := &Validator{
		validate: validator.New(),
	}

	// Report violations under wire names, not Go field names.
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Validate checks one raw JSON object against the candidate schema.
// On success it returns the typed record; otherwise it returns a
// *ValidationError listing every violated field.
func (v *Validator) Validate(raw json.RawMessage) (model.Candidate, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.Candidate{}, &ValidationError{Fields: []FieldError{{
			Reason: "body must be a JSON object",
		}}}
	}

	var violations []FieldError
	flagged := make(map[string]bool)
	flag := func(fe FieldError) {
		violations = append(violations, fe)
		flagged[fe.Field] = true
	}

	var c model.Candidate
	for i := range table {
		cons := &table[i]
		rawValue, present := fields[cons.name]
		if !present {
			flag(FieldError{Field: cons.name, Reason: "field is required"})
			continue
		}
		if err := coerce(&c, cons, rawValue); err != nil {
			flag(FieldError{Field: cons.name, Value: compact(rawValue), Reason: err.Error()})
		}
	}

	if v.strict {
		for name := range fields {
			if !known(name) {
				flag(FieldError{Field: name, Reason: "unknown field"})
			}
		}
	}

	// Bounds and enums over the coerced struct. Fields already flagged are
	// skipped so a missing field is not also reported as out of range.
	if err := v.validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if flagged[fe.Field()] {
					continue
				}
				flag(FieldError{Field: fe.Field(), Value: fe.Value(), Reason: reason(fe.Field())})
			}
		} else {
			return model.Candidate{}, fmt.Errorf("schema validation: %w", err)
		}
	}

	if len(violations) > 0 {
		return model.Candidate{}, &ValidationError{Fields: violations}
	}
	return c, nil
}

// coerce parses rawValue per the constraint's kind and stores it on c.
func coerce(c *model.Candidate, cons *constraint, rawValue json.RawMessage) error {
	switch cons.kind {
	case kindInt:
		var num json.Number
		if err := json.Unmarshal(rawValue, &num); err != nil {
			return errors.New("must be an integer")
		}
		n, err := strconv.ParseInt(num.String(), 10, 64)
		if err != nil {
			return errors.New("must be an integer")
		}
		setInt(c, cons.name, int(n))
	case kindFloat:
		var f float64
		if err := json.Unmarshal(rawValue, &f); err != nil {
			return errors.New("must be a number")
		}
		setFloat(c, cons.name, f)
	case kindString:
		var s string
		if err := json.Unmarshal(rawValue, &s); err != nil {
			return errors.New("must be a string")
		}
		setString(c, cons.name, strings.TrimSpace(s))
	}
	return nil
}

func setInt(c *model.Candidate, name string, n int) {
	switch name {
	case "age":
		c.Age = n
	case "experience":
		c.Experience = n
	case "entreprises_precedentes":
		c.EntreprisesPrecedentes = n
	}
}

func setFloat(c *model.Candidate, name string, f float64) {
	switch name {
	case "note_anglais":
		c.NoteAnglais = f
	case "distance_km":
		c.DistanceKm = f
	case "score_entretien":
		c.ScoreEntretien = f
	case "score_competence":
		c.ScoreCompetence = f
	case "score_personnalite":
		c.ScorePersonnalite = f
	}
}

func setString(c *model.Candidate, name string, s string) {
	switch name {
	case "diplome":
		c.Diplome = s
	case "sexe":
		c.Sexe = s
	}
}

// reason builds the doc-style message for a bounds or enum violation on the
// named field.
func reason(name string) string {
	for i := range table {
		cons := &table[i]
		if cons.name != name {
			continue
		}
		if len(cons.enum) > 0 {
			return "must be one of " + strings.Join(cons.enum, ", ")
		}
		return fmt.Sprintf("must be between %g and %g", cons.min, cons.max)
	}
	return "invalid value"
}

func known(name string) bool {
	for i := range table {
		if table[i].name == name {
			return true
		}
	}
	return false
}

// compact renders a raw JSON value for error reporting.
func compact(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
