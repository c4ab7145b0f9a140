// Package model contains domain models passed between layers.
package model

import "fmt"

// Candidate represents one applicant's attributes as accepted by the API.
// Field names mirror the OpenAPI schema for /predict.
type Candidate struct {
	Age                    int     `json:"age" validate:"min=15,max=70"`
	Diplome                string  `json:"diplome" validate:"oneof=BTS Licence Master Doctorat"`
	NoteAnglais            float64 `json:"note_anglais" validate:"min=0,max=100"`
	Experience             int     `json:"experience" validate:"min=0,max=50"`
	EntreprisesPrecedentes int     `json:"entreprises_precedentes" validate:"min=0,max=20"`
	DistanceKm             float64 `json:"distance_km" validate:"min=0,max=1000"`
	ScoreEntretien         float64 `json:"score_entretien" validate:"min=0,max=10"`
	ScoreCompetence        float64 `json:"score_competence" validate:"min=0,max=10"`
	ScorePersonnalite      float64 `json:"score_personnalite" validate:"min=0,max=100"`
	Sexe                   string  `json:"sexe" validate:"oneof=M F"`
}

// Key returns a canonical encoding of the candidate, stable across
// field order and float formatting. Used as the prediction cache key.
func (c Candidate) Key() string {
	return fmt.Sprintf("%d|%s|%g|%d|%d|%g|%g|%g|%g|%s",
		c.Age, c.Diplome, c.NoteAnglais, c.Experience, c.EntreprisesPrecedentes,
		c.DistanceKm, c.ScoreEntretien, c.ScoreCompetence, c.ScorePersonnalite, c.Sexe)
}

// Field accessors by wire name, used by the transform stage to assemble
// feature vectors in artifact order.

// Numeric returns the value of a numeric field by its wire name.
func (c Candidate) Numeric(name string) (float64, bool) {
	switch name {
	case "age":
		return float64(c.Age), true
	case "note_anglais":
		return c.NoteAnglais, true
	case "experience":
		return float64(c.Experience), true
	case "entreprises_precedentes":
		return float64(c.EntreprisesPrecedentes), true
	case "distance_km":
		return c.DistanceKm, true
	case "score_entretien":
		return c.ScoreEntretien, true
	case "score_competence":
		return c.ScoreCompetence, true
	case "score_personnalite":
		return c.ScorePersonnalite, true
	default:
		return 0, false
	}
}

// Categorical returns the value of a categorical field by its wire name.
func (c Candidate) Categorical(name string) (string, bool) {
	switch name {
	case "diplome":
		return c.Diplome, true
	case "sexe":
		return c.Sexe, true
	default:
		return "", false
	}
}

// Prediction is the outcome of applying the pipeline to one candidate.
// Label is 1 ("retenu") or 0 ("non retenu"); Probability is the
// positive-class probability in [0,1].
type Prediction struct {
	Label       int     `json:"prediction"`
	Probability float64 `json:"probabilite_retenu"`
}
