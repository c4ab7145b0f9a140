package testcandidates

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"

	"github.com/okian/entretien/internal/domain/model"
	"github.com/okian/entretien/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	noiseRate          = 0.1
)

// Diploma distributions per generated class. Admitted candidates skew
// toward higher diplomas, rejected ones toward BTS.
var (
	admittedDiplomas = weightedChoice{
		values:  []string{"Licence", "Master", "Doctorat"},
		weights: []float64{0.30, 0.55, 0.15},
	}
	rejectedDiplomas = weightedChoice{
		values:  []string{"BTS", "Licence", "Master"},
		weights: []float64{0.55, 0.40, 0.05},
	}
)

type weightedChoice struct {
	values  []string
	weights []float64
}

func (w weightedChoice) pick() string {
	r := randomFloat()
	acc := 0.0
	for i, p := range w.weights {
		acc += p
		if r < acc {
			return w.values[i]
		}
	}
	return w.values[len(w.values)-1]
}

// randomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomInt returns a random integer in [low, high).
func randomInt(low, high int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(high-low)))
	return low + int(n.Int64())
}

// normal samples a Gaussian via Box-Muller, clipped to [lo, hi].
func normal(mean, stddev, lo, hi float64) float64 {
	u1 := randomFloat()
	if u1 == 0 {
		u1 = 1.0 / randomFloatDivisor
	}
	u2 := randomFloat()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return clip(mean+stddev*z, lo, hi)
}

// poisson samples with Knuth's method, capped to the field upper bound.
func poisson(lambda float64, maxValue int) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= randomFloat()
		if p <= l {
			break
		}
		k++
	}
	if k > maxValue {
		return maxValue
	}
	return k
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// generateCandidates produces a shuffled mix of records drawn from the
// admitted and rejected class distributions, half each.
func generateCandidates(ctx context.Context, config *Config, stats *Stats) ([]LabeledCandidate, error) {
	logger.Get().Info(ctx, "generating candidates", logger.Int("numCandidates", config.NumCandidates))

	out := make([]LabeledCandidate, config.NumCandidates)
	for i := range out {
		class := i % 2
		out[i] = LabeledCandidate{
			Candidate:     generateSingleCandidate(class),
			ExpectedClass: class,
		}
	}

	// Fisher-Yates shuffle so classes are interleaved unpredictably
	for i := len(out) - 1; i > 0; i-- {
		j := randomInt(0, i+1)
		out[i], out[j] = out[j], out[i]
	}

	stats.CandidatesGenerated = len(out)
	logger.Get().Info(ctx, "generated candidates successfully", logger.Int("count", len(out)))
	return out, nil
}

// generateSingleCandidate draws one record from the class-conditional
// distributions. A tenth of the records invert the most discriminating
// criteria so the classes are not linearly separable.
func generateSingleCandidate(class int) model.Candidate {
	c := model.Candidate{
		Age:  randomInt(21, 45),
		Sexe: []string{"M", "F"}[randomInt(0, 2)],
	}

	if class == 1 {
		c.Diplome = admittedDiplomas.pick()
		c.NoteAnglais = math.Floor(normal(78, 10, 62, 100))
		c.Experience = randomInt(3, 16)
		c.EntreprisesPrecedentes = poisson(2.2, 20)
		c.DistanceKm = round1(clip(math.Abs(normal(5, 3, -20, 20)), 0, 20))
		c.ScoreEntretien = round1(normal(8.2, 0.8, 6.5, 10))
		c.ScoreCompetence = round1(normal(8.1, 0.85, 6, 10))
		c.ScorePersonnalite = math.Floor(normal(82, 8, 65, 100))
	} else {
		c.Diplome = rejectedDiplomas.pick()
		c.NoteAnglais = math.Floor(normal(58, 15, 0, 75))
		c.Experience = randomInt(0, 8)
		c.EntreprisesPrecedentes = poisson(1.2, 20)
		c.DistanceKm = round1(clip(math.Abs(normal(13, 7, -30, 30)), 0, 30))
		c.ScoreEntretien = round1(normal(5.7, 1, 2, 7.5))
		c.ScoreCompetence = round1(normal(5.4, 1.2, 2, 7.7))
		c.ScorePersonnalite = math.Floor(normal(67, 10, 45, 85))
	}

	// Noise: swap english and competence profiles across classes
	if randomFloat() < noiseRate {
		if class == 1 {
			c.NoteAnglais = math.Floor(normal(62, 8, 45, 72))
			c.ScoreCompetence = round1(normal(6, 1, 3, 10))
		} else {
			c.NoteAnglais = math.Floor(normal(78, 10, 62, 100))
			c.ScoreCompetence = round1(normal(8, 0.85, 7, 10))
		}
	}

	return c
}
