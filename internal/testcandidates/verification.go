package testcandidates

import (
	"context"
	"fmt"

	"github.com/okian/entretien/pkg/logger"
)

// verifyResults cross-checks the single and batch responses: every index
// answered by both paths must carry the identical prediction, and every
// prediction must be well-formed.
func verifyResults(ctx context.Context, singles, batches []*PredictionResponse, stats *Stats) error {
	if len(singles) != len(batches) {
		return fmt.Errorf("result length mismatch: %d singles vs %d batch items", len(singles), len(batches))
	}

	for i := range singles {
		s, b := singles[i], batches[i]
		if s == nil || b == nil {
			continue
		}

		if err := checkShape(i, s); err != nil {
			return err
		}
		if err := checkShape(i, b); err != nil {
			return err
		}

		if s.Prediction != b.Prediction || s.Probability != b.Probability {
			stats.Mismatches++
			logger.Get().Warn(ctx, "single and batch predictions disagree",
				logger.Int("index", i),
				logger.Int("singleLabel", s.Prediction),
				logger.Int("batchLabel", b.Prediction),
				logger.Float64("singleProbability", s.Probability),
				logger.Float64("batchProbability", b.Probability))
			continue
		}

		stats.Agreements++
		if s.Prediction == 1 {
			stats.PredictedPositive++
		}
	}

	if stats.Mismatches > 0 {
		return fmt.Errorf("%d indices returned different predictions on the single and batch paths", stats.Mismatches)
	}

	logger.Get().Info(ctx, "verification passed",
		logger.Int("agreements", stats.Agreements),
		logger.Int("predictedPositive", stats.PredictedPositive))
	return nil
}

// checkShape validates one prediction response.
func checkShape(index int, p *PredictionResponse) error {
	if p.Prediction != 0 && p.Prediction != 1 {
		return fmt.Errorf("index %d: prediction must be 0 or 1, got %d", index, p.Prediction)
	}
	if p.Probability < 0 || p.Probability > 1 {
		return fmt.Errorf("index %d: probability out of range: %g", index, p.Probability)
	}
	return nil
}

// classAgreement reports how often the model's label matched the class
// whose distribution generated the record. The generator injects noise,
// so perfect agreement is not expected.
func classAgreement(candidates []LabeledCandidate, results []*PredictionResponse) float64 {
	matched, total := 0, 0
	for i, lc := range candidates {
		if results[i] == nil {
			continue
		}
		total++
		if results[i].Prediction == lc.ExpectedClass {
			matched++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}
