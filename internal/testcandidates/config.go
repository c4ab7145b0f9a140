package testcandidates

import (
	"time"

	"github.com/okian/entretien/internal/domain/model"
)

// Config holds configuration for the prediction test
type Config struct {
	BaseURL       string        // Base URL of the service
	NumCandidates int           // Number of candidates to generate
	BatchSize     int           // Records per /predict/batch call
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	OutputFile    string        // Output file for generated candidates
	LogFile       string        // Log file for test output
	Verbose       bool          // Enable verbose logging
}

// LabeledCandidate pairs a generated record with the class whose
// distribution produced it.
type LabeledCandidate struct {
	Candidate     model.Candidate `json:"candidate"`
	ExpectedClass int             `json:"expected_class"`
}

// PredictionResponse mirrors the wire shape returned by /predict.
type PredictionResponse struct {
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probabilite_retenu"`
}

// Stats holds test statistics
type Stats struct {
	CandidatesGenerated int
	SinglesSubmitted    int
	SinglesSucceeded    int
	SinglesFailed       int
	BatchesSubmitted    int
	BatchItemsSucceeded int
	BatchItemErrors     int
	Mismatches          int
	Agreements          int
	PredictedPositive   int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
