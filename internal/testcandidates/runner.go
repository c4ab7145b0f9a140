package testcandidates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/entretien/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	outputPermission    = 0600
)

// Run executes the complete prediction test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting prediction test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("candidates", config.NumCandidates),
		logger.Int("batchSize", config.BatchSize),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate candidates
	candidates, err := generateCandidates(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("candidate generation failed: %w", err)
	}

	// Step 3: Score every candidate through /predict
	singles, err := submitSingles(ctx, config, candidates, stats)
	if err != nil {
		return fmt.Errorf("single prediction submission failed: %w", err)
	}

	// Step 4: Score the same candidates through /predict/batch
	batches, err := submitBatches(ctx, config, candidates, stats)
	if err != nil {
		return fmt.Errorf("batch prediction submission failed: %w", err)
	}

	// Step 5: Verify shape, order and single/batch agreement
	if err := verifyResults(ctx, singles, batches, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Save candidates to file
	if err := saveCandidatesToFile(ctx, config, candidates); err != nil {
		logger.Get().Warn(ctx, "failed to save candidates to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats, classAgreement(candidates, singles))

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running and ready.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service is not ready, health status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveCandidatesToFile saves the generated candidates to a JSON file.
func saveCandidatesToFile(ctx context.Context, config *Config, candidates []LabeledCandidate) error {
	if len(candidates) == 0 {
		return fmt.Errorf("no candidates to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_candidates_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal candidates: %w", err)
	}
	if err := os.WriteFile(filename, data, outputPermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "candidates saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats, agreement float64) {
	var predictionsPerSecond float64
	if stats.Duration > 0 {
		predictionsPerSecond = float64(stats.SinglesSubmitted+stats.BatchItemsSucceeded) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("candidatesGenerated", stats.CandidatesGenerated),
		logger.Int("singlesSucceeded", stats.SinglesSucceeded),
		logger.Int("singlesFailed", stats.SinglesFailed),
		logger.Int("batchesSubmitted", stats.BatchesSubmitted),
		logger.Int("batchItemsSucceeded", stats.BatchItemsSucceeded),
		logger.Int("batchItemErrors", stats.BatchItemErrors),
		logger.Int("agreements", stats.Agreements),
		logger.Int("predictedPositive", stats.PredictedPositive),
		logger.Float64("classAgreement", agreement),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("predictionsPerSecond", predictionsPerSecond))
}
