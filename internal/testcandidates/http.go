package testcandidates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/entretien/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitSingles posts each candidate to /predict concurrently and keeps
// the responses index-aligned with the inputs for later comparison.
func submitSingles(ctx context.Context, config *Config, candidates []LabeledCandidate, stats *Stats) ([]*PredictionResponse, error) {
	logger.Get().Info(ctx, "submitting single predictions",
		logger.Int("candidates", len(candidates)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/predict"

	results := make([]*PredictionResponse, len(candidates))

	var (
		succeeded int64
		failed    int64
	)

	indexChan := make(chan int, config.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				pred, err := submitSingleCandidate(ctx, client, url, candidates[i])
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						logger.Get().Warn(ctx, "single prediction failed",
							logger.Int("index", i), logger.Error(err))
					}
					continue
				}
				results[i] = pred
				atomic.AddInt64(&succeeded, 1)
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range candidates {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.SinglesSubmitted = len(candidates)
	stats.SinglesSucceeded = int(atomic.LoadInt64(&succeeded))
	stats.SinglesFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "single predictions completed",
		logger.Int("succeeded", stats.SinglesSucceeded),
		logger.Int("failed", stats.SinglesFailed))
	return results, nil
}

// submitSingleCandidate posts one candidate and decodes the prediction.
func submitSingleCandidate(ctx context.Context, client *HTTPClient, url string, lc LabeledCandidate) (*PredictionResponse, error) {
	resp, err := client.Post(ctx, url, lc.Candidate)
	if err != nil {
		return nil, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	var pred PredictionResponse
	if err := json.Unmarshal(body, &pred); err != nil {
		return nil, fmt.Errorf("failed to decode prediction: %w", err)
	}
	return &pred, nil
}

// submitBatches chunks the candidates and posts each chunk to
// /predict/batch, flattening the per-item outcomes back into one
// index-aligned slice.
func submitBatches(ctx context.Context, config *Config, candidates []LabeledCandidate, stats *Stats) ([]*PredictionResponse, error) {
	logger.Get().Info(ctx, "submitting batch predictions",
		logger.Int("candidates", len(candidates)),
		logger.Int("batchSize", config.BatchSize))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/predict/batch"

	results := make([]*PredictionResponse, len(candidates))

	for start := 0; start < len(candidates); start += config.BatchSize {
		end := start + config.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		records := make([]any, 0, end-start)
		for _, lc := range candidates[start:end] {
			records = append(records, lc.Candidate)
		}

		resp, err := client.Post(ctx, url, records)
		if err != nil {
			return nil, fmt.Errorf("batch starting at %d failed: %w", start, err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return nil, fmt.Errorf("batch starting at %d: %w", start, err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("batch starting at %d: unexpected status %d: %s", start, resp.StatusCode, string(body))
		}

		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("batch starting at %d: failed to decode response: %w", start, err)
		}
		if len(items) != end-start {
			return nil, fmt.Errorf("batch starting at %d: got %d items for %d records", start, len(items), end-start)
		}

		stats.BatchesSubmitted++
		for i, item := range items {
			var probe map[string]json.RawMessage
			if err := json.Unmarshal(item, &probe); err != nil {
				return nil, fmt.Errorf("batch item %d: %w", start+i, err)
			}
			if _, isErr := probe["error"]; isErr {
				stats.BatchItemErrors++
				continue
			}
			var pred PredictionResponse
			if err := json.Unmarshal(item, &pred); err != nil {
				return nil, fmt.Errorf("batch item %d: %w", start+i, err)
			}
			results[start+i] = &pred
			stats.BatchItemsSucceeded++
		}
	}

	logger.Get().Info(ctx, "batch predictions completed",
		logger.Int("batches", stats.BatchesSubmitted),
		logger.Int("succeeded", stats.BatchItemsSucceeded),
		logger.Int("itemErrors", stats.BatchItemErrors))
	return results, nil
}
