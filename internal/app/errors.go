package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrNotReady is returned while the artifact has not been published.
	ErrNotReady = errors.New("service not ready")

	// ErrBusy signals inference queue backpressure.
	ErrBusy = errors.New("inference queue full")

	// ErrEmptyBatch rejects batch requests with no records.
	ErrEmptyBatch = errors.New("batch must not be empty")

	// ErrBatchTooLarge rejects batches above the configured cap before
	// any inference work begins.
	ErrBatchTooLarge = errors.New("batch too large")
)
