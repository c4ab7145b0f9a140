package pipeline

import "errors"

// Sentinel kinds for inference errors.
var (
	// ErrInference marks any failure between a validated record and a
	// prediction result.
	ErrInference = errors.New("inference failed")

	// ErrEncode marks records the fitted transform cannot represent,
	// e.g. a category value absent from the training-time encoding.
	ErrEncode = errors.New("feature encoding failed")
)
