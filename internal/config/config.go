// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer sources.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ArtifactPath points at the serialized pipeline artifact. Required;
	// there is no in-process fallback model.
	ArtifactPath string `koanf:"artifact_path"`

	// MaxBatchSize caps the number of records accepted by POST /predict/batch.
	MaxBatchSize int `koanf:"max_batch_size"`

	// WorkerCount sets the number of inference workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory inference job queue.
	QueueSize int `koanf:"queue_size"`

	// CacheSize bounds the prediction result cache. Zero disables caching.
	CacheSize int `koanf:"cache_size"`

	// StrictFields rejects request bodies carrying unknown fields.
	StrictFields bool `koanf:"strict_fields"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		Addr:         ":8080",
		ArtifactPath: "model/pipeline_entretien.json",
		MaxBatchSize: 256,
		WorkerCount:  runtime.NumCPU() * 2,
		QueueSize:    4096,
		CacheSize:    10_000,
		StrictFields: false,
	}
}
