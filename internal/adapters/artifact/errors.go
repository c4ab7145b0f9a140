package artifact

import "errors"

// Sentinel kinds for artifact errors.
var (
	// ErrArtifactLoad marks a missing, unreadable or malformed artifact.
	// Fatal at startup; never retried.
	ErrArtifactLoad = errors.New("artifact load failed")
)
