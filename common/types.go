package common

import "sync/atomic"

// Global state shared across all servers
var (
	Quiet    bool
	Draining atomic.Bool // Flag to indicate server is draining (set when SIGTERM received)
)

// HealthResponse is the static body returned by /health
var HealthResponse = []byte(`{"status":"ok"}`)
