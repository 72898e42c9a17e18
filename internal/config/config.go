// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - All loading functions accept context.Context as the first parameter.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// TaskQueueSize bounds the in-memory task queue.
	TaskQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of evaluator workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// Store selects the result store backend: memory or sqlite.
	Store string `koanf:"store"`

	// SQLitePath locates the database file for the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`

	// MaxResultsLimit caps GET /results?limit.
	MaxResultsLimit int `koanf:"max_results_limit"`

	// EvalTimeoutMS bounds a single task evaluation in milliseconds.
	// Zero disables the bound.
	EvalTimeoutMS int `koanf:"eval_timeout_ms"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9090",
		TaskQueueSize:   10_000,
		WorkerCount:     runtime.NumCPU() * 2,
		DedupeSize:      50_000,
		Store:           "memory",
		SQLitePath:      "nabla.db",
		MaxResultsLimit: 1000,
		EvalTimeoutMS:   5_000,
	}
}
