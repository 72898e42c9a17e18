// Package repository defines the result store interface and its
// in-memory and SQLite implementations.
package repository

import (
	"context"

	"github.com/tangentlab/nabla/internal/domain/model"
)

// Store provides read/write access to evaluation results.
type Store interface {
	// Put stores a result, replacing any previous result for the same task.
	Put(ctx context.Context, r model.Result) error

	// Get returns the result for a task id.
	// Returns ErrNotFound when no result exists yet.
	Get(ctx context.Context, taskID string) (model.Result, error)

	// Recent returns up to n results ordered by completion time desc.
	Recent(ctx context.Context, n int) ([]model.Result, error)

	// Count returns the number of stored results.
	Count(ctx context.Context) int

	// Close releases any resources held by the store.
	Close() error
}
