package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tangentlab/nabla/internal/domain/model"
	"github.com/tangentlab/nabla/pkg/metrics"
)

// MemStore keeps results in memory, keyed by task id.
type MemStore struct {
	mu      sync.RWMutex
	results map[string]model.Result
}

// NewMemStore creates an empty in-memory result store.
func NewMemStore() *MemStore {
	metrics.UpdateStoreResults(0)
	return &MemStore{results: make(map[string]model.Result)}
}

// Put stores a result, replacing any previous result for the same task.
func (s *MemStore) Put(_ context.Context, r model.Result) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	s.mu.Lock()
	s.results[r.TaskID] = r
	size := len(s.results)
	s.mu.Unlock()

	metrics.UpdateStoreResults(size)
	return nil
}

// Get returns the result for a task id.
func (s *MemStore) Get(_ context.Context, taskID string) (model.Result, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	s.mu.RLock()
	r, ok := s.results[taskID]
	s.mu.RUnlock()
	if !ok {
		return model.Result{}, ErrNotFound
	}
	return r, nil
}

// Recent returns up to n results ordered by completion time desc.
func (s *MemStore) Recent(_ context.Context, n int) ([]model.Result, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	all := make([]model.Result, 0, len(s.results))
	for _, r := range s.results {
		all = append(all, r)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].Done.After(all[j].Done)
	})
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// Count returns the number of stored results.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error { return nil }
