// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	taskqueue "github.com/tangentlab/nabla/internal/adapters/mq/queue"
	workerpool "github.com/tangentlab/nabla/internal/adapters/mq/worker"
	"github.com/tangentlab/nabla/internal/adapters/repository"
	"github.com/tangentlab/nabla/internal/domain/dedupe"
	"github.com/tangentlab/nabla/internal/domain/diff"
	"github.com/tangentlab/nabla/internal/domain/model"
	"github.com/tangentlab/nabla/pkg/logger"
	"github.com/tangentlab/nabla/pkg/metrics"
)

// Store backend names accepted by WithStoreBackend.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Service implements the API dependencies for the differentiation system.
type Service struct {
	mu sync.RWMutex

	// Core components
	results    repository.Store
	deduper    dedupe.Deduper
	taskQueue  taskqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	storeBackend string
	sqlitePath   string
	evalTimeout  time.Duration

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of evaluator goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the task queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStoreBackend selects the result store implementation. path is only
// used by the sqlite backend.
func WithStoreBackend(backend, path string) Option {
	return func(s *Service) {
		if backend != "" {
			s.storeBackend = backend
			s.sqlitePath = path
		}
	}
}

// WithEvalTimeout bounds the time a worker spends on one task.
func WithEvalTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.evalTimeout = d
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    10000,
		dedupeSize:   50000,
		storeBackend: StoreMemory,
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}

	s.logger.Info(ctx, "starting differentiation service...")

	switch s.storeBackend {
	case StoreSQLite:
		store, err := repository.NewSQLiteStore(s.sqlitePath)
		if err != nil {
			return fmt.Errorf("open result store: %w", err)
		}
		s.results = store
		s.logger.Info(ctx, "using sqlite result store", logger.String("path", s.sqlitePath))
	case StoreMemory:
		s.results = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory result store")
	default:
		return fmt.Errorf("%w: %s", ErrUnknownStore, s.storeBackend)
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.taskQueue = taskqueue.NewInMemoryQueue(
		taskqueue.WithCapacity(s.queueSize),
	)

	s.workerPool = workerpool.NewPool(
		s.workerCount,
		s.taskQueue,
		s.results,
		workerpool.WithEvalTimeout(s.evalTimeout),
	)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "differentiation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping differentiation service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}
	if s.results != nil {
		_ = s.results.Close()
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(ctx, "differentiation service stopped")
}

// SeenAndRecord atomically checks if a task id was seen and records it if
// not. Returns true if the task was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a task id from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Submit enqueues a task for asynchronous evaluation.
// Returns false when the queue pushes back.
func (s *Service) Submit(ctx context.Context, t model.Task) bool {
	s.logger.Debug(ctx, "received task",
		logger.String("taskID", t.TaskID),
		logger.Int("exprs", len(t.Exprs)),
		logger.String("mode", string(t.Mode)),
	)
	return s.taskQueue.Enqueue(ctx, t)
}

// Result returns the stored result for a task id.
func (s *Service) Result(ctx context.Context, taskID string) (model.Result, error) {
	return s.results.Get(ctx, taskID)
}

// Recent returns up to n results, newest first.
func (s *Service) Recent(ctx context.Context, n int) ([]model.Result, error) {
	return s.results.Recent(ctx, n)
}

// Differentiate evaluates a system synchronously, bypassing the queue.
func (s *Service) Differentiate(ctx context.Context, exprs []string, point []float64, mode diff.Mode) (diff.Result, error) {
	if s.evalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.evalTimeout)
		defer cancel()
	}
	return diff.Evaluate(ctx, mode, exprs, point)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"worker_count": s.workerCount,
		"queue_size":   s.queueSize,
		"dedupe_size":  s.dedupeSize,
		"store":        s.storeBackend,
	}

	if s.started {
		queueLen := s.taskQueue.Len(ctx)
		resultCount := s.results.Count(ctx)

		stats["queue_length"] = queueLen
		stats["result_count"] = resultCount
		stats["dedupe_entries"] = s.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoreResults(resultCount)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
