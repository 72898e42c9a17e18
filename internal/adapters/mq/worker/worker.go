// Package worker runs the evaluator pool that drains the task queue,
// differentiates each task, and stores the result.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/tangentlab/nabla/internal/domain/diff"
	"github.com/tangentlab/nabla/internal/domain/expr"
	"github.com/tangentlab/nabla/internal/domain/model"
	"github.com/tangentlab/nabla/pkg/logger"
	"github.com/tangentlab/nabla/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	metricsUpdateInterval   = 5 * time.Second
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Task abstracts what workers read off the queue.
type Task = model.Task

// Sink persists evaluation results.
type Sink interface {
	Put(ctx context.Context, r model.Result) error
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Task
}

// Worker processes tasks until its context is cancelled.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker, letting the in-flight task finish.
	Shutdown(ctx context.Context) error
}

// Evaluator implements Worker. Each task is compiled, differentiated in
// the requested mode, and written to the sink; evaluation failures are
// stored as failed results rather than dropped.
type Evaluator struct {
	queue       Queue
	sink        Sink
	name        string
	evalTimeout time.Duration

	shutdown chan struct{}
	done     chan struct{}

	pool *Pool

	logger logger.Logger
}

// NewEvaluator creates a worker with configuration options.
func NewEvaluator(queue Queue, sink Sink, opts ...Option) *Evaluator {
	w := &Evaluator{
		queue:    queue,
		sink:     sink,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *Evaluator) Run(ctx context.Context) {
	defer close(w.done)

	taskChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case task, ok := <-taskChan:
			if !ok {
				return
			}
			if err := w.processTask(ctx, task); err != nil {
				w.logger.Error(ctx, "error processing task", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker.
func (w *Evaluator) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processTask differentiates a single task and persists the outcome.
func (w *Evaluator) processTask(ctx context.Context, task Task) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
	}()

	evalCtx := ctx
	if w.evalTimeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, w.evalTimeout)
		defer cancel()
	}

	evalStart := time.Now()
	res, err := diff.Evaluate(evalCtx, task.Mode, task.Exprs, task.Point)
	evalMicros := time.Since(evalStart).Microseconds()
	metrics.RecordEvalLatency(float64(evalMicros) / 1000.0)

	out := model.Result{
		TaskID:     task.TaskID,
		Mode:       task.Mode,
		Done:       time.Now(),
		EvalMicros: evalMicros,
	}
	if err != nil {
		if expr.IsCompileError(err) {
			metrics.RecordCompileError()
		} else {
			metrics.RecordEvalError()
		}
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "eval_error")
		w.logger.Warn(ctx, "evaluation failed",
			logger.String("taskID", task.TaskID),
			logger.Error(err),
		)
		out.Err = err.Error()
	} else {
		out.Primal = res.Primal
		out.Jacobian = res.Jacobian
		metrics.RecordEvalCompleted(string(task.Mode))
	}

	if err := w.sink.Put(ctx, out); err != nil {
		metrics.RecordStoreError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		w.logger.Error(ctx, "storing result failed",
			logger.String("taskID", task.TaskID),
			logger.Error(err),
		)
		return fmt.Errorf("storing result for task %s: %w", task.TaskID, err)
	}

	if w.pool != nil {
		w.pool.recordProcessed()
	}
	return nil
}

// Pool manages multiple evaluator workers.
type Pool struct {
	workers []*Evaluator
	queue   Queue
	sink    Sink

	shutdown chan struct{}

	processedCount    atomic.Int64
	lastProcessedTime time.Time

	logger logger.Logger
}

// NewPool creates a worker pool. A non-positive workerCount defaults to
// a multiple of the CPU count.
func NewPool(workerCount int, queue Queue, sink Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:           make([]*Evaluator, workerCount),
		queue:             queue,
		sink:              sink,
		shutdown:          make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewEvaluator(queue, sink, workerOpts...)
		pool.workers[i].pool = pool
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerTasksPerSecond(0)

	return pool
}

// Start starts all workers in the pool plus the metrics updater.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.runMetricsUpdater(ctx)
}

func (p *Pool) runMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateThroughput()
		}
	}
}

func (p *Pool) updateThroughput() {
	now := time.Now()
	elapsed := now.Sub(p.lastProcessedTime).Seconds()
	if elapsed > 0 {
		metrics.UpdateWorkerTasksPerSecond(float64(p.processedCount.Swap(0)) / elapsed)
	}
	p.lastProcessedTime = now
}

func (p *Pool) recordProcessed() {
	p.processedCount.Add(1)
}

// Stop stops all workers without draining the queue.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
