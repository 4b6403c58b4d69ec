// Package worker implements the fire-and-forget queue that persists usage
// and cost telemetry after successful generations.
//
// Recording is deliberately isolated from the request path: a generation
// the caller already received must never be revoked because bookkeeping
// failed. Failures are logged and counted, not propagated.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ycliang/scriptly/internal/metrics"
)

// Task is one unit of telemetry work: a named closure that persists a row.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue is a bounded in-process task queue drained by worker goroutines.
type Queue struct {
	tasks  chan Task
	config Config
	logger *slog.Logger

	// Synchronization. mu guards stopped and the channel close so a late
	// Enqueue during shutdown drops instead of sending on a closed channel.
	mu       sync.Mutex
	stopped  bool
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewQueue creates a telemetry queue. The queue must be started with
// Start() and stopped with Stop().
func NewQueue(config Config, logger *slog.Logger) (*Queue, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Queue{
		tasks:  make(chan Task, config.QueueSize),
		config: config,
		logger: logger,
	}, nil
}

// Enqueue submits a task without blocking. If the buffer is full, or the
// queue has already been stopped, the task is dropped and counted; callers
// never wait on telemetry and never panic during shutdown.
func (q *Queue) Enqueue(task Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		metrics.TelemetryTasksTotal.WithLabelValues(task.Name, "dropped").Inc()
		q.logger.Warn("telemetry task dropped, queue stopped", "task", task.Name)
		return
	}

	select {
	case q.tasks <- task:
		metrics.TelemetryQueueDepth.Set(float64(len(q.tasks)))
	default:
		metrics.TelemetryTasksTotal.WithLabelValues(task.Name, "dropped").Inc()
		q.logger.Warn("telemetry task dropped, queue full", "task", task.Name)
	}
}

// Start begins draining the queue with the configured number of workers.
func (q *Queue) Start() {
	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.runWorker(i + 1)
	}
	q.logger.Info("Telemetry queue started", "workers", q.config.Workers, "queue_size", q.config.QueueSize)
}

// Stop closes the queue and waits for buffered tasks to drain, up to the
// configured ShutdownTimeout.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.stopped = true
		close(q.tasks)
		q.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("Telemetry queue drained")
	case <-time.After(q.config.ShutdownTimeout):
		q.logger.Warn("Telemetry queue shutdown timeout exceeded, some records may be lost")
	}
}

// runWorker is the main loop for a worker goroutine. It drains tasks until
// the queue is closed and empty.
func (q *Queue) runWorker(workerID int) {
	defer q.wg.Done()

	logger := q.logger.With("worker_id", workerID)
	logger.Debug("Telemetry worker started")

	for task := range q.tasks {
		metrics.TelemetryQueueDepth.Set(float64(len(q.tasks)))
		q.runTask(task, logger)
	}

	logger.Debug("Telemetry worker stopping")
}

// runTask executes one task with a timeout. Errors are swallowed after
// logging and counting; that trade-off means usage can under-count on
// storage faults.
func (q *Queue) runTask(task Task, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), q.config.TaskTimeout)
	defer cancel()

	if err := task.Run(ctx); err != nil {
		metrics.TelemetryTasksTotal.WithLabelValues(task.Name, "error").Inc()
		logger.Error("Telemetry task failed", "task", task.Name, "error", err)
		return
	}

	metrics.TelemetryTasksTotal.WithLabelValues(task.Name, "ok").Inc()
}
