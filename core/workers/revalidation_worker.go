// ABOUTME: Revalidation worker pool for self-healing cache entries
// ABOUTME: Runs detached re-parses on a bounded queue, deduplicating jobs per cache key

package workers

import (
	"context"
	"sync"
	"time"

	"linkparse-api/core/domain"
	"linkparse-api/core/interfaces"
)

// RevalidationJob asks for one cache entry to be re-parsed
type RevalidationJob struct {
	Key string
	URL domain.NormalizedURL
}

// RevalidateFunc performs a revalidation. It runs on the pool's context, never a request's.
type RevalidateFunc func(ctx context.Context, job RevalidationJob)

// RevalidationWorker manages background revalidation
type RevalidationWorker struct {
	revalidate RevalidateFunc
	logger     interfaces.Logger
	jobQueue   chan RevalidationJob
	maxWorkers int
	jobTimeout time.Duration

	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	running bool

	pendingMu sync.Mutex
	pending   map[string]struct{}
}

// WorkerConfig holds configuration for the revalidation worker
type WorkerConfig struct {
	MaxWorkers int
	QueueSize  int

	// JobTimeout bounds a single revalidation
	JobTimeout time.Duration
}

// DefaultWorkerConfig returns the default worker configuration
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		MaxWorkers: 2,
		QueueSize:  100,
		JobTimeout: 30 * time.Second,
	}
}

// NewRevalidationWorker creates a new revalidation worker
func NewRevalidationWorker(revalidate RevalidateFunc, logger interfaces.Logger, config WorkerConfig) *RevalidationWorker {
	ctx, cancel := context.WithCancel(context.Background())

	defaults := DefaultWorkerConfig()
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = defaults.MaxWorkers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	if logger == nil {
		logger = interfaces.NopLogger{}
	}

	return &RevalidationWorker{
		revalidate: revalidate,
		logger:     logger,
		jobQueue:   make(chan RevalidationJob, config.QueueSize),
		maxWorkers: config.MaxWorkers,
		jobTimeout: config.JobTimeout,
		ctx:        ctx,
		cancel:     cancel,
		pending:    make(map[string]struct{}),
	}
}

// Start starts the worker pool
func (rw *RevalidationWorker) Start() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.running {
		return nil
	}
	if rw.ctx.Err() != nil {
		return ErrWorkerStopped
	}

	for i := 0; i < rw.maxWorkers; i++ {
		rw.wg.Add(1)
		go rw.run(i)
	}

	rw.running = true
	return nil
}

// Stop cancels in-flight revalidations and waits for workers to exit.
// A stopped pool cannot be restarted.
func (rw *RevalidationWorker) Stop() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if !rw.running {
		return nil
	}

	rw.cancel()
	close(rw.jobQueue)
	rw.wg.Wait()

	rw.running = false
	return nil
}

// Submit queues a job without blocking. A job for a key that is already
// queued or running is accepted and dropped.
func (rw *RevalidationWorker) Submit(job RevalidationJob) error {
	rw.mu.RLock()
	defer rw.mu.RUnlock()

	if !rw.running {
		return ErrWorkerNotRunning
	}

	rw.pendingMu.Lock()
	if _, busy := rw.pending[job.Key]; busy {
		rw.pendingMu.Unlock()
		return nil
	}
	rw.pending[job.Key] = struct{}{}
	rw.pendingMu.Unlock()

	select {
	case rw.jobQueue <- job:
		return nil
	default:
		rw.done(job.Key)
		rw.logger.Warn("Revalidation queue full, dropping job", map[string]interface{}{
			"key": job.Key,
			"url": job.URL.String(),
		})
		return ErrQueueFull
	}
}

// Pending returns the number of queued or running jobs
func (rw *RevalidationWorker) Pending() int {
	rw.pendingMu.Lock()
	defer rw.pendingMu.Unlock()
	return len(rw.pending)
}

// run is the main loop for each worker
func (rw *RevalidationWorker) run(id int) {
	defer rw.wg.Done()

	for {
		select {
		case job, ok := <-rw.jobQueue:
			if !ok {
				return
			}
			rw.process(id, job)
		case <-rw.ctx.Done():
			return
		}
	}
}

func (rw *RevalidationWorker) process(id int, job RevalidationJob) {
	defer rw.done(job.Key)
	defer func() {
		if r := recover(); r != nil {
			rw.logger.Error("Revalidation panicked", map[string]interface{}{
				"worker": id,
				"key":    job.Key,
				"panic":  r,
			})
		}
	}()

	ctx, cancel := context.WithTimeout(rw.ctx, rw.jobTimeout)
	defer cancel()
	rw.revalidate(ctx, job)
}

func (rw *RevalidationWorker) done(key string) {
	rw.pendingMu.Lock()
	delete(rw.pending, key)
	rw.pendingMu.Unlock()
}

// Error definitions
var (
	ErrWorkerNotRunning = &WorkerError{Message: "worker pool is not running"}
	ErrWorkerStopped    = &WorkerError{Message: "worker pool was stopped"}
	ErrQueueFull        = &WorkerError{Message: "job queue is full"}
)

// WorkerError represents a worker-specific error
type WorkerError struct {
	Message string
}

func (e *WorkerError) Error() string {
	return e.Message
}
