package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/agrosync/agrosync-api/internal/observability"
	"github.com/agrosync/agrosync-api/pkg/logger"
)

// ErrShuttingDown is returned when a job is submitted after Shutdown.
var ErrShuttingDown = errors.New("worker is shutting down")

// Job represents a background task
type Job func(ctx context.Context) error

// Worker runs export/report rendering and housekeeping schedules
type Worker struct {
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	queue         chan namedJob
	asyncSem      chan struct{}
	maxConcurrent int
	stats         WorkerStats
	statsMu       sync.RWMutex
	closed        bool
	closeMu       sync.RWMutex
}

type namedJob struct {
	name string
	run  Job
}

// WorkerStats holds statistics about the worker.
// FinishedJobs counts every run; FailedJobs is the subset that returned an error or panicked.
type WorkerStats struct {
	ActiveJobs    int   `json:"active_jobs"`
	FinishedJobs  int64 `json:"finished_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	QueueLength   int   `json:"queue_length"`
	QueueCapacity int   `json:"queue_capacity"`
	MaxConcurrent int   `json:"max_concurrent"`
}

// NewWorker creates a worker with N queue processors
func NewWorker(numWorkers int) *Worker {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	asyncLimit := numWorkers * 2
	if asyncLimit < 10 {
		asyncLimit = 10
	}

	w := &Worker{
		ctx:           ctx,
		cancel:        cancel,
		queue:         make(chan namedJob, 100),
		asyncSem:      make(chan struct{}, asyncLimit),
		maxConcurrent: asyncLimit,
	}

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}

	return w
}

// Enqueue hands a job to the pool. When the queue is full the job runs on its own goroutine
// instead, so the submitting request never blocks on rendering.
func (w *Worker) Enqueue(name string, job Job) error {
	w.closeMu.RLock()
	defer w.closeMu.RUnlock()
	if w.closed {
		return ErrShuttingDown
	}

	select {
	case w.queue <- namedJob{name: name, run: job}:
		return nil
	default:
		logger.Warn("[Worker] Queue full, running job out of band", "job", name)
		w.EnqueueAsync(name, job)
		return nil
	}
}

// EnqueueAsync runs a job in a new goroutine, bounded by semaphore
func (w *Worker) EnqueueAsync(name string, job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.asyncSem <- struct{}{}
		defer func() { <-w.asyncSem }()

		w.run("[Worker async]", name, job)
	}()
}

func (w *Worker) process(workerID int) {
	defer w.wg.Done()
	prefix := fmt.Sprintf("[Worker %d]", workerID)
	for {
		select {
		case <-w.ctx.Done():
			return
		case job, ok := <-w.queue:
			if !ok {
				return
			}
			w.run(prefix, job.name, job.run)
		}
	}
}

// ScheduleEvery runs a job at fixed intervals. The first run happens after the interval.
func (w *Worker) ScheduleEvery(name string, interval time.Duration, job Job) {
	w.schedule(name, interval, false, job)
}

// ScheduleEveryImmediate runs a job once at startup, then at fixed intervals
func (w *Worker) ScheduleEveryImmediate(name string, interval time.Duration, job Job) {
	w.schedule(name, interval, true, job)
}

func (w *Worker) schedule(name string, interval time.Duration, immediate bool, job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if immediate {
			w.run("[Scheduler]", name, job)
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.run("[Scheduler]", name, job)
			}
		}
	}()
}

// run executes a job with panic recovery, stats and metrics
func (w *Worker) run(prefix, name string, job Job) {
	w.trackJobStart()
	start := time.Now()
	failed := false

	defer func() {
		if r := recover(); r != nil {
			logger.Error(prefix+" Job panic", "job", name, "panic", r)
			failed = true
		}
		w.trackJobEnd(failed)
		result := "success"
		if failed {
			result = "failure"
		}
		observability.WorkerRuns.WithLabelValues(name, result).Inc()
	}()

	if err := job(w.ctx); err != nil {
		logger.Error(prefix+" Job error", "job", name, "error", err)
		failed = true
		return
	}
	logger.Debug(prefix+" Job completed", "job", name, "duration", time.Since(start))
}

// Shutdown stops accepting jobs, cancels running ones and waits for all goroutines
func (w *Worker) Shutdown() {
	w.closeMu.Lock()
	if w.closed {
		w.closeMu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.closeMu.Unlock()

	w.cancel()
	w.wg.Wait()
}

// Context returns the worker's context for checking cancellation
func (w *Worker) Context() context.Context {
	return w.ctx
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.QueueLength = len(w.queue)
	stats.QueueCapacity = cap(w.queue)
	stats.MaxConcurrent = w.maxConcurrent
	return stats
}

func (w *Worker) trackJobStart() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
	observability.WorkerActive.Inc()
}

func (w *Worker) trackJobEnd(failed bool) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs--
	w.stats.FinishedJobs++
	if failed {
		w.stats.FailedJobs++
	}
	observability.WorkerActive.Dec()
}
