package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agrosync/agrosync-api/internal/jobs"
	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/agrosync/agrosync-api/internal/observability"
	"github.com/agrosync/agrosync-api/internal/repository"
	"github.com/agrosync/agrosync-api/internal/statemachine"
	"github.com/agrosync/agrosync-api/pkg/logger"
)

// JobQueue accepts export and report descriptors for asynchronous execution and returns the job id.
type JobQueue interface {
	Submit(ctx context.Context, job *models.AnalyticsJob) (string, error)
}

// JobHandler executes a persisted job of one kind.
type JobHandler func(ctx context.Context, job *models.AnalyticsJob) error

// JobService persists job descriptors and runs them on the background worker
type JobService struct {
	repo     repository.JobRepository
	worker   *jobs.Worker
	handlers map[string]JobHandler
	now      func() time.Time
}

func NewJobService(repo repository.JobRepository, worker *jobs.Worker) *JobService {
	return &JobService{
		repo:     repo,
		worker:   worker,
		handlers: map[string]JobHandler{},
		now:      time.Now,
	}
}

// Handle registers the executor for a job kind. Call it before the first Submit.
func (s *JobService) Handle(kind string, handler JobHandler) {
	s.handlers[kind] = handler
}

// Submit stores the job and queues it. The returned id is the one clients poll and download with.
func (s *JobService) Submit(ctx context.Context, job *models.AnalyticsJob) (string, error) {
	if _, ok := s.handlers[job.Kind]; !ok {
		return "", fmt.Errorf("no handler registered for %s jobs", job.Kind)
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return "", err
	}

	id := job.ID
	if err := s.worker.Enqueue(job.Kind, func(ctx context.Context) error {
		return s.execute(ctx, id)
	}); err != nil {
		s.abandon(ctx, job, err)
		return "", err
	}

	observability.JobsTotal.WithLabelValues(job.Kind, job.Status).Inc()
	return id, nil
}

func (s *JobService) execute(ctx context.Context, id string) error {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load job %s: %w", id, err)
	}
	if job.IsFinished() {
		logger.Warn("Skipping finished job", slog.String("job_id", id), slog.String("status", job.Status))
		return nil
	}
	return s.handlers[job.Kind](ctx, job)
}

// abandon marks a job that never reached the worker as failed so clients do not poll forever
func (s *JobService) abandon(ctx context.Context, job *models.AnalyticsJob, cause error) {
	if err := statemachine.NewJobFSM(job).Fail(ctx, "job could not be queued", s.now()); err != nil {
		logger.Error("Failed to mark job as failed", slog.String("job_id", job.ID), slog.String("error", err.Error()))
		return
	}
	if err := s.repo.Update(ctx, job); err != nil {
		logger.Error("Failed to persist abandoned job", slog.String("job_id", job.ID), slog.String("error", err.Error()))
	}
	if !errors.Is(cause, jobs.ErrShuttingDown) {
		logger.Error("Failed to queue job", slog.String("job_id", job.ID), slog.String("error", cause.Error()))
	}
	observability.JobsTotal.WithLabelValues(job.Kind, job.Status).Inc()
}

// GetStatus reports worker statistics for the admin status endpoint
func (s *JobService) GetStatus() map[string]interface{} {
	stats := s.worker.GetStats()
	return map[string]interface{}{
		"active_jobs":    stats.ActiveJobs,
		"finished_jobs":  stats.FinishedJobs,
		"failed_jobs":    stats.FailedJobs,
		"queue_length":   stats.QueueLength,
		"queue_capacity": stats.QueueCapacity,
		"max_concurrent": stats.MaxConcurrent,
	}
}
