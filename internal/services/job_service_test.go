package services

import (
	"context"
	"testing"
	"time"

	"github.com/agrosync/agrosync-api/internal/jobs"
	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobService_SubmitRunsRegisteredHandler(t *testing.T) {
	repo := newFakeJobRepo()
	worker := jobs.NewWorker(1)
	svc := NewJobService(repo, worker)

	done := make(chan string, 1)
	svc.Handle(models.JobKindExport, func(ctx context.Context, job *models.AnalyticsJob) error {
		done <- job.ID
		return nil
	})

	id, err := svc.Submit(context.Background(), &models.AnalyticsJob{
		ID: "job-1", OrganizationID: "org-1", Kind: models.JobKindExport, Status: models.JobStatusProcessing,
	})
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)

	select {
	case got := <-done:
		assert.Equal(t, "job-1", got)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
	worker.Shutdown()

	_, err = repo.FindByID(context.Background(), "job-1")
	assert.NoError(t, err)
}

func TestJobService_UnknownKind(t *testing.T) {
	worker := jobs.NewWorker(1)
	defer worker.Shutdown()
	svc := NewJobService(newFakeJobRepo(), worker)

	_, err := svc.Submit(context.Background(), &models.AnalyticsJob{ID: "job-2", Kind: "invoice"})
	assert.Error(t, err)
}

func TestJobService_SubmitAfterShutdownFailsJob(t *testing.T) {
	repo := newFakeJobRepo()
	worker := jobs.NewWorker(1)
	worker.Shutdown()

	svc := NewJobService(repo, worker)
	svc.Handle(models.JobKindReport, func(ctx context.Context, job *models.AnalyticsJob) error { return nil })

	_, err := svc.Submit(context.Background(), &models.AnalyticsJob{
		ID: "job-3", Kind: models.JobKindReport, Status: models.JobStatusGenerating,
	})
	assert.ErrorIs(t, err, jobs.ErrShuttingDown)

	stored, _ := repo.FindByID(context.Background(), "job-3")
	assert.Equal(t, models.JobStatusFailed, stored.Status)
}

func TestJobService_SkipsFinishedJobs(t *testing.T) {
	repo := newFakeJobRepo()
	worker := jobs.NewWorker(1)
	defer worker.Shutdown()
	svc := NewJobService(repo, worker)

	called := false
	svc.Handle(models.JobKindExport, func(ctx context.Context, job *models.AnalyticsJob) error {
		called = true
		return nil
	})
	require.NoError(t, repo.Create(context.Background(), &models.AnalyticsJob{ID: "job-4", Kind: models.JobKindExport, Status: models.JobStatusCompleted}))

	require.NoError(t, svc.execute(context.Background(), "job-4"))
	assert.False(t, called)
}

func TestJobService_GetStatus(t *testing.T) {
	worker := jobs.NewWorker(2)
	defer worker.Shutdown()
	svc := NewJobService(newFakeJobRepo(), worker)

	status := svc.GetStatus()
	assert.Equal(t, 0, status["active_jobs"])
	assert.Equal(t, 100, status["queue_capacity"])
	assert.Equal(t, 10, status["max_concurrent"])
}
