package statemachine

import (
	"context"
	"fmt"
	"time"

	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/looplab/fsm"
)

// JobFSM drives an export or report job through its lifecycle:
// processing|generating → completed|failed → expired.
type JobFSM struct {
	job *models.AnalyticsJob
	fsm *fsm.FSM
}

// NewJobFSM creates a state machine positioned at the job's current status
func NewJobFSM(job *models.AnalyticsJob) *JobFSM {
	j := &JobFSM{job: job}

	pending := []string{models.JobStatusProcessing, models.JobStatusGenerating}

	j.fsm = fsm.NewFSM(
		job.Status,
		fsm.Events{
			{Name: "complete", Src: pending, Dst: models.JobStatusCompleted},
			{Name: "fail", Src: pending, Dst: models.JobStatusFailed},
			{Name: "expire", Src: []string{models.JobStatusCompleted, models.JobStatusFailed}, Dst: models.JobStatusExpired},
		},
		fsm.Callbacks{},
	)

	return j
}

// Complete records the rendered file and marks the job completed
func (j *JobFSM) Complete(ctx context.Context, filePath, fileName string, at time.Time) error {
	if err := j.fsm.Event(ctx, "complete"); err != nil {
		return fmt.Errorf("job %s cannot complete from %s: %w", j.job.ID, j.job.Status, err)
	}
	j.job.Status = j.fsm.Current()
	j.job.FilePath = &filePath
	j.job.FileName = &fileName
	j.job.CompletedAt = &at
	return nil
}

// Fail records the failure reason and marks the job failed
func (j *JobFSM) Fail(ctx context.Context, reason string, at time.Time) error {
	if err := j.fsm.Event(ctx, "fail"); err != nil {
		return fmt.Errorf("job %s cannot fail from %s: %w", j.job.ID, j.job.Status, err)
	}
	j.job.Status = j.fsm.Current()
	j.job.Error = &reason
	j.job.CompletedAt = &at
	return nil
}

// Expire marks a finished job whose output is no longer available
func (j *JobFSM) Expire(ctx context.Context) error {
	if err := j.fsm.Event(ctx, "expire"); err != nil {
		return fmt.Errorf("job %s cannot expire from %s: %w", j.job.ID, j.job.Status, err)
	}
	j.job.Status = j.fsm.Current()
	j.job.FilePath = nil
	return nil
}

// Can reports whether event is allowed from the current state
func (j *JobFSM) Can(event string) bool {
	return j.fsm.Can(event)
}
