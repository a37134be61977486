package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicateJob is returned when a job id collides with an existing row
var ErrDuplicateJob = errors.New("analytics job already exists")

// JobRepository persists export and report job descriptors
type JobRepository interface {
	Create(ctx context.Context, job *models.AnalyticsJob) error
	FindByID(ctx context.Context, id string) (*models.AnalyticsJob, error)
	FindForOrganization(ctx context.Context, organizationID, id string) (*models.AnalyticsJob, error)
	Update(ctx context.Context, job *models.AnalyticsJob) error
	FindExpired(ctx context.Context, now time.Time, limit int) ([]models.AnalyticsJob, error)
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *models.AnalyticsJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateJob
		}
		return fmt.Errorf("create analytics job: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func (r *jobRepository) FindByID(ctx context.Context, id string) (*models.AnalyticsJob, error) {
	var job models.AnalyticsJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) FindForOrganization(ctx context.Context, organizationID, id string) (*models.AnalyticsJob, error) {
	var job models.AnalyticsJob
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", id, organizationID).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) Update(ctx context.Context, job *models.AnalyticsJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// FindExpired returns completed or failed jobs whose retention window has passed
func (r *jobRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]models.AnalyticsJob, error) {
	var jobs []models.AnalyticsJob
	err := r.db.WithContext(ctx).
		Where("status IN ? AND expires_at <= ?", []string{models.JobStatusCompleted, models.JobStatusFailed}, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}
