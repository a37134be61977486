package services

import (
	"github.com/agrosync/agrosync-api/internal/cache"
	"github.com/agrosync/agrosync-api/internal/config"
	"github.com/agrosync/agrosync-api/internal/insights"
	"github.com/agrosync/agrosync-api/internal/jobs"
	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/agrosync/agrosync-api/internal/repository"
	"github.com/agrosync/agrosync-api/internal/storage"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Analytics    *AnalyticsService
	Report       *ReportService
	Export       *ExportService
	Job          *JobService
	Notification *NotificationService
	Audit        *AuditService
	Email        *EmailService
}

// NewServices creates all service instances and registers the job executors on the queue
func NewServices(
	repos *repository.Repositories,
	store cache.Store,
	insightClient insights.Client,
	worker *jobs.Worker,
	files *storage.LocalStorage,
	cfg *config.Config,
	db *gorm.DB,
) *Services {
	notificationSvc := NewNotificationService(repos.Notification)
	emailSvc := NewEmailService(cfg)
	auditSvc := NewAuditService(db)

	analyticsSvc := NewAnalyticsService(repos.Analytics, store, insightClient)
	reportSvc := NewReportService(analyticsSvc)
	jobSvc := NewJobService(repos.Job, worker)

	exportSvc := NewExportService(analyticsSvc, reportSvc, jobSvc, repos.Job, files, auditSvc, notificationSvc, emailSvc, ExportConfig{
		PublicBaseURL: cfg.PublicBaseURL,
		Retention:     cfg.ExportRetention,
	})
	jobSvc.Handle(models.JobKindExport, exportSvc.RunJob)
	jobSvc.Handle(models.JobKindReport, exportSvc.RunJob)

	return &Services{
		Analytics:    analyticsSvc,
		Report:       reportSvc,
		Export:       exportSvc,
		Job:          jobSvc,
		Notification: notificationSvc,
		Audit:        auditSvc,
		Email:        emailSvc,
	}
}
