package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/agrosync/agrosync-api/internal/observability"
	"github.com/agrosync/agrosync-api/internal/repository"
	"github.com/agrosync/agrosync-api/internal/statemachine"
	"github.com/agrosync/agrosync-api/internal/storage"
	"github.com/agrosync/agrosync-api/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	exportEstimate = 5 * time.Minute
	reportEstimate = 10 * time.Minute
	expireBatch    = 100
)

// JSON:API resource types for jobs
const (
	ResourceExport = "analytics_export"
	ResourceReport = "analytics_report"
	ResourceJob    = "analytics_job"
)

// artifactStore keeps rendered files
type artifactStore interface {
	Save(data []byte, filename, subDir string) (string, error)
	FullPath(relativePath string) (string, error)
	Exists(relativePath string) bool
	Size(relativePath string) (int64, error)
	Delete(relativePath string) error
}

type auditLogger interface {
	Log(ctx context.Context, caller models.Caller, action, entity, entityID, details, ip, userAgent string) error
}

type userNotifier interface {
	NotifyUser(ctx context.Context, organizationID, userID, title, message, notifType string) error
}

type reportMailer interface {
	SendReportReady(ctx context.Context, recipients []string, data ReportEmail) error
	SendReportFailed(ctx context.Context, recipients []string, data ReportEmail) error
}

// ExportService accepts export and report requests, runs them on the job queue and serves the results
type ExportService struct {
	analytics     analyticsComputer
	reports       *ReportService
	queue         JobQueue
	jobs          repository.JobRepository
	storage       artifactStore
	audit         auditLogger
	notifications userNotifier
	mailer        reportMailer
	baseURL       string
	retention     time.Duration
	now           func() time.Time
}

// ExportConfig carries the settings ExportService needs from config.Config
type ExportConfig struct {
	PublicBaseURL string
	Retention     time.Duration
}

func NewExportService(
	analytics analyticsComputer,
	reports *ReportService,
	queue JobQueue,
	jobRepo repository.JobRepository,
	store artifactStore,
	audit auditLogger,
	notifications userNotifier,
	mailer reportMailer,
	cfg ExportConfig,
) *ExportService {
	retention := cfg.Retention
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &ExportService{
		analytics:     analytics,
		reports:       reports,
		queue:         queue,
		jobs:          jobRepo,
		storage:       store,
		audit:         audit,
		notifications: notifications,
		mailer:        mailer,
		baseURL:       strings.TrimRight(cfg.PublicBaseURL, "/"),
		retention:     retention,
		now:           time.Now,
	}
}

// DownloadURL is where a finished job's file is served from
func (s *ExportService) DownloadURL(jobID string) string {
	return fmt.Sprintf("%s/api/v1/analytics/exports/%s/download", s.baseURL, jobID)
}

// ExportAnalytics queues a single-module export and returns its handle
func (s *ExportService) ExportAnalytics(ctx context.Context, caller models.Caller, req *models.ExportRequest, ip, userAgent string) (*models.JobHandleResponse, error) {
	if req == nil {
		return nil, newValidationError("export request is required")
	}
	if err := validate.Struct(req); err != nil {
		return nil, validationFailure(err)
	}
	if req.Period == "" {
		req.Period = models.PeriodMonth
	}

	now := s.now()
	job, err := s.newJob(caller, models.JobKindExport, models.JobStatusProcessing, req.Format,
		fmt.Sprintf("%s export", req.Type), req, now.Add(exportEstimate), now)
	if err != nil {
		return nil, err
	}

	if _, err := s.queue.Submit(ctx, job); err != nil {
		logger.Error("Failed to queue export", slog.String("organization_id", caller.OrganizationID), slog.String("error", err.Error()))
		return nil, &InternalError{Message: "Failed to queue analytics export", Err: err}
	}

	s.logAudit(ctx, caller, models.AuditActionExport, job, fmt.Sprintf("type=%s format=%s period=%s", req.Type, req.Format, req.Period), ip, userAgent)
	return s.handle(ResourceExport, job), nil
}

// GenerateReport queues a multi-farm report and returns its handle
func (s *ExportService) GenerateReport(ctx context.Context, caller models.Caller, req *models.ReportRequest, ip, userAgent string) (*models.JobHandleResponse, error) {
	if req == nil {
		return nil, newValidationError("report request is required")
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validate.Struct(req); err != nil {
		return nil, validationFailure(err)
	}
	if req.Period == "" {
		req.Period = models.PeriodMonth
	}

	now := s.now()
	job, err := s.newJob(caller, models.JobKindReport, models.JobStatusGenerating, req.Format,
		req.Title, req, now.Add(reportEstimate), now)
	if err != nil {
		return nil, err
	}

	if _, err := s.queue.Submit(ctx, job); err != nil {
		logger.Error("Failed to queue report", slog.String("organization_id", caller.OrganizationID), slog.String("error", err.Error()))
		return nil, &InternalError{Message: "Failed to queue analytics report", Err: err}
	}

	s.logAudit(ctx, caller, models.AuditActionReport, job, fmt.Sprintf("type=%s format=%s farms=%d", req.Type, req.Format, len(req.FarmIDs)), ip, userAgent)
	return s.handle(ResourceReport, job), nil
}

func (s *ExportService) newJob(caller models.Caller, kind, status, format, title string, req any, estimate, now time.Time) (*models.AnalyticsJob, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &InternalError{Message: "Failed to queue analytics job", Err: err}
	}
	return &models.AnalyticsJob{
		ID:                  uuid.NewString(),
		OrganizationID:      caller.OrganizationID,
		UserID:              caller.UserID,
		Kind:                kind,
		Status:              status,
		Format:              format,
		Title:               title,
		Request:             payload,
		EstimatedCompletion: estimate,
		ExpiresAt:           now.Add(s.retention),
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

func (s *ExportService) handle(resource string, job *models.AnalyticsJob) *models.JobHandleResponse {
	return &models.JobHandleResponse{Data: models.JobHandle{
		Type: resource,
		ID:   job.ID,
		Attributes: models.JobHandleAttributes{
			Status:              job.Status,
			DownloadURL:         s.DownloadURL(job.ID),
			ExpiresAt:           job.ExpiresAt,
			EstimatedCompletion: job.EstimatedCompletion,
		},
	}}
}

func (s *ExportService) logAudit(ctx context.Context, caller models.Caller, action string, job *models.AnalyticsJob, details, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, caller, action, "AnalyticsJob", job.ID, details, ip, userAgent); err != nil {
		logger.Warn("Failed to write audit log", slog.String("job_id", job.ID), slog.String("error", err.Error()))
	}
}

// validationFailure turns the first validator error into a client-facing message
func validationFailure(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return newValidationError("invalid request")
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return newValidationError("%s is required", field)
	case "oneof":
		return newValidationError("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return newValidationError("%s must contain at least %s item(s)", field, fe.Param())
	case "max":
		return newValidationError("%s exceeds the maximum of %s", field, fe.Param())
	case "email":
		return newValidationError("%s must contain valid email addresses", field)
	case "analytics_id":
		return newValidationError("%s must be a valid identifier", field)
	default:
		return newValidationError("%s is invalid", field)
	}
}

// RunJob is the worker-side executor for both export and report jobs
func (s *ExportService) RunJob(ctx context.Context, job *models.AnalyticsJob) error {
	caller := models.Caller{UserID: job.UserID, OrganizationID: job.OrganizationID}

	var (
		data     []byte
		fileName string
		subDir   string
		report   *models.ReportRequest
		err      error
	)
	switch job.Kind {
	case models.JobKindExport:
		data, fileName, err = s.renderExportJob(ctx, caller, job)
		subDir = storage.ExportsDir
	case models.JobKindReport:
		report = &models.ReportRequest{}
		if err = json.Unmarshal(job.Request, report); err == nil {
			data, fileName, err = s.renderReportJob(ctx, caller, report)
		}
		subDir = storage.ReportsDir
	default:
		err = fmt.Errorf("unknown job kind %q", job.Kind)
	}

	var path string
	if err == nil {
		path, err = s.storage.Save(data, fileName, subDir)
	}
	if err != nil {
		s.fail(ctx, job, report, err)
		return err
	}

	if err := statemachine.NewJobFSM(job).Complete(ctx, path, fileName, s.now()); err != nil {
		_ = s.storage.Delete(path)
		return err
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("persist completed job %s: %w", job.ID, err)
	}
	observability.JobsTotal.WithLabelValues(job.Kind, job.Status).Inc()

	s.notify(ctx, job, true)
	if report != nil && len(report.Recipients) > 0 && s.mailer != nil {
		if err := s.mailer.SendReportReady(ctx, report.Recipients, s.reportEmail(job, report)); err != nil {
			logger.Warn("Report email not delivered", slog.String("job_id", job.ID), slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *ExportService) renderExportJob(ctx context.Context, caller models.Caller, job *models.AnalyticsJob) ([]byte, string, error) {
	var req models.ExportRequest
	if err := json.Unmarshal(job.Request, &req); err != nil {
		return nil, "", fmt.Errorf("decode export request: %w", err)
	}

	resp, err := s.analytics.Compute(ctx, caller, req.Type, &models.AnalyticsQuery{
		Period:          req.Period,
		FarmID:          req.FarmID,
		IncludeInsights: req.IncludeInsights,
		UseCache:        true,
	})
	if err != nil {
		return nil, "", err
	}

	generatedAt := s.now()
	data, err := renderExport(req.Format, exportDocument{
		Title:         fmt.Sprintf("AgroSync %s analytics", strings.ReplaceAll(req.Type, "-", " ")),
		Module:        req.Type,
		GeneratedAt:   generatedAt,
		Attributes:    &resp.Data.Attributes,
		IncludeCharts: req.IncludeCharts,
	})
	if err != nil {
		return nil, "", err
	}
	return data, exportFileName("analytics", req.Type, req.Format, generatedAt), nil
}

func (s *ExportService) renderReportJob(ctx context.Context, caller models.Caller, req *models.ReportRequest) ([]byte, string, error) {
	doc, err := s.reports.Build(ctx, caller, req)
	if err != nil {
		return nil, "", err
	}
	data, err := s.reports.Render(doc, req.Format)
	if err != nil {
		return nil, "", err
	}
	return data, reportFileName(req.Title, req.Format, s.now()), nil
}

func (s *ExportService) fail(ctx context.Context, job *models.AnalyticsJob, report *models.ReportRequest, cause error) {
	logger.Error("Analytics job failed",
		slog.String("job_id", job.ID),
		slog.String("kind", job.Kind),
		slog.String("organization_id", job.OrganizationID),
		slog.String("error", cause.Error()),
	)

	reason := "Failed to generate file"
	var verr *ValidationError
	var nf *NotFoundError
	switch {
	case errors.As(cause, &verr):
		reason = verr.Message
	case errors.As(cause, &nf):
		reason = nf.Error()
	}

	if err := statemachine.NewJobFSM(job).Fail(ctx, reason, s.now()); err != nil {
		logger.Error("Failed to mark job as failed", slog.String("job_id", job.ID), slog.String("error", err.Error()))
		return
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		logger.Error("Failed to persist failed job", slog.String("job_id", job.ID), slog.String("error", err.Error()))
	}
	observability.JobsTotal.WithLabelValues(job.Kind, job.Status).Inc()

	s.notify(ctx, job, false)
	if report != nil && len(report.Recipients) > 0 && s.mailer != nil {
		if err := s.mailer.SendReportFailed(ctx, report.Recipients, s.reportEmail(job, report)); err != nil {
			logger.Warn("Report failure email not delivered", slog.String("job_id", job.ID), slog.String("error", err.Error()))
		}
	}
}

func (s *ExportService) notify(ctx context.Context, job *models.AnalyticsJob, ok bool) {
	if s.notifications == nil {
		return
	}

	var title, message, notifType string
	switch {
	case job.Kind == models.JobKindReport && ok:
		title, message, notifType = "Report ready", fmt.Sprintf("%s is ready to download.", job.Title), models.NotificationTypeReportReady
	case job.Kind == models.JobKindReport:
		title, message, notifType = "Report failed", fmt.Sprintf("%s could not be generated.", job.Title), models.NotificationTypeReportFailed
	case ok:
		title, message, notifType = "Export ready", fmt.Sprintf("Your %s is ready to download.", job.Title), models.NotificationTypeExportReady
	default:
		title, message, notifType = "Export failed", fmt.Sprintf("Your %s could not be generated.", job.Title), models.NotificationTypeExportFailed
	}

	if err := s.notifications.NotifyUser(ctx, job.OrganizationID, job.UserID, title, message, notifType); err != nil {
		logger.Warn("Failed to create notification", slog.String("job_id", job.ID), slog.String("error", err.Error()))
	}
}

func (s *ExportService) reportEmail(job *models.AnalyticsJob, req *models.ReportRequest) ReportEmail {
	return ReportEmail{
		JobID:       job.ID,
		Title:       req.Title,
		Period:      req.Period,
		Format:      strings.ToUpper(req.Format),
		FarmCount:   len(req.FarmIDs),
		DownloadURL: s.DownloadURL(job.ID),
		ExpiresAt:   job.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"),
	}
}

// FindJob returns a job owned by the caller's organization
func (s *ExportService) FindJob(ctx context.Context, caller models.Caller, id string) (*models.AnalyticsJob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &NotFoundError{Resource: "job", ID: id}
	}
	job, err := s.jobs.FindForOrganization(ctx, caller.OrganizationID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "job", ID: id}
	}
	if err != nil {
		return nil, &InternalError{Message: "Failed to retrieve job", Err: err}
	}
	return job, nil
}

// Download describes a file ready to be served
type Download struct {
	Path        string
	FileName    string
	ContentType string
	Size        int64
}

// OpenDownload resolves the file of a completed job. Pending jobs yield ErrJobNotReady,
// expired ones ErrJobExpired and failed ones ErrInvalidState.
func (s *ExportService) OpenDownload(ctx context.Context, caller models.Caller, id string) (*Download, error) {
	job, err := s.FindJob(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	switch job.Status {
	case models.JobStatusProcessing, models.JobStatusGenerating:
		return nil, ErrJobNotReady
	case models.JobStatusExpired:
		return nil, ErrJobExpired
	case models.JobStatusFailed:
		return nil, fmt.Errorf("%w: job failed", ErrInvalidState)
	}
	if !s.now().Before(job.ExpiresAt) || job.FilePath == nil {
		return nil, ErrJobExpired
	}
	// the sweeper may have removed the file before the row was marked expired
	if !s.storage.Exists(*job.FilePath) {
		return nil, ErrJobExpired
	}

	full, err := s.storage.FullPath(*job.FilePath)
	if err != nil {
		return nil, &InternalError{Message: "Failed to retrieve file", Err: err}
	}
	size, err := s.storage.Size(*job.FilePath)
	if err != nil {
		return nil, &InternalError{Message: "Failed to retrieve file", Err: err}
	}
	name := ""
	if job.FileName != nil {
		name = *job.FileName
	}
	return &Download{Path: full, FileName: name, ContentType: ContentType(job.Format), Size: size}, nil
}

// ExpireJobs removes files of finished jobs past their retention and marks them expired
func (s *ExportService) ExpireJobs(ctx context.Context) error {
	expired, err := s.jobs.FindExpired(ctx, s.now(), expireBatch)
	if err != nil {
		return fmt.Errorf("find expired jobs: %w", err)
	}

	count := 0
	for i := range expired {
		job := &expired[i]
		if job.FilePath != nil && s.storage.Exists(*job.FilePath) {
			if err := s.storage.Delete(*job.FilePath); err != nil {
				logger.Warn("Failed to delete expired file", slog.String("job_id", job.ID), slog.String("error", err.Error()))
				continue
			}
		}
		if err := statemachine.NewJobFSM(job).Expire(ctx); err != nil {
			logger.Warn("Skipping job expiry", slog.String("job_id", job.ID), slog.String("error", err.Error()))
			continue
		}
		if err := s.jobs.Update(ctx, job); err != nil {
			return fmt.Errorf("persist expired job %s: %w", job.ID, err)
		}
		observability.JobsTotal.WithLabelValues(job.Kind, job.Status).Inc()
		count++
	}

	if count > 0 {
		logger.Info("Expired analytics jobs", slog.Int("count", count))
	}
	return nil
}
