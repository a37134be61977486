package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/agrosync/agrosync-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var exportNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

var exportCaller = models.Caller{
	UserID:         "user-1",
	OrganizationID: "org-1",
	Role:           models.RoleManager,
	Permissions:    []string{models.PermissionAnalyticsExport},
}

func sampleAttributes() models.AnalyticsAttributes {
	change := 12.5
	return models.AnalyticsAttributes{
		Period: models.PeriodMonth,
		Metrics: []models.AnalyticsMetric{
			{Name: "Total Revenue", Value: 1000, ChangePercent: &change, Trend: models.TrendUp, Unit: models.UnitCurrency},
			{Name: "Active Activities", Value: 10, Trend: models.TrendUp, Unit: models.UnitCount},
			{Name: "Profit Margin", Value: 60, Trend: models.TrendUp, Unit: models.UnitPercentage},
		},
		Charts: []models.AnalyticsChart{{
			Type: models.ChartTypeBar, Title: "Revenue vs Expenses", XAxis: "Category", YAxis: "Amount",
			Data: []models.ChartDataPoint{{Label: "Revenue", Value: 1000}, {Label: "Expenses", Value: 400}},
		}},
		Summary:  buildSummary(1000, 400),
		Insights: []models.AnalyticsInsight{},
	}
}

type exportFixture struct {
	svc      *ExportService
	computer *fakeComputer
	queue    *fakeQueue
	jobs     *fakeJobRepo
	files    *storage.LocalStorage
	audit    *fakeAudit
	notifier *fakeNotifier
	mailer   *mockMailer
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	f := &exportFixture{
		computer: &fakeComputer{attrs: sampleAttributes(), errFor: map[string]error{}},
		queue:    &fakeQueue{},
		jobs:     newFakeJobRepo(),
		files:    files,
		audit:    &fakeAudit{},
		notifier: &fakeNotifier{},
		mailer:   &mockMailer{},
	}
	reports := NewReportService(f.computer)
	reports.now = func() time.Time { return exportNow }
	reports.renderPDF = func(html []byte) ([]byte, error) { return append([]byte("%PDF-stub\n"), html...), nil }

	f.svc = NewExportService(f.computer, reports, f.queue, f.jobs, files, f.audit, f.notifier, f.mailer, ExportConfig{
		PublicBaseURL: "https://api.agrosync.test/",
		Retention:     24 * time.Hour,
	})
	f.svc.now = func() time.Time { return exportNow }
	return f
}

func TestExportAnalytics_ReturnsProcessingHandle(t *testing.T) {
	f := newExportFixture(t)

	resp, err := f.svc.ExportAnalytics(context.Background(), exportCaller, &models.ExportRequest{
		Type:   models.ModuleDashboard,
		Format: models.FormatCSV,
	}, "10.0.0.1", "test-agent")
	require.NoError(t, err)

	handle := resp.Data
	assert.Equal(t, ResourceExport, handle.Type)
	assert.Len(t, handle.ID, 36)
	assert.Equal(t, models.JobStatusProcessing, handle.Attributes.Status)
	assert.Equal(t, "https://api.agrosync.test/api/v1/analytics/exports/"+handle.ID+"/download", handle.Attributes.DownloadURL)
	assert.Equal(t, exportNow.Add(5*time.Minute), handle.Attributes.EstimatedCompletion)
	assert.Equal(t, exportNow.Add(24*time.Hour), handle.Attributes.ExpiresAt)

	require.Len(t, f.queue.submitted, 1)
	job := f.queue.submitted[0]
	assert.Equal(t, handle.ID, job.ID)
	assert.Equal(t, models.JobKindExport, job.Kind)
	assert.Equal(t, "org-1", job.OrganizationID)
	assert.JSONEq(t, `{"type":"dashboard","format":"csv","period":"month","includeCharts":false,"includeInsights":false}`, string(job.Request))

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionExport, f.audit.entries[0].action)
	assert.Equal(t, handle.ID, f.audit.entries[0].entityID)
}

func TestExportAnalytics_Validation(t *testing.T) {
	f := newExportFixture(t)
	bad := "farm 1"

	tests := []struct {
		name string
		req  *models.ExportRequest
		msg  string
	}{
		{"nil request", nil, "export request is required"},
		{"missing type", &models.ExportRequest{Format: models.FormatCSV}, "type is required"},
		{"unknown format", &models.ExportRequest{Type: models.ModuleMarket, Format: "docx"}, "format must be one of csv, xlsx, pdf, json"},
		{"bad period", &models.ExportRequest{Type: models.ModuleMarket, Format: models.FormatCSV, Period: "decade"}, "period must be one of week, month, quarter, year"},
		{"bad farm id", &models.ExportRequest{Type: models.ModuleMarket, Format: models.FormatCSV, FarmID: &bad}, "farmId must be a valid identifier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ExportAnalytics(context.Background(), exportCaller, tt.req, "", "")
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Message)
		})
	}
	assert.Empty(t, f.queue.submitted)
}

func TestExportAnalytics_QueueFailure(t *testing.T) {
	f := newExportFixture(t)
	f.queue.err = errors.New("connection refused")

	_, err := f.svc.ExportAnalytics(context.Background(), exportCaller, &models.ExportRequest{
		Type: models.ModuleFinancial, Format: models.FormatXLSX,
	}, "", "")

	var ierr *InternalError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "Failed to queue analytics export", ierr.Message)
	assert.Empty(t, f.audit.entries)
}

func TestGenerateReport_ReturnsGeneratingHandle(t *testing.T) {
	f := newExportFixture(t)

	resp, err := f.svc.GenerateReport(context.Background(), exportCaller, &models.ReportRequest{
		Title:   "  Q1 Summary ",
		Type:    ReportTypeSummary,
		FarmIDs: []string{"farm-1", "farm-2"},
		Format:  models.FormatPDF,
	}, "", "")
	require.NoError(t, err)

	assert.Equal(t, ResourceReport, resp.Data.Type)
	assert.Equal(t, models.JobStatusGenerating, resp.Data.Attributes.Status)
	assert.Equal(t, exportNow.Add(10*time.Minute), resp.Data.Attributes.EstimatedCompletion)

	require.Len(t, f.queue.submitted, 1)
	assert.Equal(t, "Q1 Summary", f.queue.submitted[0].Title)
	assert.Equal(t, models.JobKindReport, f.queue.submitted[0].Kind)
	assert.Equal(t, models.AuditActionReport, f.audit.entries[0].action)
}

func TestGenerateReport_Validation(t *testing.T) {
	f := newExportFixture(t)

	tests := []struct {
		name string
		req  models.ReportRequest
		msg  string
	}{
		{"missing farms", models.ReportRequest{Title: "R", Type: ReportTypeSummary, Format: models.FormatPDF}, "farmIds is required"},
		{"json not allowed", models.ReportRequest{Title: "R", Type: ReportTypeSummary, Format: models.FormatJSON, FarmIDs: []string{"f1"}}, "format must be one of pdf, xlsx, csv"},
		{"bad recipient", models.ReportRequest{Title: "R", Type: ReportTypeMarket, Format: models.FormatCSV, FarmIDs: []string{"f1"}, Recipients: []string{"not-an-email"}}, "recipients[0] must contain valid email addresses"},
		{"blank title", models.ReportRequest{Title: "   ", Type: ReportTypeMarket, Format: models.FormatCSV, FarmIDs: []string{"f1"}}, "title is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.svc.GenerateReport(context.Background(), exportCaller, &req, "", "")
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Message)
		})
	}
}

func submitExport(t *testing.T, f *exportFixture, req *models.ExportRequest) *models.AnalyticsJob {
	t.Helper()
	_, err := f.svc.ExportAnalytics(context.Background(), exportCaller, req, "", "")
	require.NoError(t, err)
	job := f.queue.submitted[len(f.queue.submitted)-1]
	require.NoError(t, f.jobs.Create(context.Background(), job))
	return job
}

func TestRunJob_ExportCompletes(t *testing.T) {
	f := newExportFixture(t)
	job := submitExport(t, f, &models.ExportRequest{Type: models.ModuleFarmToMarket, Format: models.FormatCSV, IncludeCharts: true})

	require.NoError(t, f.svc.RunJob(context.Background(), job))

	assert.Equal(t, models.JobStatusCompleted, job.Status)
	require.NotNil(t, job.FileName)
	assert.Equal(t, "analytics_farm_to_market_2024-03-15.csv", *job.FileName)
	require.NotNil(t, job.FilePath)
	assert.True(t, strings.HasPrefix(*job.FilePath, "exports/"))
	assert.True(t, f.files.Exists(*job.FilePath))

	assert.Equal(t, []string{models.ModuleFarmToMarket}, f.computer.modules)
	assert.True(t, f.computer.queries[0].UseCache)
	assert.Equal(t, []string{models.NotificationTypeExportReady}, f.notifier.types)

	stored, _ := f.jobs.FindByID(context.Background(), job.ID)
	assert.Equal(t, models.JobStatusCompleted, stored.Status)
	f.mailer.AssertNotCalled(t, "SendReportReady", mock.Anything, mock.Anything)
}

func TestRunJob_ExportFailure(t *testing.T) {
	f := newExportFixture(t)
	f.computer.errFor[models.ModuleMarket] = &InternalError{Message: "Failed to retrieve market analytics", Err: errors.New("db down")}
	job := submitExport(t, f, &models.ExportRequest{Type: models.ModuleMarket, Format: models.FormatPDF})

	err := f.svc.RunJob(context.Background(), job)
	require.Error(t, err)

	assert.Equal(t, models.JobStatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, "Failed to generate file", *job.Error)
	assert.Nil(t, job.FilePath)
	assert.Equal(t, []string{models.NotificationTypeExportFailed}, f.notifier.types)
}

func TestRunJob_ReportEmailsRecipients(t *testing.T) {
	f := newExportFixture(t)
	recipients := []string{"ana@example.com", "luis@example.com"}

	_, err := f.svc.GenerateReport(context.Background(), exportCaller, &models.ReportRequest{
		Title:              "March operations",
		Type:               ReportTypeOperational,
		FarmIDs:            []string{"farm-1", "farm-2"},
		Format:             models.FormatPDF,
		Recipients:         recipients,
		IncludeComparisons: true,
	}, "", "")
	require.NoError(t, err)
	job := f.queue.submitted[0]
	require.NoError(t, f.jobs.Create(context.Background(), job))

	f.mailer.On("SendReportReady", recipients, mock.MatchedBy(func(data ReportEmail) bool {
		return data.JobID == job.ID && data.FarmCount == 2 && data.Format == "PDF" &&
			strings.HasSuffix(data.DownloadURL, "/api/v1/analytics/exports/"+job.ID+"/download")
	})).Return(nil).Once()

	require.NoError(t, f.svc.RunJob(context.Background(), job))

	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, "march_operations_2024-03-15.pdf", *job.FileName)
	assert.True(t, strings.HasPrefix(*job.FilePath, "reports/"))
	assert.Equal(t, []string{models.NotificationTypeReportReady}, f.notifier.types)
	f.mailer.AssertExpectations(t)
}

func TestRunJob_ReportFailureEmailsRecipients(t *testing.T) {
	f := newExportFixture(t)
	f.computer.errFor["farm-2"] = &NotFoundError{Resource: "farm", ID: "farm-2"}
	recipients := []string{"ana@example.com"}

	_, err := f.svc.GenerateReport(context.Background(), exportCaller, &models.ReportRequest{
		Title: "Weekly", Type: ReportTypeFinancial, FarmIDs: []string{"farm-1", "farm-2"},
		Format: models.FormatCSV, Recipients: recipients,
	}, "", "")
	require.NoError(t, err)
	job := f.queue.submitted[0]

	f.mailer.On("SendReportFailed", recipients, mock.Anything).Return(errors.New("smtp down")).Once()

	require.Error(t, f.svc.RunJob(context.Background(), job))
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, "farm farm-2 not found", *job.Error)
	f.mailer.AssertExpectations(t)
}

func storeJob(t *testing.T, f *exportFixture, job models.AnalyticsJob) {
	t.Helper()
	require.NoError(t, f.jobs.Create(context.Background(), &job))
}

func TestOpenDownload(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	path, err := f.files.Save([]byte("metric,value\n"), "x.csv", storage.ExportsDir)
	require.NoError(t, err)
	name := "analytics_dashboard_2024-03-15.csv"

	completed := "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	pending := "2b4e28ba-2fa1-11d2-883f-0016d3cca427"
	expired := "3b4e28ba-2fa1-11d2-883f-0016d3cca427"
	stale := "4b4e28ba-2fa1-11d2-883f-0016d3cca427"
	failed := "5b4e28ba-2fa1-11d2-883f-0016d3cca427"

	storeJob(t, f, models.AnalyticsJob{ID: completed, OrganizationID: "org-1", Status: models.JobStatusCompleted, Format: models.FormatCSV, FilePath: &path, FileName: &name, ExpiresAt: exportNow.Add(time.Hour)})
	storeJob(t, f, models.AnalyticsJob{ID: pending, OrganizationID: "org-1", Status: models.JobStatusProcessing, ExpiresAt: exportNow.Add(time.Hour)})
	storeJob(t, f, models.AnalyticsJob{ID: expired, OrganizationID: "org-1", Status: models.JobStatusExpired, ExpiresAt: exportNow.Add(-time.Hour)})
	storeJob(t, f, models.AnalyticsJob{ID: stale, OrganizationID: "org-1", Status: models.JobStatusCompleted, FilePath: &path, ExpiresAt: exportNow.Add(-time.Minute)})
	storeJob(t, f, models.AnalyticsJob{ID: failed, OrganizationID: "org-1", Status: models.JobStatusFailed, ExpiresAt: exportNow.Add(time.Hour)})

	dl, err := f.svc.OpenDownload(ctx, exportCaller, completed)
	require.NoError(t, err)
	assert.Equal(t, name, dl.FileName)
	assert.Equal(t, "text/csv", dl.ContentType)
	assert.Equal(t, int64(len("metric,value\n")), dl.Size)
	body, err := os.ReadFile(dl.Path)
	require.NoError(t, err)
	assert.Equal(t, "metric,value\n", string(body))

	_, err = f.svc.OpenDownload(ctx, exportCaller, pending)
	assert.ErrorIs(t, err, ErrJobNotReady)

	_, err = f.svc.OpenDownload(ctx, exportCaller, expired)
	assert.ErrorIs(t, err, ErrJobExpired)

	_, err = f.svc.OpenDownload(ctx, exportCaller, stale)
	assert.ErrorIs(t, err, ErrJobExpired)

	_, err = f.svc.OpenDownload(ctx, exportCaller, failed)
	assert.ErrorIs(t, err, ErrInvalidState)

	other := exportCaller
	other.OrganizationID = "org-2"
	_, err = f.svc.OpenDownload(ctx, other, completed)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.OpenDownload(ctx, exportCaller, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenDownload_FileRemovedBeforeExpiry(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	path, err := f.files.Save([]byte("metric,value\n"), "x.csv", storage.ExportsDir)
	require.NoError(t, err)
	id := "6b4e28ba-2fa1-11d2-883f-0016d3cca427"
	storeJob(t, f, models.AnalyticsJob{ID: id, OrganizationID: "org-1", Status: models.JobStatusCompleted, Format: models.FormatCSV, FilePath: &path, ExpiresAt: exportNow.Add(time.Hour)})

	require.NoError(t, f.files.Delete(path))

	_, err = f.svc.OpenDownload(ctx, exportCaller, id)
	assert.ErrorIs(t, err, ErrJobExpired)
}

func TestExpireJobs(t *testing.T) {
	f := newExportFixture(t)

	path, err := f.files.Save([]byte("%PDF"), "r.pdf", storage.ReportsDir)
	require.NoError(t, err)

	gone := "exports/already_removed.csv"
	f.jobs.expired = []models.AnalyticsJob{
		{ID: "job-a", Kind: models.JobKindReport, Status: models.JobStatusCompleted, FilePath: &path},
		{ID: "job-b", Kind: models.JobKindExport, Status: models.JobStatusFailed},
		{ID: "job-c", Kind: models.JobKindExport, Status: models.JobStatusCompleted, FilePath: &gone},
	}

	require.NoError(t, f.svc.ExpireJobs(context.Background()))

	assert.False(t, f.files.Exists(path))
	a, _ := f.jobs.FindByID(context.Background(), "job-a")
	b, _ := f.jobs.FindByID(context.Background(), "job-b")
	c, _ := f.jobs.FindByID(context.Background(), "job-c")
	assert.Equal(t, models.JobStatusExpired, a.Status)
	assert.Nil(t, a.FilePath)
	assert.Equal(t, models.JobStatusExpired, b.Status)
	assert.Equal(t, models.JobStatusExpired, c.Status)
	assert.Equal(t, 3, f.jobs.updates)
}
