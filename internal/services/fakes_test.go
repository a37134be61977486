package services

import (
	"context"
	"sync"
	"time"

	"github.com/agrosync/agrosync-api/internal/insights"
	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/agrosync/agrosync-api/internal/repository"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// fakeAnalyticsRepo serves canned aggregates and counts calls per method. It is safe for the concurrent
// access the aggregators perform.
type fakeAnalyticsRepo struct {
	repository.AnalyticsRepository

	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error

	farms map[string]string // farm id -> organization id

	revenue, expenses float64
	activities        map[string]int64 // status ("" for all), "sustainable", or "<TYPE>:<status>"
	orders            []models.Order
	orderStats        repository.OrderStats
	repeatBuyers      int64
	avgPrice          float64
	recentAvgPrice    float64
	orderCount        int64
	cropCycles        map[string]int64
	harvests          int64
	harvestYield      float64

	lastWhere models.WhereClause

	// gate, when set, holds SumTransactions until closed; entered is signalled on arrival
	gate    chan struct{}
	entered chan struct{}
}

func newFakeRepo() *fakeAnalyticsRepo {
	return &fakeAnalyticsRepo{
		calls:      map[string]int{},
		errs:       map[string]error{},
		farms:      map[string]string{},
		activities: map[string]int64{},
		cropCycles: map[string]int64{},
	}
}

func (f *fakeAnalyticsRepo) record(method string, where *models.WhereClause) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	if where != nil {
		f.lastWhere = *where
	}
	return f.errs[method]
}

func (f *fakeAnalyticsRepo) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeAnalyticsRepo) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAnalyticsRepo) FarmExists(ctx context.Context, organizationID, farmID string) (bool, error) {
	if err := f.record("FarmExists", nil); err != nil {
		return false, err
	}
	return f.farms[farmID] == organizationID, nil
}

func (f *fakeAnalyticsRepo) SumTransactions(ctx context.Context, where models.WhereClause, txType string) (float64, error) {
	if err := f.record("SumTransactions", &where); err != nil {
		return 0, err
	}
	if f.gate != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
		<-f.gate
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
	if txType == models.TransactionTypeFarmRevenue {
		return f.revenue, nil
	}
	return f.expenses, nil
}

func (f *fakeAnalyticsRepo) CountActivities(ctx context.Context, where models.WhereClause, filter repository.ActivityFilter) (int64, error) {
	if err := f.record("CountActivities", &where); err != nil {
		return 0, err
	}
	key := filter.Status
	if len(filter.Types) > 0 {
		key = "sustainable"
	}
	if filter.Type != nil {
		key = *filter.Type + ":" + filter.Status
	}
	return f.activities[key], nil
}

func (f *fakeAnalyticsRepo) RecentOrders(ctx context.Context, where models.WhereClause, limit int) ([]models.Order, error) {
	if err := f.record("RecentOrders", &where); err != nil {
		return nil, err
	}
	if len(f.orders) > limit {
		return f.orders[:limit], nil
	}
	return f.orders, nil
}

func (f *fakeAnalyticsRepo) OrderStats(ctx context.Context, where models.WhereClause, commodityID *string) (*repository.OrderStats, error) {
	if err := f.record("OrderStats", &where); err != nil {
		return nil, err
	}
	stats := f.orderStats
	return &stats, nil
}

func (f *fakeAnalyticsRepo) RepeatBuyerCount(ctx context.Context, where models.WhereClause, commodityID *string) (int64, error) {
	if err := f.record("RepeatBuyerCount", &where); err != nil {
		return 0, err
	}
	return f.repeatBuyers, nil
}

func (f *fakeAnalyticsRepo) AveragePrice(ctx context.Context, where models.WhereClause, commodityID *string, since *time.Time) (float64, error) {
	if err := f.record("AveragePrice", &where); err != nil {
		return 0, err
	}
	if since != nil {
		return f.recentAvgPrice, nil
	}
	return f.avgPrice, nil
}

func (f *fakeAnalyticsRepo) CountOrders(ctx context.Context, where models.WhereClause, commodityID *string) (int64, error) {
	if err := f.record("CountOrders", &where); err != nil {
		return 0, err
	}
	return f.orderCount, nil
}

func (f *fakeAnalyticsRepo) CountCropCycles(ctx context.Context, where models.WhereClause, status string) (int64, error) {
	if err := f.record("CountCropCycles", &where); err != nil {
		return 0, err
	}
	return f.cropCycles[status], nil
}

func (f *fakeAnalyticsRepo) CountHarvests(ctx context.Context, where models.WhereClause) (int64, error) {
	if err := f.record("CountHarvests", &where); err != nil {
		return 0, err
	}
	return f.harvests, nil
}

func (f *fakeAnalyticsRepo) SumHarvestYield(ctx context.Context, where models.WhereClause) (float64, error) {
	if err := f.record("SumHarvestYield", &where); err != nil {
		return 0, err
	}
	return f.harvestYield, nil
}

// fakeInsights returns a canned result or error and counts calls.
type fakeInsights struct {
	mu     sync.Mutex
	calls  int
	last   insights.Request
	result *insights.Result
	err    error
}

func (f *fakeInsights) Generate(ctx context.Context, req insights.Request) (*insights.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeComputer returns the same document for every module and records the queries it received.
type fakeComputer struct {
	mu      sync.Mutex
	modules []string
	queries []models.AnalyticsQuery
	attrs   models.AnalyticsAttributes
	errFor  map[string]error // farm id or module -> error
}

func (f *fakeComputer) Compute(ctx context.Context, caller models.Caller, module string, q *models.AnalyticsQuery) (*models.AnalyticsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modules = append(f.modules, module)
	f.queries = append(f.queries, *q)
	if err := f.errFor[module]; err != nil {
		return nil, err
	}
	if q.FarmID != nil {
		if err := f.errFor[*q.FarmID]; err != nil {
			return nil, err
		}
	}
	attrs := f.attrs
	attrs.Period = q.Period
	attrs.FarmID = q.FarmID
	return &models.AnalyticsResponse{Data: models.AnalyticsResource{Type: "analytics_" + module, ID: "h", Attributes: attrs}}, nil
}

// fakeJobRepo keeps jobs in memory keyed by id.
type fakeJobRepo struct {
	repository.JobRepository

	mu      sync.Mutex
	jobs    map[string]models.AnalyticsJob
	updates int
	expired []models.AnalyticsJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]models.AnalyticsJob{}}
}

func (f *fakeJobRepo) Create(ctx context.Context, job *models.AnalyticsJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = *job
	return nil
}

func (f *fakeJobRepo) FindByID(ctx context.Context, id string) (*models.AnalyticsJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &job, nil
}

func (f *fakeJobRepo) FindForOrganization(ctx context.Context, organizationID, id string) (*models.AnalyticsJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok || job.OrganizationID != organizationID {
		return nil, gorm.ErrRecordNotFound
	}
	return &job, nil
}

func (f *fakeJobRepo) Update(ctx context.Context, job *models.AnalyticsJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	f.jobs[job.ID] = *job
	return nil
}

func (f *fakeJobRepo) FindExpired(ctx context.Context, now time.Time, limit int) ([]models.AnalyticsJob, error) {
	return f.expired, nil
}

// fakeQueue captures submitted jobs without running them.
type fakeQueue struct {
	submitted []*models.AnalyticsJob
	err       error
}

func (f *fakeQueue) Submit(ctx context.Context, job *models.AnalyticsJob) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.submitted = append(f.submitted, job)
	return job.ID, nil
}

type auditEntry struct {
	action, entityID, details string
}

type fakeAudit struct {
	entries []auditEntry
}

func (f *fakeAudit) Log(ctx context.Context, caller models.Caller, action, entity, entityID, details, ip, userAgent string) error {
	f.entries = append(f.entries, auditEntry{action: action, entityID: entityID, details: details})
	return nil
}

type fakeNotifier struct {
	types []string
}

func (f *fakeNotifier) NotifyUser(ctx context.Context, organizationID, userID, title, message, notifType string) error {
	f.types = append(f.types, notifType)
	return nil
}

// mockMailer is a testify mock for report emails.
type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendReportReady(ctx context.Context, recipients []string, data ReportEmail) error {
	return m.Called(recipients, data).Error(0)
}

func (m *mockMailer) SendReportFailed(ctx context.Context, recipients []string, data ReportEmail) error {
	return m.Called(recipients, data).Error(0)
}
