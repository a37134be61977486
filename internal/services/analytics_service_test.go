package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agrosync/agrosync-api/internal/cache"
	"github.com/agrosync/agrosync-api/internal/insights"
	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

var testCaller = models.Caller{
	UserID:         "user-1",
	OrganizationID: "org-1",
	Role:           models.RoleManager,
	Permissions:    []string{models.PermissionAnalyticsRead},
}

func newTestService(t *testing.T, repo *fakeAnalyticsRepo, gateway insights.Client) (*AnalyticsService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewAnalyticsService(repo, cache.NewRedisStore(client), gateway)
	svc.now = func() time.Time { return testNow }
	return svc, mr
}

func metricByName(t *testing.T, attrs models.AnalyticsAttributes, name string) models.AnalyticsMetric {
	t.Helper()
	for _, m := range attrs.Metrics {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("metric %q not found", name)
	return models.AnalyticsMetric{}
}

func dashboardRepo() *fakeAnalyticsRepo {
	repo := newFakeRepo()
	repo.revenue = 1000
	repo.expenses = 400
	repo.activities[""] = 10
	return repo
}

func TestAnalyticsService_GetDashboard(t *testing.T) {
	svc, _ := newTestService(t, dashboardRepo(), nil)

	resp, err := svc.GetDashboard(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month", UseCache: true})

	require.NoError(t, err)
	assert.Equal(t, ResourceDashboard, resp.Data.Type)
	attrs := resp.Data.Attributes

	assert.Equal(t, "month", attrs.Period)
	assert.Equal(t, testNow, attrs.GeneratedAt)
	assert.Regexp(t, `^analytics:dashboard:org-1:[0-9a-f]{16}$`, attrs.CacheKey)
	assert.Empty(t, attrs.Insights)
	assert.NotNil(t, attrs.Insights)

	assert.Equal(t, 1000.0, metricByName(t, attrs, "Total Revenue").Value)
	assert.Equal(t, models.TrendUp, metricByName(t, attrs, "Total Revenue").Trend)
	assert.Equal(t, 400.0, metricByName(t, attrs, "Total Expenses").Value)
	assert.Equal(t, 600.0, metricByName(t, attrs, "Net Profit").Value)
	assert.Equal(t, 10.0, metricByName(t, attrs, "Active Activities").Value)

	assert.Equal(t, 1000.0, attrs.Summary.TotalRevenue)
	assert.Equal(t, 400.0, attrs.Summary.TotalCosts)
	assert.Equal(t, 600.0, attrs.Summary.NetProfit)
	assert.Equal(t, 60.0, attrs.Summary.ProfitMargin)
	assert.Equal(t, 150.0, attrs.Summary.ROI)
	require.NotNil(t, attrs.Summary.Efficiency)
	assert.Equal(t, 100.0, *attrs.Summary.Efficiency, "revenue per activity")
	require.NotNil(t, attrs.Summary.Sustainability)
	assert.GreaterOrEqual(t, *attrs.Summary.Sustainability, 0.0)
	assert.LessOrEqual(t, *attrs.Summary.Sustainability, 100.0)

	require.Len(t, attrs.Charts, 1)
	assert.Equal(t, models.ChartTypeBar, attrs.Charts[0].Type)
	assert.Equal(t, "Revenue", attrs.Charts[0].Data[0].Label)
	assert.Equal(t, 400.0, attrs.Charts[0].Data[1].Value)
}

func TestAnalyticsService_GetDashboard_ScopesToCallerOrganization(t *testing.T) {
	repo := dashboardRepo()
	svc, _ := newTestService(t, repo, nil)

	_, err := svc.GetDashboard(context.Background(), models.Caller{OrganizationID: "org-7"}, &models.AnalyticsQuery{Period: "quarter"})

	require.NoError(t, err)
	assert.Equal(t, "org-7", repo.lastWhere.OrganizationID)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), repo.lastWhere.CreatedAt.Gte)
	assert.Equal(t, testNow, repo.lastWhere.CreatedAt.Lte)
}

func TestAnalyticsService_GetDashboard_CacheHitSkipsRepository(t *testing.T) {
	repo := dashboardRepo()
	svc, mr := newTestService(t, repo, nil)
	ctx := context.Background()

	first, err := svc.GetDashboard(ctx, testCaller, &models.AnalyticsQuery{Period: "month", UseCache: true})
	require.NoError(t, err)
	callsAfterFirst := repo.totalCalls()
	require.Positive(t, callsAfterFirst)

	key := first.Data.Attributes.CacheKey
	assert.True(t, mr.Exists(key))
	assert.Equal(t, AnalyticsCacheTTL, mr.TTL(key))

	repo.revenue = 99999
	second, err := svc.GetDashboard(ctx, testCaller, &models.AnalyticsQuery{Period: "month", UseCache: true})

	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, repo.totalCalls(), "cache hit must not touch the repository")
	assert.Equal(t, first.Data.Attributes.Summary, second.Data.Attributes.Summary)
	assert.Equal(t, first.Data.ID, second.Data.ID)
}

func TestAnalyticsService_GetDashboard_UseCacheFalse(t *testing.T) {
	repo := dashboardRepo()
	svc, mr := newTestService(t, repo, nil)
	ctx := context.Background()

	_, err := svc.GetDashboard(ctx, testCaller, &models.AnalyticsQuery{Period: "month", UseCache: false})
	require.NoError(t, err)
	callsAfterFirst := repo.totalCalls()

	_, err = svc.GetDashboard(ctx, testCaller, &models.AnalyticsQuery{Period: "month", UseCache: false})
	require.NoError(t, err)

	assert.Empty(t, mr.Keys(), "nothing is written when the cache is bypassed")
	assert.Equal(t, 2*callsAfterFirst, repo.totalCalls())
}

func TestAnalyticsService_GetDashboard_ZeroRevenue(t *testing.T) {
	repo := newFakeRepo()
	repo.expenses = 250
	svc, _ := newTestService(t, repo, nil)

	resp, err := svc.GetDashboard(context.Background(), testCaller, &models.AnalyticsQuery{Period: "week"})

	require.NoError(t, err)
	summary := resp.Data.Attributes.Summary
	assert.Zero(t, summary.ProfitMargin)
	assert.Equal(t, -250.0, summary.NetProfit)
	assert.Equal(t, models.TrendDown, metricByName(t, resp.Data.Attributes, "Net Profit").Trend)
	assert.Equal(t, models.TrendStable, metricByName(t, resp.Data.Attributes, "Total Revenue").Trend)
	require.NotNil(t, summary.Efficiency)
	assert.Zero(t, *summary.Efficiency, "no activities means zero efficiency")
}

func TestAnalyticsService_GetDashboard_EfficiencyIgnoresCompletion(t *testing.T) {
	repo := newFakeRepo()
	repo.revenue = 900
	repo.activities[""] = 4
	repo.activities[models.ActivityStatusCompleted] = 1
	svc, _ := newTestService(t, repo, nil)

	resp, err := svc.GetDashboard(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month"})

	require.NoError(t, err)
	require.NotNil(t, resp.Data.Attributes.Summary.Efficiency)
	assert.Equal(t, 225.0, *resp.Data.Attributes.Summary.Efficiency)
}

func TestAnalyticsService_GetDashboard_RepositoryFailure(t *testing.T) {
	repo := dashboardRepo()
	dbErr := errors.New("pq: connection refused")
	repo.errs["SumTransactions"] = dbErr
	svc, mr := newTestService(t, repo, nil)

	resp, err := svc.GetDashboard(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month", UseCache: true})

	assert.Nil(t, resp)
	var internal *InternalError
	require.ErrorAs(t, err, &internal)
	assert.Equal(t, "Failed to retrieve dashboard analytics", internal.Error())
	assert.ErrorIs(t, err, dbErr)
	assert.Empty(t, mr.Keys())
}

func TestAnalyticsService_GetDashboard_InvalidQuery(t *testing.T) {
	repo := dashboardRepo()
	svc, _ := newTestService(t, repo, nil)

	_, err := svc.GetDashboard(context.Background(), testCaller, &models.AnalyticsQuery{Period: "fortnight"})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, repo.totalCalls())
}

func TestAnalyticsService_GetDashboard_FarmOutsideOrganization(t *testing.T) {
	repo := dashboardRepo()
	repo.farms["farm-1"] = "org-2"
	svc, _ := newTestService(t, repo, nil)
	farmID := "farm-1"

	_, err := svc.GetDashboard(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month", FarmID: &farmID})

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, repo.totalCalls(), "only the farm lookup runs")
}

func TestAnalyticsService_GetDashboard_FarmScoped(t *testing.T) {
	repo := dashboardRepo()
	repo.farms["farm-1"] = "org-1"
	svc, _ := newTestService(t, repo, nil)
	farmID := "farm-1"

	resp, err := svc.GetDashboard(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month", FarmID: &farmID})

	require.NoError(t, err)
	require.NotNil(t, repo.lastWhere.FarmID)
	assert.Equal(t, "farm-1", *repo.lastWhere.FarmID)
	assert.Equal(t, "farm-1", *resp.Data.Attributes.FarmID)
}

func TestAnalyticsService_GetDashboard_CancelledCallerDoesNotFailSharedComputation(t *testing.T) {
	repo := dashboardRepo()
	repo.gate = make(chan struct{})
	repo.entered = make(chan struct{}, 1)
	svc, _ := newTestService(t, repo, nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.GetDashboard(ctxA, testCaller, &models.AnalyticsQuery{Period: "month"})
		errA <- err
	}()
	<-repo.entered

	type result struct {
		resp *models.AnalyticsResponse
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		resp, err := svc.GetDashboard(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month"})
		resB <- result{resp, err}
	}()
	// let B join the in-flight computation
	time.Sleep(50 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)
	close(repo.gate)

	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, 1000.0, b.resp.Data.Attributes.Summary.TotalRevenue)
	assert.Equal(t, 600.0, b.resp.Data.Attributes.Summary.NetProfit)
}

func TestFlightKey(t *testing.T) {
	other := models.Caller{UserID: "user-2", OrganizationID: "org-1"}
	plain := &models.AnalyticsQuery{Period: "month"}
	withInsights := &models.AnalyticsQuery{Period: "month", IncludeInsights: true}

	assert.Equal(t, flightKey("k", true, testCaller, plain), flightKey("k", true, other, plain))
	assert.NotEqual(t, flightKey("k", true, testCaller, plain), flightKey("k", false, testCaller, plain))
	assert.NotEqual(t, flightKey("k", true, testCaller, withInsights), flightKey("k", true, other, withInsights))
}

func TestAnalyticsService_GetDashboard_InsightsSoftFail(t *testing.T) {
	gateway := &fakeInsights{err: errors.New("timeout")}
	svc, _ := newTestService(t, dashboardRepo(), gateway)

	resp, err := svc.GetDashboard(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month", IncludeInsights: true})

	require.NoError(t, err)
	assert.Equal(t, 1, gateway.calls)
	assert.NotNil(t, resp.Data.Attributes.Insights)
	assert.Empty(t, resp.Data.Attributes.Insights)
}

func TestAnalyticsService_GetDashboard_WithInsights(t *testing.T) {
	gateway := &fakeInsights{result: &insights.Result{
		Insights:        []string{"Revenue grew faster than expenses. Margins are healthy."},
		Recommendations: []string{"Lock in fertilizer prices for next quarter"},
		Confidence:      0.9,
		Model:           "gpt-4",
	}}
	svc, _ := newTestService(t, dashboardRepo(), gateway)

	resp, err := svc.GetDashboard(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month", IncludeInsights: true})

	require.NoError(t, err)
	require.Len(t, resp.Data.Attributes.Insights, 1)
	insight := resp.Data.Attributes.Insights[0]
	assert.Equal(t, "Revenue grew faster than expenses", insight.Title)
	assert.Equal(t, "performance", insight.Category)
	assert.Equal(t, "medium", insight.Priority)
	assert.Equal(t, []string{"Lock in fertilizer prices for next quarter"}, insight.Recommendations)
	assert.Equal(t, insights.AnalysisYieldPrediction, gateway.last.AnalysisType)
	assert.Equal(t, "user-1", gateway.last.UserID)
}

func TestAnalyticsService_GetDashboard_InsightsFoldIntoOneRecord(t *testing.T) {
	gateway := &fakeInsights{result: &insights.Result{
		Insights: []string{
			"Revenue is up on last month.",
			"Irrigation costs doubled.",
			"Soil treatment is behind schedule.",
		},
		Confidence: 0.95,
	}}
	svc, _ := newTestService(t, dashboardRepo(), gateway)

	resp, err := svc.GetDashboard(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month", IncludeInsights: true})

	require.NoError(t, err)
	require.Len(t, resp.Data.Attributes.Insights, 1)
	insight := resp.Data.Attributes.Insights[0]
	assert.Equal(t, "Revenue is up on last month. Irrigation costs doubled. Soil treatment is behind schedule.", insight.Description)
	assert.Equal(t, "performance", insight.Category)
	assert.Equal(t, "medium", insight.Priority)
	assert.Equal(t, 0.95, insight.Confidence)
	assert.NotNil(t, insight.Recommendations)
}

func TestAnalyticsService_GetFinancial_EmptyInsightResult(t *testing.T) {
	gateway := &fakeInsights{result: &insights.Result{Insights: []string{"  "}}}
	svc, _ := newTestService(t, newFakeRepo(), gateway)

	resp, err := svc.GetFinancial(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month", IncludeInsights: true})

	require.NoError(t, err)
	assert.NotNil(t, resp.Data.Attributes.Insights)
	assert.Empty(t, resp.Data.Attributes.Insights)
}

func TestAnalyticsService_GetFinancial(t *testing.T) {
	repo := newFakeRepo()
	repo.revenue = 5000
	repo.expenses = 2000
	repo.orders = []models.Order{
		{ID: "o-2", TotalAmount: 300, CreatedAt: testNow.Add(-time.Hour)},
		{ID: "o-1", TotalAmount: 100, CreatedAt: testNow.Add(-48 * time.Hour)},
	}
	svc, _ := newTestService(t, repo, nil)

	resp, err := svc.GetFinancial(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month"})

	require.NoError(t, err)
	attrs := resp.Data.Attributes
	assert.Equal(t, ResourceFinancial, resp.Data.Type)
	assert.Equal(t, 2500.0, metricByName(t, attrs, "Average Order Value").Value, "revenue over order count")
	assert.Equal(t, 60.0, metricByName(t, attrs, "Profit Margin").Value)
	assert.Equal(t, 3000.0, attrs.Summary.NetProfit)
	assert.Nil(t, attrs.Summary.Sustainability)

	require.Len(t, attrs.Charts, 2)
	assert.Equal(t, models.ChartTypePie, attrs.Charts[0].Type)
	assert.Equal(t, 100.0, attrs.Charts[1].Data[0].Value, "order series is chronological")
}

func TestAnalyticsService_GetFinancial_NoOrders(t *testing.T) {
	svc, _ := newTestService(t, newFakeRepo(), nil)

	resp, err := svc.GetFinancial(context.Background(), testCaller, &models.AnalyticsQuery{Period: "year"})

	require.NoError(t, err)
	assert.Zero(t, metricByName(t, resp.Data.Attributes, "Average Order Value").Value)
	assert.Equal(t, models.AnalyticsSummary{}, resp.Data.Attributes.Summary)
}

func TestAnalyticsService_GetActivity_NoActivities(t *testing.T) {
	svc, _ := newTestService(t, newFakeRepo(), nil)

	resp, err := svc.GetActivity(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month"})

	require.NoError(t, err)
	rate := metricByName(t, resp.Data.Attributes, "Completion Rate")
	assert.Zero(t, rate.Value)
	assert.Equal(t, models.TrendDown, rate.Trend)
	assert.Zero(t, resp.Data.Attributes.Summary.TotalRevenue)
	assert.Zero(t, resp.Data.Attributes.Summary.NetProfit)
}

func TestAnalyticsService_GetActivity_EfficiencyAndCosts(t *testing.T) {
	repo := newFakeRepo()
	activityType := models.ActivityTypeIrrigation
	repo.activities[activityType+":"] = 20
	repo.activities[activityType+":"+models.ActivityStatusCompleted] = 17
	repo.activities[activityType+":"+models.ActivityStatusInProgress] = 2
	repo.revenue = 4000
	repo.expenses = 1000
	svc, _ := newTestService(t, repo, nil)

	resp, err := svc.GetActivity(context.Background(), testCaller, &models.AnalyticsQuery{
		Period:            "month",
		ActivityType:      strPtr("irrigation"),
		IncludeEfficiency: true,
		IncludeCosts:      true,
	})

	require.NoError(t, err)
	attrs := resp.Data.Attributes
	assert.Equal(t, 85.0, metricByName(t, attrs, "Completion Rate").Value)
	assert.Equal(t, models.TrendUp, metricByName(t, attrs, "Completion Rate").Trend)
	require.NotNil(t, metricByName(t, attrs, "Completion Rate").Target)
	assert.Equal(t, 80.0, *metricByName(t, attrs, "Completion Rate").Target)
	assert.Equal(t, 200.0, metricByName(t, attrs, "Revenue per Activity").Value)
	assert.Equal(t, 95.0, metricByName(t, attrs, "Resource Utilization").Value)
	assert.Equal(t, 50.0, metricByName(t, attrs, "Cost per Activity").Value)
	assert.Equal(t, 3000.0, attrs.Summary.NetProfit)
}

func TestAnalyticsService_GetActivity_CompletionBands(t *testing.T) {
	tests := []struct {
		completed int64
		trend     string
	}{
		{8, models.TrendUp},
		{7, models.TrendStable},
		{6, models.TrendStable},
		{5, models.TrendDown},
	}

	for _, tt := range tests {
		repo := newFakeRepo()
		repo.activities[""] = 10
		repo.activities[models.ActivityStatusCompleted] = tt.completed
		svc, _ := newTestService(t, repo, nil)

		resp, err := svc.GetActivity(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month"})

		require.NoError(t, err)
		assert.Equal(t, tt.trend, metricByName(t, resp.Data.Attributes, "Completion Rate").Trend, "completed=%d", tt.completed)
	}
}

func TestAnalyticsService_GetMarket(t *testing.T) {
	repo := newFakeRepo()
	repo.orderStats.TotalSales = 9000
	repo.orderStats.AverageOrderValue = 900
	repo.orderStats.OrderCount = 10
	repo.orderStats.DistinctBuyers = 4
	repo.repeatBuyers = 3
	repo.avgPrice = 10
	repo.recentAvgPrice = 12
	svc, _ := newTestService(t, repo, nil)

	resp, err := svc.GetMarket(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month", IncludePredictions: true})

	require.NoError(t, err)
	attrs := resp.Data.Attributes
	assert.Equal(t, 75.0, metricByName(t, attrs, "Customer Retention").Value)
	price := metricByName(t, attrs, "Average Price")
	assert.Equal(t, models.TrendUp, price.Trend)
	require.NotNil(t, price.Change)
	assert.Equal(t, 2.0, *price.Change)
	require.NotNil(t, price.ChangePercent)
	assert.Equal(t, 20.0, *price.ChangePercent)
	assert.Greater(t, metricByName(t, attrs, "Projected Sales").Value, 9000.0)
	assert.Equal(t, models.AnalyticsSummary{}, attrs.Summary)
}

func TestAnalyticsService_GetMarket_NoCustomers(t *testing.T) {
	svc, _ := newTestService(t, newFakeRepo(), nil)

	resp, err := svc.GetMarket(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month"})

	require.NoError(t, err)
	retention := metricByName(t, resp.Data.Attributes, "Customer Retention")
	assert.Zero(t, retention.Value)
	assert.Equal(t, models.TrendStable, metricByName(t, resp.Data.Attributes, "Average Price").Trend)
}

func TestAnalyticsService_GetFarmToMarket_NeverCached(t *testing.T) {
	repo := newFakeRepo()
	repo.cropCycles[""] = 10
	repo.cropCycles[models.CropCycleStatusCompleted] = 9
	repo.harvests = 8
	repo.orderCount = 6
	repo.revenue = 12000
	repo.harvestYield = 4000
	svc, mr := newTestService(t, repo, nil)
	ctx := context.Background()

	resp, err := svc.GetFarmToMarket(ctx, testCaller, &models.AnalyticsQuery{Period: "year", UseCache: true})
	require.NoError(t, err)
	callsAfterFirst := repo.totalCalls()

	_, err = svc.GetFarmToMarket(ctx, testCaller, &models.AnalyticsQuery{Period: "year", UseCache: true})
	require.NoError(t, err)

	assert.Empty(t, mr.Keys())
	assert.Equal(t, 2*callsAfterFirst, repo.totalCalls())

	attrs := resp.Data.Attributes
	assert.Empty(t, attrs.CacheKey)
	assert.Equal(t, 90.0, metricByName(t, attrs, "Production Efficiency").Value)
	assert.Equal(t, 75.0, metricByName(t, attrs, "Market Conversion").Value)
	assert.Equal(t, 3.0, metricByName(t, attrs, "Revenue per Yield").Value)
	assert.Equal(t, 12000.0, attrs.Summary.NetProfit)
	assert.Equal(t, 100.0, attrs.Summary.ProfitMargin)
	assert.Zero(t, attrs.Summary.TotalCosts)
}

func TestAnalyticsService_GetFarmToMarket_NoHarvests(t *testing.T) {
	svc, _ := newTestService(t, newFakeRepo(), nil)

	resp, err := svc.GetFarmToMarket(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month"})

	require.NoError(t, err)
	assert.Zero(t, metricByName(t, resp.Data.Attributes, "Market Conversion").Value)
	assert.Zero(t, metricByName(t, resp.Data.Attributes, "Revenue per Yield").Value)
	assert.Zero(t, resp.Data.Attributes.Summary.ProfitMargin)
}

func TestAnalyticsService_GetInsights(t *testing.T) {
	gateway := &fakeInsights{result: &insights.Result{
		Insights:        []string{"Expect a 12% higher maize yield"},
		Recommendations: []string{"Schedule harvest crews early"},
		Confidence:      0.7,
	}}
	svc, mr := newTestService(t, newFakeRepo(), gateway)
	ctx := context.Background()

	resp, err := svc.GetInsights(ctx, testCaller, &models.AnalyticsQuery{Period: "month", UseCache: true})
	require.NoError(t, err)

	attrs := resp.Data.Attributes
	require.Len(t, attrs.Insights, 1)
	assert.Equal(t, "medium", attrs.Insights[0].Impact)
	assert.Equal(t, 0.7, attrs.Confidence)
	assert.Equal(t, insights.AnalysisYieldPrediction, gateway.last.AnalysisType)

	key := CacheKey(models.ModuleInsights, "org-1", &models.AnalyticsQuery{Period: "month"})
	assert.Equal(t, InsightsCacheTTL, mr.TTL(key))

	_, err = svc.GetInsights(ctx, testCaller, &models.AnalyticsQuery{Period: "month", UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, 1, gateway.calls, "second call is served from cache")
}

func TestAnalyticsService_GetInsights_SoftFail(t *testing.T) {
	gateway := &fakeInsights{err: insights.ErrUnavailable}
	svc, mr := newTestService(t, newFakeRepo(), gateway)

	resp, err := svc.GetInsights(context.Background(), testCaller, &models.AnalyticsQuery{Period: "month", UseCache: true})

	require.NoError(t, err)
	assert.NotNil(t, resp.Data.Attributes.Insights)
	assert.Empty(t, resp.Data.Attributes.Insights)
	assert.Equal(t, insights.DefaultModel, resp.Data.Attributes.Model)
	assert.Empty(t, mr.Keys(), "failed generations are not cached")
}

func TestAnalyticsService_Compute_UnknownModule(t *testing.T) {
	svc, _ := newTestService(t, newFakeRepo(), nil)

	_, err := svc.Compute(context.Background(), testCaller, "weather", &models.AnalyticsQuery{Period: "month"})

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}
