package services

import (
	"context"
	"math"
	"time"

	"github.com/agrosync/agrosync-api/internal/insights"
	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/agrosync/agrosync-api/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	financialOrderSample = 100
	recentPriceWindow    = 30 // days
	completionTarget     = 80.0
)

func (s *AnalyticsService) computeDashboard(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery, where models.WhereClause, now time.Time) (*models.AnalyticsAttributes, error) {
	var (
		revenue, expenses float64
		activities        int64
		sustainability    float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		revenue, err = s.repo.SumTransactions(gctx, where, models.TransactionTypeFarmRevenue)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.repo.SumTransactions(gctx, where, models.TransactionTypeFarmExpense)
		return err
	})
	g.Go(func() (err error) {
		activities, err = s.repo.CountActivities(gctx, where, repository.ActivityFilter{})
		return err
	})
	g.Go(func() error {
		sustainability = s.scorer.Score(gctx, where)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := buildSummary(revenue, expenses)
	efficiency := ratio(revenue, float64(activities))
	summary.Efficiency = &efficiency
	summary.Sustainability = &sustainability

	return &models.AnalyticsAttributes{
		Metrics: []models.AnalyticsMetric{
			newMetric("Total Revenue", revenue, models.UnitCurrency, presenceTrend(revenue)),
			newMetric("Total Expenses", expenses, models.UnitCurrency, models.TrendStable),
			newMetric("Net Profit", summary.NetProfit, models.UnitCurrency, signTrend(summary.NetProfit)),
			newMetric("Active Activities", float64(activities), models.UnitCount, presenceTrend(float64(activities))),
		},
		Charts: []models.AnalyticsChart{
			comparisonChart(models.ChartTypeBar, "Revenue vs Expenses", "Category", "Amount", now,
				point("Revenue", revenue),
				point("Expenses", expenses),
			),
		},
		Summary: summary,
		Insights: s.attachInsights(ctx, caller, q, insights.AnalysisYieldPrediction, map[string]any{
			"totalRevenue":   revenue,
			"totalExpenses":  expenses,
			"activities":     activities,
			"sustainability": sustainability,
		}, now),
	}, nil
}

func (s *AnalyticsService) computeFinancial(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery, where models.WhereClause, now time.Time) (*models.AnalyticsAttributes, error) {
	var (
		revenue, expenses float64
		orders            []models.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		revenue, err = s.repo.SumTransactions(gctx, where, models.TransactionTypeFarmRevenue)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.repo.SumTransactions(gctx, where, models.TransactionTypeFarmExpense)
		return err
	})
	g.Go(func() (err error) {
		orders, err = s.repo.RecentOrders(gctx, where, financialOrderSample)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	orderSeries := make([]models.ChartDataPoint, 0, len(orders))
	for i := len(orders) - 1; i >= 0; i-- {
		o := orders[i]
		orderSeries = append(orderSeries, models.ChartDataPoint{
			Label:     o.CreatedAt.Format(time.DateOnly),
			Value:     o.TotalAmount,
			Timestamp: o.CreatedAt,
		})
	}
	avgOrderValue := ratio(revenue, float64(len(orders)))

	summary := buildSummary(revenue, expenses)

	return &models.AnalyticsAttributes{
		Metrics: []models.AnalyticsMetric{
			newMetric("Total Revenue", revenue, models.UnitCurrency, presenceTrend(revenue)),
			newMetric("Total Expenses", expenses, models.UnitCurrency, models.TrendStable),
			newMetric("Net Profit", summary.NetProfit, models.UnitCurrency, signTrend(summary.NetProfit)),
			newMetric("Profit Margin", summary.ProfitMargin, models.UnitPercentage, signTrend(summary.ProfitMargin)),
			newMetric("Average Order Value", avgOrderValue, models.UnitCurrency, presenceTrend(avgOrderValue)),
		},
		Charts: []models.AnalyticsChart{
			comparisonChart(models.ChartTypePie, "Revenue vs Expenses", "Category", "Amount", now,
				point("Revenue", revenue),
				point("Expenses", expenses),
			),
			{
				Type:  models.ChartTypeLine,
				Title: "Recent Order Value",
				Data:  orderSeries,
				XAxis: "Date",
				YAxis: "Order Value",
			},
		},
		Summary: summary,
		Insights: s.attachInsights(ctx, caller, q, insights.AnalysisFinancialOutlook, map[string]any{
			"totalRevenue":      revenue,
			"totalExpenses":     expenses,
			"averageOrderValue": avgOrderValue,
		}, now),
	}, nil
}

func (s *AnalyticsService) computeActivity(ctx context.Context, _ models.Caller, q *models.AnalyticsQuery, where models.WhereClause, now time.Time) (*models.AnalyticsAttributes, error) {
	var (
		total, completed, inProgress int64
		revenue, expenses            float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = s.repo.CountActivities(gctx, where, repository.ActivityFilter{Type: q.ActivityType})
		return err
	})
	g.Go(func() (err error) {
		completed, err = s.repo.CountActivities(gctx, where, repository.ActivityFilter{Type: q.ActivityType, Status: models.ActivityStatusCompleted})
		return err
	})
	if q.IncludeEfficiency {
		g.Go(func() (err error) {
			inProgress, err = s.repo.CountActivities(gctx, where, repository.ActivityFilter{Type: q.ActivityType, Status: models.ActivityStatusInProgress})
			return err
		})
		g.Go(func() (err error) {
			revenue, err = s.repo.SumTransactions(gctx, where, models.TransactionTypeFarmRevenue)
			return err
		})
	}
	if q.IncludeCosts {
		g.Go(func() (err error) {
			expenses, err = s.repo.SumTransactions(gctx, where, models.TransactionTypeFarmExpense)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	completionRate := percentOf(float64(completed), float64(total))

	metrics := []models.AnalyticsMetric{
		newMetric("Total Activities", float64(total), models.UnitCount, presenceTrend(float64(total))),
		newMetric("Completed Activities", float64(completed), models.UnitCount, presenceTrend(float64(completed))),
		withTarget(newMetric("Completion Rate", completionRate, models.UnitPercentage, bandTrend(completionRate, completionTarget, 60)), completionTarget),
	}

	if q.IncludeEfficiency {
		revenuePerActivity := ratio(revenue, float64(total))
		utilization := math.Min(100, percentOf(float64(completed+inProgress), float64(total)))
		metrics = append(metrics,
			newMetric("Revenue per Activity", revenuePerActivity, models.UnitCurrency, presenceTrend(revenuePerActivity)),
			newMetric("Resource Utilization", utilization, models.UnitPercentage, bandTrend(utilization, 80, 50)),
		)
	}
	if q.IncludeCosts {
		metrics = append(metrics,
			newMetric("Cost per Activity", ratio(expenses, float64(total)), models.UnitCurrency, models.TrendStable),
		)
	}

	summary := defaultSummary()
	if q.IncludeEfficiency || q.IncludeCosts {
		summary = buildSummary(revenue, expenses)
	}
	summary.Efficiency = &completionRate

	return &models.AnalyticsAttributes{
		Metrics: metrics,
		Charts: []models.AnalyticsChart{
			comparisonChart(models.ChartTypePie, "Activity Status", "Status", "Activities", now,
				point("Completed", float64(completed)),
				point("Open", float64(total-completed)),
			),
		},
		Summary: summary,
	}, nil
}

func (s *AnalyticsService) computeMarket(ctx context.Context, _ models.Caller, q *models.AnalyticsQuery, where models.WhereClause, now time.Time) (*models.AnalyticsAttributes, error) {
	var (
		stats               *repository.OrderStats
		repeatBuyers        int64
		avgPrice, recentAvg float64
		recentSince         = now.AddDate(0, 0, -recentPriceWindow)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.repo.OrderStats(gctx, where, q.CommodityID)
		return err
	})
	g.Go(func() (err error) {
		repeatBuyers, err = s.repo.RepeatBuyerCount(gctx, where, q.CommodityID)
		return err
	})
	g.Go(func() (err error) {
		avgPrice, err = s.repo.AveragePrice(gctx, where, q.CommodityID, nil)
		return err
	})
	g.Go(func() (err error) {
		recentAvg, err = s.repo.AveragePrice(gctx, where, q.CommodityID, &recentSince)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	retention := percentOf(float64(repeatBuyers), float64(stats.DistinctBuyers))

	priceMetric := newMetric("Average Price", avgPrice, models.UnitCurrency, models.TrendStable)
	if recentAvg > 0 {
		priceMetric.Trend = comparisonTrend(recentAvg, avgPrice)
		priceMetric = withChange(priceMetric, recentAvg, avgPrice)
	}

	metrics := []models.AnalyticsMetric{
		newMetric("Total Sales", stats.TotalSales, models.UnitCurrency, presenceTrend(stats.TotalSales)),
		newMetric("Average Order Value", stats.AverageOrderValue, models.UnitCurrency, presenceTrend(stats.AverageOrderValue)),
		newMetric("Order Count", float64(stats.OrderCount), models.UnitCount, presenceTrend(float64(stats.OrderCount))),
		newMetric("Customer Count", float64(stats.DistinctBuyers), models.UnitCount, presenceTrend(float64(stats.DistinctBuyers))),
		newMetric("Customer Retention", retention, models.UnitPercentage, bandTrend(retention, 50, 25)),
		priceMetric,
	}

	if q.IncludePredictions && q.StartDate == nil {
		projected := projectToPeriodEnd(stats.TotalSales, where.CreatedAt, PeriodEnd(q.Period, now))
		metrics = append(metrics, newMetric("Projected Sales", projected, models.UnitCurrency, comparisonTrend(projected, stats.TotalSales)))
	}

	return &models.AnalyticsAttributes{
		Metrics: metrics,
		Charts: []models.AnalyticsChart{
			comparisonChart(models.ChartTypeLine, "Average Price", "Window", "Price", now,
				point("Period Average", avgPrice),
				point("Last 30 Days", recentAvg),
			),
		},
		Summary: defaultSummary(),
	}, nil
}

func (s *AnalyticsService) computeFarmToMarket(ctx context.Context, _ models.Caller, q *models.AnalyticsQuery, where models.WhereClause, now time.Time) (*models.AnalyticsAttributes, error) {
	var (
		cycles, completedCycles, harvests, orders int64
		revenue, yield                            float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cycles, err = s.repo.CountCropCycles(gctx, where, "")
		return err
	})
	g.Go(func() (err error) {
		completedCycles, err = s.repo.CountCropCycles(gctx, where, models.CropCycleStatusCompleted)
		return err
	})
	g.Go(func() (err error) {
		harvests, err = s.repo.CountHarvests(gctx, where)
		return err
	})
	g.Go(func() (err error) {
		orders, err = s.repo.CountOrders(gctx, where, q.CommodityID)
		return err
	})
	g.Go(func() (err error) {
		revenue, err = s.repo.SumTransactions(gctx, where, models.TransactionTypeFarmRevenue)
		return err
	})
	g.Go(func() (err error) {
		yield, err = s.repo.SumHarvestYield(gctx, where)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	productionEfficiency := percentOf(float64(completedCycles), float64(cycles))
	marketConversion := percentOf(float64(orders), float64(harvests))
	revenuePerYield := ratio(revenue, yield)

	metrics := []models.AnalyticsMetric{
		newMetric("Production Efficiency", productionEfficiency, models.UnitPercentage, bandTrend(productionEfficiency, 80, 60)),
		newMetric("Market Conversion", marketConversion, models.UnitPercentage, bandTrend(marketConversion, 80, 50)),
		newMetric("Revenue per Yield", revenuePerYield, models.UnitRatio, presenceTrend(revenuePerYield)),
		newMetric("Harvests", float64(harvests), models.UnitCount, presenceTrend(float64(harvests))),
		newMetric("Orders", float64(orders), models.UnitCount, presenceTrend(float64(orders))),
	}

	if q.IncludePredictions && q.StartDate == nil {
		projected := projectToPeriodEnd(revenue, where.CreatedAt, PeriodEnd(q.Period, now))
		metrics = append(metrics, newMetric("Projected Revenue", projected, models.UnitCurrency, comparisonTrend(projected, revenue)))
	}

	// Costs are not joined into this view, so the whole revenue counts as profit.
	summary := buildSummary(revenue, 0)
	summary.Efficiency = &productionEfficiency

	return &models.AnalyticsAttributes{
		Metrics: metrics,
		Charts: []models.AnalyticsChart{
			comparisonChart(models.ChartTypeBar, "Production Funnel", "Stage", "Count", now,
				point("Crop Cycles", float64(cycles)),
				point("Completed Cycles", float64(completedCycles)),
				point("Harvests", float64(harvests)),
				point("Orders", float64(orders)),
			),
		},
		Summary: summary,
	}, nil
}
