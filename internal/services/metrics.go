package services

import (
	"math"
	"time"

	"github.com/agrosync/agrosync-api/internal/models"
)

func newMetric(name string, value float64, unit, trend string) models.AnalyticsMetric {
	return models.AnalyticsMetric{Name: name, Value: value, Unit: unit, Trend: trend}
}

// withChange records how value moved against reference, both as a delta and as a percentage.
func withChange(m models.AnalyticsMetric, value, reference float64) models.AnalyticsMetric {
	delta := value - reference
	pct := calculatePercentageChange(value, reference)
	m.Change = &delta
	m.ChangePercent = &pct
	return m
}

func withTarget(m models.AnalyticsMetric, target float64) models.AnalyticsMetric {
	m.Target = &target
	return m
}

// signTrend is up for positive values, down for negative ones and stable at zero.
func signTrend(v float64) string {
	switch {
	case v > 0:
		return models.TrendUp
	case v < 0:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

// presenceTrend is up when anything was recorded at all.
func presenceTrend(v float64) string {
	if v > 0 {
		return models.TrendUp
	}
	return models.TrendStable
}

// bandTrend is up at or above upAt, stable at or above stableAt, down below.
func bandTrend(v, upAt, stableAt float64) string {
	switch {
	case v >= upAt:
		return models.TrendUp
	case v >= stableAt:
		return models.TrendStable
	default:
		return models.TrendDown
	}
}

// comparisonTrend compares a current value with a reference value.
func comparisonTrend(current, reference float64) string {
	switch {
	case current > reference:
		return models.TrendUp
	case current < reference:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

// ratio divides and returns 0 for a zero denominator.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// percentOf returns part as a percentage of whole, 0 for an empty whole.
func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part * 100 / whole
}

// calculatePercentageChange computes the percentage difference between current and previous values
func calculatePercentageChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100.0
		}
		return 0.0
	}
	change := ((current - previous) / previous) * 100
	return math.Round(change*10) / 10
}

// buildSummary derives the headline figures from revenue and costs. NetProfit is always the difference;
// margin and ROI are 0 when their denominator is 0.
func buildSummary(revenue, costs float64) models.AnalyticsSummary {
	net := revenue - costs
	return models.AnalyticsSummary{
		TotalRevenue: revenue,
		TotalCosts:   costs,
		NetProfit:    net,
		ProfitMargin: percentOf(net, revenue),
		ROI:          percentOf(net, costs),
	}
}

func defaultSummary() models.AnalyticsSummary {
	return models.AnalyticsSummary{}
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func comparisonChart(chartType, title, xAxis, yAxis string, at time.Time, points ...models.ChartDataPoint) models.AnalyticsChart {
	for i := range points {
		points[i].Timestamp = at
	}
	return models.AnalyticsChart{
		Type:  chartType,
		Title: title,
		Data:  points,
		XAxis: xAxis,
		YAxis: yAxis,
	}
}

func point(label string, value float64) models.ChartDataPoint {
	return models.ChartDataPoint{Label: label, Value: value}
}
