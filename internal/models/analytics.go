package models

import (
	"encoding/json"
	"time"
)

// AnalyticsCache is a cached analytics document stored in postgres when Redis is not configured.
type AnalyticsCache struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CacheKey  string          `gorm:"size:255;not null;uniqueIndex" json:"cache_key"`
	Data      json.RawMessage `gorm:"type:jsonb;not null" json:"data"`
	ExpiresAt time.Time       `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for AnalyticsCache
func (AnalyticsCache) TableName() string {
	return "analytics_cache"
}

// Reporting periods
const (
	PeriodWeek    = "week"
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"
	PeriodYear    = "year"
)

// Trend directions
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// Metric units
const (
	UnitCurrency   = "currency"
	UnitPercentage = "percentage"
	UnitCount      = "count"
	UnitRatio      = "ratio"
)

// Chart types
const (
	ChartTypeLine    = "line"
	ChartTypeBar     = "bar"
	ChartTypePie     = "pie"
	ChartTypeScatter = "scatter"
	ChartTypeHeatmap = "heatmap"
)

// AnalyticsQuery is the normalized set of filters shared by every analytics module.
// UseCache is a request directive and never part of the cache identity.
type AnalyticsQuery struct {
	Period             string  `json:"period"`
	FarmID             *string `json:"farmId,omitempty"`
	IncludeInsights    bool    `json:"includeInsights"`
	UseCache           bool    `json:"-"`
	StartDate          *string `json:"startDate,omitempty"`
	EndDate            *string `json:"endDate,omitempty"`
	ActivityType       *string `json:"activityType,omitempty"`
	CommodityID        *string `json:"commodityId,omitempty"`
	IncludeEfficiency  bool    `json:"includeEfficiency,omitempty"`
	IncludeCosts       bool    `json:"includeCosts,omitempty"`
	IncludePredictions bool    `json:"includePredictions,omitempty"`
}

// DateFilter is an inclusive createdAt window.
type DateFilter struct {
	Gte time.Time `json:"gte"`
	Lte time.Time `json:"lte"`
}

// WhereClause scopes every persistence read to one organization, optionally one farm, and a date window.
type WhereClause struct {
	OrganizationID string     `json:"organizationId"`
	FarmID         *string    `json:"farmId,omitempty"`
	CreatedAt      DateFilter `json:"createdAt"`
}

// AnalyticsMetric is a single named KPI. Change is the absolute delta against the reference value,
// ChangePercent the same delta relative to it.
type AnalyticsMetric struct {
	Name          string   `json:"name"`
	Value         float64  `json:"value"`
	Unit          string   `json:"unit"`
	Trend         string   `json:"trend"`
	Change        *float64 `json:"change,omitempty"`
	ChangePercent *float64 `json:"changePercent,omitempty"`
	Benchmark     *float64 `json:"benchmark,omitempty"`
	Target        *float64 `json:"target,omitempty"`
}

// ChartDataPoint is one point of an AnalyticsChart series.
type ChartDataPoint struct {
	Label     string    `json:"label"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalyticsChart is a renderable series.
type AnalyticsChart struct {
	Type  string           `json:"type"`
	Title string           `json:"title"`
	Data  []ChartDataPoint `json:"data"`
	XAxis string           `json:"xAxis"`
	YAxis string           `json:"yAxis"`
}

// AnalyticsSummary carries the headline financial figures. NetProfit is always TotalRevenue - TotalCosts.
type AnalyticsSummary struct {
	TotalRevenue   float64  `json:"totalRevenue"`
	TotalCosts     float64  `json:"totalCosts"`
	NetProfit      float64  `json:"netProfit"`
	ProfitMargin   float64  `json:"profitMargin"`
	ROI            float64  `json:"roi"`
	Efficiency     *float64 `json:"efficiency,omitempty"`
	Sustainability *float64 `json:"sustainability,omitempty"`
}

// AnalyticsInsight is an AI-generated observation attached to a response.
type AnalyticsInsight struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Priority        string    `json:"priority"`
	Impact          string    `json:"impact"`
	Confidence      float64   `json:"confidence"`
	Recommendations []string  `json:"recommendations"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// AnalyticsAttributes is the attribute body shared by the dashboard, financial, activity, market
// and farm-to-market documents.
type AnalyticsAttributes struct {
	Period      string             `json:"period"`
	FarmID      *string            `json:"farmId,omitempty"`
	Metrics     []AnalyticsMetric  `json:"metrics"`
	Charts      []AnalyticsChart   `json:"charts"`
	Summary     AnalyticsSummary   `json:"summary"`
	Insights    []AnalyticsInsight `json:"insights"`
	GeneratedAt time.Time          `json:"generatedAt"`
	CacheKey    string             `json:"cacheKey,omitempty"`
}

// AnalyticsResource is a JSON:API resource object.
type AnalyticsResource struct {
	Type       string              `json:"type"`
	ID         string              `json:"id"`
	Attributes AnalyticsAttributes `json:"attributes"`
}

// AnalyticsResponse is the JSON:API document returned by the aggregators.
type AnalyticsResponse struct {
	Data AnalyticsResource `json:"data"`
}

// InsightsAttributes is the attribute body of the insights document.
type InsightsAttributes struct {
	Insights        []AnalyticsInsight `json:"insights"`
	Recommendations []string           `json:"recommendations"`
	Model           string             `json:"model"`
	Confidence      float64            `json:"confidence"`
	GeneratedAt     time.Time          `json:"generatedAt"`
}

// InsightsResource is the JSON:API resource object for insights.
type InsightsResource struct {
	Type       string             `json:"type"`
	ID         string             `json:"id"`
	Attributes InsightsAttributes `json:"attributes"`
}

// InsightsResponse is the JSON:API document returned by the insights endpoint.
type InsightsResponse struct {
	Data InsightsResource `json:"data"`
}
