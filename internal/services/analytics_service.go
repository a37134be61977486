package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/agrosync/agrosync-api/internal/cache"
	"github.com/agrosync/agrosync-api/internal/insights"
	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/agrosync/agrosync-api/internal/observability"
	"github.com/agrosync/agrosync-api/internal/repository"
	"github.com/agrosync/agrosync-api/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// JSON:API resource types
const (
	ResourceDashboard    = "analytics_dashboard"
	ResourceFinancial    = "analytics_financial"
	ResourceActivities   = "analytics_activities"
	ResourceMarket       = "analytics_market"
	ResourceFarmToMarket = "analytics_farm_to_market"
	ResourceInsights     = "analytics_insights"
)

type computeFunc func(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery, where models.WhereClause, now time.Time) (*models.AnalyticsAttributes, error)

type moduleSpec struct {
	name      string
	resource  string
	label     string
	cacheable bool
	compute   computeFunc
}

// AnalyticsService computes the analytics documents for every module.
type AnalyticsService struct {
	repo     repository.AnalyticsRepository
	cache    cache.Store
	insights insights.Client
	scorer   *SustainabilityScorer
	flights  singleflight.Group
	now      func() time.Time
}

func NewAnalyticsService(repo repository.AnalyticsRepository, store cache.Store, insightClient insights.Client) *AnalyticsService {
	if store == nil {
		store = cache.Noop{}
	}
	if insightClient == nil {
		insightClient = insights.Disabled{}
	}
	return &AnalyticsService{
		repo:     repo,
		cache:    store,
		insights: insightClient,
		scorer:   NewSustainabilityScorer(repo),
		now:      time.Now,
	}
}

// GetDashboard returns revenue, expenses, activity volume and sustainability for the caller's organization.
func (s *AnalyticsService) GetDashboard(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery) (*models.AnalyticsResponse, error) {
	return s.run(ctx, caller, q, moduleSpec{
		name: models.ModuleDashboard, resource: ResourceDashboard, label: "dashboard",
		cacheable: true, compute: s.computeDashboard,
	})
}

// GetFinancial returns revenue, expenses and order value figures.
func (s *AnalyticsService) GetFinancial(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery) (*models.AnalyticsResponse, error) {
	return s.run(ctx, caller, q, moduleSpec{
		name: models.ModuleFinancial, resource: ResourceFinancial, label: "financial",
		cacheable: true, compute: s.computeFinancial,
	})
}

// GetActivity returns activity completion and, on request, efficiency and cost figures.
func (s *AnalyticsService) GetActivity(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery) (*models.AnalyticsResponse, error) {
	return s.run(ctx, caller, q, moduleSpec{
		name: models.ModuleActivities, resource: ResourceActivities, label: "activity",
		cacheable: true, compute: s.computeActivity,
	})
}

// GetMarket returns sales, buyer retention and price trend figures.
func (s *AnalyticsService) GetMarket(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery) (*models.AnalyticsResponse, error) {
	return s.run(ctx, caller, q, moduleSpec{
		name: models.ModuleMarket, resource: ResourceMarket, label: "market",
		cacheable: true, compute: s.computeMarket,
	})
}

// GetFarmToMarket follows crop cycles through harvests to orders. It is always computed fresh.
func (s *AnalyticsService) GetFarmToMarket(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery) (*models.AnalyticsResponse, error) {
	return s.run(ctx, caller, q, moduleSpec{
		name: models.ModuleFarmToMarket, resource: ResourceFarmToMarket, label: "farm-to-market",
		cacheable: false, compute: s.computeFarmToMarket,
	})
}

// Compute dispatches to the module named by an export request.
func (s *AnalyticsService) Compute(ctx context.Context, caller models.Caller, module string, q *models.AnalyticsQuery) (*models.AnalyticsResponse, error) {
	switch module {
	case models.ModuleDashboard:
		return s.GetDashboard(ctx, caller, q)
	case models.ModuleFinancial:
		return s.GetFinancial(ctx, caller, q)
	case models.ModuleActivities:
		return s.GetActivity(ctx, caller, q)
	case models.ModuleMarket:
		return s.GetMarket(ctx, caller, q)
	case models.ModuleFarmToMarket:
		return s.GetFarmToMarket(ctx, caller, q)
	default:
		return nil, newValidationError("unknown analytics module %q", module)
	}
}

func (s *AnalyticsService) run(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery, mod moduleSpec) (*models.AnalyticsResponse, error) {
	now := s.now()
	NormalizeQuery(q)
	if err := validateAnalyticsQueryAt(q, now); err != nil {
		return nil, err
	}
	if err := s.checkFarm(ctx, caller, q.FarmID, mod.label); err != nil {
		return nil, err
	}

	key := CacheKey(mod.name, caller.OrganizationID, q)
	useCache := mod.cacheable && q.UseCache

	if useCache {
		var cached models.AnalyticsResponse
		ok, err := cache.GetJSON(ctx, s.cache, key, &cached)
		switch {
		case err != nil:
			observability.CacheLookups.WithLabelValues(mod.name, observability.CacheError).Inc()
			logger.Warn("Analytics cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		case ok:
			observability.CacheLookups.WithLabelValues(mod.name, observability.CacheHit).Inc()
			return &cached, nil
		default:
			observability.CacheLookups.WithLabelValues(mod.name, observability.CacheMiss).Inc()
		}
	} else {
		observability.CacheLookups.WithLabelValues(mod.name, observability.CacheBypass).Inc()
	}

	// The computation is shared by every caller collapsed onto the flight, so it must not die with
	// the request that happened to start it.
	flightCtx := context.WithoutCancel(ctx)
	flight := s.flights.DoChan(flightKey(key, useCache, caller, q), func() (interface{}, error) {
		started := time.Now()
		where := BuildWhereClause(caller, q, now)

		attrs, err := mod.compute(flightCtx, caller, q, where, now)
		if err != nil {
			observability.AggregationFailures.WithLabelValues(mod.name).Inc()
			logger.Error("Failed to compute analytics",
				slog.String("module", mod.name),
				slog.String("organization_id", caller.OrganizationID),
				slog.String("error", err.Error()),
			)
			return nil, &InternalError{Message: fmt.Sprintf("Failed to retrieve %s analytics", mod.label), Err: err}
		}
		observability.ObserveAggregation(mod.name, started)

		attrs.Period = q.Period
		attrs.FarmID = q.FarmID
		attrs.GeneratedAt = now
		if mod.cacheable {
			attrs.CacheKey = key
		}
		if attrs.Insights == nil {
			attrs.Insights = []models.AnalyticsInsight{}
		}

		resp := &models.AnalyticsResponse{Data: models.AnalyticsResource{
			Type:       mod.resource,
			ID:         HashQuery(q),
			Attributes: *attrs,
		}}

		if useCache {
			if err := cache.SetJSON(flightCtx, s.cache, key, resp, AnalyticsCacheTTL); err != nil {
				logger.Warn("Analytics cache write failed", slog.String("key", key), slog.String("error", err.Error()))
			}
		}
		return resp, nil
	})

	select {
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.AnalyticsResponse), nil
	case <-ctx.Done():
		return nil, &InternalError{Message: fmt.Sprintf("Failed to retrieve %s analytics", mod.label), Err: ctx.Err()}
	}
}

// flightKey identifies computations that may be shared. Insight requests carry the caller's user id
// to the gateway, so they are only shared by the same user.
func flightKey(cacheKey string, useCache bool, caller models.Caller, q *models.AnalyticsQuery) string {
	key := cacheKey + ":" + strconv.FormatBool(useCache)
	if q.IncludeInsights {
		key += ":" + caller.UserID
	}
	return key
}

func (s *AnalyticsService) checkFarm(ctx context.Context, caller models.Caller, farmID *string, label string) error {
	if farmID == nil {
		return nil
	}
	ok, err := s.repo.FarmExists(ctx, caller.OrganizationID, *farmID)
	if err != nil {
		logger.Error("Farm lookup failed", slog.String("farm_id", *farmID), slog.String("error", err.Error()))
		return &InternalError{Message: fmt.Sprintf("Failed to retrieve %s analytics", label), Err: err}
	}
	if !ok {
		return &NotFoundError{Resource: "farm", ID: *farmID}
	}
	return nil
}

// GetInsights asks the insight service for a yield prediction. It never fails because the insight service
// is unavailable: the caller gets an empty list instead.
func (s *AnalyticsService) GetInsights(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery) (*models.InsightsResponse, error) {
	now := s.now()
	NormalizeQuery(q)
	if err := validateAnalyticsQueryAt(q, now); err != nil {
		return nil, err
	}
	if err := s.checkFarm(ctx, caller, q.FarmID, "insights"); err != nil {
		return nil, err
	}

	key := CacheKey(models.ModuleInsights, caller.OrganizationID, q)
	if q.UseCache {
		var cached models.InsightsResponse
		ok, err := cache.GetJSON(ctx, s.cache, key, &cached)
		if err != nil {
			logger.Warn("Insights cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		} else if ok {
			observability.CacheLookups.WithLabelValues(models.ModuleInsights, observability.CacheHit).Inc()
			return &cached, nil
		}
		observability.CacheLookups.WithLabelValues(models.ModuleInsights, observability.CacheMiss).Inc()
	}

	where := BuildWhereClause(caller, q, now)
	id := HashQuery(q)
	result, err := s.insights.Generate(ctx, insights.Request{
		OrganizationID: caller.OrganizationID,
		UserID:         caller.UserID,
		FarmID:         q.FarmID,
		AnalysisType:   insights.AnalysisYieldPrediction,
		Data: map[string]any{
			"period": q.Period,
			"window": where.CreatedAt,
		},
	})

	resp := &models.InsightsResponse{Data: models.InsightsResource{
		Type: ResourceInsights,
		ID:   id,
		Attributes: models.InsightsAttributes{
			Insights:        []models.AnalyticsInsight{},
			Recommendations: []string{},
			Model:           insights.DefaultModel,
			GeneratedAt:     now,
		},
	}}

	if err != nil {
		logInsightFailure(caller, err)
		return resp, nil
	}

	attrs := &resp.Data.Attributes
	attrs.Insights = toAnalyticsInsights(id, result, now)
	if result.Recommendations != nil {
		attrs.Recommendations = result.Recommendations
	}
	attrs.Model = result.Model
	attrs.Confidence = result.Confidence

	if q.UseCache {
		if err := cache.SetJSON(ctx, s.cache, key, resp, InsightsCacheTTL); err != nil {
			logger.Warn("Insights cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return resp, nil
}

// attachInsights enriches a module document. Any failure yields an empty list.
func (s *AnalyticsService) attachInsights(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery, analysisType string, data any, now time.Time) []models.AnalyticsInsight {
	if !q.IncludeInsights {
		return []models.AnalyticsInsight{}
	}
	result, err := s.insights.Generate(ctx, insights.Request{
		OrganizationID: caller.OrganizationID,
		UserID:         caller.UserID,
		FarmID:         q.FarmID,
		AnalysisType:   analysisType,
		Data:           data,
	})
	if err != nil {
		logInsightFailure(caller, err)
		return []models.AnalyticsInsight{}
	}
	if insight, ok := summarizeInsights(HashQuery(q), result, now); ok {
		return []models.AnalyticsInsight{insight}
	}
	return []models.AnalyticsInsight{}
}

func logInsightFailure(caller models.Caller, err error) {
	level := slog.LevelWarn
	if errors.Is(err, insights.ErrUnavailable) {
		level = slog.LevelDebug
	}
	logger.Log.Log(context.Background(), level, "Insight generation skipped",
		slog.String("organization_id", caller.OrganizationID),
		slog.String("error", err.Error()),
	)
}

// Defaults for insights attached to module documents
const (
	insightCategoryPerformance = "performance"
	insightPriorityMedium      = "medium"
)

// summarizeInsights folds a gateway result into the single record embedded in dashboard and financial documents.
func summarizeInsights(id string, result *insights.Result, now time.Time) (models.AnalyticsInsight, bool) {
	texts := make([]string, 0, len(result.Insights))
	for _, text := range result.Insights {
		if text = strings.TrimSpace(text); text != "" {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return models.AnalyticsInsight{}, false
	}
	recommendations := result.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}
	return models.AnalyticsInsight{
		ID:              id,
		Type:            "ai_generated",
		Title:           insightTitle(texts[0]),
		Description:     strings.Join(texts, " "),
		Category:        insightCategoryPerformance,
		Priority:        insightPriorityMedium,
		Impact:          insightPriorityMedium,
		Confidence:      result.Confidence,
		Recommendations: recommendations,
		GeneratedAt:     now,
	}, true
}

func toAnalyticsInsights(idPrefix string, result *insights.Result, now time.Time) []models.AnalyticsInsight {
	out := make([]models.AnalyticsInsight, 0, len(result.Insights))
	impact := "medium"
	if result.Confidence >= 0.8 {
		impact = "high"
	}
	for i, text := range result.Insights {
		out = append(out, models.AnalyticsInsight{
			ID:              fmt.Sprintf("%s-%d", idPrefix, i+1),
			Type:            "ai_generated",
			Title:           insightTitle(text),
			Description:     text,
			Category:        insightCategoryPerformance,
			Priority:        insightPriorityMedium,
			Impact:          impact,
			Confidence:      result.Confidence,
			Recommendations: result.Recommendations,
			GeneratedAt:     now,
		})
	}
	return out
}

func insightTitle(text string) string {
	title := text
	if i := strings.IndexAny(title, ".!?"); i > 0 {
		title = title[:i]
	}
	if r := []rune(title); len(r) > 80 {
		title = string(r[:77]) + "..."
	}
	return title
}
