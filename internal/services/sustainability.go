package services

import (
	"context"
	"log/slog"

	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/agrosync/agrosync-api/internal/repository"
	"github.com/agrosync/agrosync-api/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Sustainability weights. They sum to 1.
const (
	resourceEfficiencyWeight  = 0.4
	wasteReductionWeight      = 0.3
	environmentalImpactWeight = 0.3

	// fallbackSubScore replaces a sub-score whose inputs could not be read.
	fallbackSubScore = 50.0
)

// SustainabilityBreakdown is the composite score with its three components, each in [0, 100].
type SustainabilityBreakdown struct {
	Score               float64 `json:"score"`
	ResourceEfficiency  float64 `json:"resourceEfficiency"`
	WasteReduction      float64 `json:"wasteReduction"`
	EnvironmentalImpact float64 `json:"environmentalImpact"`
}

// SustainabilityScorer derives a 0-100 sustainability score from transactions and activities.
type SustainabilityScorer struct {
	repo repository.AnalyticsRepository
}

func NewSustainabilityScorer(repo repository.AnalyticsRepository) *SustainabilityScorer {
	return &SustainabilityScorer{repo: repo}
}

// Score never fails: a sub-score that cannot be computed counts as 50.
func (s *SustainabilityScorer) Score(ctx context.Context, where models.WhereClause) float64 {
	return s.Breakdown(ctx, where).Score
}

func (s *SustainabilityScorer) Breakdown(ctx context.Context, where models.WhereClause) SustainabilityBreakdown {
	var b SustainabilityBreakdown

	var g errgroup.Group
	g.Go(func() error {
		b.ResourceEfficiency = s.subScore(ctx, "resource_efficiency", where, s.resourceEfficiency)
		return nil
	})
	g.Go(func() error {
		b.WasteReduction = s.subScore(ctx, "waste_reduction", where, s.wasteReduction)
		return nil
	})
	g.Go(func() error {
		b.EnvironmentalImpact = s.subScore(ctx, "environmental_impact", where, s.environmentalImpact)
		return nil
	})
	_ = g.Wait()

	b.Score = clampScore(resourceEfficiencyWeight*b.ResourceEfficiency +
		wasteReductionWeight*b.WasteReduction +
		environmentalImpactWeight*b.EnvironmentalImpact)
	return b
}

func (s *SustainabilityScorer) subScore(ctx context.Context, name string, where models.WhereClause,
	fn func(context.Context, models.WhereClause) (float64, error)) float64 {
	v, err := fn(ctx, where)
	if err != nil {
		logger.Warn("Sustainability sub-score unavailable",
			slog.String("component", name),
			slog.String("organization_id", where.OrganizationID),
			slog.String("error", err.Error()),
		)
		return fallbackSubScore
	}
	return clampScore(v)
}

// resourceEfficiency is output over input value, capped at 100.
func (s *SustainabilityScorer) resourceEfficiency(ctx context.Context, where models.WhereClause) (float64, error) {
	revenue, err := s.repo.SumTransactions(ctx, where, models.TransactionTypeFarmRevenue)
	if err != nil {
		return 0, err
	}
	expenses, err := s.repo.SumTransactions(ctx, where, models.TransactionTypeFarmExpense)
	if err != nil {
		return 0, err
	}
	if expenses == 0 {
		return 0, nil
	}
	return revenue / expenses * 100, nil
}

// wasteReduction averages activity completion with a cost-efficiency term that drops one point per 1000
// of expenses.
func (s *SustainabilityScorer) wasteReduction(ctx context.Context, where models.WhereClause) (float64, error) {
	total, err := s.repo.CountActivities(ctx, where, repository.ActivityFilter{})
	if err != nil {
		return 0, err
	}
	completed, err := s.repo.CountActivities(ctx, where, repository.ActivityFilter{Status: models.ActivityStatusCompleted})
	if err != nil {
		return 0, err
	}
	expenses, err := s.repo.SumTransactions(ctx, where, models.TransactionTypeFarmExpense)
	if err != nil {
		return 0, err
	}

	completionRate := percentOf(float64(completed), float64(total))
	costEfficiency := clampScore(100 - expenses/1000)
	return (completionRate + costEfficiency) / 2, nil
}

// environmentalImpact is the share of activities that are sustainable practices.
func (s *SustainabilityScorer) environmentalImpact(ctx context.Context, where models.WhereClause) (float64, error) {
	total, err := s.repo.CountActivities(ctx, where, repository.ActivityFilter{})
	if err != nil {
		return 0, err
	}
	sustainable, err := s.repo.CountActivities(ctx, where, repository.ActivityFilter{Types: models.SustainableActivityTypes})
	if err != nil {
		return 0, err
	}
	return percentOf(float64(sustainable), float64(total)), nil
}
