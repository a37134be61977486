package services

import (
	"context"
	"errors"
	"testing"

	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSustainabilityScorer_Breakdown(t *testing.T) {
	repo := newFakeRepo()
	repo.revenue = 2000
	repo.expenses = 1000
	repo.activities[""] = 10
	repo.activities[models.ActivityStatusCompleted] = 5
	repo.activities["sustainable"] = 4

	b := NewSustainabilityScorer(repo).Breakdown(context.Background(), models.WhereClause{OrganizationID: "org-1"})

	assert.Equal(t, 100.0, b.ResourceEfficiency, "output/input ratio is capped at 100")
	assert.InDelta(t, 74.5, b.WasteReduction, 1e-9)
	assert.InDelta(t, 40.0, b.EnvironmentalImpact, 1e-9)
	assert.InDelta(t, 74.35, b.Score, 1e-9)
}

func TestSustainabilityScorer_NoExpensesNoActivities(t *testing.T) {
	repo := newFakeRepo()
	repo.revenue = 500

	b := NewSustainabilityScorer(repo).Breakdown(context.Background(), models.WhereClause{OrganizationID: "org-1"})

	assert.Zero(t, b.ResourceEfficiency)
	assert.Equal(t, 50.0, b.WasteReduction)
	assert.Zero(t, b.EnvironmentalImpact)
	assert.InDelta(t, 15.0, b.Score, 1e-9)
}

func TestSustainabilityScorer_FailedSubScoresCountAsFifty(t *testing.T) {
	repo := newFakeRepo()
	repo.revenue = 500
	repo.expenses = 1000
	repo.errs["CountActivities"] = errors.New("connection reset")

	b := NewSustainabilityScorer(repo).Breakdown(context.Background(), models.WhereClause{OrganizationID: "org-1"})

	assert.Equal(t, 50.0, b.ResourceEfficiency)
	assert.Equal(t, 50.0, b.WasteReduction)
	assert.Equal(t, 50.0, b.EnvironmentalImpact)
	assert.Equal(t, 50.0, b.Score)
}

func TestSustainabilityScorer_ExtremeInputsStayInRange(t *testing.T) {
	repo := newFakeRepo()
	repo.revenue = -1e12
	repo.expenses = 1e9
	repo.activities[""] = 3

	score := NewSustainabilityScorer(repo).Score(context.Background(), models.WhereClause{OrganizationID: "org-1"})

	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}
