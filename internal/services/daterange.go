package services

import (
	"time"

	"github.com/agrosync/agrosync-api/internal/models"
)

// ResolveDateRange maps a reporting period to an inclusive createdAt window ending at now. Week is a rolling
// seven days; month, quarter and year are calendar-to-date. Anything else resolves like month.
func ResolveDateRange(period string, now time.Time) models.DateFilter {
	return models.DateFilter{Gte: periodStart(period, now), Lte: now}
}

func periodStart(period string, now time.Time) time.Time {
	year, month, _ := now.Date()
	loc := now.Location()

	switch period {
	case models.PeriodWeek:
		return now.AddDate(0, 0, -7)
	case models.PeriodQuarter:
		quarterMonth := time.Month((int(month)-1)/3*3 + 1)
		return time.Date(year, quarterMonth, 1, 0, 0, 0, 0, loc)
	case models.PeriodYear:
		return time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(year, month, 1, 0, 0, 0, 0, loc)
	}
}

// PeriodEnd is the exclusive end of the calendar window that contains now. A rolling week ends at now.
func PeriodEnd(period string, now time.Time) time.Time {
	start := periodStart(period, now)
	switch period {
	case models.PeriodWeek:
		return now
	case models.PeriodQuarter:
		return start.AddDate(0, 3, 0)
	case models.PeriodYear:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}

// projectToPeriodEnd extrapolates value linearly from the elapsed part of the window to the whole window.
func projectToPeriodEnd(value float64, window models.DateFilter, end time.Time) float64 {
	elapsed := window.Lte.Sub(window.Gte)
	if elapsed <= 0 || !end.After(window.Lte) {
		return value
	}
	total := end.Sub(window.Gte)
	return value * float64(total) / float64(elapsed)
}
