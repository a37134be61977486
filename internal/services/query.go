package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/go-playground/validator/v10"
)

// Cache lifetimes
const (
	AnalyticsCacheTTL = 300 * time.Second
	InsightsCacheTTL  = 600 * time.Second
)

const maxDateRange = 2 // years

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("analytics_id", func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	})
	return v
}

// IsValidIdentifier reports whether id is a well-formed entity identifier.
func IsValidIdentifier(id string) bool {
	return validate.Var(id, "analytics_id") == nil
}

// NormalizeQuery trims string filters, drops empty ones and defaults the period to month.
func NormalizeQuery(q *models.AnalyticsQuery) {
	if q == nil {
		return
	}
	q.Period = strings.ToLower(strings.TrimSpace(q.Period))
	if q.Period == "" {
		q.Period = models.PeriodMonth
	}
	q.FarmID = trimmed(q.FarmID)
	q.StartDate = trimmed(q.StartDate)
	q.EndDate = trimmed(q.EndDate)
	q.ActivityType = trimmed(q.ActivityType)
	if q.ActivityType != nil {
		upper := strings.ToUpper(*q.ActivityType)
		q.ActivityType = &upper
	}
	q.CommodityID = trimmed(q.CommodityID)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ValidateAnalyticsQuery rejects malformed queries with a ValidationError.
func ValidateAnalyticsQuery(q *models.AnalyticsQuery) error {
	return validateAnalyticsQueryAt(q, time.Now())
}

func validateAnalyticsQueryAt(q *models.AnalyticsQuery, now time.Time) error {
	if q == nil {
		return newValidationError("analytics query is required")
	}

	switch q.Period {
	case models.PeriodWeek, models.PeriodMonth, models.PeriodQuarter, models.PeriodYear:
	default:
		return newValidationError("period must be one of week, month, quarter, year")
	}

	if q.FarmID != nil && !IsValidIdentifier(*q.FarmID) {
		return newValidationError("farmId must be a valid identifier")
	}
	if q.CommodityID != nil && !IsValidIdentifier(*q.CommodityID) {
		return newValidationError("commodityId must be a valid identifier")
	}
	if q.ActivityType != nil && !models.IsValidActivityType(*q.ActivityType) {
		return newValidationError("activityType must be one of %s", strings.Join(models.ActivityTypes, ", "))
	}

	var start, end time.Time
	var err error
	if q.StartDate != nil {
		if start, err = parseISODate(*q.StartDate, false); err != nil {
			return newValidationError("startDate must be a valid ISO-8601 date")
		}
		if start.After(now) {
			return newValidationError("startDate cannot be in the future")
		}
	}
	if q.EndDate != nil {
		if end, err = parseISODate(*q.EndDate, true); err != nil {
			return newValidationError("endDate must be a valid ISO-8601 date")
		}
	}
	if q.StartDate != nil && q.EndDate != nil {
		if start.After(end) {
			return newValidationError("startDate must be before endDate")
		}
		if start.AddDate(maxDateRange, 0, 0).Before(end) {
			return newValidationError("date range cannot exceed %d years", maxDateRange)
		}
	}

	return nil
}

// parseISODate accepts RFC 3339 timestamps and plain dates. A plain end date covers the whole day.
func parseISODate(value string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// BuildWhereClause scopes a query to the caller's organization. An explicit startDate/endDate pair replaces
// the period window; the upper bound never passes now.
func BuildWhereClause(caller models.Caller, q *models.AnalyticsQuery, now time.Time) models.WhereClause {
	where := models.WhereClause{
		OrganizationID: caller.OrganizationID,
		FarmID:         q.FarmID,
		CreatedAt:      ResolveDateRange(q.Period, now),
	}

	if q.StartDate != nil && q.EndDate != nil {
		start, errStart := parseISODate(*q.StartDate, false)
		end, errEnd := parseISODate(*q.EndDate, true)
		if errStart == nil && errEnd == nil {
			if end.After(now) {
				end = now
			}
			where.CreatedAt = models.DateFilter{Gte: start, Lte: end}
		}
	}

	return where
}

// HashQuery fingerprints the logical content of a normalized query. UseCache is not part of it.
func HashQuery(q *models.AnalyticsQuery) string {
	payload, _ := json.Marshal(q)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:16]
}

// CacheKey is analytics:<module>:<organizationId>:<hash(query)>.
func CacheKey(module, organizationID string, q *models.AnalyticsQuery) string {
	return fmt.Sprintf("analytics:%s:%s:%s", module, organizationID, HashQuery(q))
}
