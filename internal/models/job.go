package models

import (
	"encoding/json"
	"time"
)

// Job kinds
const (
	JobKindExport = "export"
	JobKindReport = "report"
)

// Job status constants
const (
	JobStatusProcessing = "processing"
	JobStatusGenerating = "generating"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusExpired    = "expired"
)

// Export and report formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// Analytics modules that can be exported
const (
	ModuleDashboard    = "dashboard"
	ModuleFinancial    = "financial"
	ModuleActivities   = "activities"
	ModuleMarket       = "market"
	ModuleFarmToMarket = "farm-to-market"
	ModuleInsights     = "insights"
)

// AnalyticsJob is the persisted descriptor of an export or report job.
type AnalyticsJob struct {
	ID                  string          `gorm:"primaryKey;type:uuid" json:"id"`
	OrganizationID      string          `gorm:"size:64;not null;index" json:"organization_id"`
	UserID              string          `gorm:"size:64;not null;index" json:"user_id"`
	Kind                string          `gorm:"size:16;not null" json:"kind"`
	Status              string          `gorm:"size:16;not null;index" json:"status"`
	Format              string          `gorm:"size:8;not null" json:"format"`
	Title               string          `gorm:"size:200" json:"title"`
	Request             json.RawMessage `gorm:"type:jsonb;not null" json:"request"`
	FilePath            *string         `json:"-"`
	FileName            *string         `json:"file_name"`
	Error               *string         `gorm:"type:text" json:"error,omitempty"`
	EstimatedCompletion time.Time       `json:"estimated_completion"`
	ExpiresAt           time.Time       `gorm:"index" json:"expires_at"`
	CompletedAt         *time.Time      `json:"completed_at"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// TableName specifies the table name for AnalyticsJob
func (AnalyticsJob) TableName() string {
	return "analytics_jobs"
}

// IsFinished reports whether the job left its pending state
func (j *AnalyticsJob) IsFinished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed || j.Status == JobStatusExpired
}

// ExportRequest describes a one-module analytics export
type ExportRequest struct {
	Type            string  `json:"type" validate:"required,oneof=dashboard financial activities market farm-to-market"`
	Format          string  `json:"format" validate:"required,oneof=csv xlsx pdf json"`
	Period          string  `json:"period" validate:"omitempty,oneof=week month quarter year"`
	FarmID          *string `json:"farmId,omitempty" validate:"omitempty,analytics_id"`
	IncludeCharts   bool    `json:"includeCharts"`
	IncludeInsights bool    `json:"includeInsights"`
}

// ReportRequest describes a multi-farm report
type ReportRequest struct {
	Title              string   `json:"title" validate:"required,max=200"`
	Type               string   `json:"type" validate:"required,oneof=summary financial operational sustainability market"`
	Period             string   `json:"period" validate:"omitempty,oneof=week month quarter year"`
	FarmIDs            []string `json:"farmIds" validate:"required,min=1,max=50,dive,analytics_id"`
	Commodities        []string `json:"commodities,omitempty" validate:"omitempty,max=50,dive,analytics_id"`
	Format             string   `json:"format" validate:"required,oneof=pdf xlsx csv"`
	Recipients         []string `json:"recipients,omitempty" validate:"omitempty,max=20,dive,email"`
	IncludeComparisons bool     `json:"includeComparisons"`
	IncludePredictions bool     `json:"includePredictions"`
}

// JobHandleAttributes is what a caller receives right after submitting a job
type JobHandleAttributes struct {
	Status              string    `json:"status"`
	DownloadURL         string    `json:"downloadUrl"`
	ExpiresAt           time.Time `json:"expiresAt"`
	EstimatedCompletion time.Time `json:"estimatedCompletion"`
}

// JobHandle is the JSON:API resource object for a submitted job
type JobHandle struct {
	Type       string              `json:"type"`
	ID         string              `json:"id"`
	Attributes JobHandleAttributes `json:"attributes"`
}

// JobHandleResponse wraps a JobHandle in a JSON:API document
type JobHandleResponse struct {
	Data JobHandle `json:"data"`
}
