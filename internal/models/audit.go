package models

import (
	"time"
)

// Audit actions
const (
	AuditActionExport = "EXPORT"
	AuditActionReport = "REPORT"
)

// AuditLog represents a system audit entry
type AuditLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID string    `gorm:"size:64;not null;index" json:"organization_id"`
	UserID         string    `gorm:"size:64;not null" json:"user_id"`
	Action         string    `gorm:"size:50;not null" json:"action"`
	Entity         string    `gorm:"size:50;not null" json:"entity"`
	EntityID       string    `gorm:"size:64" json:"entity_id"`
	Details        string    `gorm:"type:text" json:"details"`
	IPAddress      string    `gorm:"size:45" json:"ip_address"`
	UserAgent      string    `gorm:"size:255" json:"user_agent"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
