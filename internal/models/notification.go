package models

import (
	"time"
)

// Notification represents an in-app notification for a user
type Notification struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	OrganizationID   string     `gorm:"size:64;not null;index" json:"organization_id"`
	UserID           string     `gorm:"size:64;not null;index" json:"user_id"`
	Title            string     `gorm:"not null" json:"title"`
	Message          string     `gorm:"not null" json:"message"`
	NotificationType *string    `gorm:"index" json:"notification_type"`
	ReadAt           *time.Time `gorm:"index" json:"read_at"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// Notification type constants
const (
	NotificationTypeExportReady  = "analytics_export_ready"
	NotificationTypeExportFailed = "analytics_export_failed"
	NotificationTypeReportReady  = "analytics_report_ready"
	NotificationTypeReportFailed = "analytics_report_failed"
)
