package handlers

import (
	"github.com/agrosync/agrosync-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Analytics    *AnalyticsHandler
	Notification *NotificationHandler
	Job          *JobHandler
	Audit        *AuditHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, checks map[string]HealthCheck) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(checks),
		Analytics:    NewAnalyticsHandler(svcs.Analytics, svcs.Export),
		Notification: NewNotificationHandler(svcs.Notification),
		Job:          NewJobHandler(svcs.Job),
		Audit:        NewAuditHandler(svcs.Audit),
	}
}
