package services

import (
	"context"

	"github.com/agrosync/agrosync-api/internal/models"
	"gorm.io/gorm"
)

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Log records an audit entry on behalf of caller
func (s *AuditService) Log(ctx context.Context, caller models.Caller, action, entity, entityID, details, ip, userAgent string) error {
	entry := &models.AuditLog{
		OrganizationID: caller.OrganizationID,
		UserID:         caller.UserID,
		Action:         action,
		Entity:         entity,
		EntityID:       entityID,
		Details:        details,
		IPAddress:      ip,
		UserAgent:      userAgent,
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

// List retrieves an organization's audit trail, newest first
func (s *AuditService) List(ctx context.Context, organizationID string, limit, offset int) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	query := s.db.WithContext(ctx).Model(&models.AuditLog{}).Where("organization_id = ?", organizationID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&logs)
	return logs, total, result.Error
}
