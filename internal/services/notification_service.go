package services

import (
	"context"

	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/agrosync/agrosync-api/internal/repository"
)

type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) FindByUser(ctx context.Context, caller models.Caller, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.FindByUser(ctx, caller.OrganizationID, caller.UserID, limit)
}

func (s *NotificationService) NotifyUser(ctx context.Context, organizationID, userID, title, message, notifType string) error {
	notification := &models.Notification{
		OrganizationID:   organizationID,
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: &notifType,
	}
	return s.repo.Create(ctx, notification)
}
