package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/agrosync/agrosync-api/internal/middleware"
	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/gin-gonic/gin"
)

type notificationLister interface {
	FindByUser(ctx context.Context, caller models.Caller, limit int) ([]models.Notification, error)
}

type NotificationHandler struct {
	notificationService notificationLister
}

func NewNotificationHandler(notificationService notificationLister) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// @Summary List Notifications
// @Description Latest notifications for the current user, including export and report completion notices
// @Tags Notifications
// @Produce json
// @Param limit query int false "Maximum items" default(20)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) Index(c *gin.Context) {
	caller, _ := middleware.GetCaller(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	notifications, err := h.notificationService.FindByUser(c.Request.Context(), caller, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}
