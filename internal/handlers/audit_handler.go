package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/agrosync/agrosync-api/internal/middleware"
	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/agrosync/agrosync-api/internal/services"
	"github.com/gin-gonic/gin"
)

const maxAuditPerPage = 100

type auditLister interface {
	List(ctx context.Context, organizationID string, limit, offset int) ([]models.AuditLog, int64, error)
}

type AuditHandler struct {
	auditService auditLister
}

func NewAuditHandler(auditService auditLister) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary List Audit Logs
// @Description Audit trail of the caller's organization, newest first (admin only)
// @Tags Audit
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(50)
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /audits [get]
func (h *AuditHandler) Index(c *gin.Context) {
	caller, _ := middleware.GetCaller(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxAuditPerPage {
		perPage = 50
	}

	logs, total, err := h.auditService.List(c.Request.Context(), caller.OrganizationID, perPage, (page-1)*perPage)
	if err != nil {
		respondError(c, &services.InternalError{Message: "Failed to retrieve audit logs", Err: err})
		return
	}

	c.JSON(http.StatusOK, gin.H{"audits": logs, "pagination": gin.H{"total": total, "page": page, "per_page": perPage}})
}
