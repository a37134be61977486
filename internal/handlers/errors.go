package handlers

import (
	"errors"
	"net/http"

	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/agrosync/agrosync-api/internal/services"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto JSON:API error documents
func respondError(c *gin.Context, err error) {
	var (
		verr  *services.ValidationError
		authz *services.AuthorizationError
		ierr  *services.InternalError
	)

	switch {
	case errors.As(err, &verr):
		writeError(c, http.StatusBadRequest, "Validation Error", verr.Message)
	case errors.Is(err, services.ErrNotFound):
		writeError(c, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &authz):
		writeError(c, http.StatusForbidden, "Forbidden", authz.Error())
	case errors.Is(err, services.ErrJobNotReady):
		writeError(c, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, services.ErrInvalidState):
		writeError(c, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, services.ErrJobExpired):
		writeError(c, http.StatusGone, "Gone", err.Error())
	default:
		_ = c.Error(err)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		detail := "An unexpected error occurred"
		if errors.As(err, &ierr) {
			detail = ierr.Message
		}
		writeError(c, http.StatusInternalServerError, "Internal Server Error", detail)
	}
}

func writeError(c *gin.Context, status int, title, detail string) {
	c.JSON(status, models.NewErrorResponse(status, title, detail))
}
