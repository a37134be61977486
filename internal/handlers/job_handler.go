package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type jobStatusService interface {
	GetStatus() map[string]interface{}
}

type JobHandler struct {
	jobService jobStatusService
}

func NewJobHandler(jobSvc jobStatusService) *JobHandler {
	return &JobHandler{
		jobService: jobSvc,
	}
}

// Status returns the current worker status
// @Summary Get background job status
// @Description Get statistics about background jobs (active, finished, failed, queue length)
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobService.GetStatus())
}
