package handlers

import (
	"context"
	"net/http"

	"github.com/agrosync/agrosync-api/internal/middleware"
	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/agrosync/agrosync-api/internal/services"
	"github.com/gin-gonic/gin"
)

type analyticsService interface {
	GetDashboard(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery) (*models.AnalyticsResponse, error)
	GetFinancial(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery) (*models.AnalyticsResponse, error)
	GetActivity(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery) (*models.AnalyticsResponse, error)
	GetMarket(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery) (*models.AnalyticsResponse, error)
	GetFarmToMarket(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery) (*models.AnalyticsResponse, error)
	GetInsights(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery) (*models.InsightsResponse, error)
}

type exportService interface {
	ExportAnalytics(ctx context.Context, caller models.Caller, req *models.ExportRequest, ip, userAgent string) (*models.JobHandleResponse, error)
	GenerateReport(ctx context.Context, caller models.Caller, req *models.ReportRequest, ip, userAgent string) (*models.JobHandleResponse, error)
	FindJob(ctx context.Context, caller models.Caller, id string) (*models.AnalyticsJob, error)
	OpenDownload(ctx context.Context, caller models.Caller, id string) (*services.Download, error)
}

type moduleFunc func(ctx context.Context, caller models.Caller, q *models.AnalyticsQuery) (*models.AnalyticsResponse, error)

type AnalyticsHandler struct {
	analyticsSvc analyticsService
	exportSvc    exportService
}

func NewAnalyticsHandler(analyticsSvc analyticsService, exportSvc exportService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsSvc: analyticsSvc,
		exportSvc:    exportSvc,
	}
}

// analyticsParams mirrors the query string shared by every analytics endpoint
type analyticsParams struct {
	Period             string `form:"period"`
	FarmID             string `form:"farmId"`
	IncludeInsights    bool   `form:"includeInsights"`
	UseCache           *bool  `form:"useCache"`
	StartDate          string `form:"startDate"`
	EndDate            string `form:"endDate"`
	ActivityType       string `form:"activityType"`
	CommodityID        string `form:"commodityId"`
	IncludeEfficiency  bool   `form:"includeEfficiency"`
	IncludeCosts       bool   `form:"includeCosts"`
	IncludePredictions bool   `form:"includePredictions"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (p analyticsParams) query() *models.AnalyticsQuery {
	useCache := true
	if p.UseCache != nil {
		useCache = *p.UseCache
	}
	return &models.AnalyticsQuery{
		Period:             p.Period,
		FarmID:             optional(p.FarmID),
		IncludeInsights:    p.IncludeInsights,
		UseCache:           useCache,
		StartDate:          optional(p.StartDate),
		EndDate:            optional(p.EndDate),
		ActivityType:       optional(p.ActivityType),
		CommodityID:        optional(p.CommodityID),
		IncludeEfficiency:  p.IncludeEfficiency,
		IncludeCosts:       p.IncludeCosts,
		IncludePredictions: p.IncludePredictions,
	}
}

func (h *AnalyticsHandler) parseQuery(c *gin.Context) (*models.AnalyticsQuery, bool) {
	var params analyticsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		writeError(c, http.StatusBadRequest, "Validation Error", "Invalid query parameters")
		return nil, false
	}
	return params.query(), true
}

func (h *AnalyticsHandler) serve(c *gin.Context, fn moduleFunc) {
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}
	caller, _ := middleware.GetCaller(c)

	resp, err := fn(c.Request.Context(), caller, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Get Dashboard Analytics
// @Description Revenue, expenses, activity volume and sustainability score for the organization
// @Tags Analytics
// @Produce json
// @Param period query string false "week, month, quarter or year" default(month)
// @Param farmId query string false "Farm ID"
// @Param startDate query string false "Start Date (ISO 8601)"
// @Param endDate query string false "End Date (ISO 8601)"
// @Param includeInsights query bool false "Attach AI insights"
// @Param useCache query bool false "Serve from cache when possible" default(true)
// @Success 200 {object} models.AnalyticsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	h.serve(c, h.analyticsSvc.GetDashboard)
}

// @Summary Get Financial Analytics
// @Description Revenue, expenses, profit margin and order value
// @Tags Analytics
// @Produce json
// @Param period query string false "week, month, quarter or year" default(month)
// @Param farmId query string false "Farm ID"
// @Param includeInsights query bool false "Attach AI insights"
// @Success 200 {object} models.AnalyticsResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /analytics/financial [get]
func (h *AnalyticsHandler) Financial(c *gin.Context) {
	h.serve(c, h.analyticsSvc.GetFinancial)
}

// @Summary Get Activity Analytics
// @Description Activity completion, optionally with efficiency and cost figures
// @Tags Analytics
// @Produce json
// @Param period query string false "week, month, quarter or year" default(month)
// @Param farmId query string false "Farm ID"
// @Param activityType query string false "Activity type"
// @Param includeEfficiency query bool false "Include efficiency metrics"
// @Param includeCosts query bool false "Include cost metrics"
// @Success 200 {object} models.AnalyticsResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /analytics/activities [get]
func (h *AnalyticsHandler) Activities(c *gin.Context) {
	h.serve(c, h.analyticsSvc.GetActivity)
}

// @Summary Get Market Analytics
// @Description Sales volume, buyer retention and price trends
// @Tags Analytics
// @Produce json
// @Param period query string false "week, month, quarter or year" default(month)
// @Param commodityId query string false "Commodity ID"
// @Param includePredictions query bool false "Include price projections"
// @Success 200 {object} models.AnalyticsResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /analytics/market [get]
func (h *AnalyticsHandler) Market(c *gin.Context) {
	h.serve(c, h.analyticsSvc.GetMarket)
}

// @Summary Get Farm-to-Market Analytics
// @Description Crop cycles traced through harvests to orders. Never cached.
// @Tags Analytics
// @Produce json
// @Param period query string false "week, month, quarter or year" default(month)
// @Param farmId query string false "Farm ID"
// @Param commodityId query string false "Commodity ID"
// @Success 200 {object} models.AnalyticsResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /analytics/farm-to-market [get]
func (h *AnalyticsHandler) FarmToMarket(c *gin.Context) {
	h.serve(c, h.analyticsSvc.GetFarmToMarket)
}

// @Summary Get AI Insights
// @Description Insights generated for the organization's current dashboard figures
// @Tags Analytics
// @Produce json
// @Param period query string false "week, month, quarter or year" default(month)
// @Param farmId query string false "Farm ID"
// @Success 200 {object} models.InsightsResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /analytics/insights [get]
func (h *AnalyticsHandler) Insights(c *gin.Context) {
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}
	caller, _ := middleware.GetCaller(c)

	resp, err := h.analyticsSvc.GetInsights(c.Request.Context(), caller, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Export Analytics
// @Description Queues a one-module export. Poll the job or download it once completed.
// @Tags Analytics
// @Accept json
// @Produce json
// @Param request body models.ExportRequest true "Export request"
// @Success 202 {object} models.JobHandleResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /analytics/export [post]
func (h *AnalyticsHandler) Export(c *gin.Context) {
	var req models.ExportRequest
	if err := BindNestedOrFlat(c, "data", &req); err != nil {
		writeError(c, http.StatusBadRequest, "Validation Error", "Invalid request body")
		return
	}
	caller, _ := middleware.GetCaller(c)

	handle, err := h.exportSvc.ExportAnalytics(c.Request.Context(), caller, &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, handle)
}

// @Summary Generate Report
// @Description Queues a multi-farm report, optionally emailed to recipients when ready
// @Tags Analytics
// @Accept json
// @Produce json
// @Param request body models.ReportRequest true "Report request"
// @Success 202 {object} models.JobHandleResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /analytics/reports [post]
func (h *AnalyticsHandler) Reports(c *gin.Context) {
	var req models.ReportRequest
	if err := BindNestedOrFlat(c, "data", &req); err != nil {
		writeError(c, http.StatusBadRequest, "Validation Error", "Invalid request body")
		return
	}
	caller, _ := middleware.GetCaller(c)

	handle, err := h.exportSvc.GenerateReport(c.Request.Context(), caller, &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, handle)
}

// @Summary Get Job
// @Description Status of an export or report job
// @Tags Analytics
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /analytics/jobs/{id} [get]
func (h *AnalyticsHandler) Job(c *gin.Context) {
	caller, _ := middleware.GetCaller(c)

	job, err := h.exportSvc.FindJob(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"type":       "analytics_job",
			"id":         job.ID,
			"attributes": job,
		},
	})
}

// @Summary Download Job Output
// @Description Downloads the file produced by a completed export or report
// @Tags Analytics
// @Produce octet-stream
// @Param id path string true "Job ID"
// @Success 200 {file} file
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 410 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /analytics/exports/{id}/download [get]
func (h *AnalyticsHandler) Download(c *gin.Context) {
	caller, _ := middleware.GetCaller(c)

	download, err := h.exportSvc.OpenDownload(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", download.ContentType)
	c.FileAttachment(download.Path, download.FileName)
}
