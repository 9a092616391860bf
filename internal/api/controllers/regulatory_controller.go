package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"koreafit/internal/models/request_models"
	"koreafit/internal/services"
	"koreafit/pkg/utils"
)

const defaultUpdatesLimit = 20

type RegulatoryController struct {
	regulatoryService services.RegulatoryService
	entitlements      services.EntitlementService
}

func NewRegulatoryController(regulatoryService services.RegulatoryService, entitlements services.EntitlementService) *RegulatoryController {
	return &RegulatoryController{
		regulatoryService: regulatoryService,
		entitlements:      entitlements,
	}
}

// Analyze godoc
// @Summary Regulatory risk analysis for an idea
// @Description Keyword heuristics with a small random jitter. Not legal advice.
// @Tags Regulatory
// @Accept json
// @Produce json
// @Param request body request_models.AnalyzeRequest true "Idea text"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /api/analyze [post]
func (h *RegulatoryController) Analyze(c *gin.Context) {
	var req request_models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	analysis, err := h.regulatoryService.Analyze(c.Request.Context(), req.IdeaText)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, analysis, "Analysis completed")
}

// Updates godoc
// @Summary Recent regulatory updates
// @Tags Regulatory
// @Produce json
// @Param industries query string false "Comma separated industries, e.g. fintech,healthcare"
// @Param limit      query int    false "Max items (default: 20)"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /api/regulatory/updates [get]
func (h *RegulatoryController) Updates(c *gin.Context) {
	limit := defaultUpdatesLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.RespondError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	updates, err := h.regulatoryService.Updates(c.Request.Context(), splitCSV(c.Query("industries")), limit)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, updates, "Regulatory updates retrieved successfully")
}

// Alerts godoc
// @Summary High-impact regulatory alerts
// @Tags Regulatory
// @Produce json
// @Param industries query string false "Comma separated industries"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/regulatory/alerts [get]
func (h *RegulatoryController) Alerts(c *gin.Context) {
	if err := h.entitlements.Require(c.Request.Context(), callerFrom(c), services.FeatureRegulatoryAlerts); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	alerts, err := h.regulatoryService.Alerts(c.Request.Context(), splitCSV(c.Query("industries")))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, alerts, "Regulatory alerts retrieved successfully")
}
