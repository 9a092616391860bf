package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"koreafit/internal/services"
	"koreafit/pkg/utils"
)

type DashboardController struct {
	dashboardService services.DashboardService
}

func NewDashboardController(dashboardService services.DashboardService) *DashboardController {
	return &DashboardController{
		dashboardService: dashboardService,
	}
}

// GetDashboard godoc
// @Summary Get admin dashboard
// @Description KPI block, plan mix with MRR, top categories and most bookmarked ideas
// @Tags Dashboard
// @Produce json
// @Param since     query string false "RFC3339 start (e.g. 2026-10-01T00:00:00+09:00)"
// @Param last_days query int    false "Relative lookback in days (mutually exclusive with since). Default 30"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/admin/dashboard [get]
func (p *DashboardController) GetDashboard(c *gin.Context) {
	sinceStr := c.Query("since")
	lastDaysStr := c.Query("last_days")

	if sinceStr != "" && lastDaysStr != "" {
		utils.RespondError(c, http.StatusBadRequest, "provide either last_days or since (not both)")
		return
	}

	var since time.Time
	switch {
	case lastDaysStr != "":
		d, err := strconv.Atoi(lastDaysStr)
		if err != nil || d <= 0 {
			utils.RespondError(c, http.StatusBadRequest, "last_days must be a positive integer")
			return
		}
		since = time.Now().In(utils.KST()).AddDate(0, 0, -d)
	case sinceStr != "":
		t, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = t
	}

	report, err := p.dashboardService.BuildDashboard(c.Request.Context(), since)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, report, "Dashboard retrieved successfully")
}
