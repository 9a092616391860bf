package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"koreafit/internal/models/request_models"
	"koreafit/internal/services"
	"koreafit/pkg/middleware"
	"koreafit/pkg/utils"
)

type ExportController struct {
	exportService services.ExportService
}

func NewExportController(exportService services.ExportService) *ExportController {
	return &ExportController{exportService: exportService}
}

// ExportIdeas godoc
// @Summary Export ideas as a PDF or Excel report
// @Description Requires the matching plan feature and remaining monthly quota.
// @Tags Export
// @Accept json
// @Produce json
// @Param request body request_models.ExportRequest true "Export request"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/export [post]
func (h *ExportController) ExportIdeas(c *gin.Context) {
	var req request_models.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	result, err := h.exportService.ExportByIDs(c.Request.Context(), c.GetString(middleware.CtxUserID), req)
	if err != nil {
		// denied and invalid exports still carry a user-facing result
		if result != nil && errors.Is(err, utils.ErrExportDenied) {
			utils.RespondErrorWithDetails(c, http.StatusForbidden, result.Error, result)
			return
		}
		if result != nil && errors.Is(err, utils.ErrInvalidExport) {
			utils.RespondErrorWithDetails(c, http.StatusBadRequest, result.Error, result)
			return
		}
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, "Export ready")
}

// ExportStatus godoc
// @Summary Export entitlement and usage for the current month
// @Tags Export
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/export [get]
func (h *ExportController) ExportStatus(c *gin.Context) {
	status, err := h.exportService.Status(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, status, "Export status retrieved successfully")
}
