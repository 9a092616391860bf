package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"koreafit/internal/models/request_models"
	"koreafit/internal/services"
	"koreafit/pkg/utils"
)

type ContentController struct {
	contentService      services.ContentService
	notificationService services.NotificationService
}

func NewContentController(contentService services.ContentService, notificationService services.NotificationService) *ContentController {
	return &ContentController{
		contentService:      contentService,
		notificationService: notificationService,
	}
}

// GenerateContent godoc
// @Summary Generate marketing or briefing content
// @Description Admin only. type is one of newsletter, regulatory_summary, social_posts, expert_content
// @Tags Content
// @Accept json
// @Produce json
// @Param request body request_models.ContentRequest true "Content request"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/content [post]
func (h *ContentController) GenerateContent(c *gin.Context) {
	var req request_models.ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	result, err := h.contentService.Generate(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, "Content generated")
}

// Notify godoc
// @Summary Newsletter subscription and ad-hoc sends
// @Description action is one of subscribe, unsubscribe, send_test, send_alert.
// @Description send_test is admin only. send_alert needs a plan with regulatory alerts and goes to the caller's own address.
// @Tags Notifications
// @Accept json
// @Produce json
// @Param request body request_models.NotificationRequest true "Notification request"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 422 {object} utils.APIResponse
// @Router /api/notifications [post]
func (h *ContentController) Notify(c *gin.Context) {
	var req request_models.NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	caller := callerFrom(c)
	if caller.Anonymous() && (req.Action == request_models.ActionSendTest || req.Action == request_models.ActionSendAlert) {
		utils.RespondError(c, http.StatusUnauthorized, "Sign in to send notifications")
		return
	}

	result, err := h.notificationService.Handle(c.Request.Context(), req, caller)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, result.Message)
}

// DeliveryEvent godoc
// @Summary Email provider delivery webhook
// @Description Bounces and complaints deactivate the recipient. Other events are ignored.
// @Tags Notifications
// @Accept json
// @Produce json
// @Param request body request_models.DeliveryEvent true "Delivery event"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /api/notifications [put]
func (h *ContentController) DeliveryEvent(c *gin.Context) {
	var ev request_models.DeliveryEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		utils.RespondErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	result, err := h.notificationService.HandleDeliveryEvent(c.Request.Context(), ev)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, "Event processed")
}
