package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"koreafit/internal/models/request_models"
	"koreafit/internal/services"
	"koreafit/pkg/middleware"
	"koreafit/pkg/utils"
)

type SubscriptionController struct {
	subscriptionService services.SubscriptionService
}

func NewSubscriptionController(subscriptionService services.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{subscriptionService: subscriptionService}
}

// ListPlans godoc
// @Summary List subscription plans
// @Tags Subscription
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /api/plans [get]
func (h *SubscriptionController) ListPlans(c *gin.Context) {
	utils.RespondSuccess(c, h.subscriptionService.ListPlans(), "Plans retrieved successfully")
}

// GetSubscription godoc
// @Summary Get my subscription
// @Description Returns the stored subscription with its effective plan. Users without one are on free.
// @Tags Subscription
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/subscription [get]
func (h *SubscriptionController) GetSubscription(c *gin.Context) {
	view, err := h.subscriptionService.GetSubscription(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, view, "Subscription retrieved successfully")
}

// Subscribe godoc
// @Summary Start a subscription
// @Description Paid plans start in trial. An active subscriber's change is held as pending and the current plan stays in force until activation.
// @Tags Subscription
// @Accept json
// @Produce json
// @Param request body request_models.SubscribeRequest true "Plan"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/subscription [post]
func (h *SubscriptionController) Subscribe(c *gin.Context) {
	var req request_models.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	view, err := h.subscriptionService.Subscribe(c.Request.Context(), c.GetString(middleware.CtxUserID), req.PlanID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, view, "Subscription created")
}

// Activate godoc
// @Summary Activate a user's subscription
// @Description Admin only. Moves a trialing subscription, or a pending plan change, to active for one month.
// @Tags Subscription
// @Accept json
// @Produce json
// @Param request body request_models.ActivateRequest true "User"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/subscription/activate [post]
func (h *SubscriptionController) Activate(c *gin.Context) {
	var req request_models.ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	view, err := h.subscriptionService.Activate(c.Request.Context(), req.UserID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, view, "Subscription activated")
}

// Cancel godoc
// @Summary Cancel my subscription
// @Tags Subscription
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/subscription [delete]
func (h *SubscriptionController) Cancel(c *gin.Context) {
	view, err := h.subscriptionService.Cancel(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, view, "Subscription cancelled")
}
