package controllers

import (
	"github.com/gin-gonic/gin"

	"koreafit/internal/services"
	"koreafit/pkg/utils"
)

type NewsletterController struct {
	newsletterService services.NewsletterService
}

func NewNewsletterController(newsletterService services.NewsletterService) *NewsletterController {
	return &NewsletterController{newsletterService: newsletterService}
}

// RunNewsletterCron godoc
// @Summary Weekly newsletter job
// @Description Assembles the newsletter, runs the timeliness and fact-check gates, then sends to every active subscriber. With dry_run=true only the gated preview is returned. A blocked newsletter is reported, not an error.
// @Tags Cron
// @Produce json
// @Param dry_run query bool false "Preview only"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Security CronSecret
// @Router /api/cron/newsletter [get]
// @Router /api/cron/newsletter [post]
func (h *NewsletterController) RunNewsletterCron(c *gin.Context) {
	if c.Query("dry_run") == "true" {
		preview, err := h.newsletterService.Preview(c.Request.Context())
		if err != nil {
			utils.HandleServiceError(c, err)
			return
		}
		utils.RespondSuccess(c, preview, "Newsletter preview generated")
		return
	}

	result, err := h.newsletterService.SendScheduled(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	msg := "Newsletter sent"
	if result.Blocked {
		msg = "Newsletter blocked by content checks"
	}
	utils.RespondSuccess(c, result, msg)
}
