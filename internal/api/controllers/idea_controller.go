package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"koreafit/internal/models/request_models"
	resp "koreafit/internal/models/response_models"
	"koreafit/internal/services"
	"koreafit/pkg/middleware"
	"koreafit/pkg/utils"
)

type IdeaController struct {
	ideaService     services.IdeaService
	bookmarkService services.BookmarkService
	entitlements    services.EntitlementService
}

func NewIdeaController(
	ideaService services.IdeaService,
	bookmarkService services.BookmarkService,
	entitlements services.EntitlementService,
) *IdeaController {
	return &IdeaController{
		ideaService:     ideaService,
		bookmarkService: bookmarkService,
		entitlements:    entitlements,
	}
}

// ListIdeas godoc
// @Summary List ideas
// @Description Filter, sort and paginate the idea catalog. Unscored ideas are enhanced on the fly.
// @Description Execution packs are returned only to plans that include them.
// @Tags Ideas
// @Produce json
// @Param q         query string false "Free-text search over title, summary and tags"
// @Param category  query string false "Category id, or 'all'"
// @Param korea_fit query string false "Inclusive Korea Fit range, e.g. 7-10"
// @Param effort    query int    false "Effort level 1-5"
// @Param sort      query string false "koreaFit | trending | effort | newest (default: koreaFit)"
// @Param page      query int    false "Page number, 1-based (default: 1)"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Router /api/ideas [get]
func (h *IdeaController) ListIdeas(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "page must be an integer")
		return
	}

	filter := services.IdeaFilter{
		Query:         c.Query("q"),
		Category:      c.Query("category"),
		KoreaFitRange: c.Query("korea_fit"),
	}
	if raw := c.Query("effort"); raw != "" {
		effort, convErr := strconv.Atoi(raw)
		if convErr != nil || effort < 1 || effort > 5 {
			utils.RespondError(c, http.StatusBadRequest, "effort must be an integer between 1 and 5")
			return
		}
		filter.Effort = &effort
	}

	key := services.SortKey(c.DefaultQuery("sort", string(services.SortKoreaFit)))
	if !validSortKey(key) {
		utils.RespondError(c, http.StatusBadRequest, "sort must be one of: koreaFit, trending, effort, newest")
		return
	}

	result, err := h.ideaService.ListIdeas(c.Request.Context(), filter, key, page)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	result.Items = h.entitlements.RedactIdeas(c.Request.Context(), callerFrom(c), result.Items)
	utils.RespondSuccess(c, result, "Ideas retrieved successfully")
}

// GetIdea godoc
// @Summary Get idea by ID
// @Description Each view counts against the plan's monthly idea limit. Anonymous views are counted per client IP.
// @Tags Ideas
// @Produce json
// @Param id path string true "Idea ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 429 {object} utils.APIResponse
// @Router /api/ideas/{id} [get]
func (h *IdeaController) GetIdea(c *gin.Context) {
	ctx := c.Request.Context()
	caller := callerFrom(c)

	idea, err := h.ideaService.GetIdea(ctx, c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	if err := h.entitlements.ConsumeIdeaView(ctx, caller); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	redacted := h.entitlements.RedactIdeas(ctx, caller, []resp.Idea{*idea})
	utils.RespondSuccess(c, redacted[0], "Idea retrieved successfully")
}

// CreateIdea godoc
// @Summary Create idea
// @Description Admin only. The idea is scored immediately.
// @Tags Ideas
// @Accept json
// @Produce json
// @Param request body request_models.CreateIdeaRequest true "Idea"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/ideas [post]
func (h *IdeaController) CreateIdea(c *gin.Context) {
	var req request_models.CreateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	idea, err := h.ideaService.CreateIdea(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, idea, "Idea created successfully")
}

// EnhanceAll godoc
// @Summary Re-score every idea
// @Description Admin only. Per-idea failures are counted, not fatal.
// @Tags Ideas
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/ideas/enhance [post]
func (h *IdeaController) EnhanceAll(c *gin.Context) {
	summary, err := h.ideaService.EnhanceAll(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, summary, "Ideas enhanced")
}

// ToggleBookmark godoc
// @Summary Toggle bookmark
// @Tags Bookmarks
// @Produce json
// @Param id path string true "Idea ID"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/ideas/{id}/bookmark [post]
func (h *IdeaController) ToggleBookmark(c *gin.Context) {
	res, err := h.bookmarkService.Toggle(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	msg := "Bookmark removed"
	if res.Bookmarked {
		msg = "Bookmark added"
	}
	utils.RespondSuccess(c, res, msg)
}

// ListBookmarks godoc
// @Summary List my bookmarked ideas
// @Tags Bookmarks
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/bookmarks [get]
func (h *IdeaController) ListBookmarks(c *gin.Context) {
	ideas, err := h.bookmarkService.List(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, h.entitlements.RedactIdeas(c.Request.Context(), callerFrom(c), ideas), "Bookmarks retrieved successfully")
}

func validSortKey(k services.SortKey) bool {
	switch k {
	case services.SortKoreaFit, services.SortTrending, services.SortEffort, services.SortNewest:
		return true
	}
	return false
}

// splitCSV turns "a, b,,c" into [a b c].
func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
