package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: c.GetString("trace_id"),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	RespondErrorWithDetails(c, code, message, nil)
}

func RespondErrorWithDetails(c *gin.Context, code int, message string, details interface{}) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		Error:   message,
		Details: details,
		TraceID: c.GetString("trace_id"),
	})
}

// HandleServiceError maps sentinel errors from the service layer onto HTTP
// statuses. Anything unrecognised is logged and reported as a 500.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrIdeaNotFound):
		RespondError(c, http.StatusNotFound, "Idea not found")
	case errors.Is(err, ErrIdeaTextTooShort):
		RespondError(c, http.StatusBadRequest, "Idea text must be at least 10 characters")
	case errors.Is(err, ErrInvalidPage):
		RespondError(c, http.StatusBadRequest, "Page must be greater than 0")
	case errors.Is(err, ErrInvalidIdea):
		RespondErrorWithDetails(c, http.StatusBadRequest, "Invalid idea", err.Error())
	case errors.Is(err, ErrInvalidPlan):
		RespondError(c, http.StatusBadRequest, "Unknown plan")
	case errors.Is(err, ErrInvalidExport):
		RespondErrorWithDetails(c, http.StatusBadRequest, "Invalid export request", err.Error())
	case errors.Is(err, ErrExportDenied):
		RespondErrorWithDetails(c, http.StatusForbidden, "Export not allowed on current plan", err.Error())
	case errors.Is(err, ErrFeatureLocked):
		RespondErrorWithDetails(c, http.StatusForbidden, "Feature not included in current plan", err.Error())
	case errors.Is(err, ErrUsageLimit):
		RespondErrorWithDetails(c, http.StatusTooManyRequests, "Monthly usage limit reached", err.Error())
	case errors.Is(err, ErrInvalidContentType):
		RespondError(c, http.StatusBadRequest, "type must be one of: newsletter, regulatory_summary, social_posts, expert_content")
	case errors.Is(err, ErrInvalidAction):
		RespondError(c, http.StatusBadRequest, "action must be one of: subscribe, unsubscribe, send_test, send_alert")
	case errors.Is(err, ErrInvalidEmail):
		RespondError(c, http.StatusBadRequest, "A valid email is required")
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNoSubscription):
		RespondErrorWithDetails(c, http.StatusConflict, "Subscription state does not allow this operation", err.Error())
	case errors.Is(err, ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, ErrForbidden):
		RespondError(c, http.StatusForbidden, "Forbidden")
	case errors.Is(err, ErrNewsletterBlocked):
		RespondErrorWithDetails(c, http.StatusUnprocessableEntity, "Newsletter blocked by content checks", err.Error())
	case errors.Is(err, ErrUpstream):
		zap.L().Error("upstream error", zap.Error(err), zap.String("trace_id", c.GetString("trace_id")))
		RespondError(c, http.StatusInternalServerError, "Upstream service unavailable")
	case errors.Is(err, ErrDatabaseError):
		zap.L().Error("database error", zap.Error(err), zap.String("trace_id", c.GetString("trace_id")))
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		zap.L().Error("unknown error", zap.Error(err), zap.String("trace_id", c.GetString("trace_id")))
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
