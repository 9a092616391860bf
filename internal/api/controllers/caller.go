package controllers

import (
	"github.com/gin-gonic/gin"

	"koreafit/internal/services"
	"koreafit/pkg/middleware"
)

// callerFrom reads what the auth middleware left on the context. Without a
// token only the client IP is set.
func callerFrom(c *gin.Context) services.Caller {
	return services.Caller{
		UserID:   c.GetString(middleware.CtxUserID),
		Email:    c.GetString(middleware.CtxEmail),
		IsAdmin:  c.GetBool(middleware.CtxIsAdmin),
		ClientIP: c.ClientIP(),
	}
}
