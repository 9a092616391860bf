package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"koreafit/internal/config"
	"koreafit/pkg/utils"
)

const (
	CtxUserID  = "user_id"
	CtxEmail   = "email"
	CtxRole    = "role"
	CtxIsAdmin = "is_admin"

	RoleAdmin = "admin"
)

// JWTAuthMiddleware rejects requests without a valid bearer token.
func JWTAuthMiddleware(auth config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, auth) {
			utils.RespondError(c, http.StatusUnauthorized, "Authorization header missing or invalid")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware sets the user when a valid token is present and lets
// anonymous requests through.
func OptionalAuthMiddleware(auth config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, auth)
		c.Next()
	}
}

func authenticate(c *gin.Context, auth config.AuthConfig) bool {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return false
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	claims, err := utils.ValidateToken([]byte(auth.JWTSecret), tokenString)
	if err != nil {
		return false
	}

	// Pass user information to the next handler
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxEmail, claims.Email)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxIsAdmin, claims.Role == RoleAdmin || auth.IsAdmin(claims.Email))
	return true
}

// AdminOnly must run after JWTAuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsAdmin) {
			utils.RespondError(c, http.StatusForbidden, "Forbidden: insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
