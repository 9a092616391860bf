package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"koreafit/pkg/utils"
)

// CronSecretMiddleware guards scheduler endpoints with a shared bearer
// secret. An empty secret disables the endpoints entirely.
func CronSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if secret == "" || !ok || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			utils.RespondError(c, http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}
