package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const HeaderTraceID = "X-Trace-ID"

// TraceIDMiddleware keeps a caller-supplied trace id or mints a new one.
func TraceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(HeaderTraceID)
		if traceID == "" || len(traceID) > 64 {
			traceID = uuid.New().String()
		}
		c.Set("trace_id", traceID)
		c.Writer.Header().Set(HeaderTraceID, traceID)
		c.Next()
	}
}
