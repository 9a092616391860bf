package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	db  *gorm.DB
	app string
}

func NewHealthController(db *gorm.DB, app string) *HealthController {
	return &HealthController{db: db, app: app}
}

// Health godoc
// @Summary Liveness and database check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *HealthController) Health(c *gin.Context) {
	body := gin.H{"status": "ok", "app": h.app, "database": "skipped"}
	if h.db == nil {
		c.JSON(http.StatusOK, body)
		return
	}

	sqlDB, err := h.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		body["status"] = "degraded"
		body["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["database"] = "ok"
	c.JSON(http.StatusOK, body)
}
