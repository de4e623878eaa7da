package controllers

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/pkg/cache"
	"github.com/shashiranjanraj/pehnawa/pkg/ctx"
	"github.com/shashiranjanraj/pehnawa/pkg/database"
	"github.com/shashiranjanraj/pehnawa/pkg/response"
)

type HealthController struct {
	db    *gorm.DB
	cache *cache.Store
}

func NewHealthController(db *gorm.DB, store *cache.Store) *HealthController {
	return &HealthController{db: db, cache: store}
}

// Show answers 200 while the database pings and 503 otherwise. The cache is
// reported but never fails the check.
func (hc *HealthController) Show(c *ctx.Context) {
	pingCtx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "database": "up", "cache": "disabled"}
	if err := database.Ping(pingCtx, hc.db); err != nil {
		status["status"] = "unavailable"
		status["database"] = "down"
	}
	if hc.cache != nil {
		status["cache"] = "up"
		if err := hc.cache.Ping(pingCtx); err != nil {
			status["cache"] = "down"
		}
	}

	if status["database"] == "down" {
		response.JSON(c.W, http.StatusServiceUnavailable, response.Envelope{Message: "Database unavailable", Data: status})
		return
	}
	c.Success(status)
}
