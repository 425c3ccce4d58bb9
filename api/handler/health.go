package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/courtsched/config"
	"github.com/use-agent/courtsched/jobs"
	"github.com/use-agent/courtsched/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports "degraded" when the session configuration cannot serve jobs.
func Health(registry *jobs.Registry, sessions config.SessionConfig, startTime time.Time) gin.HandlerFunc {
	strategy := sessions.ResolveStrategy("")
	return func(c *gin.Context) {
		active := registry.Active()

		status := "healthy"
		if sessions.Validate() != nil {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:     status,
			Uptime:     time.Since(startTime).Round(time.Second).String(),
			ActiveJobs: active,
			Strategy:   strategy,
			Version:    Version,
		})
	}
}
