// Package api exposes the jobs HTTP API.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/use-agent/courtsched/api/handler"
	"github.com/use-agent/courtsched/api/middleware"
	"github.com/use-agent/courtsched/config"
	"github.com/use-agent/courtsched/jobs"
)

// maxUploadMemory caps the multipart body buffered in memory.
const maxUploadMemory = 8 << 20

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	Jobs:    Auth (if enabled) → RateLimit
//
// Health and metrics stay outside auth so probes and scrapers always work.
func NewRouter(o *jobs.Orchestrator, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.MaxMultipartMemory = maxUploadMemory

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(o.Registry(), cfg.Session, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/jobs", handler.PostJob(o))
	protected.POST("/jobs/upload", handler.UploadJob(o))
	protected.GET("/jobs/:id", handler.GetJob(o.Registry()))

	return r
}
