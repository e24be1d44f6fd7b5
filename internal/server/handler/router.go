package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/server/middleware"
)

// NewRouter wires every HTTP route of the converter.
func NewRouter(conv *ConvertHandler, jobs *JobHandler, health *HealthHandler, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestID(), middleware.Logger(logger))

	r.GET("/healthz", health.Liveness)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/convert", conv.Convert)
		v1.GET("/download/:kind/:filename", conv.Download)
		v1.GET("/jobs/:id", jobs.Get)
	}
	return r
}
