package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/entity"
)

type JobReader interface {
	Get(ctx context.Context, jobID string) (*entity.ExtractJob, error)
}

type JobHandler struct {
	jobs JobReader
}

func NewJobHandler(jobs JobReader) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Get handles GET /api/v1/jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if err := common.NewValidator().Field("id", id, common.JobID).Error(); err != nil {
		HandleError(c, err)
		return
	}
	job, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	// raw text can be large; it is only exposed through runocr
	view := *job
	view.OCRText = nil
	RespondOK(c, view)
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	ping func(ctx context.Context) error
}

func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database not reachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
