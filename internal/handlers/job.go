package handlers

import (
	"net/http"

	"github.com/alimgiray/pawrank/internal/services"
	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobService *services.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

type recomputeRequest struct {
	SitterID *string `json:"sitter_id"`
}

// EnqueueRecompute handles POST /api/jobs/recompute. An empty body queues a
// full pass over every sitter.
func (h *JobHandler) EnqueueRecompute(c *gin.Context) {
	var req recomputeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if req.SitterID != nil && *req.SitterID == "" {
		req.SitterID = nil
	}

	job, err := h.jobService.EnqueueRecompute(req.SitterID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// GetJob handles GET /api/jobs/:jobId
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobService.GetJob(c.Param("jobId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}
