package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/models"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/service"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/pkg/response"
)

// JobHandler handles HTTP requests for render jobs
type JobHandler struct {
	service *service.ArchiveService
}

// NewJobHandler creates a new render job handler
func NewJobHandler(service *service.ArchiveService) *JobHandler {
	return &JobHandler{service: service}
}

// CreateJob submits a new render job
// POST /api/v1/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req models.CreateRenderJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	job, err := h.service.CreateJob(&req)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	response.Success(c, job)
}

// GetJob retrieves a render job by ID
// GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := h.service.GetJob(id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, job)
}

// ListJobs retrieves render jobs
// GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	status := c.Query("status")
	limitStr := c.DefaultQuery("limit", "20")
	offsetStr := c.DefaultQuery("offset", "0")

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = 20
	}

	offset, err := strconv.Atoi(offsetStr)
	if err != nil {
		offset = 0
	}

	jobs, err := h.service.ListJobs(status, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{
		"jobs":   jobs,
		"limit":  limit,
		"offset": offset,
	})
}
