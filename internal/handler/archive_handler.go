package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/era"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/service"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/timeparse"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/pkg/response"
)

// ArchiveHandler handles HTTP requests for archive state queries
type ArchiveHandler struct {
	service *service.ArchiveService
}

// NewArchiveHandler creates a new archive handler
func NewArchiveHandler(service *service.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{service: service}
}

// ListEras returns the known eras of the archive
// GET /api/v1/eras
func (h *ArchiveHandler) ListEras(c *gin.Context) {
	response.Success(c, gin.H{"eras": h.service.Eras()})
}

// GetState returns the raw packed grid state at an instant
// GET /api/v1/state?t=2024-06-26T20:00:00
func (h *ArchiveHandler) GetState(c *gin.Context) {
	t, ok := h.queryTime(c)
	if !ok {
		return
	}

	state, err := h.service.StateAt(t)
	if err != nil {
		h.stateError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", state)
}

// GetStateImage renders the grid state at an instant as a PNG
// GET /api/v1/state/image?t=2024-06-26T20:00:00
func (h *ArchiveHandler) GetStateImage(c *gin.Context) {
	t, ok := h.queryTime(c)
	if !ok {
		return
	}

	dir, err := os.MkdirTemp("", "omcb-still-")
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	defer os.RemoveAll(dir)

	outPath := filepath.Join(dir, "state.png")
	if err := h.service.ImageAt(t, outPath); err != nil {
		h.stateError(c, err)
		return
	}

	c.File(outPath)
}

// queryTime parses the required ?t= query parameter
func (h *ArchiveHandler) queryTime(c *gin.Context) (time.Time, bool) {
	ts := c.Query("t")
	if ts == "" {
		response.BadRequest(c, "Missing query parameter: t")
		return time.Time{}, false
	}

	parsed, err := timeparse.Datetime(ts)
	if err != nil {
		response.BadRequest(c, err.Error())
		return time.Time{}, false
	}
	return parsed, true
}

// stateError maps a reconstruction failure to an HTTP status
func (h *ArchiveHandler) stateError(c *gin.Context, err error) {
	var oor *era.OutOfRangeError
	if errors.As(err, &oor) {
		response.BadRequest(c, err.Error())
		return
	}
	if errors.Is(err, os.ErrNotExist) {
		response.NotFound(c, err.Error())
		return
	}
	response.InternalError(c, err.Error())
}
