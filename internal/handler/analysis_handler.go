package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/urban-twin-go/internal/middleware"
	"github.com/jengzang/urban-twin-go/internal/models"
	"github.com/jengzang/urban-twin-go/internal/service"
	"github.com/jengzang/urban-twin-go/pkg/response"
)

// AnalysisHandler handles HTTP requests for analysis runs
type AnalysisHandler struct {
	service *service.AnalysisService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// CreateRun handles POST /api/v1/analysis/runs. The request blocks until
// every filter finished or the area changed.
func (h *AnalysisHandler) CreateRun(c *gin.Context) {
	var req models.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}

	run, err := h.service.Run(c.Request.Context(), middleware.Owner(c), req)
	if err != nil {
		if run != nil {
			respondError(c, err, run)
		} else {
			respondError(c, err)
		}
		return
	}
	response.Success(c, run)
}

// ListRuns handles GET /api/v1/analysis/runs
func (h *AnalysisHandler) ListRuns(c *gin.Context) {
	var filter models.RunFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, err)
		return
	}

	list, err := h.service.ListRuns(middleware.Owner(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, list)
}

// GetRun handles GET /api/v1/analysis/runs/:id
func (h *AnalysisHandler) GetRun(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid run ID")
		return
	}

	run, err := h.service.GetRun(middleware.Owner(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, run)
}
