package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/urban-twin-go/internal/middleware"
	"github.com/jengzang/urban-twin-go/internal/models"
	"github.com/jengzang/urban-twin-go/internal/service"
	"github.com/jengzang/urban-twin-go/pkg/response"
)

// AOIHandler handles HTTP requests for the area of interest
type AOIHandler struct {
	service *service.AreaService
}

// NewAOIHandler creates a new AOI handler
func NewAOIHandler(service *service.AreaService) *AOIHandler {
	return &AOIHandler{service: service}
}

func (h *AOIHandler) reply(c *gin.Context, resp models.AOIResponse, err error) {
	if err != nil {
		respondError(c, err, resp)
		return
	}
	response.Success(c, resp)
}

// Get handles GET /api/v1/aoi
func (h *AOIHandler) Get(c *gin.Context) {
	response.Success(c, h.service.View(middleware.Owner(c)))
}

// BuildRectangle handles POST /api/v1/aoi/rectangle
func (h *AOIHandler) BuildRectangle(c *gin.Context) {
	var req models.RectangleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.service.BuildRectangle(middleware.Owner(c), req)
	h.reply(c, resp, err)
}

// BuildPolygon handles POST /api/v1/aoi/polygon
func (h *AOIHandler) BuildPolygon(c *gin.Context) {
	var req models.PolygonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.service.BuildPolygon(middleware.Owner(c), req)
	h.reply(c, resp, err)
}

// PlaceBoundary handles POST /api/v1/aoi/boundary
func (h *AOIHandler) PlaceBoundary(c *gin.Context) {
	var req models.BoundaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.service.PlaceBoundary(middleware.Owner(c), req)
	h.reply(c, resp, err)
}

// HandleEvent handles POST /api/v1/aoi/events
func (h *AOIHandler) HandleEvent(c *gin.Context) {
	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.service.HandleEvent(middleware.Owner(c), req)
	h.reply(c, resp, err)
}

// DragCorner handles PUT /api/v1/aoi/corner
func (h *AOIHandler) DragCorner(c *gin.Context) {
	var req models.CornerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.service.DragCorner(middleware.Owner(c), req)
	h.reply(c, resp, err)
}

// Activate handles POST /api/v1/aoi/activate
func (h *AOIHandler) Activate(c *gin.Context) {
	resp, err := h.service.Activate(middleware.Owner(c))
	h.reply(c, resp, err)
}

// Deactivate handles POST /api/v1/aoi/deactivate
func (h *AOIHandler) Deactivate(c *gin.Context) {
	resp, err := h.service.Deactivate(middleware.Owner(c))
	h.reply(c, resp, err)
}

// Delete handles DELETE /api/v1/aoi
func (h *AOIHandler) Delete(c *gin.Context) {
	resp, err := h.service.Delete(middleware.Owner(c))
	h.reply(c, resp, err)
}

// SetFilters handles PUT /api/v1/aoi/filters
func (h *AOIHandler) SetFilters(c *gin.Context) {
	var req models.FiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.service.SetFilters(middleware.Owner(c), req)
	h.reply(c, resp, err)
}

// Samples handles GET /api/v1/aoi/samples
func (h *AOIHandler) Samples(c *gin.Context) {
	var filter models.SampleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.service.Samples(middleware.Owner(c), filter.Density)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, resp)
}
