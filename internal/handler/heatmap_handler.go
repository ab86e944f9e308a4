package handler

import (
	"bytes"
	"image"
	"image/png"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/urban-twin-go/internal/middleware"
	"github.com/jengzang/urban-twin-go/internal/models"
	"github.com/jengzang/urban-twin-go/internal/service"
)

// HeatmapHandler serves temperature heatmaps as PNG
type HeatmapHandler struct {
	service *service.HeatmapService
}

// NewHeatmapHandler creates a new heatmap handler
func NewHeatmapHandler(service *service.HeatmapService) *HeatmapHandler {
	return &HeatmapHandler{service: service}
}

// Render handles POST /api/v1/heatmap
func (h *HeatmapHandler) Render(c *gin.Context) {
	var filter models.HeatmapFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, err)
		return
	}

	img, err := h.service.Render(middleware.Owner(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	writePNG(c, img)
}

// Recolor handles GET /api/v1/heatmap
func (h *HeatmapHandler) Recolor(c *gin.Context) {
	var filter models.HeatmapFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, err)
		return
	}

	img, err := h.service.Recolor(middleware.Owner(c), filter.Opacity)
	if err != nil {
		respondError(c, err)
		return
	}
	writePNG(c, img)
}

func writePNG(c *gin.Context, img image.Image) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
