package models

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/spatial"
)

// Picks are degrees; a null pick means the pointer missed the globe.

// RectangleRequest builds a rectangle from two corner picks
type RectangleRequest struct {
	Start *spatial.LonLat `json:"start"`
	End   *spatial.LonLat `json:"end"`
}

// PolygonRequest builds a polygon from vertex picks in order
type PolygonRequest struct {
	Picks []*spatial.LonLat `json:"picks"`
}

// BoundaryRequest places an administrative boundary. Either field may be set.
type BoundaryRequest struct {
	Feature  *geojson.Feature  `json:"feature"`
	Geometry *geojson.Geometry `json:"geometry"`
}

// EventRequest drives the interaction state machine
type EventRequest struct {
	Type   string          `json:"type" binding:"required"`
	Pick   *spatial.LonLat `json:"pick"`
	Corner string          `json:"corner"`
}

// CornerRequest drags one rectangle corner while editing
type CornerRequest struct {
	Corner string          `json:"corner" binding:"required"`
	Pick   *spatial.LonLat `json:"pick"`
}

// FiltersRequest replaces the filter selection
type FiltersRequest struct {
	Filters map[string]bool `json:"filters" binding:"required"`
}

// RunRequest starts an analysis. Empty Filters uses the current selection.
type RunRequest struct {
	Filters []string `json:"filters"`
}

// SampleFilter holds query parameters for the sample endpoint
type SampleFilter struct {
	Density int `form:"density"` // points per side, 0 picks by area
}

// HeatmapFilter holds query parameters for the heatmap endpoints
type HeatmapFilter struct {
	Width   int      `form:"width"`
	Height  int      `form:"height"`
	Opacity *float64 `form:"opacity"` // 0-1
}

// RunFilter holds query parameters for listing runs
type RunFilter struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// AOIResponse is the session view returned by the AOI endpoints
type AOIResponse struct {
	Session  aoi.Snapshot      `json:"session"`
	Geometry *geojson.Geometry `json:"geometry,omitempty"` // degrees
	Summary  *aoi.Summary      `json:"summary,omitempty"`
}

// SamplesResponse lists grid sample points in degrees
type SamplesResponse struct {
	Density int              `json:"density"`
	Count   int              `json:"count"`
	Points  []spatial.LonLat `json:"points"`
}

// RunListResponse is a page of analysis runs
type RunListResponse struct {
	Runs     []AnalysisRun `json:"runs"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}
