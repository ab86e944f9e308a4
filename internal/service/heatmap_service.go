package service

import (
	"fmt"
	"image"
	"sync"

	"github.com/apex/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jengzang/urban-twin-go/internal/analysis"
	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/heatmap"
	"github.com/jengzang/urban-twin-go/internal/metrics"
	"github.com/jengzang/urban-twin-go/internal/models"
)

type temperatureSet struct {
	generation uint64
	area       aoi.AreaOfInterest
	points     []heatmap.ValuedPoint
	lastKey    string
}

// HeatmapService renders the latest temperature result of each owner.
// Rasters are cached per owner, generation and canvas size so an opacity
// change only recolors.
type HeatmapService struct {
	areas    *AreaService
	renderer *heatmap.Renderer

	mu      sync.Mutex
	temps   map[string]*temperatureSet
	rasters *lru.Cache[string, *heatmap.Raster]
}

// NewHeatmapService creates a new heatmap service
func NewHeatmapService(areas *AreaService, renderer *heatmap.Renderer, cacheSize int) (*HeatmapService, error) {
	if cacheSize < 1 {
		cacheSize = 1
	}
	cache, err := lru.New[string, *heatmap.Raster](cacheSize)
	if err != nil {
		return nil, err
	}
	return &HeatmapService{
		areas:    areas,
		renderer: renderer,
		temps:    make(map[string]*temperatureSet),
		rasters:  cache,
	}, nil
}

// StoreTemperature keeps the sample points of a temperature result for
// later rendering
func (s *HeatmapService) StoreTemperature(owner string, generation uint64, area aoi.AreaOfInterest, points []models.TemperaturePoint) {
	valued := make([]heatmap.ValuedPoint, len(points))
	for i, p := range points {
		valued[i] = heatmap.ValuedPoint{Lon: p.Lon, Lat: p.Lat, Value: p.ValueF}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.temps[owner] = &temperatureSet{generation: generation, area: area.Clone(), points: valued}
}

// Render draws the owner's last temperature result. Width and height default
// to the configured canvas; opacity defaults to 1.
func (s *HeatmapService) Render(owner string, filter models.HeatmapFilter) (*image.NRGBA, error) {
	cfg := s.renderer.Config()
	w, h := filter.Width, filter.Height
	if w == 0 {
		w = cfg.Width
	}
	if h == 0 {
		h = cfg.Height
	}
	if w < 0 || h < 0 || w > 4096 || h > 4096 {
		return nil, invalid(heatmap.ErrBadCanvas)
	}
	opacity, err := opacityOf(filter.Opacity)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.current(owner)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s|%d|%dx%d", owner, set.generation, w, h)
	raster, ok := s.rasters.Get(key)
	if !ok {
		timer := prometheus.NewTimer(metrics.HeatmapRenderSeconds)
		raster, err = s.renderer.Render(set.area, set.points, w, h)
		timer.ObserveDuration()
		if err != nil {
			return nil, invalid(err)
		}
		s.rasters.Add(key, raster)
		log.WithFields(log.Fields{
			"owner":  owner,
			"points": len(set.points),
			"size":   fmt.Sprintf("%dx%d", w, h),
		}).Debug("rendered heatmap")
	}
	set.lastKey = key

	return cloneImage(raster.Recolor(opacity)), nil
}

// Recolor re-applies opacity to the owner's last rendered raster
func (s *HeatmapService) Recolor(owner string, opacity *float64) (*image.NRGBA, error) {
	op, err := opacityOf(opacity)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.current(owner)
	if err != nil {
		return nil, err
	}
	raster, ok := s.rasters.Get(set.lastKey)
	if set.lastKey == "" || !ok {
		return nil, ErrNoTemperatureData
	}
	return cloneImage(raster.Recolor(op)), nil
}

// current returns the owner's temperature set if it still belongs to the
// live AOI generation. Callers hold s.mu.
func (s *HeatmapService) current(owner string) (*temperatureSet, error) {
	set, ok := s.temps[owner]
	if !ok {
		return nil, ErrNoTemperatureData
	}
	if !s.areas.Session(owner).IsCurrent(set.generation) {
		delete(s.temps, owner)
		return nil, analysis.ErrStaleArea
	}
	return set, nil
}

func opacityOf(v *float64) (float64, error) {
	if v == nil {
		return 1, nil
	}
	if *v < 0 || *v > 1 {
		return 0, invalid(fmt.Errorf("opacity %g outside [0, 1]", *v))
	}
	return *v, nil
}

// cloneImage detaches the result from the cached raster, which is recolored
// in place
func cloneImage(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
