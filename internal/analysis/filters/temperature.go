package filters

import (
	"context"
	"errors"
	"sync"

	"github.com/apex/log"
	"go.uber.org/atomic"

	"github.com/jengzang/urban-twin-go/internal/analysis"
	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/models"
	"github.com/jengzang/urban-twin-go/internal/spatial"
	"github.com/jengzang/urban-twin-go/internal/stats"
)

var errNoTemperature = errors.New("forecast has no temperature value")

func init() {
	analysis.RegisterAnalyzer(aoi.FilterTemperature, NewTemperatureAnalyzer)
}

// TemperatureAnalyzer samples the AOI grid and reports temperatures in
// Fahrenheit, with the per-point values the heatmap is rendered from.
// Each owner has at most one temperature analysis in flight.
type TemperatureAnalyzer struct {
	*analysis.BaseAnalyzer

	mu   sync.Mutex
	busy map[string]*atomic.Bool
}

// NewTemperatureAnalyzer creates a new temperature analyzer
func NewTemperatureAnalyzer(deps analysis.Deps) analysis.Analyzer {
	return &TemperatureAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(deps, aoi.FilterTemperature),
		busy:         make(map[string]*atomic.Bool),
	}
}

// Analyze performs the temperature analysis
func (a *TemperatureAnalyzer) Analyze(ctx context.Context, req analysis.Request) models.AnalysisResult {
	id := string(a.ID)
	busy := a.busyFlag(req.Owner)
	if !busy.CompareAndSwap(false, true) {
		return models.NewInProgressResult(id, "Temperature analysis already in progress")
	}
	defer busy.Store(false)

	points := a.Sampler.Sample(req.Area, 0)
	if len(points) == 0 {
		return models.NewNoDataResult(id, "No sample points fall inside this area")
	}

	samples, failed := analysis.FanOut(ctx, a.FanOutOptions(), points,
		func(ctx context.Context, p spatial.LonLat) (float64, error) {
			fc, err := a.Weather.GridForecast(ctx, p.Lat, p.Lon)
			if err != nil {
				return 0, err
			}
			if fc.TemperatureF == nil {
				return 0, errNoTemperature
			}
			return *fc.TemperatureF, nil
		})

	log.WithFields(log.Fields{
		"owner":   req.Owner,
		"sampled": len(points),
		"failed":  failed,
	}).Debug("temperature samples collected")

	if len(samples) == 0 {
		return models.NewNoDataResult(id, "No temperature data available for this area")
	}

	values := make([]float64, len(samples))
	result := &models.TemperatureResult{
		Points:  make([]models.TemperaturePoint, len(samples)),
		Sampled: len(points),
		Failed:  failed,
	}
	for i, s := range samples {
		values[i] = s.Value
		result.Points[i] = models.TemperaturePoint{Lon: s.Point.Lon, Lat: s.Point.Lat, ValueF: s.Value}
	}
	sum := stats.Summarize(values)
	result.Min, result.Max, result.Avg = sum.Min, sum.Max, sum.Mean

	return models.AnalysisResult{Filter: id, Status: models.ResultStatusOK, Temperature: result}
}

func (a *TemperatureAnalyzer) busyFlag(owner string) *atomic.Bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	flag, ok := a.busy[owner]
	if !ok {
		flag = atomic.NewBool(false)
		a.busy[owner] = flag
	}
	return flag
}
