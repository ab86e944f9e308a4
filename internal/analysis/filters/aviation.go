package filters

import (
	"context"
	"errors"

	"github.com/jengzang/urban-twin-go/internal/analysis"
	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/models"
	"github.com/jengzang/urban-twin-go/internal/spatial"
	"github.com/jengzang/urban-twin-go/internal/stats"
	"github.com/jengzang/urban-twin-go/internal/weather"
)

var errNoAviationFields = errors.New("forecast has no aviation fields")

func init() {
	analysis.RegisterAnalyzer(aoi.FilterAviation, NewAviationAnalyzer)
}

// AviationAnalyzer averages visibility, wind, sky cover and precipitation
// chance over a fixed-density grid. Wind direction uses the circular mean.
type AviationAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewAviationAnalyzer creates a new aviation analyzer
func NewAviationAnalyzer(deps analysis.Deps) analysis.Analyzer {
	return &AviationAnalyzer{BaseAnalyzer: analysis.NewBaseAnalyzer(deps, aoi.FilterAviation)}
}

// Analyze performs the aviation analysis
func (a *AviationAnalyzer) Analyze(ctx context.Context, req analysis.Request) models.AnalysisResult {
	id := string(a.ID)
	points := a.Sampler.Sample(req.Area, a.Options.AviationDensity)
	if len(points) == 0 {
		return models.NewNoDataResult(id, "No sample points fall inside this area")
	}

	samples, failed := analysis.FanOut(ctx, a.FanOutOptions(), points,
		func(ctx context.Context, p spatial.LonLat) (*weather.GridForecast, error) {
			fc, err := a.Weather.GridForecast(ctx, p.Lat, p.Lon)
			if err != nil {
				return nil, err
			}
			if fc.VisibilityMi == nil && fc.WindSpeedMph == nil && fc.WindDirectionDeg == nil &&
				fc.SkyCoverPct == nil && fc.PrecipChancePct == nil {
				return nil, errNoAviationFields
			}
			return fc, nil
		})
	if len(samples) == 0 {
		return models.NewNoDataResult(id, "No aviation data available for this area")
	}

	var visibility, speed, direction, sky, precip []float64
	for _, s := range samples {
		fc := s.Value
		visibility = appendValue(visibility, fc.VisibilityMi)
		speed = appendValue(speed, fc.WindSpeedMph)
		direction = appendValue(direction, fc.WindDirectionDeg)
		sky = appendValue(sky, fc.SkyCoverPct)
		precip = appendValue(precip, fc.PrecipChancePct)
	}

	return models.AnalysisResult{
		Filter: id,
		Status: models.ResultStatusOK,
		Aviation: &models.AviationResult{
			AvgVisibilityMi:     reduce(visibility, stats.Mean),
			AvgWindSpeedMph:     reduce(speed, stats.Mean),
			AvgWindDirectionDeg: reduce(direction, circularMean),
			WindSteadiness:      reduce(direction, steadiness),
			AvgSkyCoverPct:      reduce(sky, stats.Mean),
			AvgPrecipChancePct:  reduce(precip, stats.Mean),
			Sampled:             len(points),
			Failed:              failed,
		},
	}
}

func appendValue(values []float64, v *float64) []float64 {
	if v == nil {
		return values
	}
	return append(values, *v)
}

// reduce applies f to values, or returns nil when there are none
func reduce(values []float64, f func([]float64) float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := f(values)
	return &v
}

func circularMean(deg []float64) float64 { return spatial.CircularMeanDegrees(deg, nil) }

func steadiness(deg []float64) float64 { return spatial.MeanResultantLengthDegrees(deg, nil) }
