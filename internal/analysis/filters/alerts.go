package filters

import (
	"context"
	"math"
	"sort"

	"github.com/jengzang/urban-twin-go/internal/analysis"
	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/models"
	"github.com/jengzang/urban-twin-go/internal/spatial"
)

func init() {
	analysis.RegisterAnalyzer(aoi.FilterWeatherAlerts, NewAlertsAnalyzer)
}

// AlertsAnalyzer lists active weather alerts for the AOI. The bounds centre
// is always queried; a coarse grid inside the shape catches zones that do
// not cover the centre.
type AlertsAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewAlertsAnalyzer creates a new alerts analyzer
func NewAlertsAnalyzer(deps analysis.Deps) analysis.Analyzer {
	return &AlertsAnalyzer{BaseAnalyzer: analysis.NewBaseAnalyzer(deps, aoi.FilterWeatherAlerts)}
}

// Analyze performs the alerts lookup
func (a *AlertsAnalyzer) Analyze(ctx context.Context, req analysis.Request) models.AnalysisResult {
	id := string(a.ID)
	points := a.lookupPoints(req.Area)

	samples, _ := analysis.FanOut(ctx, a.FanOutOptions(), points,
		func(ctx context.Context, p spatial.LonLat) ([]models.Alert, error) {
			return a.Weather.ActiveAlerts(ctx, p.Lat, p.Lon)
		})
	if len(samples) == 0 {
		return models.NewNoDataResult(id, "Unable to retrieve weather alerts for this area")
	}

	alerts := dedupeAlerts(samples)
	res := models.AnalysisResult{
		Filter: id,
		Status: models.ResultStatusOK,
		Alerts: &models.AlertsResult{Alerts: alerts},
	}
	if len(alerts) == 0 {
		res.Message = "No active weather alerts for this area"
	}
	return res
}

// lookupPoints returns the bounds centre followed by the distinct grid
// points, all in degrees
func (a *AlertsAnalyzer) lookupPoints(area aoi.AreaOfInterest) []spatial.LonLat {
	center := area.Bounds().Center().ToDegrees()
	points := []spatial.LonLat{center}
	if a.Options.AlertsDensity <= 1 {
		return points
	}
	for _, p := range a.Sampler.Sample(area, a.Options.AlertsDensity) {
		if !nearlyEqual(p, center) {
			points = append(points, p)
		}
	}
	return points
}

func nearlyEqual(a, b spatial.LonLat) bool {
	return math.Abs(a.Lon-b.Lon) < 1e-9 && math.Abs(a.Lat-b.Lat) < 1e-9
}

var severityRank = map[string]int{
	"Extreme":  0,
	"Severe":   1,
	"Moderate": 2,
	"Minor":    3,
}

func rank(severity string) int {
	if r, ok := severityRank[severity]; ok {
		return r
	}
	return len(severityRank)
}

// dedupeAlerts merges alerts returned for several points, most severe first
func dedupeAlerts(samples []analysis.Sample[[]models.Alert]) []models.Alert {
	seen := make(map[string]struct{})
	out := []models.Alert{}
	for _, s := range samples {
		for _, al := range s.Value {
			key := al.ID
			if key == "" {
				key = al.Event + "|" + al.Headline + "|" + al.AreaDesc
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, al)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i].Severity) < rank(out[j].Severity)
	})
	return out
}
