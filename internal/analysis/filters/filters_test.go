package filters

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/urban-twin-go/internal/analysis"
	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/models"
	"github.com/jengzang/urban-twin-go/internal/spatial"
	"github.com/jengzang/urban-twin-go/internal/weather"
)

type fakeWeather struct {
	forecast func(ctx context.Context, lat, lon float64) (*weather.GridForecast, error)
	alerts   func(ctx context.Context, lat, lon float64) ([]models.Alert, error)
}

func (f *fakeWeather) GridForecast(ctx context.Context, lat, lon float64) (*weather.GridForecast, error) {
	return f.forecast(ctx, lat, lon)
}

func (f *fakeWeather) ActiveAlerts(ctx context.Context, lat, lon float64) ([]models.Alert, error) {
	return f.alerts(ctx, lat, lon)
}

func ptr(v float64) *float64 { return &v }

// 1 x 1 degree box: 5 x 5 grid with rows at lat 30, 30.25, 30.5, 30.75, 31
func smallArea() aoi.AreaOfInterest {
	sw := spatial.LonLat{Lon: -98, Lat: 30}.ToRadians()
	ne := spatial.LonLat{Lon: -97, Lat: 31}.ToRadians()
	return aoi.NewRectangleAOI(aoi.Rectangle{West: sw.Lon, South: sw.Lat, East: ne.Lon, North: ne.Lat})
}

func deps(src analysis.WeatherSource) analysis.Deps {
	opts := analysis.DefaultOptions()
	opts.LookupTimeout = time.Second
	return analysis.Deps{
		Weather: src,
		Sampler: aoi.NewSampler(aoi.DefaultSamplerConfig()),
		Options: opts,
	}
}

func TestTemperature_PartialFailures(t *testing.T) {
	src := &fakeWeather{forecast: func(ctx context.Context, lat, lon float64) (*weather.GridForecast, error) {
		switch {
		case lat < 30.1:
			return nil, errors.New("upstream 500")
		case lat > 30.9:
			return nil, context.DeadlineExceeded
		case lat < 30.4:
			return &weather.GridForecast{TemperatureF: ptr(60)}, nil
		case lat < 30.6:
			return &weather.GridForecast{TemperatureF: ptr(70)}, nil
		}
		return &weather.GridForecast{TemperatureF: ptr(80)}, nil
	}}

	a := NewTemperatureAnalyzer(deps(src))
	res := a.Analyze(context.Background(), analysis.Request{Area: smallArea()})

	require.Equal(t, models.ResultStatusOK, res.Status)
	tr := res.Temperature
	require.NotNil(t, tr)
	assert.Equal(t, 25, tr.Sampled)
	assert.Equal(t, 10, tr.Failed)
	assert.Len(t, tr.Points, 15)
	// mean over the 15 successful points only
	assert.InDelta(t, 70, tr.Avg, 1e-9)
	assert.Equal(t, 60.0, tr.Min)
	assert.Equal(t, 80.0, tr.Max)
}

func TestTemperature_AllFail(t *testing.T) {
	src := &fakeWeather{forecast: func(ctx context.Context, lat, lon float64) (*weather.GridForecast, error) {
		return nil, weather.ErrUpstream
	}}

	res := NewTemperatureAnalyzer(deps(src)).Analyze(context.Background(), analysis.Request{Area: smallArea()})

	assert.Equal(t, models.ResultStatusNoData, res.Status)
	assert.NotEmpty(t, res.Message)
	assert.Nil(t, res.Temperature)
}

func TestTemperature_MissingValueCountsAsFailure(t *testing.T) {
	src := &fakeWeather{forecast: func(ctx context.Context, lat, lon float64) (*weather.GridForecast, error) {
		return &weather.GridForecast{SkyCoverPct: ptr(10)}, nil
	}}

	res := NewTemperatureAnalyzer(deps(src)).Analyze(context.Background(), analysis.Request{Area: smallArea()})
	assert.Equal(t, models.ResultStatusNoData, res.Status)
}

func TestTemperature_ReentrancyGuard(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	src := &fakeWeather{forecast: func(ctx context.Context, lat, lon float64) (*weather.GridForecast, error) {
		once.Do(func() { close(entered) })
		<-release
		return &weather.GridForecast{TemperatureF: ptr(50)}, nil
	}}
	a := NewTemperatureAnalyzer(deps(src))

	done := make(chan models.AnalysisResult)
	go func() {
		done <- a.Analyze(context.Background(), analysis.Request{Area: smallArea()})
	}()
	<-entered

	second := a.Analyze(context.Background(), analysis.Request{Area: smallArea()})
	assert.Equal(t, models.ResultStatusInProgress, second.Status)
	assert.Equal(t, "Temperature analysis already in progress", second.Message)

	close(release)
	first := <-done
	assert.Equal(t, models.ResultStatusOK, first.Status)

	// the flag is cleared once the first run finishes
	third := a.Analyze(context.Background(), analysis.Request{Area: smallArea()})
	assert.Equal(t, models.ResultStatusOK, third.Status)
}

func TestTemperature_OwnersRunIndependently(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	// alice's area sits at lat 30..31 and blocks; bob's sits further north
	src := &fakeWeather{forecast: func(ctx context.Context, lat, lon float64) (*weather.GridForecast, error) {
		if lat < 35 {
			once.Do(func() { close(entered) })
			<-release
		}
		return &weather.GridForecast{TemperatureF: ptr(50)}, nil
	}}
	a := NewTemperatureAnalyzer(deps(src))

	sw := spatial.LonLat{Lon: -98, Lat: 40}.ToRadians()
	ne := spatial.LonLat{Lon: -97, Lat: 41}.ToRadians()
	northern := aoi.NewRectangleAOI(aoi.Rectangle{West: sw.Lon, South: sw.Lat, East: ne.Lon, North: ne.Lat})

	done := make(chan models.AnalysisResult)
	go func() {
		done <- a.Analyze(context.Background(), analysis.Request{Owner: "alice", Area: smallArea()})
	}()
	<-entered

	bob := a.Analyze(context.Background(), analysis.Request{Owner: "bob", Area: northern})
	assert.Equal(t, models.ResultStatusOK, bob.Status)

	again := a.Analyze(context.Background(), analysis.Request{Owner: "alice", Area: smallArea()})
	assert.Equal(t, models.ResultStatusInProgress, again.Status)

	close(release)
	assert.Equal(t, models.ResultStatusOK, (<-done).Status)
}

func TestAviation_CircularWindMean(t *testing.T) {
	src := &fakeWeather{forecast: func(ctx context.Context, lat, lon float64) (*weather.GridForecast, error) {
		dir := 350.0
		if lon > -97.5 {
			dir = 10
		}
		return &weather.GridForecast{
			VisibilityMi:     ptr(10),
			WindSpeedMph:     ptr(12),
			WindDirectionDeg: ptr(dir),
			SkyCoverPct:      ptr(50),
		}, nil
	}}
	d := deps(src)
	d.Options.AviationDensity = 2

	res := NewAviationAnalyzer(d).Analyze(context.Background(), analysis.Request{Area: smallArea()})

	require.Equal(t, models.ResultStatusOK, res.Status)
	av := res.Aviation
	require.NotNil(t, av)
	assert.Equal(t, 4, av.Sampled)
	require.NotNil(t, av.AvgWindDirectionDeg)
	require.NotNil(t, av.WindSteadiness)
	require.NotNil(t, av.AvgVisibilityMi)
	require.NotNil(t, av.AvgWindSpeedMph)
	require.NotNil(t, av.AvgSkyCoverPct)
	assert.InDelta(t, 0, spatial.AngularDifferenceDegrees(0, *av.AvgWindDirectionDeg), 1e-6)
	assert.InDelta(t, math.Cos(10*math.Pi/180), *av.WindSteadiness, 1e-6)
	assert.InDelta(t, 10, *av.AvgVisibilityMi, 1e-9)
	assert.InDelta(t, 12, *av.AvgWindSpeedMph, 1e-9)
	assert.InDelta(t, 50, *av.AvgSkyCoverPct, 1e-9)
	// no sample reported precipitation
	assert.Nil(t, av.AvgPrecipChancePct)
}

func TestAviation_UnreportedFieldsStayEmpty(t *testing.T) {
	src := &fakeWeather{forecast: func(ctx context.Context, lat, lon float64) (*weather.GridForecast, error) {
		return &weather.GridForecast{VisibilityMi: ptr(10)}, nil
	}}

	res := NewAviationAnalyzer(deps(src)).Analyze(context.Background(), analysis.Request{Area: smallArea()})

	require.Equal(t, models.ResultStatusOK, res.Status)
	av := res.Aviation
	require.NotNil(t, av)
	require.NotNil(t, av.AvgVisibilityMi)
	assert.InDelta(t, 10, *av.AvgVisibilityMi, 1e-9)
	assert.Nil(t, av.AvgWindSpeedMph)
	assert.Nil(t, av.AvgWindDirectionDeg)
	assert.Nil(t, av.WindSteadiness)
	assert.Nil(t, av.AvgSkyCoverPct)
	assert.Nil(t, av.AvgPrecipChancePct)

	body, err := json.Marshal(av)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "wind")
}

func TestAviation_NoData(t *testing.T) {
	src := &fakeWeather{forecast: func(ctx context.Context, lat, lon float64) (*weather.GridForecast, error) {
		return &weather.GridForecast{TemperatureF: ptr(70)}, nil
	}}

	res := NewAviationAnalyzer(deps(src)).Analyze(context.Background(), analysis.Request{Area: smallArea()})
	assert.Equal(t, models.ResultStatusNoData, res.Status)
}

func TestAlerts_DedupedAndSorted(t *testing.T) {
	shared := models.Alert{ID: "a1", Severity: "Minor", Event: "Heat Advisory"}
	severe := models.Alert{ID: "a2", Severity: "Severe", Event: "Flood Warning"}

	var mu sync.Mutex
	calls := 0
	src := &fakeWeather{alerts: func(ctx context.Context, lat, lon float64) ([]models.Alert, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		if lat > 30.9 {
			return []models.Alert{shared, severe}, nil
		}
		return []models.Alert{shared}, nil
	}}

	res := NewAlertsAnalyzer(deps(src)).Analyze(context.Background(), analysis.Request{Area: smallArea()})

	require.Equal(t, models.ResultStatusOK, res.Status)
	require.Len(t, res.Alerts.Alerts, 2)
	assert.Equal(t, "a2", res.Alerts.Alerts[0].ID)
	assert.Equal(t, "a1", res.Alerts.Alerts[1].ID)
	// centre plus the 8 other points of the 3 x 3 grid
	assert.Equal(t, 9, calls)
}

func TestAlerts_EmptyAndFailed(t *testing.T) {
	empty := &fakeWeather{alerts: func(ctx context.Context, lat, lon float64) ([]models.Alert, error) {
		return nil, nil
	}}
	res := NewAlertsAnalyzer(deps(empty)).Analyze(context.Background(), analysis.Request{Area: smallArea()})
	assert.Equal(t, models.ResultStatusOK, res.Status)
	assert.Empty(t, res.Alerts.Alerts)
	assert.Equal(t, "No active weather alerts for this area", res.Message)

	failing := &fakeWeather{alerts: func(ctx context.Context, lat, lon float64) ([]models.Alert, error) {
		return nil, weather.ErrMalformed
	}}
	res = NewAlertsAnalyzer(deps(failing)).Analyze(context.Background(), analysis.Request{Area: smallArea()})
	assert.Equal(t, models.ResultStatusNoData, res.Status)
}

func TestRegistered(t *testing.T) {
	for _, id := range aoi.KnownFilters() {
		assert.NotNil(t, analysis.GetAnalyzer(id, deps(&fakeWeather{})), id)
	}
}
