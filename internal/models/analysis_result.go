package models

import geojson "github.com/paulmach/go.geojson"

// ResultStatus constants
const (
	ResultStatusOK         = "ok"
	ResultStatusNoData     = "no_data"
	ResultStatusInProgress = "in_progress"
	ResultStatusError      = "error"
)

// AnalysisResult is the outcome of one filter over one AOI. When Status is
// ok exactly one of the payload fields is set.
type AnalysisResult struct {
	Filter  string `json:"filter" msgpack:"filter"`
	Status  string `json:"status" msgpack:"status"`
	Message string `json:"message,omitempty" msgpack:"message,omitempty"`

	// Payloads
	Temperature *TemperatureResult `json:"temperature,omitempty" msgpack:"temperature,omitempty"`
	Alerts      *AlertsResult      `json:"alerts,omitempty" msgpack:"alerts,omitempty"`
	Aviation    *AviationResult    `json:"aviation,omitempty" msgpack:"aviation,omitempty"`
}

// NewNoDataResult reports a filter that produced zero successful samples
func NewNoDataResult(filter, message string) AnalysisResult {
	return AnalysisResult{Filter: filter, Status: ResultStatusNoData, Message: message}
}

// NewInProgressResult reports a filter that is already running
func NewInProgressResult(filter, message string) AnalysisResult {
	return AnalysisResult{Filter: filter, Status: ResultStatusInProgress, Message: message}
}

// TemperaturePoint is one successful grid sample, degrees and Fahrenheit
type TemperaturePoint struct {
	Lon    float64 `json:"lon" msgpack:"lon"`
	Lat    float64 `json:"lat" msgpack:"lat"`
	ValueF float64 `json:"value_f" msgpack:"value_f"`
}

// TemperatureResult aggregates grid temperatures
type TemperatureResult struct {
	Points  []TemperaturePoint `json:"points" msgpack:"points"`
	Min     float64            `json:"min" msgpack:"min"`
	Max     float64            `json:"max" msgpack:"max"`
	Avg     float64            `json:"avg" msgpack:"avg"`
	Sampled int                `json:"sampled" msgpack:"sampled"` // grid points requested
	Failed  int                `json:"failed" msgpack:"failed"`   // lookups excluded from aggregation
}

// Alert is an active weather alert
type Alert struct {
	ID       string            `json:"id" msgpack:"id"`
	Severity string            `json:"severity" msgpack:"severity"` // Extreme, Severe, Moderate, Minor, Unknown
	Event    string            `json:"event" msgpack:"event"`
	Headline string            `json:"headline" msgpack:"headline"`
	AreaDesc string            `json:"area_desc" msgpack:"area_desc"`
	Geometry *geojson.Geometry `json:"geometry,omitempty" msgpack:"geometry,omitempty"`
}

// AlertsResult lists de-duplicated alerts covering the AOI
type AlertsResult struct {
	Alerts []Alert `json:"alerts" msgpack:"alerts"`
}

// AviationResult averages flight-relevant conditions over a fixed grid.
// A field is nil when no successful sample reported it.
type AviationResult struct {
	AvgVisibilityMi     *float64 `json:"avg_visibility_mi,omitempty" msgpack:"avg_visibility_mi,omitempty"`
	AvgWindSpeedMph     *float64 `json:"avg_wind_speed_mph,omitempty" msgpack:"avg_wind_speed_mph,omitempty"`
	AvgWindDirectionDeg *float64 `json:"avg_wind_direction_deg,omitempty" msgpack:"avg_wind_direction_deg,omitempty"` // circular mean
	WindSteadiness      *float64 `json:"wind_steadiness,omitempty" msgpack:"wind_steadiness,omitempty"`               // 0 scattered .. 1 uniform
	AvgSkyCoverPct      *float64 `json:"avg_sky_cover_pct,omitempty" msgpack:"avg_sky_cover_pct,omitempty"`
	AvgPrecipChancePct  *float64 `json:"avg_precip_chance_pct,omitempty" msgpack:"avg_precip_chance_pct,omitempty"`
	Sampled             int     `json:"sampled" msgpack:"sampled"`
	Failed              int     `json:"failed" msgpack:"failed"`
}
