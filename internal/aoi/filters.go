package aoi

import (
	"fmt"
	"strings"
)

// FilterID names one analysis that can run over an AOI
type FilterID string

const (
	FilterTemperature   FilterID = "temperature"
	FilterWeatherAlerts FilterID = "weather_alerts"
	FilterAviation      FilterID = "aviation"
)

// KnownFilters lists filters in the order they are run and displayed
func KnownFilters() []FilterID {
	return []FilterID{FilterTemperature, FilterWeatherAlerts, FilterAviation}
}

// ParseFilterID validates a filter identifier
func ParseFilterID(s string) (FilterID, error) {
	id := FilterID(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KnownFilters() {
		if id == known {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// FilterSelection maps each filter to its enabled state for one AOI
type FilterSelection map[FilterID]bool

// Enabled returns the enabled filters in run order
func (fs FilterSelection) Enabled() []FilterID {
	var out []FilterID
	for _, id := range KnownFilters() {
		if fs[id] {
			out = append(out, id)
		}
	}
	return out
}

// Clone returns an independent copy
func (fs FilterSelection) Clone() FilterSelection {
	out := make(FilterSelection, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}
