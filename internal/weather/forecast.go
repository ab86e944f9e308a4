package weather

import (
	"context"
	"fmt"
	"strings"
)

// GridForecast holds the first forecast value of each field we use. A nil
// field was absent or null upstream.
type GridForecast struct {
	TemperatureF     *float64 `json:"temperature_f,omitempty"`
	VisibilityMi     *float64 `json:"visibility_mi,omitempty"`
	WindSpeedMph     *float64 `json:"wind_speed_mph,omitempty"`
	WindDirectionDeg *float64 `json:"wind_direction_deg,omitempty"`
	SkyCoverPct      *float64 `json:"sky_cover_pct,omitempty"`
	PrecipChancePct  *float64 `json:"precip_chance_pct,omitempty"`
}

type gridSeries struct {
	UOM    string `json:"uom"`
	Values []struct {
		ValidTime string   `json:"validTime"`
		Value     *float64 `json:"value"`
	} `json:"values"`
}

type gridResponse struct {
	Properties struct {
		Temperature                gridSeries `json:"temperature"`
		Visibility                 gridSeries `json:"visibility"`
		WindSpeed                  gridSeries `json:"windSpeed"`
		WindDirection              gridSeries `json:"windDirection"`
		SkyCover                   gridSeries `json:"skyCover"`
		ProbabilityOfPrecipitation gridSeries `json:"probabilityOfPrecipitation"`
	} `json:"properties"`
}

// GridForecast fetches gridded forecast data for a position in degrees
func (c *Client) GridForecast(ctx context.Context, lat, lon float64) (*GridForecast, error) {
	url, err := c.gridDataURL(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	var resp gridResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	p := resp.Properties
	fc := &GridForecast{}
	fields := []struct {
		series gridSeries
		dst    **float64
		unit   string
	}{
		{p.Temperature, &fc.TemperatureF, "F"},
		{p.Visibility, &fc.VisibilityMi, "mi"},
		{p.WindSpeed, &fc.WindSpeedMph, "mph"},
		{p.WindDirection, &fc.WindDirectionDeg, "deg"},
		{p.SkyCover, &fc.SkyCoverPct, "pct"},
		{p.ProbabilityOfPrecipitation, &fc.PrecipChancePct, "pct"},
	}
	for _, f := range fields {
		v, err := firstValue(f.series, f.unit)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	return fc, nil
}

func firstValue(s gridSeries, unit string) (*float64, error) {
	if len(s.Values) == 0 || s.Values[0].Value == nil {
		return nil, nil
	}
	v, err := convert(*s.Values[0].Value, s.UOM, unit)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// convert maps a WMO unit code onto the target unit
func convert(v float64, uom, unit string) (float64, error) {
	code := strings.TrimPrefix(uom, "wmoUnit:")

	switch unit {
	case "F":
		switch code {
		case "degC":
			return v*9/5 + 32, nil
		case "degF":
			return v, nil
		case "K":
			return (v-273.15)*9/5 + 32, nil
		}
	case "mi":
		switch code {
		case "m":
			return v / 1609.344, nil
		case "km":
			return v / 1.609344, nil
		case "mi":
			return v, nil
		}
	case "mph":
		switch code {
		case "km_h-1":
			return v / 1.609344, nil
		case "m_s-1":
			return v * 3600 / 1609.344, nil
		case "kt":
			return v * 1.150779, nil
		case "mi_h-1":
			return v, nil
		}
	case "deg":
		if code == "degree_(angle)" {
			return v, nil
		}
	case "pct":
		if code == "percent" {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: unit %q cannot be converted to %s", ErrMalformed, uom, unit)
}
