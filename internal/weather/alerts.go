package weather

import (
	"context"
	"fmt"

	geojson "github.com/paulmach/go.geojson"

	"github.com/jengzang/urban-twin-go/internal/models"
)

// ActiveAlerts lists the active alerts whose zones cover a position in
// degrees
func (c *Client) ActiveAlerts(ctx context.Context, lat, lon float64) ([]models.Alert, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/alerts/active?point=%s", c.baseURL, pointKey(lat, lon)))
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("%w: alerts: %v", ErrMalformed, err)
	}

	alerts := make([]models.Alert, 0, len(fc.Features))
	for _, f := range fc.Features {
		a := models.Alert{
			ID:       f.PropertyMustString("id"),
			Severity: f.PropertyMustString("severity", "Unknown"),
			Event:    f.PropertyMustString("event"),
			Headline: f.PropertyMustString("headline"),
			AreaDesc: f.PropertyMustString("areaDesc"),
			Geometry: f.Geometry,
		}
		if a.ID == "" {
			if id, ok := f.ID.(string); ok {
				a.ID = id
			}
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}
