package models

import (
	"time"

	geojson "github.com/paulmach/go.geojson"
)

// AreaRecord is the persisted AOI of one owner. Geometry is GeoJSON in
// degrees.
type AreaRecord struct {
	ID         int64             `json:"id" db:"id"`
	Owner      string            `json:"owner" db:"owner"`
	Kind       string            `json:"kind" db:"kind"` // rectangle, polygon
	Geometry   *geojson.Geometry `json:"geometry" db:"geometry"`
	Generation uint64            `json:"generation" db:"generation"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at" db:"updated_at"`
}
