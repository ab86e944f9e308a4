package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"github.com/jengzang/urban-twin-go/internal/models"
)

// AreaRepository handles database operations for persisted AOIs. Each owner
// has at most one area.
type AreaRepository struct {
	db *sql.DB
}

// NewAreaRepository creates a new area repository
func NewAreaRepository(db *sql.DB) *AreaRepository {
	return &AreaRepository{db: db}
}

// Save inserts or replaces the owner's area and sets rec.ID
func (r *AreaRepository) Save(rec *models.AreaRecord) error {
	if rec.Geometry == nil {
		return fmt.Errorf("failed to save area: missing geometry")
	}
	geom, err := rec.Geometry.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal area geometry: %w", err)
	}

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	query := `
		INSERT INTO areas (owner, kind, geometry, generation, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner) DO UPDATE SET
			kind = excluded.kind,
			geometry = excluded.geometry,
			generation = excluded.generation,
			updated_at = excluded.updated_at
		RETURNING id
	`

	err = r.db.QueryRow(query,
		rec.Owner,
		rec.Kind,
		string(geom),
		int64(rec.Generation),
		rec.CreatedAt,
		rec.UpdatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to save area: %w", err)
	}
	return nil
}

// GetByOwner returns the owner's area or ErrNotFound
func (r *AreaRepository) GetByOwner(owner string) (*models.AreaRecord, error) {
	query := `
		SELECT id, owner, kind, geometry, generation, created_at, updated_at
		FROM areas
		WHERE owner = ?
	`

	rec := &models.AreaRecord{}
	var geom string
	var generation int64
	err := r.db.QueryRow(query, owner).Scan(
		&rec.ID,
		&rec.Owner,
		&rec.Kind,
		&geom,
		&generation,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get area: %w", err)
	}

	rec.Generation = uint64(generation)
	rec.Geometry, err = geojson.UnmarshalGeometry([]byte(geom))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal area geometry: %w", err)
	}
	return rec, nil
}

// DeleteByOwner removes the owner's area. Deleting a missing area is not an
// error.
func (r *AreaRepository) DeleteByOwner(owner string) error {
	if _, err := r.db.Exec("DELETE FROM areas WHERE owner = ?", owner); err != nil {
		return fmt.Errorf("failed to delete area: %w", err)
	}
	return nil
}
