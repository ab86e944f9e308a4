package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jengzang/urban-twin-go/internal/models"
)

// AnalysisRunRepository handles database operations for analysis runs
type AnalysisRunRepository struct {
	db *sql.DB
}

// NewAnalysisRunRepository creates a new analysis run repository
func NewAnalysisRunRepository(db *sql.DB) *AnalysisRunRepository {
	return &AnalysisRunRepository{db: db}
}

// Create inserts a running run and sets run.ID
func (r *AnalysisRunRepository) Create(run *models.AnalysisRun) error {
	if run.Status == "" {
		run.Status = models.RunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO analysis_runs (owner, area_id, generation, filters, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		run.Owner,
		nullableID(run.AreaID),
		int64(run.Generation),
		strings.Join(run.Filters, ","),
		run.Status,
		run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	run.ID = id
	return nil
}

// Complete stores the final status, error and results of a run
func (r *AnalysisRunRepository) Complete(run *models.AnalysisRun) error {
	blob, err := encodeResults(run.Results)
	if err != nil {
		return err
	}
	if run.CompletedAt == nil {
		now := time.Now().UTC()
		run.CompletedAt = &now
	}

	query := `
		UPDATE analysis_runs
		SET status = ?, error = ?, results = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, run.Status, run.Error, blob, *run.CompletedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to complete analysis run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const runColumns = `id, owner, area_id, generation, filters, status, error, results, started_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.AnalysisRun, error) {
	run := &models.AnalysisRun{}
	var (
		areaID      sql.NullInt64
		generation  int64
		filters     string
		blob        []byte
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&run.ID,
		&run.Owner,
		&areaID,
		&generation,
		&filters,
		&run.Status,
		&run.Error,
		&blob,
		&run.StartedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}

	run.AreaID = areaID.Int64
	run.Generation = uint64(generation)
	if filters != "" {
		run.Filters = strings.Split(filters, ",")
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}

	results, err := decodeResults(blob)
	if err != nil {
		return nil, err
	}
	run.Results = results
	return run, nil
}

// GetByID retrieves a run by ID
func (r *AnalysisRunRepository) GetByID(id int64) (*models.AnalysisRun, error) {
	row := r.db.QueryRow("SELECT "+runColumns+" FROM analysis_runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis run: %w", err)
	}
	return run, nil
}

// ListByOwner returns one page of an owner's runs, newest first, and the
// total count
func (r *AnalysisRunRepository) ListByOwner(owner string, page, pageSize int) ([]models.AnalysisRun, int, error) {
	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM analysis_runs WHERE owner = ?", owner).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count analysis runs: %w", err)
	}

	offset := (page - 1) * pageSize
	query := "SELECT " + runColumns + `
		FROM analysis_runs
		WHERE owner = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Query(query, owner, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	defer rows.Close()

	runs := []models.AnalysisRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}
