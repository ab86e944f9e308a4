package repository

import (
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/urban-twin-go/internal/models"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func squareGeometry() *geojson.Geometry {
	return geojson.NewPolygonGeometry([][][]float64{{
		{-98, 30}, {-97, 30}, {-97, 31}, {-98, 31}, {-98, 30},
	}})
}

func TestAreaSave(t *testing.T) {
	it(func() {
		rec := &models.AreaRecord{Owner: "user-1", Kind: "rectangle", Geometry: squareGeometry(), Generation: 3}

		mock.ExpectQuery("INSERT INTO areas \\(owner, kind, geometry, generation, created_at, updated_at\\)").
			WithArgs("user-1", "rectangle", sqlmock.AnyArg(), int64(3), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

		require.NoError(t, NewAreaRepository(db).Save(rec))
		assert.Equal(t, int64(7), rec.ID)
		assert.False(t, rec.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAreaSaveRequiresGeometry(t *testing.T) {
	it(func() {
		err := NewAreaRepository(db).Save(&models.AreaRecord{Owner: "user-1"})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAreaGetByOwner(t *testing.T) {
	it(func() {
		geom, err := squareGeometry().MarshalJSON()
		require.NoError(t, err)
		now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT id, owner, kind, geometry, generation, created_at, updated_at FROM areas").
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "kind", "geometry", "generation", "created_at", "updated_at"}).
				AddRow(7, "user-1", "rectangle", string(geom), 3, now, now))

		rec, err := NewAreaRepository(db).GetByOwner("user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(7), rec.ID)
		assert.Equal(t, uint64(3), rec.Generation)
		require.True(t, rec.Geometry.IsPolygon())
		assert.Len(t, rec.Geometry.Polygon[0], 5)
		assert.Equal(t, now, rec.UpdatedAt)
	})
}

func TestAreaGetByOwnerNotFound(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM areas").
			WithArgs("nobody").
			WillReturnError(sql.ErrNoRows)

		_, err := NewAreaRepository(db).GetByOwner("nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAreaDeleteByOwner(t *testing.T) {
	it(func() {
		mock.ExpectExec("DELETE FROM areas WHERE owner = \\?").
			WithArgs("user-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, NewAreaRepository(db).DeleteByOwner("user-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRunCreate(t *testing.T) {
	it(func() {
		run := &models.AnalysisRun{
			Owner:      "user-1",
			AreaID:     7,
			Generation: 3,
			Filters:    []string{"temperature", "aviation"},
		}

		mock.ExpectExec("INSERT INTO analysis_runs").
			WithArgs("user-1", int64(7), int64(3), "temperature,aviation", models.RunStatusRunning, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(42, 1))

		require.NoError(t, NewAnalysisRunRepository(db).Create(run))
		assert.Equal(t, int64(42), run.ID)
		assert.Equal(t, models.RunStatusRunning, run.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRunCompleteAndGetRoundTripResults(t *testing.T) {
	it(func() {
		results := map[string]models.AnalysisResult{
			"temperature": {
				Filter: "temperature",
				Status: models.ResultStatusOK,
				Temperature: &models.TemperatureResult{
					Points:  []models.TemperaturePoint{{Lon: -97.5, Lat: 30.5, ValueF: 71}},
					Min:     71,
					Max:     71,
					Avg:     71,
					Sampled: 1,
				},
			},
			"aviation": models.NewNoDataResult("aviation", "No aviation data available for this area"),
		}
		blob, err := encodeResults(results)
		require.NoError(t, err)
		require.NotEmpty(t, blob)

		completed := time.Date(2026, 5, 1, 12, 0, 5, 0, time.UTC)
		run := &models.AnalysisRun{ID: 42, Status: models.RunStatusCompleted, Results: results, CompletedAt: &completed}

		mock.ExpectExec("UPDATE analysis_runs SET status = \\?, error = \\?, results = \\?, completed_at = \\? WHERE id = \\?").
			WithArgs(models.RunStatusCompleted, "", sqlmock.AnyArg(), completed, int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewAnalysisRunRepository(db)
		require.NoError(t, repo.Complete(run))

		started := completed.Add(-5 * time.Second)
		mock.ExpectQuery("SELECT (.+) FROM analysis_runs WHERE id = \\?").
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "area_id", "generation", "filters", "status", "error", "results", "started_at", "completed_at"}).
				AddRow(42, "user-1", 7, 3, "temperature,aviation", models.RunStatusCompleted, "", blob, started, completed))

		got, err := repo.GetByID(42)
		require.NoError(t, err)
		assert.Equal(t, []string{"temperature", "aviation"}, got.Filters)
		assert.Equal(t, uint64(3), got.Generation)
		require.NotNil(t, got.CompletedAt)
		assert.Equal(t, completed, *got.CompletedAt)
		require.Contains(t, got.Results, "temperature")
		assert.Equal(t, 71.0, got.Results["temperature"].Temperature.Avg)
		assert.Equal(t, models.ResultStatusNoData, got.Results["aviation"].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRunCompleteUnknownID(t *testing.T) {
	it(func() {
		mock.ExpectExec("UPDATE analysis_runs").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewAnalysisRunRepository(db).Complete(&models.AnalysisRun{ID: 99, Status: models.RunStatusFailed})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRunGetByIDNotFound(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM analysis_runs").
			WithArgs(int64(5)).
			WillReturnError(sql.ErrNoRows)

		_, err := NewAnalysisRunRepository(db).GetByID(5)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRunListByOwner(t *testing.T) {
	it(func() {
		started := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM analysis_runs WHERE owner = \\?").
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectQuery("SELECT (.+) FROM analysis_runs WHERE owner = \\? ORDER BY started_at DESC, id DESC LIMIT \\? OFFSET \\?").
			WithArgs("user-1", 2, 2).
			WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "area_id", "generation", "filters", "status", "error", "results", "started_at", "completed_at"}).
				AddRow(1, "user-1", nil, 1, "", models.RunStatusStale, "", nil, started, nil))

		runs, total, err := NewAnalysisRunRepository(db).ListByOwner("user-1", 2, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, runs, 1)
		assert.Equal(t, models.RunStatusStale, runs[0].Status)
		assert.Zero(t, runs[0].AreaID)
		assert.Nil(t, runs[0].Filters)
		assert.Nil(t, runs[0].CompletedAt)
		assert.Nil(t, runs[0].Results)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDecodeResultsRejectsGarbage(t *testing.T) {
	_, err := decodeResults([]byte("not zstd"))
	assert.Error(t, err)
}
