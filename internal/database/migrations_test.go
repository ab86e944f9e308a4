package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsSorted(t *testing.T) {
	m, err := NewMigrationManager(nil)
	require.NoError(t, err)
	migrations, err := m.LoadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "001_areas", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Contains(t, migrations[1].SQL, "analysis_runs")
}

func TestRunMigrationsIdempotent(t *testing.T) {
	conn, err := Open(":memory:")
	require.NoError(t, err)
	defer conn.Close()

	m, err := NewMigrationManager(conn)
	require.NoError(t, err)
	require.NoError(t, m.RunMigrations())
	require.NoError(t, m.RunMigrations())

	applied, err := m.GetAppliedMigrations()
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 2: true}, applied)

	var n int
	require.NoError(t, conn.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('areas', 'analysis_runs')",
	).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	conn, err := Open(":memory:")
	require.NoError(t, err)
	defer conn.Close()
	m, err := NewMigrationManager(conn)
	require.NoError(t, err)
	require.NoError(t, m.RunMigrations())

	boom := errors.New("boom")
	err = Transaction(conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO areas (owner, kind, geometry) VALUES ('a', 'rectangle', '{}')"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM areas").Scan(&n))
	assert.Zero(t, n)
}

func TestNewMigrationManagerInvalidDir(t *testing.T) {
	files := fstest.MapFS{"migrations/001_x.sql": {Data: []byte("SELECT 1")}}
	_, err := newMigrationManager(nil, files, "../migrations")
	assert.Error(t, err)
}

func TestOpenAppliesPragmasToEveryConnection(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "twin.db"))
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	var held []*sql.Conn
	defer func() {
		for _, c := range held {
			c.Close()
		}
	}()

	// hold several connections at once so each is a distinct pool member
	for i := 0; i < 4; i++ {
		c, err := conn.Conn(ctx)
		require.NoError(t, err)
		held = append(held, c)

		var fk, timeout int
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		assert.Equal(t, 1, fk, "connection %d", i)
		assert.Equal(t, 5000, timeout, "connection %d", i)
	}
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dsn("a.db"))
	assert.Equal(t, "file:a.db?mode=ro&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dsn("file:a.db?mode=ro"))
}
