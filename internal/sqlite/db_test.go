package sqlite

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rpggio/photobook/internal/repository"
	"github.com/stretchr/testify/require"
)

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"formats",
		"papers",
		"cover_types",
		"projects",
		"pages",
		"project_versions",
		"activity_log",
		"projects_fts",
		"api_keys",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	version, dirty, err := db.SchemaVersion()
	require.NoError(t, err)
	require.Equal(t, uint(1), version)
	require.False(t, dirty)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, db.RunMigrations())
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

func TestNew_CreatesDatabaseDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "photobook.db")
	db, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())
	require.FileExists(t, path)
}

func TestNew_FileDatabaseUsesWAL(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "photobook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)
}

func TestMapError(t *testing.T) {
	require.NoError(t, mapError(nil))
	require.ErrorIs(t, mapError(errors.New("FOREIGN KEY constraint failed")), repository.ErrForeignKeyViolation)
	require.ErrorIs(t, mapError(errors.New("UNIQUE constraint failed: pages.id")), repository.ErrDuplicate)
	require.ErrorIs(t, mapError(fmt.Errorf("exec: database is locked (5) (SQLITE_BUSY)")), repository.ErrTransient)

	plain := errors.New("syntax error")
	require.Equal(t, plain, mapError(plain))
}
