package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "stats.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_ValidationErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		dbPath      string
		expectedErr string
	}{
		{"empty_path", "", "empty database path"},
		{"whitespace_path", "   ", "empty database path"},
		{"tabs_path", "\t\t", "empty database path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(ctx, tt.dbPath)
			assert.Nil(t, store)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestOpen_DirectoryCreation(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "deep", "stats.sqlite3")

	store, err := Open(ctx, dbPath)
	assert.NoError(t, err)
	assert.NotNil(t, store)
	assert.DirExists(t, filepath.Dir(dbPath))

	assert.NoError(t, store.Close())
}

func TestOpen_FilePermissions(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "stats.sqlite3")

	store, err := Open(ctx, dbPath)
	require.NoError(t, err)
	defer store.Close()

	info, err := os.Stat(dbPath)
	assert.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestOpen_ExistingFile(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "existing.sqlite3")

	store1, err := Open(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, NewStatsStore(store1).Increment(ctx, "next"))
	assert.NoError(t, store1.Close())

	// Reopening keeps the data and does not re-run migrations
	store2, err := Open(ctx, dbPath)
	require.NoError(t, err)
	defer store2.Close()
	counts, err := NewStatsStore(store2).Counts(ctx)
	assert.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, int64(1), counts[0].Count)
}

func TestClose_NilStore(t *testing.T) {
	var store *Store
	assert.NoError(t, store.Close())
}

func TestClose_NilDB(t *testing.T) {
	store := &Store{db: nil}
	assert.NoError(t, store.Close())
}

func TestDB_Getter(t *testing.T) {
	store := openTestStore(t)

	db := store.DB()
	assert.NotNil(t, db)
	assert.IsType(t, &sql.DB{}, db)
}

func TestMigration_Tables(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for _, table := range []string{"op_counts", "op_daily"} {
		var name string
		err := store.db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, table)
		assert.Equal(t, table, name)
	}

	var version int
	err := store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version)
	assert.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestPragmas_Configuration(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	var journalMode string
	err := store.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode)
	assert.NoError(t, err)
	assert.Equal(t, "wal", journalMode)
}

func TestDatabase_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "concurrent.sqlite3")

	store, err := Open(ctx, dbPath)
	require.NoError(t, err)
	defer store.Close()

	// WAL mode lets a second connection open the same file
	store2, err := Open(ctx, dbPath)
	require.NoError(t, err)
	defer store2.Close()

	var version1, version2 int
	assert.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version1))
	assert.NoError(t, store2.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version2))
	assert.Equal(t, version1, version2)
}

func BenchmarkIncrement(b *testing.B) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(b.TempDir(), "bench.sqlite3"))
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()
	stats := NewStatsStore(store)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := stats.Increment(ctx, "next"); err != nil {
			b.Fatal(err)
		}
	}
}
