package sqlite

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.up.sql":    {Data: []byte("SELECT 1;")},
		"002_second.up.sql":   {Data: []byte("SELECT 1;")},
		"001_first.up.sql":    {Data: []byte("SELECT 1;")},
		"001_first.down.sql":  {Data: []byte("SELECT 1;")},
		"embed.go":            {Data: []byte("package migrations")},
		"notes_without_id.up": {Data: []byte("")},
	}

	all, err := pendingMigrations(fsys, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{all[0].version, all[1].version, all[2].version})
	assert.Equal(t, "001_first.up.sql", all[0].file)

	rest, err := pendingMigrations(fsys, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, 10, rest[0].version)
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	store := setupTestStore(t)
	fsys := fstest.MapFS{
		"002_broken.up.sql": {Data: []byte(
			"CREATE TABLE extra (id INTEGER);\nINSERT INTO missing_table VALUES (1);",
		)},
	}

	err := store.migrate(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "002_broken.up.sql")

	var n int
	require.NoError(t, store.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'extra'",
	).Scan(&n))
	assert.Zero(t, n)
}
