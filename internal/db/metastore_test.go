package db

// No driver import here: the package itself must register sqlite3, the way
// the production binary reaches it through app.New.

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMetastoreRegistersDriver(t *testing.T) {
	meta, err := OpenMetastore(filepath.Join(t.TempDir(), "meta.sqlite"))
	require.NoError(t, err)
	defer meta.Close() //nolint:errcheck

	// Migrations ran: both metastore tables exist.
	for _, table := range []string{"wap_runs", "wap_events"} {
		var n int64
		err := meta.ReadDB.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, table)
	}
}

func TestOpenMetastoreIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.sqlite")

	meta, err := OpenMetastore(path)
	require.NoError(t, err)
	_, err = meta.WriteDB.Exec(
		"INSERT INTO wap_runs (id, table_name, namespace, source_uri, status, on_success, on_failure, started_at) VALUES ('r1', 't', 'ns', 'u', 'RUNNING', 'merge', 'keep', CURRENT_TIMESTAMP)")
	require.NoError(t, err)
	require.NoError(t, meta.Close())

	// Reopening an already-migrated file keeps existing rows.
	meta, err = OpenMetastore(path)
	require.NoError(t, err)
	defer meta.Close() //nolint:errcheck

	var n int64
	require.NoError(t, meta.ReadDB.QueryRow("SELECT COUNT(*) FROM wap_runs").Scan(&n))
	assert.Equal(t, int64(1), n)
}

func TestOpenMetastoreBadPath(t *testing.T) {
	_, err := OpenMetastore(filepath.Join(t.TempDir(), "missing", "nested", "meta.sqlite"))
	require.Error(t, err)
}
