package db

import (
	"path/filepath"
	"testing"
)

// OpenTestMetastore opens a migrated metastore in t.TempDir() and registers
// cleanup. The wap_runs and wap_events tables are ready for use.
func OpenTestMetastore(t *testing.T) *Metastore {
	t.Helper()

	meta, err := OpenMetastore(filepath.Join(t.TempDir(), "meta.sqlite"))
	if err != nil {
		t.Fatalf("open test metastore: %v", err)
	}
	t.Cleanup(func() { _ = meta.Close() })
	return meta
}
