// Package lakehouse implements the branch-versioned table store on DuckDB.
//
// Branches are modeled as attached catalog databases, one file per branch
// under the data directory. Creating a branch attaches a fresh database and
// materializes the trunk's tables as views, giving cheap copy-on-write
// semantics; merging copies the branch's base tables (never the views) back
// into trunk. Namespaces map to DuckDB schemas within a branch database.
package lakehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2"

	"lakewap/internal/domain"
)

// Compile-time check that DuckDBStore implements the store port.
var _ domain.LakehouseStore = (*DuckDBStore)(nil)

// DuckDBStore implements domain.LakehouseStore.
type DuckDBStore struct {
	db      *sql.DB
	dataDir string
	logger  *slog.Logger

	// mu serializes DDL: ATTACH/DETACH and cross-database copies are not
	// safe to interleave on a shared handle.
	mu sync.Mutex
}

// Open creates the data directory, opens an in-process DuckDB handle, and
// attaches the trunk database.
func Open(ctx context.Context, dataDir, trunk string, logger *slog.Logger) (*DuckDBStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %q: %w", dataDir, err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := installExtensions(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &DuckDBStore{db: db, dataDir: dataDir, logger: logger}
	if err := s.attach(ctx, trunk); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("attach trunk %q: %w", trunk, err)
	}
	return s, nil
}

// Close releases the DuckDB handle.
func (s *DuckDBStore) Close() error { return s.db.Close() }

// DB exposes the underlying handle for setup (e.g. S3 secrets).
func (s *DuckDBStore) DB() *sql.DB { return s.db }

func installExtensions(ctx context.Context, db *sql.DB) error {
	for _, ext := range []string{
		"INSTALL httpfs; LOAD httpfs;",
	} {
		if _, err := db.ExecContext(ctx, ext); err != nil {
			return fmt.Errorf("extension setup (%s): %w", ext, err)
		}
	}
	return nil
}

// CreateS3Secret registers S3 credentials with DuckDB so read_parquet and
// read_csv_auto can resolve s3:// source URIs.
func (s *DuckDBStore) CreateS3Secret(ctx context.Context, keyID, secret, endpoint, region string) error {
	parts := []string{
		"TYPE S3",
		fmt.Sprintf("KEY_ID %s", quoteString(keyID)),
		fmt.Sprintf("SECRET %s", quoteString(secret)),
		fmt.Sprintf("REGION %s", quoteString(region)),
	}
	if endpoint != "" {
		parts = append(parts, fmt.Sprintf("ENDPOINT %s", quoteString(endpoint)))
		parts = append(parts, "URL_STYLE 'path'")
	}
	q := fmt.Sprintf("CREATE OR REPLACE SECRET lakewap_s3 (%s)", strings.Join(parts, ", "))
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create s3 secret: %w", err)
	}
	return nil
}

func (s *DuckDBStore) branchFile(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
	return filepath.Join(s.dataDir, safe+".duckdb")
}

// attach connects a branch database file under its branch name.
func (s *DuckDBStore) attach(ctx context.Context, name string) error {
	q := fmt.Sprintf("ATTACH IF NOT EXISTS %s AS %s", quoteString(s.branchFile(name)), quoteIdent(name))
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("attach %q: %w", name, err)
	}
	return nil
}

func (s *DuckDBStore) HasBranch(ctx context.Context, name string) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM duckdb_databases() WHERE database_name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("list databases: %w", err)
	}
	return n > 0, nil
}

// CreateBranch attaches a fresh database and mirrors the source ref's base
// tables into it as views.
func (s *DuckDBStore) CreateBranch(ctx context.Context, name, fromRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.attach(ctx, name); err != nil {
		return err
	}

	tables, err := s.listTables(ctx, fromRef)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s.%s",
			quoteIdent(name), quoteIdent(t.schema))); err != nil {
			return fmt.Errorf("mirror schema %q: %w", t.schema, err)
		}
		q := fmt.Sprintf("CREATE VIEW %s.%s.%s AS SELECT * FROM %s.%s.%s",
			quoteIdent(name), quoteIdent(t.schema), quoteIdent(t.name),
			quoteIdent(fromRef), quoteIdent(t.schema), quoteIdent(t.name))
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("mirror table %s.%s: %w", t.schema, t.name, err)
		}
	}
	s.logger.Debug("branch created", "branch", name, "from", fromRef, "mirrored_tables", len(tables))
	return nil
}

func (s *DuckDBStore) DeleteBranch(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DETACH "+quoteIdent(name)); err != nil {
		return fmt.Errorf("detach %q: %w", name, err)
	}
	if err := os.Remove(s.branchFile(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove branch file: %w", err)
	}
	return nil
}

func (s *DuckDBStore) HasNamespace(ctx context.Context, namespace, ref string) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM duckdb_schemas() WHERE database_name = ? AND schema_name = ?",
		ref, namespace).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("list schemas: %w", err)
	}
	return n > 0, nil
}

func (s *DuckDBStore) CreateNamespace(ctx context.Context, namespace, branch string) error {
	q := fmt.Sprintf("CREATE SCHEMA %s.%s", quoteIdent(branch), quoteIdent(namespace))
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create namespace %q on %q: %w", namespace, branch, err)
	}
	return nil
}

func (s *DuckDBStore) HasTable(ctx context.Context, table, namespace, ref string) (bool, error) {
	// Views count too: a branch mirrors trunk tables as views, and those
	// must trip the clean-slate guard just like base tables.
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT table_name AS name, schema_name, database_name FROM duckdb_tables()
			UNION ALL
			SELECT view_name AS name, schema_name, database_name FROM duckdb_views()
		) WHERE database_name = ? AND schema_name = ? AND name = ?`,
		ref, namespace, table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("list tables: %w", err)
	}
	return n > 0, nil
}

// CreateTable creates the table with schema inferred from the source files:
// a zero-row CTAS over the source reader.
func (s *DuckDBStore) CreateTable(ctx context.Context, table, namespace, branch, sourceURI string) error {
	reader, err := sourceReader(sourceURI)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("CREATE TABLE %s.%s.%s AS SELECT * FROM %s LIMIT 0",
		quoteIdent(branch), quoteIdent(namespace), quoteIdent(table), reader)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create table %s.%s from %q: %w", namespace, table, sourceURI, err)
	}
	return nil
}

func (s *DuckDBStore) ImportData(ctx context.Context, table, namespace, branch, sourceURI string) error {
	reader, err := sourceReader(sourceURI)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO %s.%s.%s SELECT * FROM %s",
		quoteIdent(branch), quoteIdent(namespace), quoteIdent(table), reader)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("import %q into %s.%s: %w", sourceURI, namespace, table, err)
	}
	return nil
}

// Query executes read-only SQL with the ref as the default database, so
// namespace-qualified table names resolve against the branch.
func (s *DuckDBStore) Query(ctx context.Context, sqlText, ref string) (*domain.QueryResult, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "USE "+quoteIdent(ref)); err != nil {
		return nil, fmt.Errorf("use ref %q: %w", ref, err)
	}

	rows, err := conn.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query on %q: %w", ref, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	result := &domain.QueryResult{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		result.Rows = append(result.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// MergeBranch copies the branch's base tables into the target ref. Views
// mirror unchanged trunk tables and are skipped.
func (s *DuckDBStore) MergeBranch(ctx context.Context, sourceRef, intoBranch string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables, err := s.listTables(ctx, sourceRef)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s.%s",
			quoteIdent(intoBranch), quoteIdent(t.schema))); err != nil {
			return fmt.Errorf("merge schema %q: %w", t.schema, err)
		}
		q := fmt.Sprintf("CREATE OR REPLACE TABLE %s.%s.%s AS SELECT * FROM %s.%s.%s",
			quoteIdent(intoBranch), quoteIdent(t.schema), quoteIdent(t.name),
			quoteIdent(sourceRef), quoteIdent(t.schema), quoteIdent(t.name))
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("merge table %s.%s: %w", t.schema, t.name, err)
		}
	}
	s.logger.Info("merged branch", "from", sourceRef, "into", intoBranch, "tables", len(tables))
	return nil
}

type tableRef struct {
	schema string
	name   string
}

// listTables returns the base tables of a ref, excluding internal schemas.
func (s *DuckDBStore) listTables(ctx context.Context, ref string) ([]tableRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT schema_name, table_name FROM duckdb_tables()
		WHERE database_name = ? AND NOT internal
		ORDER BY schema_name, table_name`, ref)
	if err != nil {
		return nil, fmt.Errorf("list tables on %q: %w", ref, err)
	}
	defer rows.Close()

	var out []tableRef
	for rows.Next() {
		var t tableRef
		if err := rows.Scan(&t.schema, &t.name); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// sourceReader picks the DuckDB table function for a source URI by its
// extension. Glob patterns keep the extension at the end, so suffix
// matching works for both single files and globs.
func sourceReader(uri string) (string, error) {
	lower := strings.ToLower(uri)
	switch {
	case strings.HasSuffix(lower, ".parquet"):
		return "read_parquet(" + quoteString(uri) + ")", nil
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".csv.gz"):
		return "read_csv_auto(" + quoteString(uri) + ")", nil
	case strings.HasSuffix(lower, ".json"), strings.HasSuffix(lower, ".jsonl"), strings.HasSuffix(lower, ".ndjson"):
		return "read_json_auto(" + quoteString(uri) + ")", nil
	default:
		return "", fmt.Errorf("unsupported source format for %q (want .parquet, .csv, or .json)", uri)
	}
}

// quoteIdent double-quotes a SQL identifier, escaping embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteString single-quotes a SQL string literal.
func quoteString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
