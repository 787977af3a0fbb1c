package domain

import (
	"context"
	"fmt"
)

// LakehouseStore is the collaborator surface of the branch-versioned table
// store consumed by the workflow. Implemented by lakehouse.DuckDBStore and
// by testutil.MockStore.
//
// Every method is a remote call: it either succeeds or surfaces its failure;
// nothing in this interface retries.
type LakehouseStore interface {
	HasBranch(ctx context.Context, name string) (bool, error)
	CreateBranch(ctx context.Context, name, fromRef string) error
	DeleteBranch(ctx context.Context, name string) error

	HasNamespace(ctx context.Context, namespace, ref string) (bool, error)
	CreateNamespace(ctx context.Context, namespace, branch string) error

	HasTable(ctx context.Context, table, namespace, ref string) (bool, error)
	// CreateTable creates the table on the branch with schema inferred from
	// the source files by the store.
	CreateTable(ctx context.Context, table, namespace, branch, sourceURI string) error
	ImportData(ctx context.Context, table, namespace, branch, sourceURI string) error

	// Query executes read-only SQL against the given ref. Must support
	// COUNT, MIN, MAX, and filtered COUNT.
	Query(ctx context.Context, sqlText, ref string) (*QueryResult, error)

	MergeBranch(ctx context.Context, sourceRef, intoBranch string) error
}

// QueryResult is a small tabular result for quality-check queries.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// scalar returns the first column of the first row.
func (r *QueryResult) scalar() (any, error) {
	if r == nil || len(r.Rows) == 0 || len(r.Rows[0]) == 0 {
		return nil, fmt.Errorf("query returned no rows")
	}
	return r.Rows[0][0], nil
}

// ScalarInt64 reads the single aggregate value as int64. isNull is true
// when the store returned SQL NULL (e.g. MIN over an all-null column).
func (r *QueryResult) ScalarInt64() (v int64, isNull bool, err error) {
	raw, err := r.scalar()
	if err != nil {
		return 0, false, err
	}
	if raw == nil {
		return 0, true, nil
	}
	switch n := raw.(type) {
	case int64:
		return n, false, nil
	case int32:
		return int64(n), false, nil
	case int:
		return int64(n), false, nil
	case uint64:
		return int64(n), false, nil
	case float64:
		return int64(n), false, nil
	default:
		return 0, false, fmt.Errorf("scalar has non-integer type %T", raw)
	}
}

// ScalarFloat64 reads the single aggregate value as float64. isNull is true
// when the store returned SQL NULL.
func (r *QueryResult) ScalarFloat64() (v float64, isNull bool, err error) {
	raw, err := r.scalar()
	if err != nil {
		return 0, false, err
	}
	if raw == nil {
		return 0, true, nil
	}
	switch n := raw.(type) {
	case float64:
		return n, false, nil
	case float32:
		return float64(n), false, nil
	case int64:
		return float64(n), false, nil
	case int32:
		return float64(n), false, nil
	case int:
		return float64(n), false, nil
	case uint64:
		return float64(n), false, nil
	default:
		return 0, false, fmt.Errorf("scalar has non-numeric type %T", raw)
	}
}

// RunRepository persists workflow run records in the audit metastore.
type RunRepository interface {
	Create(ctx context.Context, run *RunRecord) error
	Finish(ctx context.Context, run *RunRecord) error
	Get(ctx context.Context, id string) (*RunRecord, error)
	List(ctx context.Context, limit int) ([]RunRecord, error)
}

// AuditRepository persists per-phase audit events.
type AuditRepository interface {
	Insert(ctx context.Context, e *RunEvent) error
	ListByRun(ctx context.Context, runID string) ([]RunEvent, error)
}
