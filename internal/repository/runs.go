// Package repository implements the metastore persistence ports on SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lakewap/internal/domain"
)

// Compile-time check that RunRepo implements the metastore port.
var _ domain.RunRepository = (*RunRepo)(nil)

// RunRepo persists workflow run records. Writes go through the single-writer
// pool; reads use the read pool.
type RunRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

func NewRunRepo(writeDB, readDB *sql.DB) *RunRepo {
	return &RunRepo{writeDB: writeDB, readDB: readDB}
}

func (r *RunRepo) Create(ctx context.Context, run *domain.RunRecord) error {
	_, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO wap_runs (id, table_name, namespace, source_uri, branch, status, on_success, on_failure, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Table, run.Namespace, run.SourceURI, run.Branch,
		run.Status, run.OnSuccess, run.OnFailure, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

func (r *RunRepo) Finish(ctx context.Context, run *domain.RunRecord) error {
	res, err := r.writeDB.ExecContext(ctx, `
		UPDATE wap_runs
		SET branch = ?, status = ?, row_count = COALESCE(?, row_count),
		    failed_checks = COALESCE(?, failed_checks),
		    error_message = COALESCE(?, error_message), finished_at = ?
		WHERE id = ?`,
		run.Branch, run.Status, run.RowCount, run.FailedChecks,
		run.ErrorMessage, run.FinishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", run.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %s: %w", run.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: not found", run.ID)
	}
	return nil
}

func (r *RunRepo) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	row := r.readDB.QueryRowContext(ctx, `
		SELECT id, table_name, namespace, source_uri, branch, status, on_success, on_failure,
		       row_count, failed_checks, error_message, started_at, finished_at
		FROM wap_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

func (r *RunRepo) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT id, table_name, namespace, source_uri, branch, status, on_success, on_failure,
		       row_count, failed_checks, error_message, started_at, finished_at
		FROM wap_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.RunRecord, error) {
	var (
		run          domain.RunRecord
		rowCount     int64
		failedChecks int64
		errorMessage string
		finishedAt   sql.NullTime
	)
	err := row.Scan(&run.ID, &run.Table, &run.Namespace, &run.SourceURI, &run.Branch,
		&run.Status, &run.OnSuccess, &run.OnFailure,
		&rowCount, &failedChecks, &errorMessage, &run.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		run.RowCount = &rowCount
		run.FailedChecks = &failedChecks
		run.FinishedAt = &finishedAt.Time
		if errorMessage != "" {
			run.ErrorMessage = &errorMessage
		}
	}
	return &run, nil
}
