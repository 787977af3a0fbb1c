package repository

import (
	"context"
	"database/sql"
	"fmt"

	"lakewap/internal/domain"
)

// Compile-time check that AuditRepo implements the audit port.
var _ domain.AuditRepository = (*AuditRepo)(nil)

// AuditRepo persists per-phase audit events for workflow runs.
type AuditRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

func NewAuditRepo(writeDB, readDB *sql.DB) *AuditRepo {
	return &AuditRepo{writeDB: writeDB, readDB: readDB}
}

func (r *AuditRepo) Insert(ctx context.Context, e *domain.RunEvent) error {
	res, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO wap_events (run_id, phase, detail, created_at)
		VALUES (?, ?, ?, ?)`,
		e.RunID, e.Phase, e.Detail, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event for run %s: %w", e.RunID, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

func (r *AuditRepo) ListByRun(ctx context.Context, runID string) ([]domain.RunEvent, error) {
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT id, run_id, phase, detail, created_at
		FROM wap_events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list events for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []domain.RunEvent
	for rows.Next() {
		var e domain.RunEvent
		if err := rows.Scan(&e.ID, &e.RunID, &e.Phase, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
