package wap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lakewap/internal/domain"
)

// RunWAP executes one write-audit-publish workflow synchronously:
// acquire an isolation branch, provision and import the table, evaluate the
// quality gate, then publish or leave the branch for inspection. Any phase
// failure passes through the failure recovery policy exactly once and then
// propagates to the caller unmodified.
//
// The returned result is non-nil whenever a branch was acquired, so callers
// receive the isolation branch identifier even on failure.
func (s *Service) RunWAP(ctx context.Context, order domain.WorkOrder) (*domain.WorkflowResult, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	runID := domain.NewRunID()
	logger := s.logger.With("run_id", runID, "table", order.Table, "namespace", order.Namespace)
	result := &domain.WorkflowResult{RunID: runID}

	record := &domain.RunRecord{
		ID:        runID,
		Table:     order.Table,
		Namespace: order.Namespace,
		SourceURI: order.SourceURI,
		OnSuccess: string(order.OnSuccess),
		OnFailure: string(order.OnFailure),
		Status:    domain.RunStatusRunning,
		StartedAt: s.now(),
	}
	s.recordStart(ctx, record, logger)

	branch, err := s.acquireBranch(ctx, order.Table)
	if err != nil {
		// Nothing to clean up: either the identifier collided (the branch is
		// not ours to delete) or creation itself failed.
		s.finishRun(ctx, record, result, domain.RunStatusAborted, err, logger)
		return result, err
	}
	result.Branch = branch.Name
	record.Branch = branch.Name
	logger = logger.With("branch", branch.Name)
	logger.Info("created isolation branch", "from", branch.Parent)
	s.logEvent(ctx, runID, "BRANCH", fmt.Sprintf("created branch %s from %s", branch.Name, branch.Parent))

	status, err := s.runPhases(ctx, branch, order, result, logger)
	if err != nil {
		branch.State = domain.BranchAbandoned
		s.recoverBranch(ctx, branch.Name, order.OnFailure, err, logger)
		s.finishRun(ctx, record, result, domain.RunStatusAborted, err, logger)
		return result, err
	}

	result.Success = true
	s.finishRun(ctx, record, result, status, nil, logger)
	return result, nil
}

// runPhases drives the forward-only sequence
// BRANCH_ACQUIRED -> PROVISIONED -> AUDITED -> {PUBLISHED | INSPECTION_PENDING}.
func (s *Service) runPhases(
	ctx context.Context,
	branch *domain.IsolationBranch,
	order domain.WorkOrder,
	result *domain.WorkflowResult,
	logger *slog.Logger,
) (string, error) {
	// Write phase.
	if err := s.ensureNamespace(ctx, order.Namespace, branch.Name); err != nil {
		return "", err
	}
	if err := s.provisionTable(ctx, order, branch.Name); err != nil {
		return "", err
	}
	if err := s.transition(branch, domain.BranchProvisioned); err != nil {
		return "", err
	}
	logger.Info("provisioned table", "source", order.SourceURI)
	s.logEvent(ctx, result.RunID, "PROVISION",
		fmt.Sprintf("created %s.%s and imported %s", order.Namespace, order.Table, order.SourceURI))

	// Audit phase.
	gate := NewQualityGate(s.store, s.logger)
	verdict, err := gate.Evaluate(ctx, order.Table, order.Namespace, branch.Name, s.suite, order.MinRows)
	if err != nil {
		return "", err
	}
	result.Verdict = verdict
	if err := s.transition(branch, domain.BranchAudited); err != nil {
		return "", err
	}
	logger.Info("quality gate evaluated", "verdict", verdict.Summary())
	s.logEvent(ctx, result.RunID, "AUDIT", verdict.Summary())

	// Publish phase.
	status, err := s.publish(ctx, branch, verdict, order, logger)
	if err != nil {
		return "", err
	}
	s.logEvent(ctx, result.RunID, "PUBLISH", status)
	return status, nil
}

// recoverBranch is the failure recovery policy: it decides the single
// compensating action (branch deletion) and then gets out of the way. The
// original error is never converted or masked; cleanup failures are logged
// and swallowed. A failed merge always preserves the branch regardless of
// policy, to keep forensic state.
func (s *Service) recoverBranch(
	ctx context.Context,
	branch string,
	policy domain.FailurePolicy,
	cause error,
	logger *slog.Logger,
) {
	var publishErr *domain.PublishError
	if errors.As(cause, &publishErr) {
		logger.Warn("merge failed, preserving branch for forensics", "branch", branch)
		return
	}

	if policy != domain.FailureDelete {
		logger.Info("preserving failed branch for inspection", "branch", branch)
		return
	}

	// Cleanup must run even when the workflow was interrupted.
	cleanupCtx := context.WithoutCancel(ctx)
	if err := s.releaseBranch(cleanupCtx, branch); err != nil {
		logger.Warn("cleanup failed, branch may linger", "branch", branch, "error", err)
		return
	}
	logger.Info("cleaned up failed branch", "branch", branch)
}

// recordStart persists the run record. Metastore writes are best-effort.
func (s *Service) recordStart(ctx context.Context, record *domain.RunRecord, logger *slog.Logger) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Create(context.WithoutCancel(ctx), record); err != nil {
		logger.Warn("run record write failed", "error", err)
	}
}

// finishRun finalizes the run record with the terminal status. It never
// masks the workflow error.
func (s *Service) finishRun(
	ctx context.Context,
	record *domain.RunRecord,
	result *domain.WorkflowResult,
	status string,
	cause error,
	logger *slog.Logger,
) {
	record.Status = status
	now := s.now()
	record.FinishedAt = &now
	if result.Verdict != nil {
		rows := result.Verdict.RowCount
		failed := int64(result.Verdict.FailedCount)
		record.RowCount = &rows
		record.FailedChecks = &failed
	}
	if cause != nil {
		msg := cause.Error()
		record.ErrorMessage = &msg
		s.logEvent(ctx, record.ID, "RECOVERY", msg)
	}
	if s.runs == nil {
		return
	}
	if err := s.runs.Finish(context.WithoutCancel(ctx), record); err != nil {
		logger.Warn("run record finish failed", "error", err)
	}
}
