package wap

import (
	"context"
	"log/slog"

	"lakewap/internal/domain"
)

// publish acts on the verdict per the work order's policy and returns the
// terminal run status.
//
// Under a strict quality policy a failed verdict aborts the workflow with a
// QualityGateError before any merge is attempted. Otherwise exactly one
// merge call is issued per successful run; merge failures are never retried
// automatically (merge conflicts are a human-resolvable condition, not a
// transient fault) and never trigger branch deletion, so a failed merge
// leaves forensic evidence.
func (s *Service) publish(
	ctx context.Context,
	branch *domain.IsolationBranch,
	verdict *domain.QualityVerdict,
	order domain.WorkOrder,
	logger *slog.Logger,
) (string, error) {
	if order.StrictQuality && !verdict.Passed {
		return "", &domain.QualityGateError{
			FailedCount: verdict.FailedCount,
			Failures:    verdict.CriticalFailures,
		}
	}

	if order.OnSuccess == domain.SuccessInspect {
		logger.Info("branch ready for inspection",
			"branch", branch.Name,
			"hint", "merge manually once reviewed")
		return domain.RunStatusInspectionPending, nil
	}

	if err := s.store.MergeBranch(ctx, branch.Name, s.trunk); err != nil {
		return "", &domain.PublishError{Branch: branch.Name, Err: err}
	}
	if err := s.transition(branch, domain.BranchPublished); err != nil {
		return "", err
	}
	logger.Info("published to trunk", "branch", branch.Name, "trunk", s.trunk)

	if err := s.releaseBranch(ctx, branch.Name); err != nil {
		return "", err
	}
	logger.Info("retired isolation branch", "branch", branch.Name)
	return domain.RunStatusPublished, nil
}
