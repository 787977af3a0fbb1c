// Package wap implements the write-audit-publish orchestration engine:
// branch isolation, schema provisioning, the tiered quality gate, and the
// publish/rollback state machine with its compensating actions.
package wap

import (
	"context"
	"log/slog"
	"time"

	"lakewap/internal/domain"
)

// SourceProber verifies a source location before provisioning. A nil prober
// disables probing.
type SourceProber interface {
	Probe(ctx context.Context, uri string) error
}

// Options configures a Service. Tier policies and naming conventions are
// explicit per-service values, never process-wide state, so multiple
// services with different check suites can coexist in one process.
type Options struct {
	// Trunk is the stable branch consumers read from. Defaults to "main".
	Trunk string
	// Actor identifies who runs ingestions; it prefixes every isolation
	// branch name.
	Actor string
	// Suite is the quality-check battery evaluated on every run.
	Suite []domain.QualityCheckSpec
}

// Deps holds the external collaborators a Service needs. Runs, Audit, and
// Prober are optional; a nil value disables the corresponding side effect.
type Deps struct {
	Store  domain.LakehouseStore
	Runs   domain.RunRepository
	Audit  domain.AuditRepository
	Prober SourceProber
	Logger *slog.Logger
}

// Service runs write-audit-publish workflows against a lakehouse store.
type Service struct {
	store  domain.LakehouseStore
	runs   domain.RunRepository
	audit  domain.AuditRepository
	prober SourceProber
	trunk  string
	actor  string
	suite  []domain.QualityCheckSpec
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Service from deps and options.
func New(deps Deps, opts Options) *Service {
	trunk := opts.Trunk
	if trunk == "" {
		trunk = "main"
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  deps.Store,
		runs:   deps.Runs,
		audit:  deps.Audit,
		prober: deps.Prober,
		trunk:  trunk,
		actor:  opts.Actor,
		suite:  opts.Suite,
		logger: logger,
		now:    time.Now,
	}
}

// logEvent records an audit-trail event. Audit writes are best-effort and
// never mask workflow errors.
func (s *Service) logEvent(ctx context.Context, runID, phase, detail string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Insert(context.WithoutCancel(ctx), &domain.RunEvent{
		RunID:     runID,
		Phase:     phase,
		Detail:    detail,
		CreatedAt: s.now(),
	}); err != nil {
		s.logger.Warn("audit event write failed", "run_id", runID, "phase", phase, "error", err)
	}
}
