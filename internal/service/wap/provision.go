package wap

import (
	"context"
	"strings"

	"lakewap/internal/domain"
)

// ensureNamespace creates the namespace on the branch if it is absent.
// A store-level "already exists" error is treated as success; any other
// failure is fatal and propagated with full detail.
func (s *Service) ensureNamespace(ctx context.Context, namespace, branch string) error {
	exists, err := s.store.HasNamespace(ctx, namespace, branch)
	if err != nil {
		return &domain.ProvisioningError{Op: "check namespace", Err: err}
	}
	if exists {
		return nil
	}
	if err := s.store.CreateNamespace(ctx, namespace, branch); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil
		}
		return &domain.ProvisioningError{Op: "create namespace", Err: err}
	}
	return nil
}

// provisionTable stages the target table on the isolation branch: it asserts
// the clean-slate invariant, optionally probes the source location, then
// triggers schema-inferred table creation followed by bulk import. Both
// sub-steps are delegated to the store; this method only sequences them and
// translates store failures into workflow errors.
func (s *Service) provisionTable(ctx context.Context, order domain.WorkOrder, branch string) error {
	exists, err := s.store.HasTable(ctx, order.Table, order.Namespace, branch)
	if err != nil {
		return &domain.ProvisioningError{Op: "check table", Err: err}
	}
	if exists {
		return &domain.PreexistingTableError{
			Table:     order.Table,
			Namespace: order.Namespace,
			Branch:    branch,
		}
	}

	if s.prober != nil {
		if err := s.prober.Probe(ctx, order.SourceURI); err != nil {
			return &domain.ProvisioningError{Op: "probe source", Err: err}
		}
	}

	if err := s.store.CreateTable(ctx, order.Table, order.Namespace, branch, order.SourceURI); err != nil {
		return &domain.ProvisioningError{Op: "create table", Err: err}
	}
	if err := s.store.ImportData(ctx, order.Table, order.Namespace, branch, order.SourceURI); err != nil {
		return &domain.ProvisioningError{Op: "import data", Err: err}
	}
	return nil
}
