package wap

import (
	"context"

	"golang.org/x/sync/errgroup"

	"lakewap/internal/domain"
)

// RunAll executes several work orders concurrently. Orders for distinct
// tables are independent: each acquires its own uniquely-identified
// isolation branch, and nothing here coordinates beyond bounding
// parallelism. Orders targeting the same table are not prevented; conflict
// detection is the store's responsibility at merge time.
//
// Results are returned in order, nil at indexes whose order failed before a
// branch was acquired. The returned error is the first failure observed;
// remaining orders still run to completion.
func (s *Service) RunAll(ctx context.Context, orders []domain.WorkOrder, limit int) ([]*domain.WorkflowResult, error) {
	if limit <= 0 {
		limit = 4
	}
	results := make([]*domain.WorkflowResult, len(orders))

	g := &errgroup.Group{}
	g.SetLimit(limit)

	for i := range orders {
		order := orders[i]
		idx := i
		g.Go(func() error {
			res, err := s.RunWAP(ctx, order)
			results[idx] = res
			return err
		})
	}

	err := g.Wait()
	return results, err
}
