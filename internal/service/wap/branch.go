package wap

import (
	"context"
	"fmt"

	"lakewap/internal/domain"
)

// branchName derives the isolation branch identifier from the actor, the
// target table, and a second-granularity timestamp. A collision on this
// name signals clock skew or a stale process, never a name to reuse.
func (s *Service) branchName(table string) string {
	return fmt.Sprintf("%s.wap_%s_%d", s.actor, table, s.now().Unix())
}

// acquireBranch derives the branch identifier and creates the branch from
// trunk. It returns a CollisionError, without mutating any store state, if
// the identifier already exists.
func (s *Service) acquireBranch(ctx context.Context, table string) (*domain.IsolationBranch, error) {
	name := s.branchName(table)

	exists, err := s.store.HasBranch(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check branch %q: %w", name, err)
	}
	if exists {
		return nil, &domain.CollisionError{Branch: name}
	}

	if err := s.store.CreateBranch(ctx, name, s.trunk); err != nil {
		return nil, fmt.Errorf("create branch %q from %q: %w", name, s.trunk, err)
	}

	return &domain.IsolationBranch{
		Name:   name,
		Parent: s.trunk,
		State:  domain.BranchCreated,
	}, nil
}

// releaseBranch deletes the branch. It is idempotent: releasing an
// already-absent branch is not an error at this layer.
func (s *Service) releaseBranch(ctx context.Context, name string) error {
	exists, err := s.store.HasBranch(ctx, name)
	if err != nil {
		return fmt.Errorf("check branch %q: %w", name, err)
	}
	if !exists {
		return nil
	}
	if err := s.store.DeleteBranch(ctx, name); err != nil {
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	return nil
}

// transition advances the branch state machine. Transitions are forward-only
// except into ABANDONED.
func (s *Service) transition(branch *domain.IsolationBranch, next domain.BranchState) error {
	if !branch.State.CanTransition(next) {
		return fmt.Errorf("illegal branch state transition %s -> %s", branch.State, next)
	}
	branch.State = next
	return nil
}
