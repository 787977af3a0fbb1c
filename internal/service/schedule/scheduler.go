// Package schedule runs ingestion work orders on cron schedules.
package schedule

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"lakewap/internal/domain"
)

// Runner executes one write-audit-publish run. Implemented by wap.Service.
type Runner interface {
	RunWAP(ctx context.Context, order domain.WorkOrder) (*domain.WorkflowResult, error)
}

// Entry pairs a work order with its cron expression.
type Entry struct {
	Schedule string
	Order    domain.WorkOrder
}

// Scheduler manages cron-based ingestion runs.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	logger  *slog.Logger
	mu      sync.Mutex
	entries map[string]cron.EntryID // namespace.table → cron entry
}

func NewScheduler(runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers the entries and starts the cron loop.
func (s *Scheduler) Start(entries []Entry) error {
	if err := s.Reload(entries); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("ingestion scheduler started", "entries", len(entries))
	return nil
}

// Stop stops the cron loop and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("ingestion scheduler stopped")
}

// Reload replaces all registered entries. Entries with an invalid cron
// expression or work order are skipped with a warning.
func (s *Scheduler) Reload(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.entries {
		s.cron.Remove(id)
	}
	s.entries = make(map[string]cron.EntryID)

	for _, e := range entries {
		order := e.Order
		key := order.Namespace + "." + order.Table

		if err := order.Validate(); err != nil {
			s.logger.Warn("skipping scheduled order", "order", key, "error", err)
			continue
		}
		id, err := s.cron.AddFunc(e.Schedule, func() {
			result, err := s.runner.RunWAP(context.Background(), order)
			if err != nil {
				branch := ""
				if result != nil {
					branch = result.Branch
				}
				s.logger.Warn("scheduled run failed", "order", key, "branch", branch, "error", err)
				return
			}
			s.logger.Info("scheduled run finished", "order", key, "run_id", result.RunID, "branch", result.Branch)
		})
		if err != nil {
			s.logger.Warn("invalid cron schedule", "order", key, "schedule", e.Schedule, "error", err)
			continue
		}
		s.entries[key] = id
		s.logger.Info("scheduled ingestion", "order", key, "schedule", e.Schedule)
	}
	return nil
}

// Len reports the number of active cron entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
