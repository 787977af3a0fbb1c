package schedule

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakewap/internal/domain"
)

type fakeRunner struct {
	mu     sync.Mutex
	orders []domain.WorkOrder
}

func (f *fakeRunner) RunWAP(ctx context.Context, order domain.WorkOrder) (*domain.WorkflowResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, order)
	return &domain.WorkflowResult{RunID: "run-1", Branch: "b", Success: true}, nil
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validOrder(table string) domain.WorkOrder {
	return domain.WorkOrder{
		Table:     table,
		Namespace: "social",
		SourceURI: "s3://bucket/" + table + "/*.parquet",
		OnSuccess: domain.SuccessMerge,
		OnFailure: domain.FailureDelete,
		MinRows:   1,
	}
}

func TestSchedulerRegistersEntries(t *testing.T) {
	s := NewScheduler(&fakeRunner{}, testLogger())
	err := s.Reload([]Entry{
		{Schedule: "@hourly", Order: validOrder("trips")},
		{Schedule: "30 2 * * *", Order: validOrder("riders")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestSchedulerSkipsBadEntries(t *testing.T) {
	bad := validOrder("trips")
	bad.OnSuccess = "promote" // invalid policy

	s := NewScheduler(&fakeRunner{}, testLogger())
	err := s.Reload([]Entry{
		{Schedule: "not a cron expr", Order: validOrder("riders")},
		{Schedule: "@daily", Order: bad},
		{Schedule: "@daily", Order: validOrder("fares")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len(), "only the valid entry survives")
}

func TestSchedulerReloadReplacesEntries(t *testing.T) {
	s := NewScheduler(&fakeRunner{}, testLogger())
	require.NoError(t, s.Reload([]Entry{{Schedule: "@hourly", Order: validOrder("trips")}}))
	require.NoError(t, s.Reload([]Entry{
		{Schedule: "@hourly", Order: validOrder("riders")},
		{Schedule: "@hourly", Order: validOrder("fares")},
	}))
	assert.Equal(t, 2, s.Len())
}

func TestSchedulerFiresRuns(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(runner, testLogger())
	// @every accepts sub-second intervals, which keeps the test fast.
	require.NoError(t, s.Start([]Entry{{Schedule: "@every 10ms", Order: validOrder("trips")}}))
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for runner.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Greater(t, runner.count(), 0, "scheduled run fired")

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, "trips", runner.orders[0].Table)
}
