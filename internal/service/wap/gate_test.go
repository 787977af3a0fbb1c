package wap

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakewap/internal/domain"
	"lakewap/internal/testutil"
)

const (
	testTable  = "trips"
	testNS     = "social"
	testBranch = "alice.wap_trips_1700000000"
)

func fqTable() string { return `"` + testNS + `"."` + testTable + `"` }

// gateStore returns a mock store preloaded with a row count for the test table.
func gateStore(rowCount int64) *testutil.MockStore {
	store := testutil.NewMockStore()
	store.Results[fmt.Sprintf("SELECT COUNT(*) FROM %s", fqTable())] = testutil.ScalarResult("count", rowCount)
	return store
}

func seedNullCount(store *testutil.MockStore, column string, nulls int64) {
	store.Results[fmt.Sprintf(`SELECT COUNT(*) - COUNT("%s") FROM %s`, column, fqTable())] =
		testutil.ScalarResult("nulls", nulls)
}

func seedMinMax(store *testutil.MockStore, column string, minVal, maxVal any) {
	store.Results[fmt.Sprintf(`SELECT MIN("%s") FROM %s`, column, fqTable())] = testutil.ScalarResult("min", minVal)
	store.Results[fmt.Sprintf(`SELECT MAX("%s") FROM %s`, column, fqTable())] = testutil.ScalarResult("max", maxVal)
}

func seedNegatives(store *testutil.MockStore, column string, negatives int64) {
	store.Results[fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE "%s" < 0`, fqTable(), column)] =
		testutil.ScalarResult("count", negatives)
}

func seedDistinct(store *testutil.MockStore, distinct int64) {
	store.Results[fmt.Sprintf("SELECT COUNT(*) FROM (SELECT DISTINCT * FROM %s)", fqTable())] =
		testutil.ScalarResult("count", distinct)
}

func evaluate(t *testing.T, store *testutil.MockStore, suite []domain.QualityCheckSpec, minRows int64) *domain.QualityVerdict {
	t.Helper()
	gate := NewQualityGate(store, slog.Default())
	verdict, err := gate.Evaluate(context.Background(), testTable, testNS, testBranch, suite, minRows)
	require.NoError(t, err)
	return verdict
}

func TestRowCountFloor(t *testing.T) {
	tests := []struct {
		name     string
		rowCount int64
		minRows  int64
		wantPass bool
	}{
		{name: "above_floor", rowCount: 100, minRows: 10, wantPass: true},
		{name: "at_floor", rowCount: 10, minRows: 10, wantPass: true},
		{name: "below_floor", rowCount: 50, minRows: 100000, wantPass: false},
		{name: "empty_table", rowCount: 0, minRows: 1, wantPass: false},
		{name: "no_floor", rowCount: 0, minRows: 0, wantPass: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := evaluate(t, gateStore(tt.rowCount), nil, tt.minRows)

			assert.Equal(t, tt.wantPass, verdict.Passed)
			assert.Equal(t, tt.rowCount, verdict.RowCount)
			if !tt.wantPass {
				require.Len(t, verdict.CriticalFailures, 1)
				assert.Contains(t, verdict.CriticalFailures[0], "row count")
			}
		})
	}
}

func TestNullRatioCriticalTier(t *testing.T) {
	store := gateStore(1000)
	seedNullCount(store, "user_id", 1000) // fully null

	suite := []domain.QualityCheckSpec{
		{ID: "user_id_nulls", Tier: domain.TierCritical, Kind: domain.CheckNullRatio, Column: "user_id"},
	}
	verdict := evaluate(t, store, suite, 0)

	assert.False(t, verdict.Passed)
	assert.Equal(t, 1, verdict.FailedCount)
	require.Len(t, verdict.CriticalFailures, 1)
	// The failure message names the column and the null count.
	assert.Contains(t, verdict.CriticalFailures[0], "user_id")
	assert.Contains(t, verdict.CriticalFailures[0], "1000")
	assert.Equal(t, int64(1000), verdict.NullCounts["user_id"])
}

func TestNullRatioCriticalAnyNonzeroFails(t *testing.T) {
	store := gateStore(1000000)
	seedNullCount(store, "id", 1) // a single null is enough

	suite := []domain.QualityCheckSpec{
		{ID: "id_nulls", Tier: domain.TierCritical, Kind: domain.CheckNullRatio, Column: "id"},
	}
	verdict := evaluate(t, store, suite, 0)

	assert.False(t, verdict.Passed)
}

func TestNullRatioImportantEscalationBoundary(t *testing.T) {
	tests := []struct {
		name      string
		rowCount  int64
		nullCount int64
		wantFail  bool
		wantWarn  bool
	}{
		// Exactly 5.0% must NOT escalate: the boundary is exclusive.
		{name: "exactly_5pct_warns", rowCount: 10000, nullCount: 500, wantFail: false, wantWarn: true},
		{name: "5.01pct_escalates", rowCount: 10000, nullCount: 501, wantFail: true, wantWarn: false},
		{name: "just_below_warns", rowCount: 10000, nullCount: 499, wantFail: false, wantWarn: true},
		{name: "zero_nulls_pass", rowCount: 10000, nullCount: 0, wantFail: false, wantWarn: false},
		{name: "fully_null_escalates", rowCount: 10000, nullCount: 10000, wantFail: true, wantWarn: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := gateStore(tt.rowCount)
			seedNullCount(store, "age", tt.nullCount)

			suite := []domain.QualityCheckSpec{
				{ID: "age_nulls", Tier: domain.TierImportant, Kind: domain.CheckNullRatio, Column: "age"},
			}
			verdict := evaluate(t, store, suite, 0)

			assert.Equal(t, !tt.wantFail, verdict.Passed)
			if tt.wantWarn {
				require.Len(t, verdict.Warnings, 1)
				assert.Contains(t, verdict.Warnings[0], "age")
			} else {
				assert.Empty(t, verdict.Warnings)
			}
		})
	}
}

func TestNullRatioAdvisoryNeverFails(t *testing.T) {
	store := gateStore(10)
	seedNullCount(store, "notes", 10) // 100% null

	suite := []domain.QualityCheckSpec{
		{ID: "notes_nulls", Tier: domain.TierAdvisory, Kind: domain.CheckNullRatio, Column: "notes"},
	}
	verdict := evaluate(t, store, suite, 0)

	assert.True(t, verdict.Passed)
	require.Len(t, verdict.Warnings, 1)
	assert.Contains(t, verdict.Warnings[0], "notes")
}

func TestValueRangeCheck(t *testing.T) {
	lo, hi := 0.0, 120.0

	tests := []struct {
		name     string
		min, max any
		wantPass bool
		wantMsg  string
	}{
		{name: "in_bounds", min: 1.0, max: 99.0, wantPass: true},
		{name: "below_lower", min: -3.0, max: 99.0, wantPass: false, wantMsg: "below lower bound"},
		{name: "above_upper", min: 1.0, max: 150.0, wantPass: false, wantMsg: "above upper bound"},
		{name: "at_bounds", min: 0.0, max: 120.0, wantPass: true},
		{name: "all_null_skipped", min: nil, max: nil, wantPass: true},
		{name: "integer_values", min: int64(5), max: int64(50), wantPass: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := gateStore(100)
			seedMinMax(store, "age", tt.min, tt.max)

			suite := []domain.QualityCheckSpec{
				{ID: "age_range", Tier: domain.TierCritical, Kind: domain.CheckValueRange, Column: "age", Min: &lo, Max: &hi},
			}
			verdict := evaluate(t, store, suite, 0)

			assert.Equal(t, tt.wantPass, verdict.Passed)
			if tt.wantMsg != "" {
				require.Len(t, verdict.CriticalFailures, 1)
				assert.Contains(t, verdict.CriticalFailures[0], tt.wantMsg)
			}
		})
	}
}

func TestNonNegativeCheck(t *testing.T) {
	store := gateStore(100)
	seedNegatives(store, "fare", 3)

	suite := []domain.QualityCheckSpec{
		{ID: "fare_sign", Tier: domain.TierCritical, Kind: domain.CheckNonNegative, Column: "fare"},
	}
	verdict := evaluate(t, store, suite, 0)

	assert.False(t, verdict.Passed)
	require.Len(t, verdict.CriticalFailures, 1)
	assert.Contains(t, verdict.CriticalFailures[0], "fare")
	assert.Contains(t, verdict.CriticalFailures[0], "3 negative")
}

func TestDuplicateRowsAdvisoryWarnsOnly(t *testing.T) {
	store := gateStore(100)
	seedDistinct(store, 90)

	suite := []domain.QualityCheckSpec{
		{ID: "dup_rows", Tier: domain.TierAdvisory, Kind: domain.CheckDuplicateRows},
	}
	verdict := evaluate(t, store, suite, 0)

	assert.True(t, verdict.Passed)
	require.Len(t, verdict.Warnings, 1)
	assert.Contains(t, verdict.Warnings[0], "10 duplicated")
}

func TestDuplicateRowsCriticalTierFails(t *testing.T) {
	store := gateStore(100)
	seedDistinct(store, 99)

	suite := []domain.QualityCheckSpec{
		{ID: "dup_rows", Tier: domain.TierCritical, Kind: domain.CheckDuplicateRows},
	}
	verdict := evaluate(t, store, suite, 0)

	assert.False(t, verdict.Passed)
}

func TestGateNeverShortCircuits(t *testing.T) {
	// Even a catastrophic row-count failure must not stop the battery:
	// operators see the full diagnostic picture at once.
	store := gateStore(0)
	seedNullCount(store, "a", 0)
	seedNegatives(store, "b", 0)

	suite := []domain.QualityCheckSpec{
		{ID: "a_nulls", Tier: domain.TierCritical, Kind: domain.CheckNullRatio, Column: "a"},
		{ID: "b_sign", Tier: domain.TierCritical, Kind: domain.CheckNonNegative, Column: "b"},
	}
	verdict := evaluate(t, store, suite, 1000)

	assert.False(t, verdict.Passed)
	assert.Equal(t, 3, verdict.Total) // floor + two configured checks
	assert.Equal(t, 1, verdict.FailedCount)
	assert.Equal(t, 2, verdict.PassedCount)
}

func TestGateAggregationOrder(t *testing.T) {
	// Failures are listed in battery order: floor, critical nulls,
	// important nulls (escalated), ranges, sign checks.
	store := gateStore(10)
	seedNullCount(store, "c1", 10)
	seedNullCount(store, "c2", 10)
	seedNullCount(store, "i1", 10) // 100% > 5%, escalates
	seedNegatives(store, "n1", 2)

	suite := []domain.QualityCheckSpec{
		// Declared out of battery order on purpose.
		{ID: "n1_sign", Tier: domain.TierCritical, Kind: domain.CheckNonNegative, Column: "n1"},
		{ID: "i1_nulls", Tier: domain.TierImportant, Kind: domain.CheckNullRatio, Column: "i1"},
		{ID: "c1_nulls", Tier: domain.TierCritical, Kind: domain.CheckNullRatio, Column: "c1"},
		{ID: "c2_nulls", Tier: domain.TierCritical, Kind: domain.CheckNullRatio, Column: "c2"},
	}
	verdict := evaluate(t, store, suite, 0)

	require.Len(t, verdict.CriticalFailures, 4)
	assert.Contains(t, verdict.CriticalFailures[0], "c1")
	assert.Contains(t, verdict.CriticalFailures[1], "c2")
	assert.Contains(t, verdict.CriticalFailures[2], "i1")
	assert.Contains(t, verdict.CriticalFailures[3], "n1")
}

func TestGateQueryErrorAborts(t *testing.T) {
	store := gateStore(100)
	// No canned result for the null query => the mock returns an error.
	suite := []domain.QualityCheckSpec{
		{ID: "x_nulls", Tier: domain.TierCritical, Kind: domain.CheckNullRatio, Column: "x"},
	}

	gate := NewQualityGate(store, slog.Default())
	verdict, err := gate.Evaluate(context.Background(), testTable, testNS, testBranch, suite, 0)

	require.Error(t, err)
	assert.Nil(t, verdict)
	assert.Contains(t, err.Error(), "x_nulls")
}

func TestGateIsReadOnly(t *testing.T) {
	store := gateStore(100)
	seedNullCount(store, "a", 0)

	suite := []domain.QualityCheckSpec{
		{ID: "a_nulls", Tier: domain.TierCritical, Kind: domain.CheckNullRatio, Column: "a"},
	}
	evaluate(t, store, suite, 0)

	for _, call := range store.Calls {
		assert.Contains(t, call, "Query(", "gate issued a non-query store call: %s", call)
	}
}
