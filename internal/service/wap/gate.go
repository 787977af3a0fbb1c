package wap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"lakewap/internal/domain"
)

// QualityGate runs the ordered check battery against an isolation branch
// via the store's query primitive and aggregates a verdict. It never mutates
// the branch: every check is a read-only query.
//
// The battery runs in a fixed priority order (row-count floor, critical
// nulls, important nulls, advisory nulls, value ranges, non-negativity,
// duplicate rows) and never short-circuits, so operators always see the full
// diagnostic picture at once.
type QualityGate struct {
	store  domain.LakehouseStore
	logger *slog.Logger
}

// NewQualityGate creates a QualityGate.
func NewQualityGate(store domain.LakehouseStore, logger *slog.Logger) *QualityGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &QualityGate{store: store, logger: logger}
}

// Evaluate runs every check and builds the verdict. A store or query error
// aborts evaluation and is returned as-is; it is not a verdict.
func (g *QualityGate) Evaluate(
	ctx context.Context,
	table, namespace, branch string,
	suite []domain.QualityCheckSpec,
	minRows int64,
) (*domain.QualityVerdict, error) {
	fq := quoteIdent(namespace) + "." + quoteIdent(table)

	verdict := &domain.QualityVerdict{NullCounts: make(map[string]int64)}

	// Row-count floor runs first: later checks are meaningless on an empty
	// or malformed table, and null ratios need the observed row count.
	rowCount, err := g.queryInt(ctx, branch, fmt.Sprintf("SELECT COUNT(*) FROM %s", fq))
	if err != nil {
		return nil, fmt.Errorf("row count on %s: %w", fq, err)
	}
	verdict.RowCount = rowCount

	floor := domain.QualityCheckSpec{ID: "row_count_floor", Tier: domain.TierCritical, Kind: domain.CheckRowCount}
	floorOutcome := domain.QualityCheckOutcome{Spec: floor, Status: domain.CheckPass, Measured: float64(rowCount)}
	if rowCount < minRows {
		floorOutcome.Status = domain.CheckFail
		floorOutcome.Message = fmt.Sprintf("row count %d below required minimum %d", rowCount, minRows)
	}
	g.record(verdict, floorOutcome)

	for _, spec := range orderSuite(suite) {
		outcome, err := g.evaluateSpec(ctx, fq, branch, spec, rowCount, verdict.NullCounts)
		if err != nil {
			return nil, fmt.Errorf("check %q: %w", spec.ID, err)
		}
		g.record(verdict, outcome)
	}

	verdict.Passed = verdict.FailedCount == 0
	g.logger.Debug("quality gate evaluated",
		"table", table, "namespace", namespace, "branch", branch,
		"passed", verdict.Passed, "failed", verdict.FailedCount,
		"warnings", len(verdict.Warnings), "rows", verdict.RowCount)
	return verdict, nil
}

// record folds one outcome into the verdict, preserving declaration order
// within failures and warnings.
func (g *QualityGate) record(v *domain.QualityVerdict, o domain.QualityCheckOutcome) {
	v.Outcomes = append(v.Outcomes, o)
	v.Total++
	switch o.Status {
	case domain.CheckFail:
		v.FailedCount++
		v.CriticalFailures = append(v.CriticalFailures, o.Message)
	case domain.CheckWarn:
		v.PassedCount++
		v.Warnings = append(v.Warnings, o.Message)
	default:
		v.PassedCount++
	}
}

// evaluateSpec runs a single configured check.
func (g *QualityGate) evaluateSpec(
	ctx context.Context,
	fq, branch string,
	spec domain.QualityCheckSpec,
	rowCount int64,
	nullCounts map[string]int64,
) (domain.QualityCheckOutcome, error) {
	switch spec.Kind {
	case domain.CheckNullRatio:
		return g.evalNullRatio(ctx, fq, branch, spec, rowCount, nullCounts)
	case domain.CheckValueRange:
		return g.evalValueRange(ctx, fq, branch, spec)
	case domain.CheckNonNegative:
		return g.evalNonNegative(ctx, fq, branch, spec)
	case domain.CheckDuplicateRows:
		return g.evalDuplicateRows(ctx, fq, branch, spec, rowCount)
	default:
		return domain.QualityCheckOutcome{}, fmt.Errorf("unsupported check kind %q", spec.Kind)
	}
}

// evalNullRatio measures 1 - COUNT(c)/COUNT(*). Critical-tier columns fail
// on any nonzero ratio. Important-tier columns warn on a nonzero ratio and
// escalate to a critical failure strictly above the 5%% threshold (exactly
// 5%% does not escalate). Advisory-tier columns only ever warn. Comparisons
// use unrounded values; percentages are rounded for display only.
func (g *QualityGate) evalNullRatio(
	ctx context.Context,
	fq, branch string,
	spec domain.QualityCheckSpec,
	rowCount int64,
	nullCounts map[string]int64,
) (domain.QualityCheckOutcome, error) {
	nullCount, err := g.queryInt(ctx, branch,
		fmt.Sprintf("SELECT COUNT(*) - COUNT(%s) FROM %s", quoteIdent(spec.Column), fq))
	if err != nil {
		return domain.QualityCheckOutcome{}, err
	}
	nullCounts[spec.Column] = nullCount

	var ratio float64
	if rowCount > 0 {
		ratio = float64(nullCount) / float64(rowCount)
	}
	outcome := domain.QualityCheckOutcome{Spec: spec, Status: domain.CheckPass, Measured: ratio}
	if nullCount == 0 {
		return outcome, nil
	}

	msg := fmt.Sprintf("column %q has %d null value(s) (%.2f%%)", spec.Column, nullCount, ratio*100)
	switch spec.Tier {
	case domain.TierCritical:
		outcome.Status = domain.CheckFail
		outcome.Message = msg
	case domain.TierImportant:
		if ratio > domain.ImportantNullEscalation {
			outcome.Status = domain.CheckFail
			outcome.Message = msg + " - exceeds escalation threshold"
		} else {
			outcome.Status = domain.CheckWarn
			outcome.Message = msg
		}
	case domain.TierAdvisory:
		outcome.Status = domain.CheckWarn
		outcome.Message = msg
	}
	return outcome, nil
}

// evalValueRange fails when the observed MIN or MAX falls outside the
// configured bounds. Columns with no non-null values are skipped: there is
// no min/max to compare.
func (g *QualityGate) evalValueRange(
	ctx context.Context,
	fq, branch string,
	spec domain.QualityCheckSpec,
) (domain.QualityCheckOutcome, error) {
	col := quoteIdent(spec.Column)

	minVal, minNull, err := g.queryFloat(ctx, branch, fmt.Sprintf("SELECT MIN(%s) FROM %s", col, fq))
	if err != nil {
		return domain.QualityCheckOutcome{}, err
	}
	maxVal, maxNull, err := g.queryFloat(ctx, branch, fmt.Sprintf("SELECT MAX(%s) FROM %s", col, fq))
	if err != nil {
		return domain.QualityCheckOutcome{}, err
	}

	outcome := domain.QualityCheckOutcome{Spec: spec, Status: domain.CheckPass}
	if minNull || maxNull {
		outcome.Message = fmt.Sprintf("column %q has no non-null values, range check skipped", spec.Column)
		return outcome, nil
	}

	outcome.Measured = maxVal
	switch {
	case spec.Min != nil && minVal < *spec.Min:
		outcome.Status = domain.CheckFail
		outcome.Measured = minVal
		outcome.Message = fmt.Sprintf("column %q min %v below lower bound %v", spec.Column, minVal, *spec.Min)
	case spec.Max != nil && maxVal > *spec.Max:
		outcome.Status = domain.CheckFail
		outcome.Message = fmt.Sprintf("column %q max %v above upper bound %v", spec.Column, maxVal, *spec.Max)
	}
	return outcome, nil
}

// evalNonNegative fails when any value in the column is negative.
func (g *QualityGate) evalNonNegative(
	ctx context.Context,
	fq, branch string,
	spec domain.QualityCheckSpec,
) (domain.QualityCheckOutcome, error) {
	negCount, err := g.queryInt(ctx, branch,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s < 0", fq, quoteIdent(spec.Column)))
	if err != nil {
		return domain.QualityCheckOutcome{}, err
	}
	outcome := domain.QualityCheckOutcome{Spec: spec, Status: domain.CheckPass, Measured: float64(negCount)}
	if negCount > 0 {
		outcome.Status = domain.CheckFail
		outcome.Message = fmt.Sprintf("column %q has %d negative value(s)", spec.Column, negCount)
	}
	return outcome, nil
}

// evalDuplicateRows measures fully-duplicated rows. The effect of a nonzero
// count follows the configured tier: critical fails, any other tier warns.
func (g *QualityGate) evalDuplicateRows(
	ctx context.Context,
	fq, branch string,
	spec domain.QualityCheckSpec,
	rowCount int64,
) (domain.QualityCheckOutcome, error) {
	outcome := domain.QualityCheckOutcome{Spec: spec, Status: domain.CheckPass}
	if rowCount == 0 {
		return outcome, nil
	}
	distinct, err := g.queryInt(ctx, branch,
		fmt.Sprintf("SELECT COUNT(*) FROM (SELECT DISTINCT * FROM %s)", fq))
	if err != nil {
		return domain.QualityCheckOutcome{}, err
	}
	dups := rowCount - distinct
	outcome.Measured = float64(dups)
	if dups > 0 {
		msg := fmt.Sprintf("table has %d duplicated row(s)", dups)
		if spec.Tier == domain.TierCritical {
			outcome.Status = domain.CheckFail
		} else {
			outcome.Status = domain.CheckWarn
		}
		outcome.Message = msg
	}
	return outcome, nil
}

func (g *QualityGate) queryInt(ctx context.Context, branch, sqlText string) (int64, error) {
	res, err := g.store.Query(ctx, sqlText, branch)
	if err != nil {
		return 0, err
	}
	v, isNull, err := res.ScalarInt64()
	if err != nil {
		return 0, err
	}
	if isNull {
		return 0, nil
	}
	return v, nil
}

func (g *QualityGate) queryFloat(ctx context.Context, branch, sqlText string) (float64, bool, error) {
	res, err := g.store.Query(ctx, sqlText, branch)
	if err != nil {
		return 0, false, err
	}
	return res.ScalarFloat64()
}

// orderSuite arranges the configured checks into the fixed battery order,
// preserving declaration order within each group.
func orderSuite(suite []domain.QualityCheckSpec) []domain.QualityCheckSpec {
	groups := []func(domain.QualityCheckSpec) bool{
		func(s domain.QualityCheckSpec) bool { return s.Kind == domain.CheckNullRatio && s.Tier == domain.TierCritical },
		func(s domain.QualityCheckSpec) bool { return s.Kind == domain.CheckNullRatio && s.Tier == domain.TierImportant },
		func(s domain.QualityCheckSpec) bool { return s.Kind == domain.CheckNullRatio && s.Tier == domain.TierAdvisory },
		func(s domain.QualityCheckSpec) bool { return s.Kind == domain.CheckValueRange },
		func(s domain.QualityCheckSpec) bool { return s.Kind == domain.CheckNonNegative },
		func(s domain.QualityCheckSpec) bool { return s.Kind == domain.CheckDuplicateRows },
	}
	ordered := make([]domain.QualityCheckSpec, 0, len(suite))
	for _, match := range groups {
		for _, spec := range suite {
			if match(spec) {
				ordered = append(ordered, spec)
			}
		}
	}
	return ordered
}

// quoteIdent double-quotes a SQL identifier, escaping embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
