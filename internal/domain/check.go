package domain

import "fmt"

// CheckTier is the severity classification of a quality check. The tier
// determines how a failing measurement affects the overall verdict.
type CheckTier string

const (
	// TierCritical checks fail the verdict on any violation.
	TierCritical CheckTier = "critical"
	// TierImportant checks warn on small violations and escalate to
	// critical past the configured null-ratio threshold.
	TierImportant CheckTier = "important"
	// TierAdvisory checks only ever produce warnings.
	TierAdvisory CheckTier = "advisory"
)

// CheckKind is the predicate evaluated by a quality check.
type CheckKind string

const (
	CheckRowCount      CheckKind = "row_count"
	CheckNullRatio     CheckKind = "null_ratio"
	CheckValueRange    CheckKind = "value_range"
	CheckNonNegative   CheckKind = "non_negative"
	CheckDuplicateRows CheckKind = "duplicate_rows"
)

// ImportantNullEscalation is the null-ratio fraction above which an
// important-tier failure escalates to critical. The comparison is strict:
// a ratio of exactly 5% does not escalate.
const ImportantNullEscalation = 0.05

// QualityCheckSpec is a single validation rule. Specs are static
// configuration and never mutated at runtime.
type QualityCheckSpec struct {
	ID     string
	Tier   CheckTier
	Kind   CheckKind
	Column string
	// Min and Max bound value_range checks; nil means unbounded on that side.
	Min *float64
	Max *float64
}

// Validate rejects specs the gate engine cannot evaluate.
func (s QualityCheckSpec) Validate() error {
	if s.ID == "" {
		return ErrValidation("check spec: id must not be empty")
	}
	switch s.Tier {
	case TierCritical, TierImportant, TierAdvisory:
	default:
		return ErrValidation("check spec %q: unknown tier %q", s.ID, s.Tier)
	}
	switch s.Kind {
	case CheckRowCount, CheckDuplicateRows:
		// table-level checks take no column
	case CheckNullRatio, CheckNonNegative:
		if s.Column == "" {
			return ErrValidation("check spec %q: %s requires a column", s.ID, s.Kind)
		}
	case CheckValueRange:
		if s.Column == "" {
			return ErrValidation("check spec %q: %s requires a column", s.ID, s.Kind)
		}
		if s.Min == nil && s.Max == nil {
			return ErrValidation("check spec %q: value_range requires at least one bound", s.ID)
		}
		if s.Min != nil && s.Max != nil && *s.Min > *s.Max {
			return ErrValidation("check spec %q: min %v exceeds max %v", s.ID, *s.Min, *s.Max)
		}
	default:
		return ErrValidation("check spec %q: unknown kind %q", s.ID, s.Kind)
	}
	return nil
}

// CheckStatus classifies one evaluated check.
type CheckStatus string

const (
	CheckPass CheckStatus = "PASS"
	CheckWarn CheckStatus = "WARN"
	CheckFail CheckStatus = "FAIL"
)

// QualityCheckOutcome is the result of evaluating one spec.
type QualityCheckOutcome struct {
	Spec     QualityCheckSpec
	Status   CheckStatus
	Measured float64
	Message  string
}

// QualityVerdict aggregates all check outcomes for one workflow run. It is
// built once per run and immutable thereafter. Passed is false if and only
// if at least one critical-tier outcome failed (including important-tier
// escalations).
type QualityVerdict struct {
	Passed           bool
	Total            int
	PassedCount      int
	FailedCount      int
	CriticalFailures []string
	Warnings         []string
	RowCount         int64
	NullCounts       map[string]int64
	Outcomes         []QualityCheckOutcome
}

// Summary renders a one-line human-readable digest of the verdict.
func (v *QualityVerdict) Summary() string {
	status := "PASSED"
	if !v.Passed {
		status = "FAILED"
	}
	return fmt.Sprintf("%s: %d/%d checks passed, %d failed, %d warning(s), %d row(s)",
		status, v.PassedCount, v.Total, v.FailedCount, len(v.Warnings), v.RowCount)
}
