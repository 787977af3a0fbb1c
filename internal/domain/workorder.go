package domain

import "strings"

// SuccessPolicy selects what happens after a clean audit.
type SuccessPolicy string

// FailurePolicy selects what happens to the isolation branch after a failure.
type FailurePolicy string

const (
	// SuccessInspect keeps the isolation branch for manual review and promotion.
	SuccessInspect SuccessPolicy = "inspect"
	// SuccessMerge merges the isolation branch into trunk and retires it.
	SuccessMerge SuccessPolicy = "merge"

	// FailureKeep preserves the isolation branch for debugging.
	FailureKeep FailurePolicy = "keep"
	// FailureDelete cleans up the isolation branch.
	FailureDelete FailurePolicy = "delete"
)

// WorkOrder is the unit of ingestion. It is immutable once the workflow
// starts and never persisted beyond process lifetime.
type WorkOrder struct {
	Table         string
	SourceURI     string
	Namespace     string
	OnSuccess     SuccessPolicy
	OnFailure     FailurePolicy
	MinRows       int64
	StrictQuality bool
}

// Validate checks the work order before the workflow starts.
func (o WorkOrder) Validate() error {
	if strings.TrimSpace(o.Table) == "" {
		return ErrValidation("work order: table must not be empty")
	}
	if strings.TrimSpace(o.SourceURI) == "" {
		return ErrValidation("work order: source URI must not be empty")
	}
	if strings.TrimSpace(o.Namespace) == "" {
		return ErrValidation("work order: namespace must not be empty")
	}
	switch o.OnSuccess {
	case SuccessInspect, SuccessMerge:
	default:
		return ErrValidation("work order: on_success must be %q or %q, got %q", SuccessInspect, SuccessMerge, o.OnSuccess)
	}
	switch o.OnFailure {
	case FailureKeep, FailureDelete:
	default:
		return ErrValidation("work order: on_failure must be %q or %q, got %q", FailureKeep, FailureDelete, o.OnFailure)
	}
	if o.MinRows < 0 {
		return ErrValidation("work order: min_rows must not be negative")
	}
	return nil
}
