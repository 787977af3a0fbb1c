// Package domain defines core types, interfaces, and errors for the
// write-audit-publish ingestion engine.
package domain

import "fmt"

// CollisionError indicates the derived isolation branch identifier already
// exists on the store. Fatal precondition violation, never retried.
type CollisionError struct {
	Branch string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("isolation branch %q already exists - refusing to reuse an ephemeral branch", e.Branch)
}

// PreexistingTableError indicates the target table was already present on a
// fresh isolation branch, which must start from a clean slate.
type PreexistingTableError struct {
	Table     string
	Namespace string
	Branch    string
}

func (e *PreexistingTableError) Error() string {
	return fmt.Sprintf("table %s.%s already exists on branch %q - refusing to overwrite", e.Namespace, e.Table, e.Branch)
}

// ProvisioningError indicates namespace/table creation or bulk import failed
// at the store. It wraps the store error so no detail is lost.
type ProvisioningError struct {
	Op  string // "create namespace", "create table", "import data", "probe source"
	Err error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning failed during %s: %v", e.Op, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// QualityGateError indicates the verdict failed under a strict quality
// policy. It carries the structured failure list for diagnostics.
type QualityGateError struct {
	FailedCount int
	Failures    []string
}

func (e *QualityGateError) Error() string {
	return fmt.Sprintf("quality gate failed: %d check(s) failed", e.FailedCount)
}

// PublishError indicates the merge into trunk failed. The isolation branch
// is never deleted in this case, regardless of failure policy.
type PublishError struct {
	Branch string
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("merge of branch %q failed: %v", e.Branch, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
