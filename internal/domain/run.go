package domain

import "time"

// Workflow run status constants, as persisted in the audit metastore.
const (
	RunStatusRunning           = "RUNNING"
	RunStatusPublished         = "PUBLISHED"
	RunStatusInspectionPending = "INSPECTION_PENDING"
	RunStatusAborted           = "ABORTED"
)

// RunRecord is the persisted audit record of one workflow run.
type RunRecord struct {
	ID           string
	Table        string
	Namespace    string
	SourceURI    string
	Branch       string
	OnSuccess    string
	OnFailure    string
	Status       string
	RowCount     *int64
	FailedChecks *int64
	ErrorMessage *string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// RunEvent is one audit-trail entry within a workflow run.
type RunEvent struct {
	ID        int64
	RunID     string
	Phase     string // "BRANCH", "PROVISION", "AUDIT", "PUBLISH", "RECOVERY"
	Detail    string
	CreatedAt time.Time
}
