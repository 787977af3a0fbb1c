package domain

// WorkflowResult is the terminal artifact of one write-audit-publish run.
// The branch identifier is populated as soon as a branch is acquired, so
// callers receive it even when the run fails and the branch was kept for
// inspection.
type WorkflowResult struct {
	RunID   string
	Branch  string
	Success bool
	Verdict *QualityVerdict
}
