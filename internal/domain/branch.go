package domain

// BranchState tracks the workflow-level lifecycle of an isolation branch.
type BranchState string

const (
	BranchCreated     BranchState = "CREATED"
	BranchProvisioned BranchState = "PROVISIONED"
	BranchAudited     BranchState = "AUDITED"
	BranchPublished   BranchState = "PUBLISHED"
	BranchAbandoned   BranchState = "ABANDONED"
)

// branchOrder defines the forward-only progression of branch states.
// BranchAbandoned is reachable from any state.
var branchOrder = map[BranchState]int{
	BranchCreated:     0,
	BranchProvisioned: 1,
	BranchAudited:     2,
	BranchPublished:   3,
}

// CanTransition reports whether moving from s to next is a legal
// state-machine transition. Every transition except into ABANDONED is
// forward-only.
func (s BranchState) CanTransition(next BranchState) bool {
	if next == BranchAbandoned {
		return s != BranchAbandoned
	}
	from, ok := branchOrder[s]
	if !ok {
		return false
	}
	to, ok := branchOrder[next]
	if !ok {
		return false
	}
	return to == from+1
}

// IsolationBranch is a disposable named workspace derived from trunk for
// staging one ingestion run. Its existence in the store is a durable side
// effect that outlives process memory.
type IsolationBranch struct {
	Name   string
	Parent string
	State  BranchState
}
