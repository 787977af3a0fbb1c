// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lakewap/internal/domain"
)

// === Lakehouse store mock ===

// MockStore implements domain.LakehouseStore with in-memory branch,
// namespace, and table bookkeeping. Individual methods can be overridden
// with Fn fields to inject failures; queries are answered from the Results
// map keyed by exact SQL text, or by QueryFn when set.
type MockStore struct {
	mu         sync.Mutex
	branches   map[string]bool
	namespaces map[string]bool // key: ref + "\x00" + namespace
	tables     map[string]bool // key: ref + "\x00" + namespace + "." + table
	imported   map[string]string

	Calls []string // ordered method log, e.g. "CreateBranch(alice.wap_t_1)"

	HasBranchFn       func(ctx context.Context, name string) (bool, error)
	CreateBranchFn    func(ctx context.Context, name, fromRef string) error
	DeleteBranchFn    func(ctx context.Context, name string) error
	CreateNamespaceFn func(ctx context.Context, namespace, branch string) error
	CreateTableFn     func(ctx context.Context, table, namespace, branch, sourceURI string) error
	ImportDataFn      func(ctx context.Context, table, namespace, branch, sourceURI string) error
	MergeBranchFn     func(ctx context.Context, sourceRef, intoBranch string) error
	QueryFn           func(ctx context.Context, sqlText, ref string) (*domain.QueryResult, error)

	// Results maps exact SQL text to a canned result; consulted when
	// QueryFn is nil.
	Results map[string]*domain.QueryResult
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{
		branches:   make(map[string]bool),
		namespaces: make(map[string]bool),
		tables:     make(map[string]bool),
		imported:   make(map[string]string),
		Results:    make(map[string]*domain.QueryResult),
	}
}

func (m *MockStore) log(format string, args ...any) {
	m.Calls = append(m.Calls, fmt.Sprintf(format, args...))
}

func nsKey(ref, namespace string) string { return ref + "\x00" + namespace }

func tableKey(ref, namespace, table string) string { return ref + "\x00" + namespace + "." + table }

// SeedBranch marks a branch as existing.
func (m *MockStore) SeedBranch(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.branches[name] = true
}

// SeedTable marks a table as existing on a ref.
func (m *MockStore) SeedTable(ref, namespace, table string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[tableKey(ref, namespace, table)] = true
}

// HasBranchState reports whether the branch currently exists in the mock.
func (m *MockStore) HasBranchState(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.branches[name]
}

// HasTableState reports whether the table currently exists on the ref.
func (m *MockStore) HasTableState(ref, namespace, table string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables[tableKey(ref, namespace, table)]
}

func (m *MockStore) HasBranch(ctx context.Context, name string) (bool, error) {
	if m.HasBranchFn != nil {
		return m.HasBranchFn(ctx, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("HasBranch(%s)", name)
	return m.branches[name], nil
}

func (m *MockStore) CreateBranch(ctx context.Context, name, fromRef string) error {
	if m.CreateBranchFn != nil {
		return m.CreateBranchFn(ctx, name, fromRef)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("CreateBranch(%s)", name)
	m.branches[name] = true
	return nil
}

func (m *MockStore) DeleteBranch(ctx context.Context, name string) error {
	if m.DeleteBranchFn != nil {
		return m.DeleteBranchFn(ctx, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("DeleteBranch(%s)", name)
	if !m.branches[name] {
		return fmt.Errorf("branch %q does not exist", name)
	}
	delete(m.branches, name)
	return nil
}

func (m *MockStore) HasNamespace(ctx context.Context, namespace, ref string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("HasNamespace(%s@%s)", namespace, ref)
	return m.namespaces[nsKey(ref, namespace)], nil
}

func (m *MockStore) CreateNamespace(ctx context.Context, namespace, branch string) error {
	if m.CreateNamespaceFn != nil {
		return m.CreateNamespaceFn(ctx, namespace, branch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("CreateNamespace(%s@%s)", namespace, branch)
	m.namespaces[nsKey(branch, namespace)] = true
	return nil
}

func (m *MockStore) HasTable(ctx context.Context, table, namespace, ref string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("HasTable(%s.%s@%s)", namespace, table, ref)
	return m.tables[tableKey(ref, namespace, table)], nil
}

func (m *MockStore) CreateTable(ctx context.Context, table, namespace, branch, sourceURI string) error {
	if m.CreateTableFn != nil {
		return m.CreateTableFn(ctx, table, namespace, branch, sourceURI)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("CreateTable(%s.%s@%s)", namespace, table, branch)
	m.tables[tableKey(branch, namespace, table)] = true
	return nil
}

func (m *MockStore) ImportData(ctx context.Context, table, namespace, branch, sourceURI string) error {
	if m.ImportDataFn != nil {
		return m.ImportDataFn(ctx, table, namespace, branch, sourceURI)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("ImportData(%s.%s@%s)", namespace, table, branch)
	m.imported[tableKey(branch, namespace, table)] = sourceURI
	return nil
}

func (m *MockStore) Query(ctx context.Context, sqlText, ref string) (*domain.QueryResult, error) {
	if m.QueryFn != nil {
		return m.QueryFn(ctx, sqlText, ref)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("Query(%s)", sqlText)
	if res, ok := m.Results[sqlText]; ok {
		return res, nil
	}
	return nil, fmt.Errorf("no canned result for query %q", sqlText)
}

func (m *MockStore) MergeBranch(ctx context.Context, sourceRef, intoBranch string) error {
	if m.MergeBranchFn != nil {
		return m.MergeBranchFn(ctx, sourceRef, intoBranch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("MergeBranch(%s->%s)", sourceRef, intoBranch)
	if !m.branches[sourceRef] {
		return fmt.Errorf("branch %q does not exist", sourceRef)
	}
	// Move the branch's tables onto the target ref.
	for key := range m.tables {
		ref, rest, ok := cutKey(key)
		if ok && ref == sourceRef {
			m.tables[intoBranch+"\x00"+rest] = true
		}
	}
	return nil
}

// MergeCalls counts recorded MergeBranch invocations.
func (m *MockStore) MergeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if len(c) >= 11 && c[:11] == "MergeBranch" {
			n++
		}
	}
	return n
}

func cutKey(key string) (ref, rest string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '\x00' {
			return key[:i], key[i+1:], true
		}
	}
	return key, "", false
}

// ScalarResult builds a single-value QueryResult.
func ScalarResult(column string, value any) *domain.QueryResult {
	return &domain.QueryResult{Columns: []string{column}, Rows: [][]any{{value}}}
}

// === Run repository mock ===

// MockRunRepo implements domain.RunRepository, collecting records in memory.
type MockRunRepo struct {
	mu       sync.Mutex
	CreateFn func(ctx context.Context, run *domain.RunRecord) error
	FinishFn func(ctx context.Context, run *domain.RunRecord) error
	Records  []*domain.RunRecord
}

func (m *MockRunRepo) Create(ctx context.Context, run *domain.RunRecord) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, run)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.Records = append(m.Records, &cp)
	return nil
}

func (m *MockRunRepo) Finish(ctx context.Context, run *domain.RunRecord) error {
	if m.FinishFn != nil {
		return m.FinishFn(ctx, run)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.Records {
		if r.ID == run.ID {
			cp := *run
			m.Records[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("run %q not found", run.ID)
}

func (m *MockRunRepo) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("run %q not found", id)
}

func (m *MockRunRepo) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.RunRecord, 0, len(m.Records))
	for _, r := range m.Records {
		out = append(out, *r)
	}
	return out, nil
}

// LastRecord returns the last collected run record, or nil if none.
func (m *MockRunRepo) LastRecord() *domain.RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Records) == 0 {
		return nil
	}
	return m.Records[len(m.Records)-1]
}

// === Audit repository mock ===

// MockAuditRepo implements domain.AuditRepository for testing.
type MockAuditRepo struct {
	mu       sync.Mutex
	InsertFn func(ctx context.Context, e *domain.RunEvent) error
	Events   []*domain.RunEvent
}

func (m *MockAuditRepo) Insert(ctx context.Context, e *domain.RunEvent) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e.CreatedAt = time.Now()
	m.Events = append(m.Events, e)
	return nil
}

func (m *MockAuditRepo) ListByRun(ctx context.Context, runID string) ([]domain.RunEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.RunEvent
	for _, e := range m.Events {
		if e.RunID == runID {
			out = append(out, *e)
		}
	}
	return out, nil
}

// HasPhase returns true if any collected event has the given phase.
func (m *MockAuditRepo) HasPhase(phase string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.Phase == phase {
			return true
		}
	}
	return false
}
