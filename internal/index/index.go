package index

// CaseIndex defines the interface for index operations. Consumers should
// depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type CaseIndex interface {
	UpsertCase(c CaseRow) error
	DeleteCase(id string) error
	ReplaceLogs(caseID string, logs []LogRow) error
	AllCaseIDs() (map[string]struct{}, error)
	ListCases(clientID string, limit, offset int) ([]CaseRow, int, error)
	SearchLogs(query string, limit int) ([]SearchHit, error)
	Close() error
}

// Verify *DB satisfies CaseIndex at compile time.
var _ CaseIndex = (*DB)(nil)
