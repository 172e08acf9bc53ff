package query

import (
	"github.com/kailas-cloud/docset"
)

// ScopeCall names a scope or query method to apply, with its arguments.
type ScopeCall struct {
	Name string
	Args []any
}

// Request describes one query: the criteria to build and the operation to run.
type Request struct {
	Model  string
	Where  docset.Selector
	Scopes []ScopeCall
	Skip   *int
	Limit  *int
	Sort   []docset.SortField
	Only   []string
	// Unscoped skips the model's default scope.
	Unscoped bool
	// Operation is any name the criteria dispatcher answers; "all" when empty.
	Operation string
	Args      []any
}

// Result is the outcome of an executed request.
type Result struct {
	Model      string
	Operation  string
	Inclusions []string
	Value      any
}
