package docset

import (
	"github.com/kailas-cloud/docset/internal/domain"
	"github.com/kailas-cloud/docset/internal/domain/document"
	"github.com/kailas-cloud/docset/internal/domain/selector"
	"github.com/kailas-cloud/docset/internal/execution"
	"github.com/kailas-cloud/docset/internal/execution/storage"
)

// Re-exported building blocks.
type (
	// Selector is the predicate tree of a criteria.
	Selector = selector.Selector
	// Options holds skip, limit, sort, projection and batch size.
	Options = selector.Options
	// SortField is one key of a sort specification.
	SortField = selector.SortField
	// Direction is a sort direction.
	Direction = selector.Direction
	// Document is a single record of a model.
	Document = document.Document
	// Group is one bucket returned by Group.
	Group = execution.Group
	// ExecutionContext is a resolved execution strategy.
	ExecutionContext = execution.Context
	// Collection is the backing collection of a root-level model.
	Collection = storage.Collection
	// Schema maps stored field paths to their index type.
	Schema = domain.Schema
)

// Sort directions.
const (
	Ascending  = selector.Ascending
	Descending = selector.Descending
)

// Kind names the execution strategy a criteria resolves to.
type Kind = execution.Kind

// Execution strategies.
const (
	KindMemory = execution.KindMemory
	KindStore  = execution.KindStore
)
