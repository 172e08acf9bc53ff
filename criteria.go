// Package docset is a lazy, chainable query-criteria builder for document
// stores.
//
// A Criteria accumulates a selector (predicate tree) and options (skip,
// limit, sort, projection) for one Model without touching storage. The
// first read resolves an execution context once: an in-memory enumerator
// for embedded documents, or a store-backed context that translates the
// criteria into a RediSearch query over the model's collection.
//
//	users := docset.NewModel("users", docset.WithCollection(col))
//	users.Scope("active", func(c *docset.Criteria, _ ...any) (*docset.Criteria, error) {
//		return c.Where("status", "active"), nil
//	})
//	res, err := users.Criteria(ctx).Gt("age", 18).Call(ctx, "active")
package docset

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/kailas-cloud/docset/internal/domain/document"
)

// ScopingOptions records how the default scope was handled.
type ScopingOptions struct {
	// Scoped is set when the default scope was applied.
	Scoped bool
	// Unscoped is set when the default scope was explicitly skipped.
	Unscoped bool
}

// Criterion is anything that converts to a criteria.
type Criterion interface {
	ToCriteria() *Criteria
}

// Compile-time check: Criteria implements Criterion.
var _ Criterion = (*Criteria)(nil)

// Criteria is a lazy query over one model.
//
// A criteria is built privately and then executed; it is not safe for
// concurrent mutation. Once frozen, or once resolved and no longer
// changed, it may be read from several goroutines.
//
// The execution context is resolved once and reused. Changing the selector
// or options after resolution leaves that context in place.
type Criteria struct {
	model    *Model
	embedded bool

	selector   Selector
	options    Options
	documents  []*Document
	scoping    ScopingOptions
	inclusions []string

	mu     sync.Mutex // guards exec
	exec   ExecutionContext
	frozen bool
	err    error
}

func newCriteria(m *Model, embedded bool) *Criteria {
	return &Criteria{
		model:    m,
		embedded: embedded,
		selector: Selector{},
	}
}

// ToCriteria returns c itself.
func (c *Criteria) ToCriteria() *Criteria { return c }

// Model returns the document type the criteria queries.
func (c *Criteria) Model() *Model { return c.model }

// Embedded reports whether the criteria targets in-memory children.
func (c *Criteria) Embedded() bool { return c.embedded }

// Selector returns a copy of the predicate tree.
func (c *Criteria) Selector() Selector { return c.selector.Clone() }

// Options returns a copy of the query modifiers.
func (c *Criteria) Options() Options { return c.options.Clone() }

// Documents returns the cached documents, if any.
func (c *Criteria) Documents() []*Document { return slices.Clone(c.documents) }

// SetDocuments replaces the cached documents. When non-empty they become
// the data source of the criteria.
func (c *Criteria) SetDocuments(docs []*Document) *Criteria {
	if !c.mutable() {
		return c.frozenCopy()
	}
	c.documents = slices.Clone(docs)
	return c
}

// ScopingOptions returns the default scope bookkeeping.
func (c *Criteria) ScopingOptions() ScopingOptions { return c.scoping }

// SetScopingOptions replaces the default scope bookkeeping.
func (c *Criteria) SetScopingOptions(o ScopingOptions) *Criteria {
	if !c.mutable() {
		return c.frozenCopy()
	}
	c.scoping = o
	return c
}

// Inclusions returns the names of the scopes applied so far.
func (c *Criteria) Inclusions() []string { return slices.Clone(c.inclusions) }

// Frozen reports whether Freeze succeeded on c.
func (c *Criteria) Frozen() bool { return c.frozen }

// Err returns the first builder error recorded on the criteria. Reads
// report it too.
func (c *Criteria) Err() error { return c.err }

// Equal compares selector and options structurally. Model, embedded flag,
// cached documents and context are not compared. Equality holds at call
// time only: a later in-place change to either side can break it.
func (c *Criteria) Equal(o *Criteria) bool {
	if c == nil || o == nil {
		return c == o
	}
	opts := document.ValueOptions(cmpopts.EquateEmpty())
	return cmp.Equal(c.selector, o.selector, opts...) &&
		cmp.Equal(c.options, o.options, opts...)
}

// Clone returns a deep copy of selector, options, cached documents and
// scoping metadata. The copy is not frozen and resolves its own context.
func (c *Criteria) Clone() *Criteria {
	return &Criteria{
		model:      c.model,
		embedded:   c.embedded,
		selector:   c.selector.Clone(),
		options:    c.options.Clone(),
		documents:  slices.Clone(c.documents),
		scoping:    c.scoping,
		inclusions: slices.Clone(c.inclusions),
		err:        c.err,
	}
}

// Build returns an unsaved document seeded from the selector's literal
// values. Operator keys and predicate values are skipped; attrs win.
func (c *Criteria) Build(attrs map[string]any) *Document {
	seed := c.selector.Attributes()
	for k, v := range attrs {
		seed[c.model.field(k)] = v
	}
	return c.model.New(seed)
}

// Create builds a document and persists it through the model's persister.
// Persistence errors are returned unchanged.
func (c *Criteria) Create(ctx context.Context, attrs map[string]any) (*Document, error) {
	if c.model.persister == nil {
		return nil, ErrNoPersister
	}
	doc := c.Build(attrs)
	if err := c.model.persister.Insert(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// RaiseInvalid always fails with ErrInvalidFind.
func (c *Criteria) RaiseInvalid() error {
	return fmt.Errorf("%w: %s criteria %v", ErrInvalidFind, c.model.name, c.selector)
}

func (c *Criteria) String() string {
	return fmt.Sprintf("%s%v %+v", c.model.name, map[string]any(c.selector), c.options)
}

// mutable reports whether c may change.
func (c *Criteria) mutable() bool { return !c.frozen }

// frozenCopy is what builder methods return on a frozen criteria: a copy
// carrying ErrFrozen, leaving the frozen criteria untouched.
func (c *Criteria) frozenCopy() *Criteria {
	cp := c.Clone()
	cp.record(ErrFrozen)
	return cp
}

func (c *Criteria) record(err error) {
	if c.err == nil {
		c.err = err
	}
}

func appendUnique(list []string, names ...string) []string {
	for _, n := range names {
		if !slices.Contains(list, n) {
			list = append(list, n)
		}
	}
	return list
}

// uniq deduplicates names preserving first-seen order.
func uniq(names []string) []string {
	return appendUnique(make([]string, 0, len(names)), names...)
}
