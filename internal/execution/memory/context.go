// Package memory executes criteria against documents already held in
// process, such as the embedded children of a loaded parent.
package memory

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/kailas-cloud/docset/internal/domain/document"
	"github.com/kailas-cloud/docset/internal/domain/selector"
	"github.com/kailas-cloud/docset/internal/execution"
	"github.com/kailas-cloud/docset/internal/match"
)

// Compile-time check: Context implements execution.Context.
var _ execution.Context = (*Context)(nil)

// Remover deletes documents from their owner, such as the parent holding
// an embedded collection.
type Remover interface {
	Remove(ctx context.Context, docs []*document.Document) error
}

// Context filters, sorts and pages an in-memory document set.
type Context struct {
	docs    []*document.Document
	matcher match.Matcher
	opts    selector.Options
	remover Remover
}

// New compiles sel against docs. The slice is copied; the documents
// themselves are shared, so updates are visible to the owner. Deletes are
// forwarded to rm when it is non-nil.
func New(docs []*document.Document, sel selector.Selector, opts selector.Options, rm Remover) (*Context, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("memory context: %w: %w", execution.ErrInvalidQuery, err)
	}
	m, err := match.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("memory context: %w: %w", execution.ErrInvalidQuery, err)
	}
	return &Context{
		docs:    slices.Clone(docs),
		matcher: m,
		opts:    opts.Clone(),
		remover: rm,
	}, nil
}

// matching returns the filtered and sorted documents before paging.
func (c *Context) matching() []*document.Document {
	var out []*document.Document
	for _, d := range c.docs {
		if c.matcher.Matches(d) {
			out = append(out, d)
		}
	}
	match.Sort(out, c.opts.Sort)
	return out
}

// window applies skip and limit.
func (c *Context) window() []*document.Document {
	docs := c.matching()
	skip := c.opts.SkipValue()
	if skip >= len(docs) {
		return nil
	}
	docs = docs[skip:]
	if limit, ok := c.opts.LimitValue(); ok && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}

// Iterate yields the current window. Each call re-evaluates the selector.
func (c *Context) Iterate(ctx context.Context) iter.Seq2[*document.Document, error] {
	return func(yield func(*document.Document, error) bool) {
		for _, d := range c.window() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(match.Project(d, c.opts.Fields), nil) {
				return
			}
		}
	}
}

// Count returns the number of documents iteration would yield.
func (c *Context) Count(_ context.Context) (int, error) {
	return len(c.window()), nil
}

// Exists reports whether any document matches.
func (c *Context) Exists(_ context.Context) (bool, error) {
	return len(c.window()) > 0, nil
}

// First returns the first document of the window.
func (c *Context) First(_ context.Context) (*document.Document, error) {
	docs := c.window()
	if len(docs) == 0 {
		return nil, nil
	}
	return match.Project(docs[0], c.opts.Fields), nil
}

// Last returns the last document of the window.
func (c *Context) Last(_ context.Context) (*document.Document, error) {
	docs := c.window()
	if len(docs) == 0 {
		return nil, nil
	}
	return match.Project(docs[len(docs)-1], c.opts.Fields), nil
}

// Distinct returns the distinct values of field.
func (c *Context) Distinct(_ context.Context, field string) ([]any, error) {
	return execution.Distinct(c.window(), field), nil
}

// Sum adds the numeric values of field.
func (c *Context) Sum(_ context.Context, field string) (float64, error) {
	return execution.Sum(c.window(), field), nil
}

// Min returns the smallest value of field.
func (c *Context) Min(_ context.Context, field string) (any, error) {
	return execution.Min(c.window(), field), nil
}

// Max returns the largest value of field.
func (c *Context) Max(_ context.Context, field string) (any, error) {
	return execution.Max(c.window(), field), nil
}

// Avg averages the numeric values of field.
func (c *Context) Avg(_ context.Context, field string) (float64, error) {
	return execution.Avg(c.window(), field), nil
}

// Group buckets the window by field.
func (c *Context) Group(_ context.Context, field string) ([]execution.Group, error) {
	return execution.GroupBy(c.window(), field), nil
}

// Delete removes the window from the owner, then from this context's
// document set. Nothing is dropped locally when the owner refuses.
func (c *Context) Delete(ctx context.Context) (int, error) {
	doomed := c.window()
	if len(doomed) == 0 {
		return 0, nil
	}
	if c.remover != nil {
		if err := c.remover.Remove(ctx, doomed); err != nil {
			return 0, err
		}
	}
	c.docs = slices.DeleteFunc(c.docs, func(d *document.Document) bool {
		return slices.Contains(doomed, d)
	})
	return len(doomed), nil
}

// Update sets attrs on the first document of the window.
func (c *Context) Update(_ context.Context, attrs map[string]any) (bool, error) {
	docs := c.window()
	if len(docs) == 0 {
		return false, nil
	}
	apply(docs[0], attrs)
	return true, nil
}

// UpdateAll sets attrs on every document of the window.
func (c *Context) UpdateAll(_ context.Context, attrs map[string]any) (int, error) {
	docs := c.window()
	for _, d := range docs {
		apply(d, attrs)
	}
	return len(docs), nil
}

// Documents returns the context's current document set.
func (c *Context) Documents() []*document.Document {
	return slices.Clone(c.docs)
}

func apply(d *document.Document, attrs map[string]any) {
	for k, v := range attrs {
		d.Set(k, v)
	}
}
