package docset

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docset/internal/execution"
	"github.com/kailas-cloud/docset/internal/execution/memory"
	"github.com/kailas-cloud/docset/internal/metrics"
)

// Context returns the execution context of c, resolving it on first use.
// The resolved context is reused by every later read on c. A failed
// resolution is not cached, so a later call retries.
func (c *Criteria) Context(ctx context.Context) (ExecutionContext, error) {
	if c.err != nil {
		return nil, c.err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exec != nil {
		return c.exec, nil
	}

	ec, err := c.model.resolver.Resolve(ctx, c)
	if err != nil {
		metrics.ContextResolutionsTotal.WithLabelValues(string(c.expectedKind()), "error").Inc()
		c.model.logger.Debug("context resolution failed",
			zap.String("model", c.model.name),
			zap.Bool("embedded", c.embedded),
			zap.Error(err),
		)
		return nil, err
	}
	c.exec = ec
	metrics.ContextResolutionsTotal.WithLabelValues(string(kindOf(ec)), "ok").Inc()
	return ec, nil
}

// Resolved reports whether the execution context has been built.
func (c *Criteria) Resolved() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exec != nil
}

// Kind names the strategy c resolves, or would resolve, to.
func (c *Criteria) Kind() Kind {
	c.mu.Lock()
	ec := c.exec
	c.mu.Unlock()
	if ec != nil {
		return kindOf(ec)
	}
	return c.expectedKind()
}

func (c *Criteria) expectedKind() Kind {
	if c.embedded || len(c.documents) > 0 {
		return execution.KindMemory
	}
	return execution.KindStore
}

// Freeze resolves the execution context and deduplicates the scope
// inclusions, then marks c immutable. Builder calls on a frozen criteria
// return a copy carrying ErrFrozen. A failed resolution leaves c unfrozen.
func (c *Criteria) Freeze(ctx context.Context) (*Criteria, error) {
	if c.frozen {
		return c, nil
	}
	if _, err := c.Context(ctx); err != nil {
		return c, err
	}
	c.inclusions = uniq(c.inclusions)
	c.frozen = true
	return c, nil
}

// Iter returns a lazy, restartable sequence of the matching documents.
// Nothing is resolved or fetched until the sequence is ranged over.
func (c *Criteria) Iter(ctx context.Context) iter.Seq2[*Document, error] {
	return func(yield func(*Document, error) bool) {
		ec, err := c.Context(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for doc, err := range ec.Iterate(ctx) {
			if !yield(doc, err) || err != nil {
				return
			}
		}
	}
}

// Each calls fn for every matching document and returns c for chaining.
// An error from fn stops the walk and is returned unchanged.
func (c *Criteria) Each(ctx context.Context, fn func(*Document) error) (*Criteria, error) {
	for doc, err := range c.Iter(ctx) {
		if err != nil {
			return c, err
		}
		if err := fn(doc); err != nil {
			return c, err
		}
	}
	return c, nil
}

// All realizes the matching documents.
func (c *Criteria) All(ctx context.Context) (Documents, error) {
	docs, err := execution.Collect(c.Iter(ctx))
	if err != nil {
		return nil, err
	}
	return Documents(docs), nil
}

// Count returns the number of documents the criteria yields.
func (c *Criteria) Count(ctx context.Context) (int, error) {
	ec, err := c.Context(ctx)
	if err != nil {
		return 0, err
	}
	return ec.Count(ctx)
}

// Any reports whether at least one document matches.
func (c *Criteria) Any(ctx context.Context) (bool, error) {
	ec, err := c.Context(ctx)
	if err != nil {
		return false, err
	}
	return ec.Exists(ctx)
}

// First returns the first document, nil when nothing matches.
func (c *Criteria) First(ctx context.Context) (*Document, error) {
	ec, err := c.Context(ctx)
	if err != nil {
		return nil, err
	}
	return ec.First(ctx)
}

// Last returns the last document, nil when nothing matches.
func (c *Criteria) Last(ctx context.Context) (*Document, error) {
	ec, err := c.Context(ctx)
	if err != nil {
		return nil, err
	}
	return ec.Last(ctx)
}

// Distinct returns the distinct values of field.
func (c *Criteria) Distinct(ctx context.Context, field string) ([]any, error) {
	ec, err := c.Context(ctx)
	if err != nil {
		return nil, err
	}
	return ec.Distinct(ctx, c.model.field(field))
}

// Sum adds up the numeric values of field.
func (c *Criteria) Sum(ctx context.Context, field string) (float64, error) {
	ec, err := c.Context(ctx)
	if err != nil {
		return 0, err
	}
	return ec.Sum(ctx, c.model.field(field))
}

// Min returns the smallest value of field, nil when there is none.
func (c *Criteria) Min(ctx context.Context, field string) (any, error) {
	ec, err := c.Context(ctx)
	if err != nil {
		return nil, err
	}
	return ec.Min(ctx, c.model.field(field))
}

// Max returns the largest value of field, nil when there is none.
func (c *Criteria) Max(ctx context.Context, field string) (any, error) {
	ec, err := c.Context(ctx)
	if err != nil {
		return nil, err
	}
	return ec.Max(ctx, c.model.field(field))
}

// Avg returns the mean of the numeric values of field.
func (c *Criteria) Avg(ctx context.Context, field string) (float64, error) {
	ec, err := c.Context(ctx)
	if err != nil {
		return 0, err
	}
	return ec.Avg(ctx, c.model.field(field))
}

// Group buckets the matching documents by the value of field.
func (c *Criteria) Group(ctx context.Context, field string) ([]Group, error) {
	ec, err := c.Context(ctx)
	if err != nil {
		return nil, err
	}
	return ec.Group(ctx, c.model.field(field))
}

// Delete removes every matching document. For in-memory criteria the
// cached documents shrink too, so clones taken afterwards agree.
func (c *Criteria) Delete(ctx context.Context) (int, error) {
	ec, err := c.Context(ctx)
	if err != nil {
		return 0, err
	}
	n, err := ec.Delete(ctx)
	if err != nil {
		return n, err
	}
	if mc, ok := ec.(*memory.Context); ok && n > 0 {
		c.mu.Lock()
		c.documents = mc.Documents()
		c.mu.Unlock()
	}
	return n, nil
}

// DeleteAll is Delete; both names are part of the operation table.
func (c *Criteria) DeleteAll(ctx context.Context) (int, error) {
	return c.Delete(ctx)
}

// Update sets attrs on the first matching document.
func (c *Criteria) Update(ctx context.Context, attrs map[string]any) (bool, error) {
	ec, err := c.Context(ctx)
	if err != nil {
		return false, err
	}
	return ec.Update(ctx, c.storedAttrs(attrs))
}

// UpdateAll sets attrs on every matching document.
func (c *Criteria) UpdateAll(ctx context.Context, attrs map[string]any) (int, error) {
	ec, err := c.Context(ctx)
	if err != nil {
		return 0, err
	}
	return ec.UpdateAll(ctx, c.storedAttrs(attrs))
}

// AsJSON realizes the documents and encodes them as a JSON array.
func (c *Criteria) AsJSON(ctx context.Context, opts JSONOptions) ([]byte, error) {
	docs, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	return docs.AsJSON(opts)
}

func (c *Criteria) storedAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[c.model.field(k)] = v
	}
	return out
}
