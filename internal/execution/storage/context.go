// Package storage executes criteria against the backing collection of a
// root-level document type through RediSearch.
package storage

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain"
	"github.com/kailas-cloud/docset/internal/domain/document"
	"github.com/kailas-cloud/docset/internal/domain/selector"
	"github.com/kailas-cloud/docset/internal/execution"
	"github.com/kailas-cloud/docset/internal/match"
	"github.com/kailas-cloud/docset/internal/metrics"
)

// DefaultBatchSize is the page size used when neither the options nor the
// config name one.
const DefaultBatchSize = 100

// Compile-time check: Context implements execution.Context.
var _ execution.Context = (*Context)(nil)

// Collection is the consumer interface for the backing collection (ISP).
type Collection interface {
	Search(ctx context.Context, q db.SearchQuery) ([]*document.Document, int, error)
	Count(ctx context.Context, query string) (int, error)
	Delete(ctx context.Context, id string) error
	Replace(ctx context.Context, doc *document.Document) error
}

// Config carries the per-model settings of a store-backed context.
type Config struct {
	// Schema restricts queries to indexed fields; nil accepts any field.
	Schema    domain.Schema
	BatchSize int
	Logger    *zap.Logger
}

// Context pages lazily through the results of one translated query.
type Context struct {
	col    Collection
	plan   Plan
	opts   selector.Options
	batch  int
	logger *zap.Logger
}

// New translates sel and opts. Translation failures are reported here,
// wrapped in execution.ErrInvalidQuery, so no store call is ever made with
// an unplannable query.
func New(col Collection, sel selector.Selector, opts selector.Options, cfg Config) (*Context, error) {
	plan, err := Translate(sel, opts, cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("store context: %w: %w", execution.ErrInvalidQuery, err)
	}

	batch := cfg.BatchSize
	if opts.BatchSize != nil {
		batch = *opts.BatchSize
	}
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Context{
		col:    col,
		plan:   plan,
		opts:   opts.Clone(),
		batch:  batch,
		logger: logger,
	}, nil
}

// Plan returns the translated query.
func (c *Context) Plan() Plan { return c.plan }

// raw yields unprojected documents of the window, fetching one batch at a time.
func (c *Context) raw(ctx context.Context) iter.Seq2[*document.Document, error] {
	return func(yield func(*document.Document, error) bool) {
		offset := c.opts.SkipValue()
		remaining, bounded := c.opts.LimitValue()

		for !bounded || remaining > 0 {
			size := c.batch
			if bounded && remaining < size {
				size = remaining
			}

			docs, total, err := c.fetch(ctx, "iterate", offset, size)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, d := range docs {
				if !yield(d, nil) {
					return
				}
			}

			offset += len(docs)
			remaining -= len(docs)
			if len(docs) < size || offset >= total {
				return
			}
		}
	}
}

// Iterate yields the window in batches. Each call issues new store queries.
func (c *Context) Iterate(ctx context.Context) iter.Seq2[*document.Document, error] {
	return func(yield func(*document.Document, error) bool) {
		for d, err := range c.raw(ctx) {
			if err != nil {
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
func (c *Context) Count(ctx context.Context) (int, error) {
	start := time.Now()
	total, err := c.col.Count(ctx, c.plan.Query)
	metrics.ObserveStoreOp("count", start, err)
	if err != nil {
		c.logger.Error("store count failed", zap.String("query", c.plan.Query), zap.Error(err))
		return 0, err
	}

	n := max(0, total-c.opts.SkipValue())
	if limit, ok := c.opts.LimitValue(); ok && limit < n {
		n = limit
	}
	return n, nil
}

// Exists reports whether the window is non-empty.
func (c *Context) Exists(ctx context.Context) (bool, error) {
	d, err := c.at(ctx, "exists", 0)
	return d != nil, err
}

// First returns the first document of the window.
func (c *Context) First(ctx context.Context) (*document.Document, error) {
	d, err := c.at(ctx, "first", 0)
	if d == nil || err != nil {
		return nil, err
	}
	return match.Project(d, c.opts.Fields), nil
}

// Last returns the last document of the window.
func (c *Context) Last(ctx context.Context) (*document.Document, error) {
	n, err := c.Count(ctx)
	if err != nil || n == 0 {
		return nil, err
	}
	d, err := c.at(ctx, "last", n-1)
	if d == nil || err != nil {
		return nil, err
	}
	return match.Project(d, c.opts.Fields), nil
}

// at fetches the document at position i of the window, nil past its end.
func (c *Context) at(ctx context.Context, op string, i int) (*document.Document, error) {
	if limit, ok := c.opts.LimitValue(); ok && i >= limit {
		return nil, nil
	}
	docs, _, err := c.fetch(ctx, op, c.opts.SkipValue()+i, 1)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

// Distinct returns the distinct values of field over the window.
func (c *Context) Distinct(ctx context.Context, field string) ([]any, error) {
	docs, err := execution.Collect(c.Iterate(ctx))
	if err != nil {
		return nil, err
	}
	return execution.Distinct(docs, field), nil
}

// Sum adds the numeric values of field over the window.
func (c *Context) Sum(ctx context.Context, field string) (float64, error) {
	docs, err := execution.Collect(c.Iterate(ctx))
	if err != nil {
		return 0, err
	}
	return execution.Sum(docs, field), nil
}

// Min returns the smallest value of field over the window.
func (c *Context) Min(ctx context.Context, field string) (any, error) {
	docs, err := execution.Collect(c.Iterate(ctx))
	if err != nil {
		return nil, err
	}
	return execution.Min(docs, field), nil
}

// Max returns the largest value of field over the window.
func (c *Context) Max(ctx context.Context, field string) (any, error) {
	docs, err := execution.Collect(c.Iterate(ctx))
	if err != nil {
		return nil, err
	}
	return execution.Max(docs, field), nil
}

// Avg averages the numeric values of field over the window.
func (c *Context) Avg(ctx context.Context, field string) (float64, error) {
	docs, err := execution.Collect(c.Iterate(ctx))
	if err != nil {
		return 0, err
	}
	return execution.Avg(docs, field), nil
}

// Group buckets the window by field.
func (c *Context) Group(ctx context.Context, field string) ([]execution.Group, error) {
	docs, err := execution.Collect(c.Iterate(ctx))
	if err != nil {
		return nil, err
	}
	return execution.GroupBy(docs, field), nil
}

// Delete removes every document of the window. Identifiers are collected
// before the first delete so paging is not disturbed by the removals.
func (c *Context) Delete(ctx context.Context) (int, error) {
	docs, err := execution.Collect(c.raw(ctx))
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, d := range docs {
		start := time.Now()
		err := c.col.Delete(ctx, d.ID())
		metrics.ObserveStoreOp("delete", start, err)
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, domain.ErrDocumentNotFound):
			// removed concurrently
		default:
			c.logger.Error("store delete failed", zap.String("id", d.ID()), zap.Error(err))
			return deleted, err
		}
	}
	return deleted, nil
}

// Update sets attrs on the first document of the window.
func (c *Context) Update(ctx context.Context, attrs map[string]any) (bool, error) {
	d, err := c.at(ctx, "update", 0)
	if d == nil || err != nil {
		return false, err
	}
	if err := c.replace(ctx, d, attrs); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateAll sets attrs on every document of the window.
func (c *Context) UpdateAll(ctx context.Context, attrs map[string]any) (int, error) {
	docs, err := execution.Collect(c.raw(ctx))
	if err != nil {
		return 0, err
	}
	for i, d := range docs {
		if err := c.replace(ctx, d, attrs); err != nil {
			return i, err
		}
	}
	return len(docs), nil
}

func (c *Context) replace(ctx context.Context, d *document.Document, attrs map[string]any) error {
	for k, v := range attrs {
		d.Set(k, v)
	}
	start := time.Now()
	err := c.col.Replace(ctx, d)
	metrics.ObserveStoreOp("replace", start, err)
	if err != nil {
		c.logger.Error("store replace failed", zap.String("id", d.ID()), zap.Error(err))
	}
	return err
}

func (c *Context) fetch(ctx context.Context, op string, offset, limit int) ([]*document.Document, int, error) {
	start := time.Now()
	docs, total, err := c.col.Search(ctx, db.SearchQuery{
		Query:      c.plan.Query,
		Offset:     offset,
		Limit:      limit,
		SortBy:     c.plan.SortBy,
		Descending: c.plan.Descending,
	})
	metrics.ObserveStoreOp(op, start, err)
	if err != nil {
		c.logger.Error("store search failed",
			zap.String("op", op),
			zap.String("query", c.plan.Query),
			zap.Int("offset", offset),
			zap.Error(err),
		)
		return nil, 0, err
	}
	return docs, total, nil
}
