package docset

import (
	"context"

	"github.com/kailas-cloud/docset/internal/execution"
	"github.com/kailas-cloud/docset/internal/execution/memory"
	"github.com/kailas-cloud/docset/internal/execution/storage"
)

// Resolver picks and builds the execution context of a criteria.
type Resolver interface {
	Resolve(ctx context.Context, c *Criteria) (ExecutionContext, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, c *Criteria) (ExecutionContext, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, c *Criteria) (ExecutionContext, error) {
	return f(ctx, c)
}

type defaultResolver struct{}

// DefaultResolver returns the standard strategy: an in-memory enumerator
// when the criteria is embedded or already holds documents, otherwise a
// store-backed context over the model's collection.
func DefaultResolver() Resolver { return defaultResolver{} }

func (defaultResolver) Resolve(_ context.Context, c *Criteria) (ExecutionContext, error) {
	if c.embedded || len(c.documents) > 0 {
		var rm memory.Remover
		if r, ok := c.model.persister.(Remover); ok {
			rm = r
		}
		return memory.New(c.documents, c.selector, c.options, rm)
	}
	if c.model.collection == nil {
		return nil, ErrNoCollection
	}
	return storage.New(c.model.collection, c.selector, c.options, storage.Config{
		Schema:    c.model.schema,
		BatchSize: c.model.batchSize,
		Logger:    c.model.logger,
	})
}

// kindOf names the strategy behind an execution context.
func kindOf(ec ExecutionContext) Kind {
	switch ec.(type) {
	case *memory.Context:
		return execution.KindMemory
	case *storage.Context:
		return execution.KindStore
	default:
		return Kind("custom")
	}
}
