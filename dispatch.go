package docset

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docset/internal/metrics"
)

// operation answers a dispatched call on a criteria.
type operation func(ctx context.Context, c *Criteria, args []any) (any, error)

// sequenceOperation answers a dispatched call on realized documents.
type sequenceOperation func(docs Documents, args []any) (any, error)

// Dispatch tables, consulted in order: core, then the model's scopes and
// methods, then the realized documents.
var (
	coreOps = map[string]operation{
		"all": func(ctx context.Context, c *Criteria, _ []any) (any, error) {
			return c.All(ctx)
		},
		"count": func(ctx context.Context, c *Criteria, _ []any) (any, error) {
			return c.Count(ctx)
		},
		"exists": func(ctx context.Context, c *Criteria, _ []any) (any, error) {
			return c.Any(ctx)
		},
		"first": func(ctx context.Context, c *Criteria, _ []any) (any, error) {
			return c.First(ctx)
		},
		"last": func(ctx context.Context, c *Criteria, _ []any) (any, error) {
			return c.Last(ctx)
		},
		"distinct": fieldOp(func(ctx context.Context, c *Criteria, f string) (any, error) {
			return c.Distinct(ctx, f)
		}),
		"sum": fieldOp(func(ctx context.Context, c *Criteria, f string) (any, error) {
			return c.Sum(ctx, f)
		}),
		"min": fieldOp(func(ctx context.Context, c *Criteria, f string) (any, error) {
			return c.Min(ctx, f)
		}),
		"max": fieldOp(func(ctx context.Context, c *Criteria, f string) (any, error) {
			return c.Max(ctx, f)
		}),
		"avg": fieldOp(func(ctx context.Context, c *Criteria, f string) (any, error) {
			return c.Avg(ctx, f)
		}),
		"group": fieldOp(func(ctx context.Context, c *Criteria, f string) (any, error) {
			return c.Group(ctx, f)
		}),
		"delete": func(ctx context.Context, c *Criteria, _ []any) (any, error) {
			return c.Delete(ctx)
		},
		"delete_all": func(ctx context.Context, c *Criteria, _ []any) (any, error) {
			return c.DeleteAll(ctx)
		},
		"update": func(ctx context.Context, c *Criteria, args []any) (any, error) {
			attrs, err := attrsArg("update", args)
			if err != nil {
				return nil, err
			}
			return c.Update(ctx, attrs)
		},
		"update_all": func(ctx context.Context, c *Criteria, args []any) (any, error) {
			attrs, err := attrsArg("update_all", args)
			if err != nil {
				return nil, err
			}
			return c.UpdateAll(ctx, attrs)
		},
		"as_json": func(ctx context.Context, c *Criteria, args []any) (any, error) {
			var opts JSONOptions
			if len(args) > 0 {
				o, ok := args[0].(JSONOptions)
				if !ok {
					return nil, fmt.Errorf("%w: as_json expects JSONOptions, got %T", ErrInvalidArgument, args[0])
				}
				opts = o
			}
			return c.AsJSON(ctx, opts)
		},
		"skip": func(_ context.Context, c *Criteria, args []any) (any, error) {
			n, err := intArg("skip", args)
			if err != nil {
				return nil, err
			}
			return c.Clone().Skip(n), nil
		},
		"limit": func(_ context.Context, c *Criteria, args []any) (any, error) {
			n, err := intArg("limit", args)
			if err != nil {
				return nil, err
			}
			return c.Clone().Limit(n), nil
		},
		"clone": func(_ context.Context, c *Criteria, _ []any) (any, error) {
			return c.Clone(), nil
		},
	}

	sequenceOps = map[string]sequenceOperation{
		"len": func(d Documents, _ []any) (any, error) {
			return d.Len(), nil
		},
		"take": func(d Documents, args []any) (any, error) {
			n, err := intArg("take", args)
			if err != nil {
				return nil, err
			}
			return d.Take(n), nil
		},
		"drop": func(d Documents, args []any) (any, error) {
			n, err := intArg("drop", args)
			if err != nil {
				return nil, err
			}
			return d.Drop(n), nil
		},
		"reverse": func(d Documents, _ []any) (any, error) {
			return d.Reverse(), nil
		},
		"ids": func(d Documents, _ []any) (any, error) {
			return d.IDs(), nil
		},
		"pluck": func(d Documents, args []any) (any, error) {
			f, err := stringArg("pluck", args)
			if err != nil {
				return nil, err
			}
			return d.Pluck(f), nil
		},
		"group_by": func(d Documents, args []any) (any, error) {
			f, err := stringArg("group_by", args)
			if err != nil {
				return nil, err
			}
			return d.GroupBy(f), nil
		},
	}
)

// Call invokes the operation name on c.
//
// Core operations answer first. Otherwise a scope or method of the model
// runs with c installed as the ambient scope of ctx; a scope result is a
// new criteria built on a copy of c. Otherwise c is realized and the name
// is looked up among the document sequence operations, so a realization
// error wins over an unknown name. When nobody answers the result is an
// *UnknownOperationError.
func (c *Criteria) Call(ctx context.Context, name string, args ...any) (any, error) {
	if op, ok := coreOps[name]; ok {
		c.dispatched(name, "core")
		return op(ctx, c, args)
	}

	if res, ok, err := c.model.invoke(WithScope(ctx, c), name, args); ok {
		c.dispatched(name, "model")
		return res, err
	}

	docs, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	seqOp, ok := sequenceOps[name]
	if !ok {
		c.dispatched(name, "unknown")
		return nil, &UnknownOperationError{Model: c.model.name, Operation: name}
	}
	c.dispatched(name, "documents")
	return seqOp(docs, args)
}

// RespondsTo reports whether Call can answer name.
func (c *Criteria) RespondsTo(name string) bool {
	if _, ok := coreOps[name]; ok {
		return true
	}
	if c.model.RespondsTo(name) {
		return true
	}
	_, ok := sequenceOps[name]
	return ok
}

func (c *Criteria) dispatched(name, table string) {
	metrics.DispatchTotal.WithLabelValues(table).Inc()
	c.model.logger.Debug("dispatch",
		zap.String("model", c.model.name),
		zap.String("operation", name),
		zap.String("table", table),
	)
}

func fieldOp(fn func(ctx context.Context, c *Criteria, field string) (any, error)) operation {
	return func(ctx context.Context, c *Criteria, args []any) (any, error) {
		f, err := stringArg("field", args)
		if err != nil {
			return nil, err
		}
		return fn(ctx, c, f)
	}
}

func stringArg(op string, args []any) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: %s requires a field name", ErrInvalidArgument, op)
	}
	s, ok := args[0].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s expects a field name, got %v", ErrInvalidArgument, op, args[0])
	}
	return s, nil
}

func intArg(op string, args []any) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: %s requires a count", ErrInvalidArgument, op)
	}
	switch n := args[0].(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %s expects an integer, got %v", ErrInvalidArgument, op, args[0])
}

func attrsArg(op string, args []any) (map[string]any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: %s requires attributes", ErrInvalidArgument, op)
	}
	attrs, ok := args[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects attributes, got %T", ErrInvalidArgument, op, args[0])
	}
	return attrs, nil
}
