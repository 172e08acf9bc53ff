// Package app assembles docset models from configuration.
package app

import (
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docset"
	"github.com/kailas-cloud/docset/internal/config"
	"github.com/kailas-cloud/docset/internal/domain"
	"github.com/kailas-cloud/docset/internal/domain/selector"
)

// CollectionFunc returns the backing collection of a model.
type CollectionFunc func(name string) docset.Collection

// Binding is a configured model together with its index schema.
type Binding struct {
	Model      *docset.Model
	Collection string
	Schema     domain.Schema
}

// BuildModels turns model declarations into docset models.
func BuildModels(
	cfgs []config.ModelConfig,
	collection CollectionFunc,
	defaultBatch int,
	logger *zap.Logger,
) ([]Binding, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	out := make([]Binding, 0, len(cfgs))
	for _, mc := range cfgs {
		b, err := buildModel(mc, collection, defaultBatch, logger)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", mc.Name, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func buildModel(mc config.ModelConfig, collection CollectionFunc, defaultBatch int, logger *zap.Logger) (Binding, error) {
	fields := make([]domain.Field, len(mc.Fields))
	for i, f := range mc.Fields {
		ft, err := domain.ParseFieldType(f.Type)
		if err != nil {
			return Binding{}, fmt.Errorf("field %s: %w", f.Name, err)
		}
		fields[i] = domain.Field{Name: f.Name, Type: ft}
	}
	schema, err := domain.NewSchema(fields)
	if err != nil {
		return Binding{}, err
	}

	batch := mc.BatchSize
	if batch <= 0 {
		batch = defaultBatch
	}

	opts := []docset.Option{
		docset.WithAliases(mc.Aliases),
		docset.WithBatchSize(batch),
		docset.WithLogger(logger.With(zap.String("model", mc.Name))),
	}
	if len(schema) > 0 {
		opts = append(opts, docset.WithSchema(schema))
	}
	if collection != nil {
		if col := collection(mc.Collection); col != nil {
			opts = append(opts, docset.WithCollection(col))
		}
	}
	if mc.DefaultScope != nil {
		apply, err := scopeApplier(*mc.DefaultScope)
		if err != nil {
			return Binding{}, fmt.Errorf("default scope: %w", err)
		}
		opts = append(opts, docset.WithDefaultScope(apply))
	}

	m := docset.NewModel(mc.Name, opts...)
	for name, sc := range mc.Scopes {
		apply, err := scopeApplier(sc)
		if err != nil {
			return Binding{}, fmt.Errorf("scope %s: %w", name, err)
		}
		m.Scope(name, func(c *docset.Criteria, _ ...any) (*docset.Criteria, error) {
			return apply(c), nil
		})
	}
	return Binding{Model: m, Collection: mc.Collection, Schema: schema}, nil
}

// scopeApplier compiles a declarative scope into a criteria transformation.
func scopeApplier(sc config.ScopeConfig) (func(*docset.Criteria) *docset.Criteria, error) {
	keys := make([]docset.SortField, 0, len(sc.Sort))
	for _, s := range sc.Sort {
		dir, err := selector.ParseDirection(s.Direction)
		if err != nil {
			return nil, fmt.Errorf("sort %s: %w", s.Field, err)
		}
		keys = append(keys, docset.SortField{Field: s.Field, Direction: dir})
	}
	where := docset.Selector(maps.Clone(sc.Where))

	return func(c *docset.Criteria) *docset.Criteria {
		c = c.WhereSelector(where)
		if len(keys) > 0 {
			c = c.Reorder(keys...)
		}
		if sc.Skip != nil {
			c = c.Skip(*sc.Skip)
		}
		if sc.Limit != nil {
			c = c.Limit(*sc.Limit)
		}
		if len(sc.Only) > 0 {
			c = c.Only(sc.Only...)
		}
		return c
	}, nil
}

// Models returns the models of bindings.
func Models(bindings []Binding) []*docset.Model {
	out := make([]*docset.Model, len(bindings))
	for i, b := range bindings {
		out[i] = b.Model
	}
	return out
}
