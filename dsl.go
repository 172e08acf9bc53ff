package docset

import (
	"maps"
	"slices"

	"github.com/kailas-cloud/docset/internal/domain/selector"
)

// The builder methods below change the receiver in place and return it so
// calls chain. Use Clone first to keep the original. On a frozen criteria
// they return a copy carrying ErrFrozen instead.

// Where adds a literal equality on field. Attribute aliases are applied.
func (c *Criteria) Where(field string, value any) *Criteria {
	return c.change(func() { c.selector[c.model.field(field)] = value })
}

// WhereSelector merges a raw selector, keys translated through aliases.
// Logical operator keys are kept as they are.
func (c *Criteria) WhereSelector(s Selector) *Criteria {
	return c.change(func() { c.selector.Merge(c.translate(s)) })
}

// Eq adds an explicit $eq predicate.
func (c *Criteria) Eq(field string, value any) *Criteria {
	return c.operator(field, selector.OpEq, value)
}

// Ne adds a $ne predicate.
func (c *Criteria) Ne(field string, value any) *Criteria {
	return c.operator(field, selector.OpNe, value)
}

// Gt adds a $gt predicate.
func (c *Criteria) Gt(field string, value any) *Criteria {
	return c.operator(field, selector.OpGt, value)
}

// Gte adds a $gte predicate.
func (c *Criteria) Gte(field string, value any) *Criteria {
	return c.operator(field, selector.OpGte, value)
}

// Lt adds a $lt predicate.
func (c *Criteria) Lt(field string, value any) *Criteria {
	return c.operator(field, selector.OpLt, value)
}

// Lte adds a $lte predicate.
func (c *Criteria) Lte(field string, value any) *Criteria {
	return c.operator(field, selector.OpLte, value)
}

// In adds a $in predicate.
func (c *Criteria) In(field string, values ...any) *Criteria {
	return c.operator(field, selector.OpIn, slices.Clone(values))
}

// Nin adds a $nin predicate.
func (c *Criteria) Nin(field string, values ...any) *Criteria {
	return c.operator(field, selector.OpNin, slices.Clone(values))
}

// Exists adds a $exists predicate.
func (c *Criteria) Exists(field string, exists bool) *Criteria {
	return c.operator(field, selector.OpExists, exists)
}

// Matches adds a $regex predicate. Only in-memory criteria can run it.
func (c *Criteria) Matches(field, pattern string) *Criteria {
	return c.operator(field, selector.OpRegex, pattern)
}

// Or appends alternatives to the $or list.
func (c *Criteria) Or(clauses ...Selector) *Criteria {
	return c.logical(selector.OpOr, clauses)
}

// Nor appends clauses to the $nor list.
func (c *Criteria) Nor(clauses ...Selector) *Criteria {
	return c.logical(selector.OpNor, clauses)
}

// And appends clauses to the $and list.
func (c *Criteria) And(clauses ...Selector) *Criteria {
	return c.logical(selector.OpAnd, clauses)
}

// Skip sets the number of matching documents to pass over.
func (c *Criteria) Skip(n int) *Criteria {
	return c.change(func() { c.options.Skip = selector.Int(n) })
}

// Limit caps the number of documents returned.
func (c *Criteria) Limit(n int) *Criteria {
	return c.change(func() { c.options.Limit = selector.Int(n) })
}

// BatchSize sets the store page size.
func (c *Criteria) BatchSize(n int) *Criteria {
	return c.change(func() { c.options.BatchSize = selector.Int(n) })
}

// Asc appends ascending sort keys.
func (c *Criteria) Asc(fields ...string) *Criteria {
	return c.sort(selector.Ascending, fields)
}

// Desc appends descending sort keys.
func (c *Criteria) Desc(fields ...string) *Criteria {
	return c.sort(selector.Descending, fields)
}

// Reorder replaces the sort specification.
func (c *Criteria) Reorder(keys ...SortField) *Criteria {
	return c.change(func() {
		c.options.Sort = nil
		for _, k := range keys {
			c.options.Sort = append(c.options.Sort, SortField{Field: c.model.field(k.Field), Direction: k.Direction})
		}
	})
}

// Only projects the result onto fields.
func (c *Criteria) Only(fields ...string) *Criteria {
	return c.project(fields, true)
}

// Without projects fields out of the result.
func (c *Criteria) Without(fields ...string) *Criteria {
	return c.project(fields, false)
}

func (c *Criteria) change(fn func()) *Criteria {
	if !c.mutable() {
		return c.frozenCopy()
	}
	fn()
	return c
}

func (c *Criteria) operator(field, op string, value any) *Criteria {
	return c.change(func() { c.selector.AddOperator(c.model.field(field), op, value) })
}

func (c *Criteria) logical(op string, clauses []Selector) *Criteria {
	return c.change(func() {
		translated := make([]Selector, len(clauses))
		for i, s := range clauses {
			translated[i] = c.translate(s)
		}
		c.selector.AppendLogical(op, translated...)
	})
}

func (c *Criteria) sort(dir Direction, fields []string) *Criteria {
	return c.change(func() {
		for _, f := range fields {
			c.options.Sort = append(c.options.Sort, SortField{Field: c.model.field(f), Direction: dir})
		}
	})
}

func (c *Criteria) project(fields []string, include bool) *Criteria {
	return c.change(func() {
		if c.options.Fields == nil {
			c.options.Fields = make(map[string]bool, len(fields))
		} else {
			c.options.Fields = maps.Clone(c.options.Fields)
		}
		for _, f := range fields {
			c.options.Fields[c.model.field(f)] = include
		}
	})
}

// translate applies aliases to the field keys of s, recursing into
// logical operator lists.
func (c *Criteria) translate(s Selector) Selector {
	out := make(Selector, len(s))
	for k, v := range s.Clone() {
		switch k {
		case selector.OpAnd, selector.OpOr, selector.OpNor:
			if list, ok := selector.AsList(v); ok {
				clauses := make([]any, 0, len(list))
				for _, item := range list {
					if sub, ok := selector.AsMap(item); ok {
						clauses = append(clauses, map[string]any(c.translate(sub)))
						continue
					}
					clauses = append(clauses, item)
				}
				v = clauses
			}
			out[k] = v
		default:
			out[c.model.field(k)] = v
		}
	}
	return out
}
