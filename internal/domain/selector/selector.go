// Package selector holds the query value pair a criteria accumulates:
// a predicate tree (Selector) and a record of query modifiers (Options).
package selector

import (
	"maps"
	"strings"
)

// Logical operators accepted at any level of a selector.
const (
	OpAnd = "$and"
	OpOr  = "$or"
	OpNor = "$nor"
)

// Field operators accepted inside a predicate sub-document.
const (
	OpEq     = "$eq"
	OpNe     = "$ne"
	OpGt     = "$gt"
	OpGte    = "$gte"
	OpLt     = "$lt"
	OpLte    = "$lte"
	OpIn     = "$in"
	OpNin    = "$nin"
	OpExists = "$exists"
	OpRegex  = "$regex"
)

// Selector is a predicate tree. Keys are stored field names or logical
// operators; values are literals, operator sub-documents ({"$gt": 5}) or,
// for logical operators, lists of nested selectors.
type Selector map[string]any

// Clone returns a deep copy. Nested maps and slices are copied so that
// mutating the clone never reaches the receiver.
func (s Selector) Clone() Selector {
	if s == nil {
		return Selector{}
	}
	out := make(Selector, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge overlays other's top-level entries onto s in place; other wins on
// key collision.
func (s Selector) Merge(other Selector) {
	for k, v := range other {
		s[k] = cloneValue(v)
	}
}

// IsOperatorKey reports whether key is an operator (contains "$") rather
// than a plain field name.
func IsOperatorKey(key string) bool {
	return strings.Contains(key, "$")
}

// IsPredicate reports whether v is a predicate sub-document, i.e. a map
// whose keys are operators.
func IsPredicate(v any) bool {
	m, ok := AsMap(v)
	if !ok || len(m) == 0 {
		return false
	}
	for k := range m {
		if IsOperatorKey(k) {
			return true
		}
	}
	return false
}

// Attributes returns the entries of s that can be expressed as concrete
// attribute values: operator keys and predicate-valued keys are skipped.
func (s Selector) Attributes() map[string]any {
	out := make(map[string]any, len(s))
	for k, v := range s {
		if IsOperatorKey(k) {
			continue
		}
		if IsPredicate(v) {
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

// AsMap normalizes the two map shapes that appear in selectors.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Selector:
		return m, true
	default:
		return nil, false
	}
}

// AsList normalizes the list shapes accepted for $in, $nin and logical
// operators.
func AsList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []Selector:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = map[string]any(s)
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case Selector:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []Selector:
		out := make([]Selector, len(t))
		for i, e := range t {
			out[i] = e.Clone()
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i], _ = cloneValue(e).(map[string]any)
		}
		return out
	default:
		return v
	}
}

// AddOperator sets op on the predicate document held at field, keeping any
// operators already present there. A literal value at field is replaced.
func (s Selector) AddOperator(field, op string, value any) {
	pred := map[string]any{}
	if existing, ok := AsMap(s[field]); ok && IsPredicate(existing) {
		pred = maps.Clone(existing)
	}
	pred[op] = value
	s[field] = pred
}

// AppendLogical appends clauses to the list held by a logical operator.
func (s Selector) AppendLogical(op string, clauses ...Selector) {
	list, _ := AsList(s[op])
	list = append([]any(nil), list...)
	for _, c := range clauses {
		list = append(list, map[string]any(c.Clone()))
	}
	s[op] = list
}
