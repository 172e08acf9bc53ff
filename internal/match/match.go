// Package match evaluates selectors against in-memory documents.
//
// A selector such as {"age": {"$gt": 25}, "status": "active"} is compiled
// once into a tree of matchers and can then be applied to any number of
// documents without touching a store.
package match

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/kailas-cloud/docset/internal/domain/document"
	"github.com/kailas-cloud/docset/internal/domain/selector"
)

// ErrUnsupported marks selectors that cannot be evaluated in memory.
var ErrUnsupported = errors.New("unsupported selector")

// Matcher reports whether a document satisfies a compiled selector.
type Matcher interface {
	Matches(doc *document.Document) bool
}

// Compile turns a selector into a Matcher. Top-level entries are joined
// with AND; key order is irrelevant.
func Compile(sel selector.Selector) (Matcher, error) {
	keys := make([]string, 0, len(sel))
	for k := range sel {
		keys = append(keys, k)
	}
	// deterministic error reporting
	sort.Strings(keys)

	var nodes allOf
	for _, key := range keys {
		n, err := compileEntry(key, sel[key])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func compileEntry(key string, val any) (Matcher, error) {
	switch key {
	case selector.OpAnd, selector.OpOr, selector.OpNor:
		children, err := compileClauses(key, val)
		if err != nil {
			return nil, err
		}
		switch key {
		case selector.OpAnd:
			return allOf(children), nil
		case selector.OpOr:
			return anyOf(children), nil
		default:
			return noneOf(children), nil
		}
	}
	if selector.IsOperatorKey(key) {
		return nil, fmt.Errorf("%w: unknown logical operator %s", ErrUnsupported, key)
	}

	if !selector.IsPredicate(val) {
		return &fieldNode{path: key, op: selector.OpEq, value: val}, nil
	}

	pred, _ := selector.AsMap(val)
	ops := make([]string, 0, len(pred))
	for op := range pred {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	var nodes allOf
	for _, op := range ops {
		n, err := compileField(key, op, pred[op])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func compileClauses(op string, val any) ([]Matcher, error) {
	list, ok := selector.AsList(val)
	if !ok {
		return nil, fmt.Errorf("%w: value for %s must be a list", ErrUnsupported, op)
	}
	out := make([]Matcher, 0, len(list))
	for _, item := range list {
		sub, ok := selector.AsMap(item)
		if !ok {
			return nil, fmt.Errorf("%w: element of %s must be a document", ErrUnsupported, op)
		}
		m, err := Compile(sub)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func compileField(path, op string, val any) (Matcher, error) {
	n := &fieldNode{path: path, op: op, value: val}
	switch op {
	case selector.OpEq, selector.OpNe, selector.OpGt, selector.OpGte, selector.OpLt, selector.OpLte:
	case selector.OpIn, selector.OpNin:
		list, ok := selector.AsList(val)
		if !ok {
			return nil, fmt.Errorf("%w: %s on %q requires a list", ErrUnsupported, op, path)
		}
		n.list = list
	case selector.OpExists:
		if _, ok := val.(bool); !ok {
			return nil, fmt.Errorf("%w: %s on %q requires a boolean", ErrUnsupported, op, path)
		}
	case selector.OpRegex:
		pattern, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s on %q requires a string", ErrUnsupported, op, path)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %s on %q: %w", ErrUnsupported, op, path, err)
		}
		n.re = re
	default:
		return nil, fmt.Errorf("%w: unknown operator %s on %q", ErrUnsupported, op, path)
	}
	return n, nil
}

type allOf []Matcher

func (m allOf) Matches(doc *document.Document) bool {
	for _, c := range m {
		if !c.Matches(doc) {
			return false
		}
	}
	return true
}

type anyOf []Matcher

func (m anyOf) Matches(doc *document.Document) bool {
	for _, c := range m {
		if c.Matches(doc) {
			return true
		}
	}
	return false
}

type noneOf []Matcher

func (m noneOf) Matches(doc *document.Document) bool {
	return !anyOf(m).Matches(doc)
}

type fieldNode struct {
	path  string
	op    string
	value any
	list  []any
	re    *regexp.Regexp
}

func (n *fieldNode) Matches(doc *document.Document) bool {
	actual, exists := doc.Get(n.path)
	switch n.op {
	case selector.OpEq:
		return equalsOrContains(actual, exists, n.value)
	case selector.OpNe:
		return !equalsOrContains(actual, exists, n.value)
	case selector.OpGt:
		return exists && ordered(actual, n.value, func(c int) bool { return c > 0 })
	case selector.OpGte:
		return exists && ordered(actual, n.value, func(c int) bool { return c >= 0 })
	case selector.OpLt:
		return exists && ordered(actual, n.value, func(c int) bool { return c < 0 })
	case selector.OpLte:
		return exists && ordered(actual, n.value, func(c int) bool { return c <= 0 })
	case selector.OpIn:
		return inList(actual, exists, n.list)
	case selector.OpNin:
		return !inList(actual, exists, n.list)
	case selector.OpExists:
		want, _ := n.value.(bool)
		return exists == want
	case selector.OpRegex:
		s, ok := actual.(string)
		return ok && n.re.MatchString(s)
	}
	return false
}

// equalsOrContains follows document-store semantics: a null query value
// matches a missing field, and an array field matches when any element does.
func equalsOrContains(actual any, exists bool, expected any) bool {
	if !exists {
		return expected == nil
	}
	if Equal(actual, expected) {
		return true
	}
	if arr, ok := actual.([]any); ok {
		for _, e := range arr {
			if Equal(e, expected) {
				return true
			}
		}
	}
	return false
}

func inList(actual any, exists bool, list []any) bool {
	for _, want := range list {
		if equalsOrContains(actual, exists, want) {
			return true
		}
	}
	return false
}

func ordered(actual, expected any, ok func(int) bool) bool {
	c, comparable := Compare(actual, expected)
	return comparable && ok(c)
}
