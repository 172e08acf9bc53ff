package storage

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain"
	"github.com/kailas-cloud/docset/internal/domain/document"
	"github.com/kailas-cloud/docset/internal/domain/selector"
	"github.com/kailas-cloud/docset/internal/match"
)

var errUntranslatable = errors.New("cannot translate to a store query")

// Plan is a selector/options pair translated to the store's query language.
type Plan struct {
	Query      string
	SortBy     string
	Descending bool
}

// Translate turns sel and opts into an FT.SEARCH plan. A non-nil schema
// restricts queries and sorting to indexed fields.
func Translate(sel selector.Selector, opts selector.Options, schema domain.Schema) (Plan, error) {
	if err := opts.Validate(); err != nil {
		return Plan{}, err
	}

	t := translator{schema: schema}
	q, err := t.selector(sel)
	if err != nil {
		return Plan{}, err
	}
	if q == "" {
		q = db.MatchAll
	}
	plan := Plan{Query: q}

	switch len(opts.Sort) {
	case 0:
	case 1:
		f := opts.Sort[0]
		if err := t.indexed(f.Field); err != nil {
			return Plan{}, err
		}
		plan.SortBy = db.FieldAlias(f.Field)
		plan.Descending = f.Direction == selector.Descending
	default:
		return Plan{}, fmt.Errorf("%w: sorting supports a single key, got %d", errUntranslatable, len(opts.Sort))
	}

	return plan, nil
}

type translator struct {
	schema domain.Schema
}

func (t translator) indexed(field string) error {
	if t.schema == nil || field == document.IDField {
		return nil
	}
	if _, ok := t.schema[field]; !ok {
		return fmt.Errorf("%w: field %q is not indexed", errUntranslatable, field)
	}
	return nil
}

// selector joins top-level entries with a space (intersection).
func (t translator) selector(sel selector.Selector) (string, error) {
	keys := make([]string, 0, len(sel))
	for k := range sel {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		part, err := t.entry(k, sel[k])
		if err != nil {
			return "", err
		}
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " "), nil
}

func (t translator) entry(key string, val any) (string, error) {
	switch key {
	case selector.OpAnd:
		clauses, err := t.clauses(key, val)
		if err != nil {
			return "", err
		}
		return "(" + strings.Join(clauses, " ") + ")", nil
	case selector.OpOr:
		clauses, err := t.clauses(key, val)
		if err != nil {
			return "", err
		}
		return "(" + strings.Join(clauses, " | ") + ")", nil
	case selector.OpNor:
		clauses, err := t.clauses(key, val)
		if err != nil {
			return "", err
		}
		return "-(" + strings.Join(clauses, " | ") + ")", nil
	}
	if selector.IsOperatorKey(key) {
		return "", fmt.Errorf("%w: operator %s", errUntranslatable, key)
	}
	if err := t.indexed(key); err != nil {
		return "", err
	}

	if !selector.IsPredicate(val) {
		return t.equals(key, val)
	}

	pred, _ := selector.AsMap(val)
	ops := make([]string, 0, len(pred))
	for op := range pred {
		ops = append(ops, op)
	}
	slices.Sort(ops)

	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		part, err := t.operator(key, op, pred[op])
		if err != nil {
			return "", err
		}
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " "), nil
}

func (t translator) clauses(op string, val any) ([]string, error) {
	list, ok := selector.AsList(val)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%w: %s requires a non-empty list", errUntranslatable, op)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		sub, ok := selector.AsMap(item)
		if !ok {
			return nil, fmt.Errorf("%w: element of %s must be a document", errUntranslatable, op)
		}
		q, err := t.selector(sub)
		if err != nil {
			return nil, err
		}
		if q == "" {
			q = db.MatchAll
		}
		out = append(out, "("+q+")")
	}
	return out, nil
}

func (t translator) operator(field, op string, val any) (string, error) {
	switch op {
	case selector.OpEq:
		return t.equals(field, val)
	case selector.OpNe:
		eq, err := t.equals(field, val)
		if err != nil {
			return "", err
		}
		return "-" + eq, nil
	case selector.OpGt, selector.OpGte, selector.OpLt, selector.OpLte:
		return rangeClause(field, op, val)
	case selector.OpIn:
		return t.in(field, val)
	case selector.OpNin:
		list, ok := selector.AsList(val)
		if !ok {
			return "", fmt.Errorf("%w: %s on %q requires a list", errUntranslatable, op, field)
		}
		if len(list) == 0 {
			return "", nil
		}
		in, err := t.in(field, val)
		if err != nil {
			return "", err
		}
		return "-" + in, nil
	}
	return "", fmt.Errorf("%w: operator %s on %q", errUntranslatable, op, field)
}

func (t translator) equals(field string, val any) (string, error) {
	alias := db.FieldAlias(field)
	switch v := val.(type) {
	case string:
		if t.schema[field] == domain.FieldText {
			return fmt.Sprintf("@%s:(%s)", alias, db.EscapeTag(v)), nil
		}
		return fmt.Sprintf("@%s:{%s}", alias, db.EscapeTag(v)), nil
	case bool:
		return fmt.Sprintf("@%s:{%t}", alias, v), nil
	}
	if f, ok := match.ToFloat(val); ok {
		n := formatNumber(f)
		return fmt.Sprintf("@%s:[%s %s]", alias, n, n), nil
	}
	return "", fmt.Errorf("%w: value %v (%T) on %q", errUntranslatable, val, val, field)
}

func (t translator) in(field string, val any) (string, error) {
	list, ok := selector.AsList(val)
	if !ok || len(list) == 0 {
		return "", fmt.Errorf("%w: $in on %q requires a non-empty list", errUntranslatable, field)
	}

	tags := make([]string, 0, len(list))
	allTags := t.schema[field] != domain.FieldText
	for _, item := range list {
		switch v := item.(type) {
		case string:
			tags = append(tags, db.EscapeTag(v))
		case bool:
			tags = append(tags, strconv.FormatBool(v))
		default:
			allTags = false
		}
	}
	if allTags {
		return fmt.Sprintf("@%s:{%s}", db.FieldAlias(field), strings.Join(tags, " | ")), nil
	}

	parts := make([]string, 0, len(list))
	for _, item := range list {
		eq, err := t.equals(field, item)
		if err != nil {
			return "", err
		}
		parts = append(parts, eq)
	}
	return "(" + strings.Join(parts, " | ") + ")", nil
}

func rangeClause(field, op string, val any) (string, error) {
	f, ok := match.ToFloat(val)
	if !ok {
		return "", fmt.Errorf("%w: %s on %q requires a number", errUntranslatable, op, field)
	}
	n := formatNumber(f)
	lo, hi := "-inf", "+inf"
	switch op {
	case selector.OpGt:
		lo = "(" + n
	case selector.OpGte:
		lo = n
	case selector.OpLt:
		hi = "(" + n
	case selector.OpLte:
		hi = n
	}
	return fmt.Sprintf("@%s:[%s %s]", db.FieldAlias(field), lo, hi), nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
