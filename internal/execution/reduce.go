package execution

import (
	"github.com/kailas-cloud/docset/internal/domain/document"
	"github.com/kailas-cloud/docset/internal/match"
)

// Distinct returns the distinct values of field in first-seen order.
// Array values contribute each element.
func Distinct(docs []*document.Document, field string) []any {
	var out []any
	add := func(v any) {
		for _, seen := range out {
			if match.Equal(seen, v) {
				return
			}
		}
		out = append(out, v)
	}
	for _, d := range docs {
		v, ok := d.Get(field)
		if !ok {
			continue
		}
		if arr, isArr := v.([]any); isArr {
			for _, e := range arr {
				add(e)
			}
			continue
		}
		add(v)
	}
	return out
}

// Sum adds the numeric values of field; non-numeric values are skipped.
func Sum(docs []*document.Document, field string) float64 {
	var total float64
	for _, d := range docs {
		if f, ok := numeric(d, field); ok {
			total += f
		}
	}
	return total
}

// Avg averages the numeric values of field; 0 when there are none.
func Avg(docs []*document.Document, field string) float64 {
	var total float64
	var n int
	for _, d := range docs {
		if f, ok := numeric(d, field); ok {
			total += f
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// Min returns the smallest value of field, nil when no document has it.
func Min(docs []*document.Document, field string) any {
	return extreme(docs, field, func(c int) bool { return c < 0 })
}

// Max returns the largest value of field, nil when no document has it.
func Max(docs []*document.Document, field string) any {
	return extreme(docs, field, func(c int) bool { return c > 0 })
}

// GroupBy buckets docs by the value of field in first-seen key order.
// Documents lacking the field fall into a nil-keyed group.
func GroupBy(docs []*document.Document, field string) []Group {
	var groups []Group
	for _, d := range docs {
		v, _ := d.Get(field)
		placed := false
		for i := range groups {
			if match.Equal(groups[i].Key, v) {
				groups[i].Documents = append(groups[i].Documents, d)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, Group{Key: v, Documents: []*document.Document{d}})
		}
	}
	return groups
}

func extreme(docs []*document.Document, field string, better func(int) bool) any {
	var best any
	found := false
	for _, d := range docs {
		v, ok := d.Get(field)
		if !ok || v == nil {
			continue
		}
		if !found {
			best, found = v, true
			continue
		}
		if c, comparable := match.Compare(v, best); comparable && better(c) {
			best = v
		}
	}
	return best
}

func numeric(d *document.Document, field string) (float64, bool) {
	v, ok := d.Get(field)
	if !ok {
		return 0, false
	}
	return match.ToFloat(v)
}
