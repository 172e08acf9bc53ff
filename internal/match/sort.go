package match

import (
	"slices"
	"strings"

	"github.com/kailas-cloud/docset/internal/domain/document"
	"github.com/kailas-cloud/docset/internal/domain/selector"
)

// Sort orders docs in place by the given keys. The sort is stable, so
// documents equal on every key keep their input order.
func Sort(docs []*document.Document, keys []selector.SortField) {
	if len(keys) == 0 {
		return
	}
	slices.SortStableFunc(docs, func(a, b *document.Document) int {
		for _, k := range keys {
			av, _ := a.Get(k.Field)
			bv, _ := b.Get(k.Field)
			if c := SortCompare(av, bv); c != 0 {
				if k.Direction == selector.Descending {
					return -c
				}
				return c
			}
		}
		return 0
	})
}

// Project applies a field projection and returns a new document. The
// original is returned untouched when fields is empty.
func Project(doc *document.Document, fields map[string]bool) *document.Document {
	if len(fields) == 0 {
		return doc
	}

	include := false
	for f, in := range fields {
		if in && f != document.IDField {
			include = true
			break
		}
	}

	out := doc.Clone()
	if include {
		keep := make(map[string]bool, len(fields))
		for f, in := range fields {
			if in {
				head, _, _ := strings.Cut(f, ".")
				keep[head] = true
			}
		}
		for k := range doc.Attributes() {
			if !keep[k] {
				out.Unset(k)
			}
		}
	} else {
		for f, in := range fields {
			if !in {
				out.Unset(f)
			}
		}
	}
	return out
}
