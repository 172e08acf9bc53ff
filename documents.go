package docset

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/kailas-cloud/docset/internal/execution"
)

// Documents is a realized, ordered result set.
type Documents []*Document

// JSONOptions shapes AsJSON output.
type JSONOptions struct {
	// Only keeps just these attributes (plus _id).
	Only []string
	// Except drops these attributes.
	Except []string
	// Indent pretty-prints with this indent when set.
	Indent string
}

// Len returns the number of documents.
func (d Documents) Len() int { return len(d) }

// Take returns the first n documents.
func (d Documents) Take(n int) Documents {
	n = max(0, min(n, len(d)))
	return slices.Clone(d[:n])
}

// Drop returns the documents after the first n.
func (d Documents) Drop(n int) Documents {
	n = max(0, min(n, len(d)))
	return slices.Clone(d[n:])
}

// Reverse returns the documents in reverse order.
func (d Documents) Reverse() Documents {
	out := slices.Clone(d)
	slices.Reverse(out)
	return out
}

// IDs returns the document identifiers in order.
func (d Documents) IDs() []string {
	ids := make([]string, len(d))
	for i, doc := range d {
		ids[i] = doc.ID()
	}
	return ids
}

// Pluck returns the value of field for each document, nil where missing.
func (d Documents) Pluck(field string) []any {
	out := make([]any, len(d))
	for i, doc := range d {
		out[i], _ = doc.Get(field)
	}
	return out
}

// GroupBy buckets the documents by the value of field.
func (d Documents) GroupBy(field string) []Group {
	return execution.GroupBy(d, field)
}

// Contains reports whether an equal document is present.
func (d Documents) Contains(doc *Document) bool {
	return slices.ContainsFunc(d, doc.Equal)
}

// Equal compares two sequences element by element, in order.
func (d Documents) Equal(o Documents) bool {
	return slices.EqualFunc(d, o, func(a, b *Document) bool { return a.Equal(b) })
}

// AsJSON encodes the documents as a JSON array of flat objects.
func (d Documents) AsJSON(opts JSONOptions) ([]byte, error) {
	out := make([]map[string]any, len(d))
	for i, doc := range d {
		m := doc.Map()
		if len(opts.Only) > 0 {
			kept := make(map[string]any, len(opts.Only)+1)
			for _, f := range append([]string{"_id"}, opts.Only...) {
				if v, ok := m[f]; ok {
					kept[f] = v
				}
			}
			m = kept
		}
		for _, f := range opts.Except {
			delete(m, f)
		}
		out[i] = m
	}

	var (
		data []byte
		err  error
	)
	if opts.Indent != "" {
		data, err = json.MarshalIndent(out, "", opts.Indent)
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return nil, fmt.Errorf("encode documents: %w", err)
	}
	return data, nil
}
