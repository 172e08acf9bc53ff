// Package execution defines the contract shared by the strategies that
// execute a criteria: an in-memory enumerator over already loaded documents
// and a store-backed context that talks to the backing collection.
package execution

import (
	"context"
	"errors"
	"iter"

	"github.com/kailas-cloud/docset/internal/domain/document"
)

// ErrInvalidQuery signals that a selector/options pair cannot be turned
// into an execution plan by the chosen backend.
var ErrInvalidQuery = errors.New("invalid query")

// Group is one bucket of a Group result, in first-seen key order.
type Group struct {
	Key       any
	Documents []*document.Document
}

// Context executes a resolved criteria. Every read is restartable: calling
// Iterate again walks the matching documents again.
//
//nolint:interfacebloat // mirrors the full delegated aggregate contract
type Context interface {
	// Iterate yields matching documents after sort, skip, limit and
	// projection. A failure is yielded once as (nil, err) and ends the sequence.
	Iterate(ctx context.Context) iter.Seq2[*document.Document, error]
	Count(ctx context.Context) (int, error)
	Exists(ctx context.Context) (bool, error)
	// First and Last return nil without error when nothing matches.
	First(ctx context.Context) (*document.Document, error)
	Last(ctx context.Context) (*document.Document, error)
	Distinct(ctx context.Context, field string) ([]any, error)
	Sum(ctx context.Context, field string) (float64, error)
	Min(ctx context.Context, field string) (any, error)
	Max(ctx context.Context, field string) (any, error)
	Avg(ctx context.Context, field string) (float64, error)
	Group(ctx context.Context, field string) ([]Group, error)
	// Delete removes every matching document and returns how many were removed.
	Delete(ctx context.Context) (int, error)
	// Update sets attrs on the first matching document.
	Update(ctx context.Context, attrs map[string]any) (bool, error)
	// UpdateAll sets attrs on every matching document.
	UpdateAll(ctx context.Context, attrs map[string]any) (int, error)
}

// Kind names a context strategy for logs and metrics.
type Kind string

const (
	// KindMemory is the in-process enumerator.
	KindMemory Kind = "memory"
	// KindStore is the store-backed context.
	KindStore Kind = "store"
)

// Collect drains a sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[*document.Document, error]) ([]*document.Document, error) {
	var out []*document.Document
	for doc, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}
