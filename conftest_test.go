package docset

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain/document"
)

// fakeCollection serves a fixed result set, honouring offset and limit.
// It does not evaluate the query; tests inspect the recorded searches.
type fakeCollection struct {
	docs      []*Document
	searches  []db.SearchQuery
	searchErr error
	inserted  []*Document
	insertErr error
	deleted   []string
}

func (f *fakeCollection) Search(_ context.Context, q db.SearchQuery) ([]*Document, int, error) {
	f.searches = append(f.searches, q)
	if f.searchErr != nil {
		return nil, 0, f.searchErr
	}
	if q.Offset >= len(f.docs) {
		return nil, len(f.docs), nil
	}
	end := min(q.Offset+q.Limit, len(f.docs))
	out := make([]*Document, 0, end-q.Offset)
	for _, d := range f.docs[q.Offset:end] {
		out = append(out, d.Clone())
	}
	return out, len(f.docs), nil
}

func (f *fakeCollection) Count(_ context.Context, _ string) (int, error) {
	if f.searchErr != nil {
		return 0, f.searchErr
	}
	return len(f.docs), nil
}

func (f *fakeCollection) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCollection) Replace(_ context.Context, _ *Document) error { return nil }

func (f *fakeCollection) Insert(_ context.Context, doc *Document) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if doc.ID() == "" {
		if err := doc.SetID(fmt.Sprintf("new-%d", len(f.inserted)+1)); err != nil {
			return err
		}
	}
	doc.MarkPersisted()
	f.inserted = append(f.inserted, doc)
	return nil
}

// countingResolver wraps the default resolver and counts constructions.
type countingResolver struct {
	calls atomic.Int32
	fail  error
}

func (r *countingResolver) Resolve(ctx context.Context, c *Criteria) (ExecutionContext, error) {
	r.calls.Add(1)
	if r.fail != nil {
		return nil, r.fail
	}
	return DefaultResolver().Resolve(ctx, c)
}

func newFakeCollection(n int) *fakeCollection {
	docs := make([]*Document, n)
	for i := range docs {
		docs[i] = document.Reconstruct(fmt.Sprintf("u%d", i+1), map[string]any{
			"age":    float64(20 + i),
			"status": []string{"active", "inactive"}[i%2],
		})
	}
	return &fakeCollection{docs: docs}
}

func newUsers(t *testing.T, opts ...Option) (*Model, *fakeCollection) {
	t.Helper()
	col := newFakeCollection(4)
	return NewModel("users", append([]Option{WithCollection(col)}, opts...)...), col
}

func children() []*Document {
	return []*Document{
		document.Reconstruct("c1", map[string]any{"active": true, "rank": 3.0}),
		document.Reconstruct("c2", map[string]any{"active": false, "rank": 1.0}),
		document.Reconstruct("c3", map[string]any{"active": true, "rank": 2.0}),
	}
}

// fakeParent owns embedded children and accepts removals.
type fakeParent struct {
	children  []*Document
	removeErr error
}

func (p *fakeParent) Insert(_ context.Context, doc *Document) error {
	p.children = append(p.children, doc)
	return nil
}

func (p *fakeParent) Remove(_ context.Context, docs []*Document) error {
	if p.removeErr != nil {
		return p.removeErr
	}
	p.children = slices.DeleteFunc(p.children, func(d *Document) bool {
		return slices.Contains(docs, d)
	})
	return nil
}
