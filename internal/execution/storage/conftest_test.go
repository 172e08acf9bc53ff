package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain/document"
)

// mockCollection serves a fixed result set, honouring offset and limit.
type mockCollection struct {
	docs      []*document.Document
	searches  []db.SearchQuery
	searchErr error
	countFn   func(ctx context.Context, query string) (int, error)
	deleteFn  func(ctx context.Context, id string) error
	replaceFn func(ctx context.Context, doc *document.Document) error
}

func (m *mockCollection) Search(_ context.Context, q db.SearchQuery) ([]*document.Document, int, error) {
	m.searches = append(m.searches, q)
	if m.searchErr != nil {
		return nil, 0, m.searchErr
	}
	if q.Offset >= len(m.docs) {
		return nil, len(m.docs), nil
	}
	end := min(q.Offset+q.Limit, len(m.docs))
	out := make([]*document.Document, 0, end-q.Offset)
	for _, d := range m.docs[q.Offset:end] {
		out = append(out, d.Clone())
	}
	return out, len(m.docs), nil
}

func (m *mockCollection) Count(ctx context.Context, query string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, query)
	}
	return len(m.docs), nil
}

func (m *mockCollection) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockCollection) Replace(ctx context.Context, doc *document.Document) error {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, doc)
	}
	return nil
}

func newTestCollection(t *testing.T, n int) *mockCollection {
	t.Helper()
	docs := make([]*document.Document, n)
	for i := range docs {
		docs[i] = document.Reconstruct(fmt.Sprintf("doc-%d", i), map[string]any{
			"n":     float64(i),
			"group": []string{"even", "odd"}[i%2],
		})
	}
	return &mockCollection{docs: docs}
}
