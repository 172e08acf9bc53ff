package query

import (
	"context"
	"testing"

	"github.com/kailas-cloud/docset"
	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain/document"
)

// mockCollection returns docs for every search and records the queries.
type mockCollection struct {
	docs     []*document.Document
	searchFn func(ctx context.Context, q db.SearchQuery) ([]*document.Document, int, error)
	queries  []db.SearchQuery
}

func (m *mockCollection) Search(ctx context.Context, q db.SearchQuery) ([]*document.Document, int, error) {
	m.queries = append(m.queries, q)
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	if q.Offset >= len(m.docs) {
		return nil, len(m.docs), nil
	}
	end := min(q.Offset+q.Limit, len(m.docs))
	return m.docs[q.Offset:end], len(m.docs), nil
}

func (m *mockCollection) Count(_ context.Context, _ string) (int, error) { return len(m.docs), nil }

func (m *mockCollection) Delete(_ context.Context, _ string) error { return nil }

func (m *mockCollection) Replace(_ context.Context, _ *document.Document) error { return nil }

func newTestService(t *testing.T) (*Service, *mockCollection) {
	t.Helper()
	col := &mockCollection{docs: []*document.Document{
		document.Reconstruct("u1", map[string]any{"age": 30.0, "status": "active"}),
		document.Reconstruct("u2", map[string]any{"age": 17.0, "status": "active"}),
	}}
	users := docset.NewModel("users", docset.WithCollection(col))
	users.Scope("adults", func(c *docset.Criteria, _ ...any) (*docset.Criteria, error) {
		return c.Gte("age", 18), nil
	})
	users.Method("oldest", func(ctx context.Context, m *docset.Model, _ ...any) (any, error) {
		return m.Criteria(ctx).Desc("age").First(ctx)
	})
	return New([]*docset.Model{users}, nil), col
}
