package document

import (
	"context"
	"fmt"
	"testing"

	"github.com/kailas-cloud/docset"
	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain"
	domdoc "github.com/kailas-cloud/docset/internal/domain/document"
)

// mockCollection answers every search with docs and records writes.
type mockCollection struct {
	docs      []*domdoc.Document
	queries   []string
	inserted  []*domdoc.Document
	insertErr error
	deleted   []string
}

func (m *mockCollection) Search(_ context.Context, q db.SearchQuery) ([]*domdoc.Document, int, error) {
	m.queries = append(m.queries, q.Query)
	if q.Offset >= len(m.docs) {
		return nil, len(m.docs), nil
	}
	end := min(q.Offset+q.Limit, len(m.docs))
	return m.docs[q.Offset:end], len(m.docs), nil
}

func (m *mockCollection) Count(_ context.Context, _ string) (int, error) { return len(m.docs), nil }

func (m *mockCollection) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockCollection) Replace(_ context.Context, _ *domdoc.Document) error { return nil }

func (m *mockCollection) Insert(_ context.Context, doc *domdoc.Document) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if doc.ID() == "" {
		if err := doc.SetID(fmt.Sprintf("new-%d", len(m.inserted)+1)); err != nil {
			return err
		}
	}
	doc.MarkPersisted()
	m.inserted = append(m.inserted, doc)
	return nil
}

// mockModels is a ModelLookup over a fixed model set.
type mockModels map[string]*docset.Model

func (m mockModels) Model(name string) (*docset.Model, error) {
	if model, ok := m[name]; ok {
		return model, nil
	}
	return nil, fmt.Errorf("model %q: %w", name, domain.ErrModelNotFound)
}

func newTestService(t *testing.T, docs ...*domdoc.Document) (*Service, *mockCollection) {
	t.Helper()
	col := &mockCollection{docs: docs}
	users := docset.NewModel("users",
		docset.WithCollection(col),
		docset.WithAliases(map[string]string{"years": "age"}),
	)
	users.Scope("active", func(c *docset.Criteria, _ ...any) (*docset.Criteria, error) {
		return c.Where("status", "active"), nil
	})
	users.Method("oldest", func(ctx context.Context, m *docset.Model, _ ...any) (any, error) {
		return m.Criteria(ctx).Desc("age").First(ctx)
	})
	return New(mockModels{"users": users}, nil), col
}
