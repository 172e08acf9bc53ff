package chi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/docset"
	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain/document"
	documentuc "github.com/kailas-cloud/docset/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docset/internal/usecase/health"
	queryuc "github.com/kailas-cloud/docset/internal/usecase/query"
)

// mockCollection pages over docs and records the queries it served.
type mockCollection struct {
	docs      []*document.Document
	searchErr error
	queries   []string
	inserted  []*document.Document
}

func (m *mockCollection) Search(_ context.Context, q db.SearchQuery) ([]*document.Document, int, error) {
	m.queries = append(m.queries, q.Query)
	if m.searchErr != nil {
		return nil, 0, m.searchErr
	}
	if q.Offset >= len(m.docs) {
		return nil, len(m.docs), nil
	}
	end := min(q.Offset+q.Limit, len(m.docs))
	return m.docs[q.Offset:end], len(m.docs), nil
}

func (m *mockCollection) Count(_ context.Context, _ string) (int, error) {
	if m.searchErr != nil {
		return 0, m.searchErr
	}
	return len(m.docs), nil
}

func (m *mockCollection) Delete(_ context.Context, _ string) error { return nil }

func (m *mockCollection) Replace(_ context.Context, _ *document.Document) error { return nil }

func (m *mockCollection) Insert(_ context.Context, doc *document.Document) error {
	if doc.ID() == "" {
		if err := doc.SetID("new-1"); err != nil {
			return err
		}
	}
	m.inserted = append(m.inserted, doc)
	doc.MarkPersisted()
	return nil
}

// mockPinger reports err on every ping.
type mockPinger struct{ err error }

func (m mockPinger) Ping(_ context.Context) error { return m.err }

func newTestServer(t *testing.T, pingErr error) (http.Handler, *mockCollection) {
	t.Helper()
	col := &mockCollection{docs: []*document.Document{
		document.Reconstruct("u1", map[string]any{"age": 30.0, "status": "active"}),
		document.Reconstruct("u2", map[string]any{"age": 41.0, "status": "active"}),
	}}
	users := docset.NewModel("users", docset.WithCollection(col))
	users.Scope("adults", func(c *docset.Criteria, _ ...any) (*docset.Criteria, error) {
		return c.Gte("age", 18), nil
	})
	users.Scope("broken", func(_ *docset.Criteria, _ ...any) (*docset.Criteria, error) {
		return nil, errors.New("scope exploded")
	})
	notes := docset.NewModel("notes")

	query := queryuc.New([]*docset.Model{users, notes}, nil).WithMaxLimit(50)
	health := healthuc.New(mockPinger{err: pingErr}, nil, nil)
	return NewServer(query, documentuc.New(query, nil), health, nil).Handler(), col
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
