package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/docset"
	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain/document"
	chiTransport "github.com/kailas-cloud/docset/internal/transport/chi"
	documentuc "github.com/kailas-cloud/docset/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docset/internal/usecase/health"
	queryuc "github.com/kailas-cloud/docset/internal/usecase/query"
)

// memCollection pages over a fixed document list.
type memCollection struct {
	docs []*document.Document
}

func (m *memCollection) Search(_ context.Context, q db.SearchQuery) ([]*document.Document, int, error) {
	if q.Offset >= len(m.docs) {
		return nil, len(m.docs), nil
	}
	end := min(q.Offset+q.Limit, len(m.docs))
	return m.docs[q.Offset:end], len(m.docs), nil
}

func (m *memCollection) Count(_ context.Context, _ string) (int, error) { return len(m.docs), nil }

func (m *memCollection) Delete(_ context.Context, _ string) error { return nil }

func (m *memCollection) Replace(_ context.Context, _ *document.Document) error { return nil }

func (m *memCollection) Insert(_ context.Context, doc *document.Document) error {
	if doc.ID() == "" {
		if err := doc.SetID("u4"); err != nil {
			return err
		}
	}
	doc.MarkPersisted()
	return nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

// newTestClient starts an API server over a users model and returns a
// client pointed at it.
func newTestClient(t *testing.T, apiKeys []string, opts ...Option) *Client {
	t.Helper()
	col := &memCollection{docs: []*document.Document{
		document.Reconstruct("u1", map[string]any{"name": "ann", "age": 30.0, "team": "a"}),
		document.Reconstruct("u2", map[string]any{"name": "bob", "age": 41.0, "team": "b"}),
		document.Reconstruct("u3", map[string]any{"name": "cid", "age": 19.0, "team": "a"}),
	}}
	users := docset.NewModel("users", docset.WithCollection(col))
	users.Scope("adults", func(c *docset.Criteria, _ ...any) (*docset.Criteria, error) {
		return c.Gte("age", 18), nil
	})

	query := queryuc.New([]*docset.Model{users}, nil)
	server := chiTransport.NewServer(query, documentuc.New(query, nil), healthuc.New(okPinger{}, nil, nil), nil)

	r := chi.NewRouter()
	r.Use(chiTransport.BearerAuthMiddleware(apiKeys))
	server.Mount(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	c, err := New(ts.URL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}
