package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
)

func TestNew_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "://x"} {
		if _, err := New(u); err == nil {
			t.Errorf("New(%q): expected error", u)
		}
	}
}

func TestOptions(t *testing.T) {
	cfg := &clientConfig{}
	hc := &http.Client{}
	WithHTTPClient(hc).apply(cfg)
	WithAPIKey("k").apply(cfg)
	WithTimeout(time.Second).apply(cfg)
	logger := slog.Default()
	WithLogger(logger).apply(cfg)
	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg)

	if cfg.httpClient != hc || cfg.apiKey != "k" || cfg.timeout != time.Second {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.logger != logger || cfg.metricsReg != reg {
		t.Error("expected logger and registerer to be set")
	}
}

func TestQuery_All(t *testing.T) {
	c := newTestClient(t, nil)
	docs, err := c.Model("users").Scope("adults").Limit(10).All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	var ids []string
	for _, d := range docs {
		ids = append(ids, d.ID())
	}
	if diff := cmp.Diff([]string{"u1", "u2", "u3"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestQuery_Aggregates(t *testing.T) {
	ctx := context.Background()
	q := newTestClient(t, nil).Model("users")

	n, err := q.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("Count = %d, %v", n, err)
	}
	ok, err := q.Exists(ctx)
	if err != nil || !ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
	sum, err := q.Sum(ctx, "age")
	if err != nil || sum != 90 {
		t.Errorf("Sum = %v, %v", sum, err)
	}
	names, err := q.Pluck(ctx, "name")
	if err != nil {
		t.Fatalf("Pluck: %v", err)
	}
	if diff := cmp.Diff([]any{"ann", "bob", "cid"}, names); diff != "" {
		t.Errorf("pluck mismatch (-want +got):\n%s", diff)
	}
	first, err := q.First(ctx)
	if err != nil || first.ID() != "u1" {
		t.Errorf("First = %v, %v", first, err)
	}
	groups, err := q.Group(ctx, "team")
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if len(groups) != 2 || groups[0].Key != "a" || len(groups[0].Documents) != 2 {
		t.Errorf("groups = %+v", groups)
	}
}

func TestQuery_RunReportsScopes(t *testing.T) {
	c := newTestClient(t, nil)
	resp, err := c.Model("users").Scope("adults").Run(context.Background(), "ids")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"adults"}, resp.Scopes); diff != "" {
		t.Errorf("scopes mismatch (-want +got):\n%s", diff)
	}
	var ids []string
	if err := resp.Decode(&ids); err != nil || len(ids) != 3 {
		t.Errorf("ids = %v, %v", ids, err)
	}
}

func TestQuery_BuilderIsImmutable(t *testing.T) {
	c := newTestClient(t, nil)
	base := c.Model("users").Where(map[string]any{"team": "a"})
	narrowed := base.Where(map[string]any{"age": 19}).Scope("adults").Sort("age", "desc")

	if len(base.body.Where) != 1 || len(base.body.Scopes) != 0 || len(base.body.Options.Sort) != 0 {
		t.Errorf("base query was modified: %+v", base.body)
	}
	if len(narrowed.body.Where) != 2 {
		t.Errorf("narrowed where = %v", narrowed.body.Where)
	}
}

func TestQuery_Errors(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, nil)

	tests := []struct {
		name   string
		run    func() error
		want   error
		status int
	}{
		{"unknown model", func() error { _, err := c.Model("ghosts").All(ctx); return err },
			ErrModelNotFound, http.StatusNotFound},
		{"unknown operation", func() error { _, err := c.Model("users").Run(ctx, "fooBar"); return err },
			ErrUnknownOperation, http.StatusBadRequest},
		{"invalid argument", func() error { _, err := c.Model("users").Run(ctx, "sum"); return err },
			ErrInvalidArgument, http.StatusBadRequest},
		{"invalid query", func() error {
			_, err := c.Model("users").Where(map[string]any{"age": map[string]any{"$near": 1}}).All(ctx)
			return err
		}, ErrInvalidQuery, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
				t.Errorf("api error = %+v, want status %d", apiErr, tt.status)
			}
		})
	}
}

func TestQuery_UnknownOperationNamesModel(t *testing.T) {
	c := newTestClient(t, nil)
	_, err := c.Model("users").Run(context.Background(), "fooBar")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Model != "users" || apiErr.Operation != "fooBar" {
		t.Errorf("api error = %+v", apiErr)
	}
}

func TestClient_APIKey(t *testing.T) {
	ctx := context.Background()

	anon := newTestClient(t, []string{"secret"})
	if _, err := anon.Models(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("without key: error = %v, want ErrUnauthorized", err)
	}

	authed := newTestClient(t, []string{"secret"}, WithAPIKey("secret"))
	models, err := authed.Models(ctx)
	if err != nil {
		t.Fatalf("Models: %v", err)
	}
	want := []ModelInfo{{Name: "users", Scopes: []string{"adults"}}}
	if diff := cmp.Diff(want, models); diff != "" {
		t.Errorf("models mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_Health(t *testing.T) {
	hs, err := newTestClient(t, []string{"secret"}).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if hs.Status != "ok" || hs.Checks["database"] != "ok" {
		t.Errorf("health = %+v", hs)
	}
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, nil, WithPrometheus(reg))
	ctx := context.Background()

	_, _ = c.Model("users").Count(ctx)
	_, _ = c.Model("ghosts").Count(ctx)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "docset_client_operations_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected ok and error samples, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("docset_client_operations_total not found")
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"))
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("first observer: %v", err)
	}
	if _, err := newObserver(slog.Default(), reg); err != nil {
		t.Fatalf("second observer must reuse collectors: %v", err)
	}
}

func TestQuery_Documents(t *testing.T) {
	ctx := context.Background()
	users := newTestClient(t, nil).Model("users")

	created, err := users.Create(ctx, map[string]any{"name": "dee", "age": 25})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID() != "u4" || created["name"] != "dee" {
		t.Errorf("created = %v", created)
	}

	got, err := users.Get(ctx, "u1")
	if err != nil || got.ID() != "u1" {
		t.Errorf("Get = %v, %v", got, err)
	}
	if err := users.Delete(ctx, "u1"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, err := newTestClient(t, nil).Model("ghosts").Get(ctx, "u1"); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Get on unknown model: error = %v", err)
	}
}
