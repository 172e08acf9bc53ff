package client

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
)

// Document is a decoded document; "_id" holds its identifier.
type Document map[string]any

// ID returns the document identifier.
func (d Document) ID() string {
	id, _ := d["_id"].(string)
	return id
}

// Group is one bucket of a group operation.
type Group struct {
	Key       any        `json:"key"`
	Documents []Document `json:"documents"`
}

// Response is the reply to a query.
type Response struct {
	Model     string          `json:"model"`
	Operation string          `json:"operation"`
	Scopes    []string        `json:"scopes"`
	Result    json.RawMessage `json:"result"`
}

// Decode unmarshals the operation result into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("docset client: decode %s result: %w", r.Operation, err)
	}
	return nil
}

type scopeCall struct {
	Name string `json:"name"`
	Args []any  `json:"args,omitempty"`
}

type sortKey struct {
	Field     string `json:"field"`
	Direction string `json:"direction,omitempty"`
}

type queryOptions struct {
	Skip  *int      `json:"skip,omitempty"`
	Limit *int      `json:"limit,omitempty"`
	Sort  []sortKey `json:"sort,omitempty"`
	Only  []string  `json:"only,omitempty"`
}

type queryBody struct {
	Where     map[string]any `json:"where,omitempty"`
	Scopes    []scopeCall    `json:"scopes,omitempty"`
	Options   queryOptions   `json:"options"`
	Unscoped  bool           `json:"unscoped,omitempty"`
	Operation string         `json:"operation,omitempty"`
	Args      []any          `json:"args,omitempty"`
}

// Query is a fluent builder for one model query. Builder methods return a
// new Query, so a partially built query can be reused.
type Query struct {
	client *Client
	model  string
	body   queryBody
}

func (q *Query) clone() *Query {
	c := *q
	c.body.Where = maps.Clone(q.body.Where)
	c.body.Scopes = slices.Clone(q.body.Scopes)
	c.body.Options.Sort = slices.Clone(q.body.Options.Sort)
	c.body.Options.Only = slices.Clone(q.body.Options.Only)
	return &c
}

// Where merges sel into the selector; later keys win.
func (q *Query) Where(sel map[string]any) *Query {
	c := q.clone()
	if c.body.Where == nil {
		c.body.Where = make(map[string]any, len(sel))
	}
	maps.Copy(c.body.Where, sel)
	return c
}

// Scope applies a named scope of the model.
func (q *Query) Scope(name string, args ...any) *Query {
	c := q.clone()
	c.body.Scopes = append(c.body.Scopes, scopeCall{Name: name, Args: args})
	return c
}

// Skip sets the number of documents to skip.
func (q *Query) Skip(n int) *Query {
	c := q.clone()
	c.body.Options.Skip = &n
	return c
}

// Limit caps the number of documents.
func (q *Query) Limit(n int) *Query {
	c := q.clone()
	c.body.Options.Limit = &n
	return c
}

// Sort appends a sort key; direction is "asc" or "desc".
func (q *Query) Sort(field, direction string) *Query {
	c := q.clone()
	c.body.Options.Sort = append(c.body.Options.Sort, sortKey{Field: field, Direction: direction})
	return c
}

// Only projects the listed fields.
func (q *Query) Only(fields ...string) *Query {
	c := q.clone()
	c.body.Options.Only = append(c.body.Options.Only, fields...)
	return c
}

// Unscoped skips the model's default scope.
func (q *Query) Unscoped() *Query {
	c := q.clone()
	c.body.Unscoped = true
	return c
}

// Run executes op on the query. Any operation the server dispatches is
// accepted, model query methods included.
func (q *Query) Run(ctx context.Context, op string, args ...any) (*Response, error) {
	body := q.body
	body.Operation = op
	body.Args = args

	var resp Response
	path := "/v1/models/" + url.PathEscape(q.model) + "/query"
	if err := q.client.do(ctx, "query."+op, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func run[T any](ctx context.Context, q *Query, op string, args ...any) (T, error) {
	var out T
	resp, err := q.Run(ctx, op, args...)
	if err != nil {
		return out, err
	}
	err = resp.Decode(&out)
	return out, err
}

// All returns every matching document.
func (q *Query) All(ctx context.Context) ([]Document, error) {
	return run[[]Document](ctx, q, "all")
}

// First returns the first matching document, or nil.
func (q *Query) First(ctx context.Context) (Document, error) {
	return run[Document](ctx, q, "first")
}

// Last returns the last matching document, or nil.
func (q *Query) Last(ctx context.Context) (Document, error) {
	return run[Document](ctx, q, "last")
}

// Count returns the number of matching documents.
func (q *Query) Count(ctx context.Context) (int, error) {
	return run[int](ctx, q, "count")
}

// Exists reports whether any document matches.
func (q *Query) Exists(ctx context.Context) (bool, error) {
	return run[bool](ctx, q, "exists")
}

// Pluck returns field of every matching document.
func (q *Query) Pluck(ctx context.Context, field string) ([]any, error) {
	return run[[]any](ctx, q, "pluck", field)
}

// Distinct returns the distinct values of field.
func (q *Query) Distinct(ctx context.Context, field string) ([]any, error) {
	return run[[]any](ctx, q, "distinct", field)
}

// Sum adds up the numeric values of field.
func (q *Query) Sum(ctx context.Context, field string) (float64, error) {
	return run[float64](ctx, q, "sum", field)
}

// Avg averages the numeric values of field.
func (q *Query) Avg(ctx context.Context, field string) (float64, error) {
	return run[float64](ctx, q, "avg", field)
}

// Group buckets matching documents by field.
func (q *Query) Group(ctx context.Context, field string) ([]Group, error) {
	return run[[]Group](ctx, q, "group", field)
}

// DeleteAll removes every matching document and returns how many were removed.
func (q *Query) DeleteAll(ctx context.Context) (int, error) {
	return run[int](ctx, q, "delete_all")
}

// UpdateAll sets attrs on every matching document.
func (q *Query) UpdateAll(ctx context.Context, attrs map[string]any) (int, error) {
	return run[int](ctx, q, "update_all", attrs)
}

// Create stores a new document. Equality conditions of the query scopes
// seed it; attrs override them.
func (q *Query) Create(ctx context.Context, attrs map[string]any) (Document, error) {
	scopes := make([]string, len(q.body.Scopes))
	for i, s := range q.body.Scopes {
		scopes[i] = s.Name
	}
	body := struct {
		Attributes map[string]any `json:"attributes"`
		Scopes     []string       `json:"scopes,omitempty"`
	}{Attributes: attrs, Scopes: scopes}

	var doc Document
	if err := q.client.do(ctx, "document.create", http.MethodPost, q.documentsPath(), body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Get fetches one document by id.
func (q *Query) Get(ctx context.Context, id string) (Document, error) {
	var doc Document
	path := q.documentsPath() + "/" + url.PathEscape(id)
	if err := q.client.do(ctx, "document.get", http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes one document by id.
func (q *Query) Delete(ctx context.Context, id string) error {
	path := q.documentsPath() + "/" + url.PathEscape(id)
	return q.client.do(ctx, "document.delete", http.MethodDelete, path, nil, nil)
}

func (q *Query) documentsPath() string {
	return "/v1/models/" + url.PathEscape(q.model) + "/documents"
}
