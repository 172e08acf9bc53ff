// Package chi exposes the query service over HTTP with a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docset"
	"github.com/kailas-cloud/docset/internal/domain/selector"
	logpkg "github.com/kailas-cloud/docset/internal/logger"
	documentuc "github.com/kailas-cloud/docset/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docset/internal/usecase/health"
	queryuc "github.com/kailas-cloud/docset/internal/usecase/query"
)

// maxBodyBytes bounds a query request body.
const maxBodyBytes = 1 << 20

// Server serves model queries.
type Server struct {
	query         *queryuc.Service
	documents     *documentuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	query *queryuc.Service,
	documents *documentuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		query:         query,
		documents:     documents,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Mount registers the API routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1/models", func(r chi.Router) {
		r.Get("/", s.ListModels)
		r.Get("/{model}", s.GetModel)
		r.Post("/{model}/query", s.Query)
		r.Post("/{model}/documents", s.CreateDocument)
		r.Get("/{model}/documents/{id}", s.GetDocument)
		r.Delete("/{model}/documents/{id}", s.DeleteDocument)
	})
}

// Handler returns a router with every API route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Mount(r)
	return r
}

type scopeRequest struct {
	Name string `json:"name"`
	Args []any  `json:"args,omitempty"`
}

type sortRequest struct {
	Field     string `json:"field"`
	Direction string `json:"direction,omitempty"`
}

type optionsRequest struct {
	Skip  *int          `json:"skip,omitempty"`
	Limit *int          `json:"limit,omitempty"`
	Sort  []sortRequest `json:"sort,omitempty"`
	Only  []string      `json:"only,omitempty"`
}

type queryRequest struct {
	Where     map[string]any `json:"where,omitempty"`
	Scopes    []scopeRequest `json:"scopes,omitempty"`
	Options   optionsRequest `json:"options"`
	Unscoped  bool           `json:"unscoped,omitempty"`
	Operation string         `json:"operation,omitempty"`
	// Field is shorthand for the first argument of field aggregates.
	Field string `json:"field,omitempty"`
	Args  []any  `json:"args,omitempty"`
}

type queryResponse struct {
	Model     string   `json:"model"`
	Operation string   `json:"operation"`
	Scopes    []string `json:"scopes"`
	Result    any      `json:"result"`
}

type groupResponse struct {
	Key       any                `json:"key"`
	Documents []*docset.Document `json:"documents"`
}

type createDocumentRequest struct {
	Attributes map[string]any `json:"attributes"`
	// Scopes seed the new document with their equality conditions.
	Scopes []string `json:"scopes,omitempty"`
}

type modelResponse struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

// Query handles POST /v1/models/{model}/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var body queryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := toQueryRequest(chi.URLParam(r, "model"), body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	r = r.WithContext(logpkg.With(r.Context(), s.logger,
		zap.String("model", req.Model), zap.String("operation", req.Operation)))

	res, err := s.query.Execute(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	scopes := res.Inclusions
	if scopes == nil {
		scopes = []string{}
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Model:     res.Model,
		Operation: res.Operation,
		Scopes:    scopes,
		Result:    encodeResult(res.Value),
	})
}

// CreateDocument handles POST /v1/models/{model}/documents.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var body createDocumentRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	attrs, _ := normalize(body.Attributes).(map[string]any)

	doc, err := s.documents.Create(r.Context(), chi.URLParam(r, "model"), body.Scopes, attrs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// GetDocument handles GET /v1/models/{model}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), chi.URLParam(r, "model"), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /v1/models/{model}/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), chi.URLParam(r, "model"), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListModels handles GET /v1/models.
func (s *Server) ListModels(w http.ResponseWriter, _ *http.Request) {
	names := s.query.Models()
	items := make([]modelResponse, 0, len(names))
	for _, n := range names {
		m, err := s.query.Model(n)
		if err != nil {
			continue
		}
		items = append(items, modelResponse{Name: n, Scopes: m.Scopes()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// GetModel handles GET /v1/models/{model}.
func (s *Server) GetModel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "model")
	m, err := s.query.Model(name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, modelResponse{Name: name, Scopes: m.Scopes()})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]any{
		"status":    report.Status,
		"checks":    report.Checks,
		"documents": report.Documents,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func toQueryRequest(model string, body queryRequest) (queryuc.Request, error) {
	req := queryuc.Request{
		Model:     model,
		Where:     docset.Selector(normalize(body.Where).(map[string]any)),
		Skip:      body.Options.Skip,
		Limit:     body.Options.Limit,
		Only:      body.Options.Only,
		Unscoped:  body.Unscoped,
		Operation: body.Operation,
		Args:      normalizeList(body.Args),
	}
	if body.Field != "" {
		req.Args = append([]any{body.Field}, req.Args...)
	}
	for _, sc := range body.Scopes {
		if sc.Name == "" {
			return queryuc.Request{}, errors.New("scope name is required")
		}
		req.Scopes = append(req.Scopes, queryuc.ScopeCall{Name: sc.Name, Args: normalizeList(sc.Args)})
	}
	for _, sf := range body.Options.Sort {
		if sf.Field == "" {
			return queryuc.Request{}, errors.New("sort field is required")
		}
		dir, err := selector.ParseDirection(sf.Direction)
		if err != nil {
			return queryuc.Request{}, err
		}
		req.Sort = append(req.Sort, docset.SortField{Field: sf.Field, Direction: dir})
	}
	return req, nil
}

// normalize turns decoded json.Number values into int64 when integral and
// float64 otherwise, recursing into documents and lists.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case []any:
		return normalizeList(t)
	}
	return v
}

func normalizeList(list []any) []any {
	if list == nil {
		return nil
	}
	out := make([]any, len(list))
	for i, e := range list {
		out[i] = normalize(e)
	}
	return out
}

func encodeResult(v any) any {
	switch t := v.(type) {
	case []byte:
		return json.RawMessage(t)
	case docset.Documents:
		if t == nil {
			return []*docset.Document{}
		}
		return []*docset.Document(t)
	case []docset.Group:
		out := make([]groupResponse, len(t))
		for i, g := range t {
			out[i] = groupResponse{Key: g.Key, Documents: g.Documents}
		}
		return out
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContextOr(r.Context(), s.logger)
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
