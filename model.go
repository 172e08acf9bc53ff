package docset

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docset/internal/domain/document"
)

// ScopeFunc is a named scope. It receives the criteria it is applied to
// and returns the narrowed criteria.
type ScopeFunc func(c *Criteria, args ...any) (*Criteria, error)

// MethodFunc is a model-level query method. ctx carries the criteria the
// method was invoked on as ambient scope, so Model.Criteria(ctx) starts from it.
type MethodFunc func(ctx context.Context, m *Model, args ...any) (any, error)

// Persister stores newly created documents.
type Persister interface {
	Insert(ctx context.Context, doc *Document) error
}

// Remover is implemented by persisters that own embedded documents, such
// as a loaded parent. Deletes on embedded criteria are forwarded to it;
// updates mutate the shared documents in place.
type Remover interface {
	Remove(ctx context.Context, docs []*Document) error
}

// Option configures a Model.
type Option func(*Model)

// WithCollection sets the backing collection of root-level criteria. When
// the collection also implements Persister it becomes the default persister.
func WithCollection(c Collection) Option {
	return func(m *Model) {
		m.collection = c
		if p, ok := c.(Persister); ok && m.persister == nil {
			m.persister = p
		}
	}
}

// WithPersister sets the persister used by Create. A persister that also
// implements Remover receives embedded deletes.
func WithPersister(p Persister) Option {
	return func(m *Model) {
		m.persister = p
	}
}

// WithAliases maps attribute names to stored field names.
func WithAliases(aliases map[string]string) Option {
	return func(m *Model) {
		m.aliases = maps.Clone(aliases)
	}
}

// WithSchema restricts store queries to indexed fields.
func WithSchema(s Schema) Option {
	return func(m *Model) {
		m.schema = maps.Clone(s)
	}
}

// WithLogger sets the logger (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		m.logger = l
	}
}

// WithResolver replaces the execution context resolver.
func WithResolver(r Resolver) Option {
	return func(m *Model) {
		m.resolver = r
	}
}

// WithDefaultScope sets the scope applied to every criteria built without
// an ambient scope, unless Unscoped is used.
func WithDefaultScope(fn func(*Criteria) *Criteria) Option {
	return func(m *Model) {
		m.defaultScope = fn
	}
}

// WithBatchSize sets the store page size used when a criteria does not set one.
func WithBatchSize(n int) Option {
	return func(m *Model) {
		m.batchSize = n
	}
}

// Model is a document type: the owner of criteria, named scopes and query
// methods, and the entry point to its backing collection.
type Model struct {
	name         string
	collection   Collection
	persister    Persister
	aliases      map[string]string
	schema       Schema
	logger       *zap.Logger
	resolver     Resolver
	defaultScope func(*Criteria) *Criteria
	batchSize    int

	mu      sync.RWMutex
	scopes  map[string]ScopeFunc
	methods map[string]MethodFunc
}

// NewModel creates a document type.
func NewModel(name string, opts ...Option) *Model {
	m := &Model{
		name:    name,
		logger:  zap.NewNop(),
		scopes:  make(map[string]ScopeFunc),
		methods: make(map[string]MethodFunc),
	}
	for _, o := range opts {
		o(m)
	}
	if m.resolver == nil {
		m.resolver = DefaultResolver()
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Collection returns the backing collection, nil for embedded-only models.
func (m *Model) Collection() Collection { return m.collection }

// Schema returns the indexed fields, nil when unrestricted.
func (m *Model) Schema() Schema { return maps.Clone(m.schema) }

// BatchSize returns the configured store page size, 0 for the default.
func (m *Model) BatchSize() int { return m.batchSize }

// Logger returns the model logger.
func (m *Model) Logger() *zap.Logger { return m.logger }

// Scope registers a named scope. Registering a name twice replaces it.
func (m *Model) Scope(name string, fn ScopeFunc) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scopes[name] = fn
	return m
}

// Method registers a model-level query method.
func (m *Model) Method(name string, fn MethodFunc) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methods[name] = fn
	return m
}

// RespondsTo reports whether the model defines a scope or method named name.
func (m *Model) RespondsTo(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, isScope := m.scopes[name]
	_, isMethod := m.methods[name]
	return isScope || isMethod
}

// Scopes returns the registered scope names, sorted.
func (m *Model) Scopes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.scopes))
	for n := range m.scopes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Criteria returns a criteria for the model. Under an ambient scope of this
// model it is a copy of that scope; otherwise a fresh criteria with the
// default scope applied.
func (m *Model) Criteria(ctx context.Context) *Criteria {
	if c, ok := CurrentScope(ctx, m); ok {
		return c.Clone()
	}
	c := newCriteria(m, false)
	if m.defaultScope != nil {
		c = m.defaultScope(c)
		c.scoping.Scoped = true
	}
	return c
}

// Unscoped returns a fresh criteria that ignores the default scope.
func (m *Model) Unscoped(_ context.Context) *Criteria {
	c := newCriteria(m, false)
	c.scoping.Unscoped = true
	return c
}

// Embedded returns a criteria over documents already held in memory, such
// as the children of a loaded parent. It never touches the store.
func (m *Model) Embedded(children []*Document) *Criteria {
	c := newCriteria(m, true)
	c.documents = append([]*Document(nil), children...)
	return c
}

// ToCriteria implements Criterion with the default-scoped criteria.
func (m *Model) ToCriteria() *Criteria {
	return m.Criteria(context.Background())
}

// New builds an unsaved document, translating attribute aliases.
func (m *Model) New(attrs map[string]any) *Document {
	stored := make(map[string]any, len(attrs))
	for k, v := range attrs {
		stored[m.field(k)] = v
	}
	return document.New(stored)
}

// Create builds and persists a document from the current criteria.
func (m *Model) Create(ctx context.Context, attrs map[string]any) (*Document, error) {
	return m.Criteria(ctx).Create(ctx, attrs)
}

// Call invokes a named scope or query method on the model itself.
func (m *Model) Call(ctx context.Context, name string, args ...any) (any, error) {
	res, ok, err := m.invoke(ctx, name, args)
	if !ok {
		return nil, &UnknownOperationError{Model: m.name, Operation: name}
	}
	return res, err
}

// invoke runs a scope or method; ok is false when neither is defined.
// Scopes are applied to Criteria(ctx), so under an ambient scope they
// narrow that scope.
func (m *Model) invoke(ctx context.Context, name string, args []any) (any, bool, error) {
	m.mu.RLock()
	scope, isScope := m.scopes[name]
	method, isMethod := m.methods[name]
	m.mu.RUnlock()

	switch {
	case isScope:
		base := m.Criteria(ctx)
		out, err := scope(base, args...)
		if err != nil {
			return nil, true, err
		}
		if out == nil {
			out = base
		} else if out != base {
			out = base.Merge(out)
		}
		out.inclusions = appendUnique(out.inclusions, name)
		return out, true, nil
	case isMethod:
		res, err := method(ctx, m, args...)
		return res, true, err
	default:
		return nil, false, nil
	}
}

// field translates an attribute name, or the head of a dotted path, to its stored name.
func (m *Model) field(name string) string {
	if len(m.aliases) == 0 {
		return name
	}
	head, rest, nested := strings.Cut(name, ".")
	if stored, ok := m.aliases[head]; ok {
		head = stored
	}
	if nested {
		return head + "." + rest
	}
	return head
}

func (m *Model) String() string { return m.name }
