package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain"
	domdoc "github.com/kailas-cloud/docset/internal/domain/document"
)

// store is the consumer interface for documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error)
}

// Repo hands out collection handles sharing one store and key prefix.
type Repo struct {
	store   store
	prefix  string
	reindex bool
}

// New creates a document repository. An empty prefix selects domain.DefaultKeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.DefaultKeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// WithReindex lets EnsureIndex rebuild an index whose schema drifted.
func (r *Repo) WithReindex(on bool) *Repo {
	r.reindex = on
	return r
}

// Collection returns the handle for one named collection.
func (r *Repo) Collection(name string) *Collection {
	return &Collection{store: r.store, name: name, prefix: r.prefix, reindex: r.reindex, newID: uuid.NewString}
}

// Collection stores the documents of one model as RedisJSON keys
// <prefix><collection>:<id>, indexed by <prefix><collection>:idx.
type Collection struct {
	store   store
	name    string
	prefix  string
	reindex bool
	newID   func() string
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Index returns the FT index name of the collection.
func (c *Collection) Index() string {
	return fmt.Sprintf("%s%s:idx", c.prefix, c.name)
}

// EnsureIndex makes the FT index cover schema. A missing index is created.
// A drifted one is dropped and rebuilt over the same keys when reindexing is
// enabled, and reported as db.ErrIndexDrift otherwise.
func (c *Collection) EnsureIndex(ctx context.Context, schema domain.Schema) error {
	def, err := buildIndex(c.Index(), c.keyPrefix(), schema)
	if err != nil {
		return fmt.Errorf("build index %s: %w: %w", c.Index(), domain.ErrInvalidSchema, err)
	}

	info, err := c.store.IndexInfo(ctx, c.Index())
	switch {
	case errors.Is(err, db.ErrIndexNotFound):
		return c.createIndex(ctx, def)
	case err != nil:
		return fmt.Errorf("inspect index %s: %w", c.Index(), err)
	}

	drift := info.Drift(def)
	if len(drift) == 0 {
		return nil
	}
	if !c.reindex {
		return fmt.Errorf("index %s: %w: %s", c.Index(), db.ErrIndexDrift, strings.Join(drift, ", "))
	}
	if err := c.store.DropIndex(ctx, c.Index()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", c.Index(), err)
	}
	return c.createIndex(ctx, def)
}

func (c *Collection) createIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := c.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", c.Index(), err)
	}
	return nil
}

// Insert persists a new document. A missing identifier is generated.
func (c *Collection) Insert(ctx context.Context, doc *domdoc.Document) error {
	if doc.ID() == "" {
		if err := doc.SetID(c.newID()); err != nil {
			return fmt.Errorf("assign id: %w", err)
		}
	} else if err := domdoc.ValidateID(doc.ID()); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}

	key := c.key(doc.ID())
	exists, err := c.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return fmt.Errorf("document %s: %w", doc.ID(), domain.ErrAlreadyExists)
	}

	if err := c.write(ctx, key, doc); err != nil {
		return err
	}
	doc.MarkPersisted()
	return nil
}

// Replace overwrites an existing document.
func (c *Collection) Replace(ctx context.Context, doc *domdoc.Document) error {
	key := c.key(doc.ID())
	exists, err := c.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrDocumentNotFound
	}
	if err := c.write(ctx, key, doc); err != nil {
		return err
	}
	doc.MarkPersisted()
	return nil
}

// Get returns a document by ID.
func (c *Collection) Get(ctx context.Context, id string) (*domdoc.Document, error) {
	key := c.key(id)
	raw, err := c.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseJSONGetResult(id, raw)
}

// Delete removes a document.
func (c *Collection) Delete(ctx context.Context, id string) error {
	key := c.key(id)
	if err := c.store.Del(ctx, key); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrDocumentNotFound
		}
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Search runs an FT query over the collection index and hydrates the hits.
// q.Index and q.ReturnFields are set by the collection.
func (c *Collection) Search(ctx context.Context, q db.SearchQuery) ([]*domdoc.Document, int, error) {
	q.Index = c.Index()
	q.ReturnFields = []string{"$"}

	result, err := c.store.Search(ctx, &q)
	if err != nil {
		return nil, 0, fmt.Errorf("search %s: %w", c.name, err)
	}
	if result == nil {
		return nil, 0, nil
	}

	docs := make([]*domdoc.Document, 0, len(result.Entries))
	for _, entry := range result.Entries {
		doc, err := parseSearchEntry(c.docID(entry.Key), entry.Fields["$"])
		if err != nil {
			return nil, 0, fmt.Errorf("search %s: %w", c.name, err)
		}
		docs = append(docs, doc)
	}
	return docs, result.Total, nil
}

// Count returns the number of documents matching an FT query.
func (c *Collection) Count(ctx context.Context, query string) (int, error) {
	n, err := c.store.SearchCount(ctx, c.Index(), query)
	if err != nil {
		return 0, fmt.Errorf("search count %s: %w", c.name, err)
	}
	return n, nil
}

func (c *Collection) write(ctx context.Context, key string, doc *domdoc.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := c.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

func (c *Collection) keyPrefix() string {
	return fmt.Sprintf("%s%s:", c.prefix, c.name)
}

func (c *Collection) key(id string) string {
	return c.keyPrefix() + id
}

func (c *Collection) docID(key string) string {
	return strings.TrimPrefix(key, c.keyPrefix())
}

// buildIndex creates a JSON IndexDefinition from the collection schema.
// The identifier is always indexed as a TAG; schema fields follow in name order.
func buildIndex(name, prefix string, schema domain.Schema) (*db.IndexDefinition, error) {
	b := db.NewIndex(name).Prefix(prefix).Tag(domdoc.IDField)

	paths := make([]string, 0, len(schema))
	for p := range schema {
		if p != domdoc.IDField {
			paths = append(paths, p)
		}
	}
	slices.Sort(paths)

	for _, p := range paths {
		switch schema[p] {
		case domain.FieldTag:
			b.Tag(p)
		case domain.FieldNumeric:
			b.Numeric(p)
		case domain.FieldText:
			b.Text(p)
		default:
			return nil, fmt.Errorf("unknown field type: %s", schema[p])
		}
	}
	return b.Build()
}
