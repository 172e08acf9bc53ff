package document

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// ValueOptions are the go-cmp options attribute values are compared with.
// Structs with unexported fields, such as money or decimal types, compare
// field by field; types with an Equal method use it.
func ValueOptions(extra ...cmp.Option) []cmp.Option {
	return append([]cmp.Option{cmp.Exporter(func(reflect.Type) bool { return true })}, extra...)
}

// IDField is the attribute name the identifier is serialized under.
const IDField = "_id"

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Document is a single record of a document type: an identifier plus a
// free-form attribute map keyed by stored field name.
type Document struct {
	id        string
	attrs     map[string]any
	persisted bool
}

// New creates an unsaved document. An "_id" string attribute, if present,
// becomes the identifier.
func New(attrs map[string]any) *Document {
	d := &Document{attrs: maps.Clone(attrs)}
	if d.attrs == nil {
		d.attrs = map[string]any{}
	}
	if id, ok := d.attrs[IDField].(string); ok {
		d.id = id
	}
	delete(d.attrs, IDField)
	return d
}

// Reconstruct creates a persisted document without validation (storage hydration).
func Reconstruct(id string, attrs map[string]any) *Document {
	if attrs == nil {
		attrs = map[string]any{}
	}
	delete(attrs, IDField)
	return &Document{id: id, attrs: attrs, persisted: true}
}

// ValidateID checks an identifier: ^[a-zA-Z0-9_-]+$, 1-256 chars.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("document ID must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// ID returns the document identifier; empty for unsaved documents without one.
func (d *Document) ID() string { return d.id }

// SetID assigns the identifier.
func (d *Document) SetID(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	d.id = id
	return nil
}

// IsPersisted reports whether the document was loaded from or written to a store.
func (d *Document) IsPersisted() bool { return d.persisted }

// MarkPersisted flags the document as stored.
func (d *Document) MarkPersisted() { d.persisted = true }

// Attributes returns a shallow copy of the attribute map.
func (d *Document) Attributes() map[string]any { return maps.Clone(d.attrs) }

// Get looks up a field by stored name. Dotted paths ("address.city")
// descend into nested documents. "_id" resolves to the identifier.
func (d *Document) Get(path string) (any, bool) {
	if path == IDField {
		return d.id, d.id != ""
	}
	if v, ok := d.attrs[path]; ok {
		return v, true
	}
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		return nil, false
	}
	cur, ok := d.attrs[head]
	for ok {
		m, isMap := cur.(map[string]any)
		if !isMap {
			return nil, false
		}
		head, rest, nested = strings.Cut(rest, ".")
		cur, ok = m[head]
		if !nested {
			return cur, ok
		}
	}
	return nil, false
}

// Set assigns a top-level attribute.
func (d *Document) Set(field string, value any) {
	if field == IDField {
		if id, ok := value.(string); ok {
			d.id = id
		}
		return
	}
	d.attrs[field] = value
}

// Unset removes a top-level attribute.
func (d *Document) Unset(field string) { delete(d.attrs, field) }

// Clone returns a copy sharing no top-level attribute storage.
func (d *Document) Clone() *Document {
	return &Document{id: d.id, attrs: maps.Clone(d.attrs), persisted: d.persisted}
}

// Equal compares identity when both documents carry an identifier and
// attributes otherwise.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.id != "" && o.id != "" {
		return d.id == o.id
	}
	if d.id != o.id {
		return false
	}
	return cmp.Equal(d.attrs, o.attrs, ValueOptions()...)
}

// Map returns the attributes with the identifier under "_id".
func (d *Document) Map() map[string]any {
	m := make(map[string]any, len(d.attrs)+1)
	maps.Copy(m, d.attrs)
	if d.id != "" {
		m[IDField] = d.id
	}
	return m
}

// MarshalJSON serializes the document as a flat object with "_id".
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

// UnmarshalJSON hydrates a persisted document from its JSON object form.
func (d *Document) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	id, _ := m[IDField].(string)
	*d = *Reconstruct(id, m)
	return nil
}
