package domain

import "fmt"

// DefaultKeyPrefix namespaces every key written by docset.
const DefaultKeyPrefix = "docset:"

// FieldType is the indexing type of a field.
type FieldType string

const (
	// FieldTag is an exact-match field (strings, booleans).
	FieldTag FieldType = "tag"
	// FieldNumeric is a range-queryable, sortable number field.
	FieldNumeric FieldType = "numeric"
	// FieldText is a full-text field.
	FieldText FieldType = "text"
)

// ParseFieldType validates a field type name.
func ParseFieldType(s string) (FieldType, error) {
	switch t := FieldType(s); t {
	case FieldTag, FieldNumeric, FieldText:
		return t, nil
	default:
		return "", fmt.Errorf("unknown field type %q: %w", s, ErrInvalidSchema)
	}
}

// Field describes an indexed field of a collection by its stored path.
type Field struct {
	Name string    `json:"name" yaml:"name"`
	Type FieldType `json:"type" yaml:"type"`
}

// Schema maps stored field paths to their index type.
type Schema map[string]FieldType

// NewSchema builds a schema from a field list, rejecting duplicates.
func NewSchema(fields []Field) (Schema, error) {
	s := make(Schema, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field name is required: %w", ErrInvalidSchema)
		}
		if _, dup := s[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q: %w", f.Name, ErrInvalidSchema)
		}
		t, err := ParseFieldType(string(f.Type))
		if err != nil {
			return nil, err
		}
		s[f.Name] = t
	}
	return s, nil
}
