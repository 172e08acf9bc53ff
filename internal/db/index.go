package db

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// IndexFieldType enumerates the index field kinds a collection schema maps to.
type IndexFieldType int

const (
	IndexFieldNumeric IndexFieldType = iota
	IndexFieldTag
	IndexFieldText
)

func (t IndexFieldType) String() string {
	switch t {
	case IndexFieldNumeric:
		return "NUMERIC"
	case IndexFieldTag:
		return "TAG"
	case IndexFieldText:
		return "TEXT"
	}
	return fmt.Sprintf("IndexFieldType(%d)", int(t))
}

// ParseIndexFieldType maps the type names FT.INFO reports back to IndexFieldType.
func ParseIndexFieldType(s string) (IndexFieldType, bool) {
	switch strings.ToUpper(s) {
	case "NUMERIC":
		return IndexFieldNumeric, true
	case "TAG":
		return IndexFieldTag, true
	case "TEXT":
		return IndexFieldText, true
	}
	return 0, false
}

// IndexField is one attribute of a JSON index: the document path it reads
// and the alias queries address it by.
type IndexField struct {
	Path     string
	Alias    string
	Type     IndexFieldType
	Sortable bool

	TagSeparator     string
	TagCaseSensitive bool
}

// Key is the name the field is queried by.
func (f *IndexField) Key() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Path
}

// IndexDefinition is a JSON index over every key under Prefixes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks that the definition can be sent to FT.CREATE.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	if len(idx.Prefixes) == 0 {
		return errors.New("at least one key prefix is required")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Path == "" {
			return fmt.Errorf("field %d: path is required", i)
		}
		if seen[f.Key()] {
			return errors.New("duplicate field name: " + f.Key())
		}
		seen[f.Key()] = true
	}
	return nil
}

// IsValidIdentifier reports whether s is usable as an index or key segment:
// letters, digits and any of "_:-.".
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '_', r == ':', r == '-', r == '.':
			return false
		}
		return true
	}) < 0
}

// IndexInfo is the part of a live index docset inspects.
type IndexInfo struct {
	Name    string
	NumDocs int
	// Attributes maps each field alias to its indexed type.
	Attributes map[string]IndexFieldType
}

// Drift lists, sorted, the fields of def the live index lacks or indexes
// with a different type. Extra live attributes are not drift.
func (info *IndexInfo) Drift(def *IndexDefinition) []string {
	var out []string
	for i := range def.Fields {
		f := &def.Fields[i]
		if t, ok := info.Attributes[f.Key()]; !ok || t != f.Type {
			out = append(out, f.Key())
		}
	}
	slices.Sort(out)
	return out
}
