package db

import (
	"strconv"
	"strings"
)

// IndexBuilder assembles a JSON IndexDefinition field by field.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a definition for the named index.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix adds key prefixes to index.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Numeric adds a sortable NUMERIC field for a document path.
func (b *IndexBuilder) Numeric(path string) *IndexBuilder {
	return b.add(IndexField{Path: JSONPath(path), Alias: FieldAlias(path), Type: IndexFieldNumeric, Sortable: true})
}

// Tag adds a sortable TAG field for a document path.
func (b *IndexBuilder) Tag(path string) *IndexBuilder {
	return b.add(IndexField{Path: JSONPath(path), Alias: FieldAlias(path), Type: IndexFieldTag, Sortable: true})
}

// TagWithOpts adds a TAG field with a custom separator and case sensitivity.
func (b *IndexBuilder) TagWithOpts(path, separator string, caseSensitive bool) *IndexBuilder {
	return b.add(IndexField{
		Path:             JSONPath(path),
		Alias:            FieldAlias(path),
		Type:             IndexFieldTag,
		Sortable:         true,
		TagSeparator:     separator,
		TagCaseSensitive: caseSensitive,
	})
}

// Text adds a full-text TEXT field for a document path. Text fields are not sortable.
func (b *IndexBuilder) Text(path string) *IndexBuilder {
	return b.add(IndexField{Path: JSONPath(path), Alias: FieldAlias(path), Type: IndexFieldText})
}

func (b *IndexBuilder) add(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Build validates and returns the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild is Build for definitions known to be valid; it panics otherwise.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// Args renders the FT.CREATE arguments following the command name.
func (idx *IndexDefinition) Args() []string {
	args := []string{idx.Name, "ON", "JSON"}
	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}
	args = append(args, "SCHEMA")
	for i := range idx.Fields {
		args = append(args, idx.Fields[i].Args()...)
	}
	return args
}

// Args renders the SCHEMA clause of one field.
func (f *IndexField) Args() []string {
	args := []string{f.Path}
	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}
	args = append(args, f.Type.String())
	if f.Type == IndexFieldTag {
		if f.TagSeparator != "" {
			args = append(args, "SEPARATOR", f.TagSeparator)
		}
		if f.TagCaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	}
	if f.Sortable {
		args = append(args, "SORTABLE")
	}
	return args
}

// String resembles the FT.CREATE command, for logs and test failures.
func (idx *IndexDefinition) String() string {
	return "FT.CREATE " + strings.Join(idx.Args(), " ")
}
