package docset

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/kailas-cloud/docset/internal/domain"
	"github.com/kailas-cloud/docset/internal/domain/document"
)

const tagKey = "docset"

// typeMeta holds the parsed docset struct tags of one struct type.
type typeMeta struct {
	typ    reflect.Type
	idIdx  int // -1 if not present
	fields []fieldMapping
}

type fieldMapping struct {
	structIdx int
	name      string
	indexed   domain.FieldType // empty when the field is mapped but not indexed
}

// parseType reflects on T and extracts docset struct tag metadata.
//
//	type User struct {
//		ID     string  `docset:"_id,id"`
//		Name   string  `docset:"name,text"`
//		Status string  `docset:"status,tag"`
//		Age    int     `docset:"age,numeric"`
//		Note   string  `docset:"note"`
//	}
func parseType[T any]() (*typeMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return nil, fmt.Errorf("docset: cannot reflect nil type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("docset: type %s is not a struct", t)
	}

	meta := &typeMeta{typ: t, idIdx: -1}
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" || !f.IsExported() {
			continue
		}
		if err := meta.applyTag(i, f.Name, tag); err != nil {
			return nil, err
		}
	}
	return meta, nil
}

// applyTag processes a single struct field's docset tag.
func (m *typeMeta) applyTag(idx int, fieldName, tag string) error {
	name, modifier, _ := strings.Cut(tag, ",")
	if name == "" {
		name = fieldName
	}

	switch modifier {
	case "id":
		if m.idIdx != -1 {
			return fmt.Errorf("docset: duplicate id tag on field %s", fieldName)
		}
		if m.typ.Field(idx).Type.Kind() != reflect.String {
			return fmt.Errorf("docset: id field %s must be a string", fieldName)
		}
		m.idIdx = idx
	case "":
		m.fields = append(m.fields, fieldMapping{structIdx: idx, name: name})
	default:
		ft, err := domain.ParseFieldType(modifier)
		if err != nil {
			return fmt.Errorf("docset: field %s: %w", fieldName, err)
		}
		m.fields = append(m.fields, fieldMapping{structIdx: idx, name: name, indexed: ft})
	}
	return nil
}

// SchemaOf derives the index schema from the docset tags of T.
func SchemaOf[T any]() (Schema, error) {
	meta, err := parseType[T]()
	if err != nil {
		return nil, err
	}
	fields := make([]domain.Field, 0, len(meta.fields))
	for _, f := range meta.fields {
		if f.indexed != "" {
			fields = append(fields, domain.Field{Name: f.name, Type: f.indexed})
		}
	}
	return domain.NewSchema(fields)
}

// Encode converts a tagged struct into an unsaved document.
func Encode[T any](item T) (*Document, error) {
	meta, err := parseType[T]()
	if err != nil {
		return nil, err
	}
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("docset: cannot encode nil %s", meta.typ)
		}
		v = v.Elem()
	}

	attrs := make(map[string]any, len(meta.fields)+1)
	for _, f := range meta.fields {
		attrs[f.name] = v.Field(f.structIdx).Interface()
	}
	if meta.idIdx != -1 {
		if id := v.Field(meta.idIdx).String(); id != "" {
			attrs["_id"] = id
		}
	}
	return document.New(attrs), nil
}

// Decode converts documents into tagged structs. Missing attributes leave
// the zero value; an attribute that cannot be assigned is an error.
func Decode[T any](docs Documents) ([]T, error) {
	meta, err := parseType[T]()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v := reflect.New(meta.typ).Elem()
		if meta.idIdx != -1 {
			v.Field(meta.idIdx).SetString(doc.ID())
		}
		for _, f := range meta.fields {
			val, ok := doc.Get(f.name)
			if !ok || val == nil {
				continue
			}
			if err := assign(v.Field(f.structIdx), val); err != nil {
				return nil, fmt.Errorf("docset: decode %s.%s: %w", doc.ID(), f.name, err)
			}
		}
		item, ok := v.Interface().(T)
		if !ok {
			item, _ = v.Addr().Interface().(T)
		}
		out = append(out, item)
	}
	return out, nil
}

func assign(dst reflect.Value, val any) error {
	src := reflect.ValueOf(val)
	switch dst.Kind() {
	case reflect.Float32, reflect.Float64:
		if f, ok := toFloat(src); ok {
			dst.SetFloat(f)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if f, ok := toFloat(src); ok {
			dst.SetInt(int64(f))
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f, ok := toFloat(src); ok && f >= 0 {
			dst.SetUint(uint64(f))
			return nil
		}
	}
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}
	if src.Type().ConvertibleTo(dst.Type()) && src.Kind() == dst.Kind() {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", val, dst.Type())
}

func toFloat(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	default:
		return 0, false
	}
}
