package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docset/internal/db"
)

// CreateIndex runs FT.CREATE for a validated definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("index %s: %w", def.Name, err)
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(def.Args()...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Target: def.Name, Err: err}
	}
	return nil
}

// DropIndex removes an index and keeps the documents it covered.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isUnknownIndex(err) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Target: name, Err: err}
	}
	return nil
}

// IndexInfo reads the document count and attribute types of an index.
func (s *Store) IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpIndexInfo, Target: name, Err: err}
	}
	return parseIndexInfo(name, raw)
}

// IndexExists reports whether the index is present.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	_, err := s.IndexInfo(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, db.ErrIndexNotFound):
		return false, nil
	default:
		return false, err
	}
}

// parseIndexInfo reads the flat key/value FT.INFO reply. Unknown keys are skipped.
func parseIndexInfo(name string, raw []rueidis.RedisMessage) (*db.IndexInfo, error) {
	info := &db.IndexInfo{Name: name, Attributes: make(map[string]db.IndexFieldType)}
	for i := 0; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		val := raw[i+1]
		switch key {
		case "index_name":
			if v, err := val.ToString(); err == nil {
				info.Name = v
			}
		case "num_docs":
			n, err := val.AsInt64()
			if err != nil {
				f, ferr := val.AsFloat64()
				if ferr != nil {
					return nil, fmt.Errorf("parse num_docs: %w", err)
				}
				n = int64(f)
			}
			info.NumDocs = int(n)
		case "attributes":
			attrs, err := val.ToArray()
			if err != nil {
				return nil, fmt.Errorf("parse attributes: %w", err)
			}
			for _, a := range attrs {
				if alias, t, ok := parseAttribute(a); ok {
					info.Attributes[alias] = t
				}
			}
		}
	}
	return info, nil
}

// parseAttribute reads one attribute entry such as
// [identifier $.age attribute age type NUMERIC SORTABLE]. Flags without a
// value are skipped.
func parseAttribute(msg rueidis.RedisMessage) (string, db.IndexFieldType, bool) {
	parts, err := msg.ToArray()
	if err != nil {
		return "", 0, false
	}
	var identifier, alias, typ string
	for j := 0; j < len(parts); j++ {
		k, err := parts[j].ToString()
		if err != nil || j+1 >= len(parts) {
			continue
		}
		switch k {
		case "identifier", "attribute", "type":
			v, _ := parts[j+1].ToString()
			j++
			switch k {
			case "identifier":
				identifier = v
			case "attribute":
				alias = v
			default:
				typ = v
			}
		}
	}
	if alias == "" {
		alias = identifier
	}
	t, ok := db.ParseIndexFieldType(typ)
	return alias, t, ok && alias != ""
}
