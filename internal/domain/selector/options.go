package selector

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Direction is a sort direction.
type Direction int

const (
	// Ascending sorts smallest first.
	Ascending Direction = 1
	// Descending sorts largest first.
	Descending Direction = -1
)

// ParseDirection accepts "asc"/"desc" (any case) and 1/-1 spellings.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "asc", "ascending", "1":
		return Ascending, nil
	case "desc", "descending", "-1":
		return Descending, nil
	default:
		return 0, fmt.Errorf("unknown sort direction %q", s)
	}
}

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortField is one key of a sort specification.
type SortField struct {
	Field     string
	Direction Direction
}

// Options is the record of query modifiers. A nil/unset field means the
// modifier was never specified, which is what Merge keys on.
type Options struct {
	Skip      *int
	Limit     *int
	BatchSize *int
	Sort      []SortField
	// Fields is the projection: true includes a field, false excludes it.
	Fields map[string]bool
}

// Clone returns a deep copy.
func (o Options) Clone() Options {
	out := Options{
		Skip:      cloneInt(o.Skip),
		Limit:     cloneInt(o.Limit),
		BatchSize: cloneInt(o.BatchSize),
	}
	if o.Sort != nil {
		out.Sort = slices.Clone(o.Sort)
	}
	if o.Fields != nil {
		out.Fields = maps.Clone(o.Fields)
	}
	return out
}

// Merge overlays every modifier set on other onto o in place.
func (o *Options) Merge(other Options) {
	if other.Skip != nil {
		o.Skip = cloneInt(other.Skip)
	}
	if other.Limit != nil {
		o.Limit = cloneInt(other.Limit)
	}
	if other.BatchSize != nil {
		o.BatchSize = cloneInt(other.BatchSize)
	}
	if other.Sort != nil {
		o.Sort = slices.Clone(other.Sort)
	}
	if other.Fields != nil {
		o.Fields = maps.Clone(other.Fields)
	}
}

// IsEmpty reports whether no modifier is set.
func (o Options) IsEmpty() bool {
	return o.Skip == nil && o.Limit == nil && o.BatchSize == nil &&
		len(o.Sort) == 0 && len(o.Fields) == 0
}

// SkipValue returns the skip count, 0 when unset.
func (o Options) SkipValue() int {
	if o.Skip == nil {
		return 0
	}
	return *o.Skip
}

// LimitValue returns the limit and whether one is set.
func (o Options) LimitValue() (int, bool) {
	if o.Limit == nil {
		return 0, false
	}
	return *o.Limit, true
}

// Validate rejects modifiers no backend can execute.
func (o Options) Validate() error {
	if o.Skip != nil && *o.Skip < 0 {
		return fmt.Errorf("skip must not be negative, got %d", *o.Skip)
	}
	if o.Limit != nil && *o.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", *o.Limit)
	}
	if o.BatchSize != nil && *o.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", *o.BatchSize)
	}
	for _, s := range o.Sort {
		if s.Field == "" {
			return fmt.Errorf("sort field is required")
		}
		if s.Direction != Ascending && s.Direction != Descending {
			return fmt.Errorf("sort %q: invalid direction %d", s.Field, s.Direction)
		}
	}
	var include, exclude bool
	for f, in := range o.Fields {
		if f == "_id" {
			continue
		}
		if in {
			include = true
		} else {
			exclude = true
		}
	}
	if include && exclude {
		return fmt.Errorf("projection cannot mix included and excluded fields")
	}
	return nil
}

// Int returns a pointer to n, for building Options literals.
func Int(n int) *int { return &n }

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
