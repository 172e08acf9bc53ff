package query

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docset"
	"github.com/kailas-cloud/docset/internal/domain"
)

// DefaultOperation runs when a request names none.
const DefaultOperation = "all"

// Service executes declarative query requests against registered models.
type Service struct {
	models   map[string]*docset.Model
	maxLimit int
	logger   *zap.Logger
}

// New creates a Service over models.
func New(models []*docset.Model, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		models:   make(map[string]*docset.Model, len(models)),
		maxLimit: 1000,
		logger:   logger,
	}
	for _, m := range models {
		s.models[m.Name()] = m
	}
	return s
}

// WithMaxLimit caps the window of every query. A request asking for more
// is rejected; a missing limit, or a larger one set by a scope, is lowered
// to the cap.
func (s *Service) WithMaxLimit(n int) *Service {
	if n > 0 {
		s.maxLimit = n
	}
	return s
}

// Models returns the registered model names, sorted.
func (s *Service) Models() []string {
	names := make([]string, 0, len(s.models))
	for n := range s.models {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Model looks up a registered model.
func (s *Service) Model(name string) (*docset.Model, error) {
	m, ok := s.models[name]
	if !ok {
		return nil, fmt.Errorf("model %q: %w", name, domain.ErrModelNotFound)
	}
	return m, nil
}

// Criteria builds the criteria a request describes without executing it.
func (s *Service) Criteria(ctx context.Context, req Request) (*docset.Criteria, error) {
	m, err := s.Model(req.Model)
	if err != nil {
		return nil, err
	}
	if req.Limit != nil && *req.Limit > s.maxLimit {
		return nil, fmt.Errorf("%w: limit %d exceeds maximum %d", docset.ErrInvalidArgument, *req.Limit, s.maxLimit)
	}

	c := m.Criteria(ctx)
	if req.Unscoped {
		c = m.Unscoped(ctx)
	}
	c = c.WhereSelector(req.Where)
	if req.Skip != nil {
		c = c.Skip(*req.Skip)
	}
	if req.Limit != nil {
		c = c.Limit(*req.Limit)
	}
	if len(req.Sort) > 0 {
		c = c.Reorder(req.Sort...)
	}
	if len(req.Only) > 0 {
		c = c.Only(req.Only...)
	}

	for _, sc := range req.Scopes {
		res, err := c.Call(ctx, sc.Name, sc.Args...)
		if err != nil {
			return nil, err
		}
		next, ok := res.(*docset.Criteria)
		if !ok {
			return nil, fmt.Errorf("%w: %s does not return a criteria", docset.ErrInvalidArgument, sc.Name)
		}
		c = next
	}
	c = s.bound(c)
	return c, c.Err()
}

// bound lowers a missing or oversized limit to the cap. Scopes and
// criteria-returning operations may drop or widen it.
func (s *Service) bound(c *docset.Criteria) *docset.Criteria {
	if limit, ok := c.Options().LimitValue(); !ok || limit > s.maxLimit {
		return c.Limit(s.maxLimit)
	}
	return c
}

// Execute builds the criteria and runs the requested operation on it.
func (s *Service) Execute(ctx context.Context, req Request) (*Result, error) {
	c, err := s.Criteria(ctx, req)
	if err != nil {
		return nil, err
	}

	op := req.Operation
	if op == "" {
		op = DefaultOperation
	}
	value, err := c.Call(ctx, op, req.Args...)
	if err != nil {
		return nil, err
	}
	if next, ok := value.(*docset.Criteria); ok {
		// a scope or skip/limit as the final step: realize it
		if value, err = s.bound(next).All(ctx); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("query executed",
		zap.String("model", req.Model),
		zap.String("operation", op),
		zap.Strings("scopes", c.Inclusions()),
	)
	return &Result{
		Model:      req.Model,
		Operation:  op,
		Inclusions: c.Inclusions(),
		Value:      value,
	}, nil
}
