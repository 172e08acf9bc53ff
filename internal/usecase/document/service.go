// Package document creates, fetches and deletes single documents of a model
// through its criteria.
package document

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docset"
	"github.com/kailas-cloud/docset/internal/domain"
)

// Service handles single-document operations.
type Service struct {
	models ModelLookup
	logger *zap.Logger
}

// New creates a document service.
func New(models ModelLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{models: models, logger: logger}
}

// Create builds a document under the named scopes and persists it. Equality
// conditions of the scopes seed the new document; attrs override them.
func (s *Service) Create(ctx context.Context, model string, scopes []string, attrs map[string]any) (*docset.Document, error) {
	c, err := s.scoped(ctx, model, scopes)
	if err != nil {
		return nil, err
	}
	doc, err := c.Create(ctx, attrs)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("document created", zap.String("model", model), zap.String("id", doc.ID()))
	return doc, nil
}

// Get returns the document with the given id.
func (s *Service) Get(ctx context.Context, model, id string) (*docset.Document, error) {
	c, err := s.byID(ctx, model, id)
	if err != nil {
		return nil, err
	}
	doc, err := c.First(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%s %q: %w", model, id, domain.ErrDocumentNotFound)
	}
	return doc, nil
}

// Delete removes the document with the given id.
func (s *Service) Delete(ctx context.Context, model, id string) error {
	c, err := s.byID(ctx, model, id)
	if err != nil {
		return err
	}
	n, err := c.Delete(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", model, id, domain.ErrDocumentNotFound)
	}
	s.logger.Debug("document deleted", zap.String("model", model), zap.String("id", id))
	return nil
}

func (s *Service) byID(ctx context.Context, model, id string) (*docset.Criteria, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: document id is required", docset.ErrInvalidArgument)
	}
	m, err := s.models.Model(model)
	if err != nil {
		return nil, err
	}
	return m.Unscoped(ctx).Eq("_id", id), nil
}

func (s *Service) scoped(ctx context.Context, model string, scopes []string) (*docset.Criteria, error) {
	m, err := s.models.Model(model)
	if err != nil {
		return nil, err
	}
	c := m.Criteria(ctx)
	for _, name := range scopes {
		res, err := c.Call(ctx, name)
		if err != nil {
			return nil, err
		}
		next, ok := res.(*docset.Criteria)
		if !ok {
			return nil, fmt.Errorf("%w: %s does not return a criteria", docset.ErrInvalidArgument, name)
		}
		c = next
	}
	return c, c.Err()
}
