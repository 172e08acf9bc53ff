package docset

import (
	"context"
	"fmt"
)

// EqualTo compares c with other. Another criteria is compared by selector
// and options without touching storage. A document sequence is compared
// with c's realized documents, in order. Anything else is not equal.
func (c *Criteria) EqualTo(ctx context.Context, other any) (bool, error) {
	switch o := other.(type) {
	case *Criteria:
		return c.Equal(o), nil
	case Documents, []*Document:
		docs, err := c.All(ctx)
		if err != nil {
			return false, err
		}
		return docs.Equal(asDocuments(o)), nil
	default:
		return false, nil
	}
}

// Union realizes c and other and returns their concatenation.
func (c *Criteria) Union(ctx context.Context, other any) (Documents, error) {
	mine, theirs, err := c.realizePair(ctx, other)
	if err != nil {
		return nil, err
	}
	out := make(Documents, 0, len(mine)+len(theirs))
	out = append(out, mine...)
	return append(out, theirs...), nil
}

// Difference realizes c and other and returns c's documents that do not
// appear in other, in c's order.
func (c *Criteria) Difference(ctx context.Context, other any) (Documents, error) {
	mine, theirs, err := c.realizePair(ctx, other)
	if err != nil {
		return nil, err
	}
	out := make(Documents, 0, len(mine))
	for _, d := range mine {
		if !theirs.Contains(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (c *Criteria) realizePair(ctx context.Context, other any) (Documents, Documents, error) {
	oc, isCriteria := other.(*Criteria)
	if (isCriteria && oc == nil) || (!isCriteria && !isDocuments(other)) {
		return nil, nil, fmt.Errorf("%w: cannot combine criteria with %T", ErrInvalidArgument, other)
	}

	mine, err := c.All(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !isCriteria {
		return mine, asDocuments(other), nil
	}
	theirs, err := oc.All(ctx)
	if err != nil {
		return nil, nil, err
	}
	return mine, theirs, nil
}

func asDocuments(v any) Documents {
	switch o := v.(type) {
	case Documents:
		return o
	case []*Document:
		return Documents(o)
	}
	return nil
}

func isDocuments(v any) bool {
	switch v.(type) {
	case Documents, []*Document:
		return true
	}
	return false
}
