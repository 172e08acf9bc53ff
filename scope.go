package docset

import "context"

type scopeKey struct{ model *Model }

// WithScope returns a context in which c is the ambient scope of its model.
// Criteria built from the model under that context start from a copy of c.
// The scope ends when the returned context goes out of use; the parent
// context is never changed.
func WithScope(ctx context.Context, c *Criteria) context.Context {
	return context.WithValue(ctx, scopeKey{model: c.model}, c)
}

// CurrentScope returns the ambient scope of m in ctx.
func CurrentScope(ctx context.Context, m *Model) (*Criteria, bool) {
	c, ok := ctx.Value(scopeKey{model: m}).(*Criteria)
	return c, ok
}
