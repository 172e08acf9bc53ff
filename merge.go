package docset

import "slices"

// Merge returns a copy of c with other merged in. Neither c nor other changes.
func (c *Criteria) Merge(other Criterion) *Criteria {
	return c.Clone().MergeInPlace(other)
}

// MergeInPlace merges other into c and returns c.
//
// Selector and options are merged key by key, other winning on conflicts.
// Cached documents are taken from other when it holds any. Other's scoping
// options replace c's. Inclusions are unioned without duplicates, and a
// builder error recorded on other is carried over.
func (c *Criteria) MergeInPlace(other Criterion) *Criteria {
	if other == nil {
		return c
	}
	o := other.ToCriteria()
	if o == nil || o == c {
		return c
	}
	if !c.mutable() {
		return c.frozenCopy().MergeInPlace(o)
	}

	c.selector.Merge(o.selector.Clone())
	c.options.Merge(o.options)
	if len(o.documents) > 0 {
		c.documents = slices.Clone(o.documents)
	}
	c.scoping = o.scoping
	c.inclusions = appendUnique(c.inclusions, o.inclusions...)
	if o.err != nil {
		c.record(o.err)
	}
	return c
}
