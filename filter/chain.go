package filter

import (
	"fmt"

	"github.com/INLOpen/docseek/core"
)

// Chain combines filters with a logical AND evaluated in insertion order.
// Ranges are narrowed to what every member accepts.
type Chain struct {
	filters []Filter
}

// NewChain builds a chain over filters.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: append([]Filter(nil), filters...)}
}

// AddFilter appends f to the chain.
func (c *Chain) AddFilter(f Filter) {
	c.filters = append(c.filters, f)
}

// Len returns the number of chained filters.
func (c *Chain) Len() int { return len(c.filters) }

func (c *Chain) all(fn func(Filter) (bool, error)) (bool, error) {
	for _, f := range c.filters {
		ok, err := fn(f)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (c *Chain) Apply(e core.Entry) (bool, error) {
	return c.all(func(f Filter) (bool, error) { return f.Apply(e) })
}

func (c *Chain) Peek(e core.Entry) (bool, error) {
	return c.all(func(f Filter) (bool, error) { return f.Peek(e) })
}

func (c *Chain) Keep(k core.Key) (bool, error) {
	return c.all(func(f Filter) (bool, error) { return f.Keep(k) })
}

func (c *Chain) StartNewDocument(documentKey core.Key) error {
	for _, f := range c.filters {
		if err := f.StartNewDocument(documentKey); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chain) requireFilters() error {
	if len(c.filters) == 0 {
		return &core.ConfigurationConflictError{Setting: "chain", Message: "no filters to derive a document range from"}
	}
	return nil
}

// StartKey is the latest start key of any member.
func (c *Chain) StartKey(k core.Key) (core.Key, error) {
	if err := c.requireFilters(); err != nil {
		return core.Key{}, err
	}
	var start core.Key
	for i, f := range c.filters {
		s, err := f.StartKey(k)
		if err != nil {
			return core.Key{}, fmt.Errorf("chained filter %d: %w", i, err)
		}
		if i == 0 || s.Compare(start) > 0 {
			start = s
		}
	}
	return start, nil
}

// StopKey is the earliest stop key of any member.
func (c *Chain) StopKey(k core.Key) (core.Key, error) {
	if err := c.requireFilters(); err != nil {
		return core.Key{}, err
	}
	var stop core.Key
	for i, f := range c.filters {
		s, err := f.StopKey(k)
		if err != nil {
			return core.Key{}, fmt.Errorf("chained filter %d: %w", i, err)
		}
		if i == 0 || s.Compare(stop) < 0 {
			stop = s
		}
	}
	return stop, nil
}

// KeyRange intersects the ranges of every member.
func (c *Chain) KeyRange(k core.Key) (core.Range, error) {
	if err := c.requireFilters(); err != nil {
		return core.Range{}, err
	}
	var out core.Range
	for i, f := range c.filters {
		r, err := f.KeyRange(k)
		if err != nil {
			return core.Range{}, fmt.Errorf("chained filter %d: %w", i, err)
		}
		if i == 0 {
			out = r
			continue
		}
		out = intersectRanges(out, r)
	}
	return out, nil
}

// SeekRange intersects the suggestions of every member able to seek.
// Members without a suggestion are ignored.
func (c *Chain) SeekRange(current core.Key, end *core.Key, endInclusive bool) (*core.Range, error) {
	var out *core.Range
	for _, f := range c.filters {
		s, ok := AsSeeker(f)
		if !ok {
			continue
		}
		r, err := s.SeekRange(current, end, endInclusive)
		if err != nil {
			return nil, err
		}
		if r == nil {
			continue
		}
		if out == nil {
			out = r
			continue
		}
		narrowed := intersectRanges(*out, *r)
		out = &narrowed
	}
	return out, nil
}

// MaxNextCount is the smallest non-negative count of any member, or -1.
func (c *Chain) MaxNextCount() int {
	count := -1
	for _, f := range c.filters {
		s, ok := AsSeeker(f)
		if !ok {
			continue
		}
		if n := s.MaxNextCount(); n >= 0 && (count == -1 || n < count) {
			count = n
		}
	}
	return count
}

// ScopedDocument returns the document named by the first member able to
// recover one from r.
func (c *Chain) ScopedDocument(r core.Range) (core.Key, bool, error) {
	for _, f := range c.filters {
		d, ok := AsDocumentScoper(f)
		if !ok {
			continue
		}
		doc, found, err := d.ScopedDocument(r)
		if err != nil || found {
			return doc, found, err
		}
	}
	return core.Key{}, false, nil
}

// Transform returns the first substitute offered by a member that declines
// to keep k.
func (c *Chain) Transform(k core.Key) (*core.Key, error) {
	for _, f := range c.filters {
		keep, err := f.Keep(k)
		if err != nil {
			return nil, err
		}
		if keep {
			continue
		}
		t, ok := AsTransformer(f)
		if !ok {
			continue
		}
		out, err := t.Transform(k)
		if err != nil || out != nil {
			return out, err
		}
	}
	return nil, nil
}

func (c *Chain) Clone() Filter {
	clones := make([]Filter, len(c.filters))
	for i, f := range c.filters {
		clones[i] = f.Clone()
	}
	return &Chain{filters: clones}
}
