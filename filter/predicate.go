package filter

import "github.com/INLOpen/docseek/core"

// ExpressionPredicate is the per-field test supplied by the expression
// evaluator. Apply may record that the field matched; Peek must not.
type ExpressionPredicate interface {
	Reset()
	Apply(k core.Key, field, value string) bool
	Peek(k core.Key, field, value string) bool
	Clone() ExpressionPredicate
}

// Predicates maps base field names to their predicates.
type Predicates map[string]ExpressionPredicate

// Clone deep-copies every predicate.
func (p Predicates) Clone() Predicates {
	out := make(Predicates, len(p))
	for field, pred := range p {
		out[field] = pred.Clone()
	}
	return out
}

// Fields returns the predicate field names as a set.
func (p Predicates) Fields() *core.FieldSet {
	names := make([]string, 0, len(p))
	for field := range p {
		names = append(names, field)
	}
	return core.NewFieldSet(names...)
}

// MatchPredicate accepts a field when its value is one of a fixed set, or
// any value when the set is empty. It counts the values applied per document.
type MatchPredicate struct {
	values  map[string]struct{}
	matched int
}

// NewMatchPredicate returns a predicate accepting the given values.
func NewMatchPredicate(values ...string) *MatchPredicate {
	m := &MatchPredicate{values: make(map[string]struct{}, len(values))}
	for _, v := range values {
		m.values[v] = struct{}{}
	}
	return m
}

func (m *MatchPredicate) matches(value string) bool {
	if len(m.values) == 0 {
		return true
	}
	_, ok := m.values[value]
	return ok
}

func (m *MatchPredicate) Apply(_ core.Key, _ string, value string) bool {
	if !m.matches(value) {
		return false
	}
	m.matched++
	return true
}

func (m *MatchPredicate) Peek(_ core.Key, _ string, value string) bool {
	return m.matches(value)
}

func (m *MatchPredicate) Reset() { m.matched = 0 }

// Matched is the number of values applied since the last Reset.
func (m *MatchPredicate) Matched() int { return m.matched }

// Clone shares the accepted values and starts with a zero count.
func (m *MatchPredicate) Clone() ExpressionPredicate {
	return &MatchPredicate{values: m.values}
}
