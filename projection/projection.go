// Package projection decides which fields of a document are returned.
package projection

import (
	"github.com/INLOpen/docseek/core"
)

// Mode selects how the field list is interpreted.
type Mode int

const (
	Includes Mode = iota
	Excludes
)

func (m Mode) String() string {
	if m == Excludes {
		return "EXCLUDES"
	}
	return "INCLUDES"
}

// FieldMatcher answers membership for a possibly unbounded set of field names.
type FieldMatcher interface {
	Contains(field string) bool
}

type universalSet struct{}

func (universalSet) Contains(string) bool { return true }

// UniversalSet matches every field name. It is never copied.
var UniversalSet FieldMatcher = universalSet{}

// Projection is an INCLUDES or EXCLUDES predicate over base field names.
type Projection struct {
	mode   Mode
	fields FieldMatcher
}

// NewIncludes keeps only the listed fields. The matcher is held by reference
// so a shared or unbounded set such as UniversalSet is never copied.
func NewIncludes(fields FieldMatcher) *Projection {
	return &Projection{mode: Includes, fields: fields}
}

// NewExcludes keeps every field except the listed ones. The names are copied.
func NewExcludes(fields []string) *Projection {
	return &Projection{mode: Excludes, fields: core.NewFieldSet(fields...)}
}

// Mode returns the projection mode.
func (p *Projection) Mode() Mode { return p.mode }

// Apply reports whether field is projected. The grouping context is
// stripped before matching.
func (p *Projection) Apply(field string) bool {
	base := core.BaseFieldName(field)
	if p.mode == Excludes {
		return !p.fields.Contains(base)
	}
	return p.fields != nil && p.fields.Contains(base)
}

// New builds a projection from include and exclude lists. Supplying both is
// a configuration conflict; supplying neither includes everything.
func New(includes, excludes []string) (*Projection, error) {
	switch {
	case len(includes) > 0 && len(excludes) > 0:
		return nil, &core.ConfigurationConflictError{Setting: "projection", Message: "includes and excludes are mutually exclusive"}
	case len(excludes) > 0:
		return NewExcludes(excludes), nil
	case len(includes) > 0:
		return NewIncludes(core.NewFieldSet(includes...)), nil
	default:
		return NewIncludes(UniversalSet), nil
	}
}
