package core

import (
	"sort"
	"strings"
)

const (
	// GROUPING_SEPARATOR starts the grouping context suffix of a field name.
	GROUPING_SEPARATOR = "."
	// ANY_FIELD keys a limit that applies to every field without its own limit.
	ANY_FIELD = "_ANYFIELD_"
)

// BaseFieldName strips the grouping context from a field name, so
// "NAME.PARENT.1" and "NAME.0" both match predicates on "NAME".
func BaseFieldName(field string) string {
	if idx := strings.Index(field, GROUPING_SEPARATOR); idx >= 0 {
		return field[:idx]
	}
	return field
}

// FieldSet is an immutable set of field names. Once built it may be shared
// freely between filter clones.
type FieldSet struct {
	members map[string]struct{}
	sorted  []string
}

// NewFieldSet builds a set from names; duplicates are dropped.
func NewFieldSet(names ...string) *FieldSet {
	fs := &FieldSet{members: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if _, ok := fs.members[n]; ok {
			continue
		}
		fs.members[n] = struct{}{}
		fs.sorted = append(fs.sorted, n)
	}
	sort.Strings(fs.sorted)
	return fs
}

// Contains reports membership. A nil set contains nothing.
func (fs *FieldSet) Contains(name string) bool {
	if fs == nil {
		return false
	}
	_, ok := fs.members[name]
	return ok
}

// Len returns the number of members.
func (fs *FieldSet) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.sorted)
}

// Sorted returns the members in ascending byte order. Callers must not modify it.
func (fs *FieldSet) Sorted() []string {
	if fs == nil {
		return nil
	}
	return fs.sorted
}

// Higher returns the smallest member strictly greater than name.
func (fs *FieldSet) Higher(name string) (string, bool) {
	if fs == nil {
		return "", false
	}
	i := sort.Search(len(fs.sorted), func(i int) bool { return fs.sorted[i] > name })
	if i == len(fs.sorted) {
		return "", false
	}
	return fs.sorted[i], true
}

// Union returns a new set holding the members of both sets.
func (fs *FieldSet) Union(other *FieldSet) *FieldSet {
	return NewFieldSet(append(append([]string{}, fs.Sorted()...), other.Sorted()...)...)
}

// Intersect returns a new set holding the members present in both sets.
func (fs *FieldSet) Intersect(other *FieldSet) *FieldSet {
	var out []string
	for _, n := range fs.Sorted() {
		if other.Contains(n) {
			out = append(out, n)
		}
	}
	return NewFieldSet(out...)
}

// Minus returns a new set without the members of other.
func (fs *FieldSet) Minus(other *FieldSet) *FieldSet {
	var out []string
	for _, n := range fs.Sorted() {
		if !other.Contains(n) {
			out = append(out, n)
		}
	}
	return NewFieldSet(out...)
}
