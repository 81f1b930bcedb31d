package core

import "fmt"

// Range is an interval of keys. A nil bound is unbounded on that side.
type Range struct {
	Start          *Key
	StartInclusive bool
	End            *Key
	EndInclusive   bool
}

// NewRange builds a range over copies of the given bounds.
func NewRange(start *Key, startInclusive bool, end *Key, endInclusive bool) Range {
	r := Range{StartInclusive: startInclusive, EndInclusive: endInclusive}
	if start != nil {
		s := start.Clone()
		r.Start = &s
	}
	if end != nil {
		e := end.Clone()
		r.End = &e
	}
	return r
}

// BeforeStart reports whether k sorts before the start of the range.
func (r Range) BeforeStart(k Key) bool {
	if r.Start == nil {
		return false
	}
	c := k.Compare(*r.Start)
	if r.StartInclusive {
		return c < 0
	}
	return c <= 0
}

// AfterEnd reports whether k sorts after the end of the range.
func (r Range) AfterEnd(k Key) bool {
	if r.End == nil {
		return false
	}
	c := k.Compare(*r.End)
	if r.EndInclusive {
		return c > 0
	}
	return c >= 0
}

// Contains reports whether k falls inside the range.
func (r Range) Contains(k Key) bool {
	return !r.BeforeStart(k) && !r.AfterEnd(k)
}

// IsEmpty reports whether no key can fall inside the range.
func (r Range) IsEmpty() bool {
	if r.Start == nil || r.End == nil {
		return false
	}
	c := r.Start.Compare(*r.End)
	if c > 0 {
		return true
	}
	return c == 0 && !(r.StartInclusive && r.EndInclusive)
}

// Equal compares bounds and inclusivity.
func (r Range) Equal(other Range) bool {
	if !boundEqual(r.Start, other.Start) || !boundEqual(r.End, other.End) {
		return false
	}
	return r.StartInclusive == other.StartInclusive && r.EndInclusive == other.EndInclusive
}

func boundEqual(a, b *Key) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func (r Range) String() string {
	open, close := "(", ")"
	if r.StartInclusive {
		open = "["
	}
	if r.EndInclusive {
		close = "]"
	}
	start, end := "-inf", "+inf"
	if r.Start != nil {
		start = r.Start.String()
	}
	if r.End != nil {
		end = r.End.String()
	}
	return fmt.Sprintf("%s%s,%s%s", open, start, end, close)
}
