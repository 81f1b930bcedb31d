// Package filter decides, key by key during a document scan, which entries
// feed the expression evaluator, which are returned to the client and where
// the scan may seek instead of stepping through every key.
package filter

import (
	"github.com/INLOpen/docseek/core"
)

// Filter is the capability set every document filter provides.
//
// Apply and Peek report whether an entry is handed to the expression
// evaluator. Apply may advance seek and limit counters; Peek never changes
// state, so repeated Peeks with no Apply in between agree. Keep reports
// whether a key is returned to the client. A key may be applied and not kept,
// never the reverse.
type Filter interface {
	Apply(e core.Entry) (bool, error)
	Peek(e core.Entry) (bool, error)
	Keep(k core.Key) (bool, error)

	// StartNewDocument resets all per-document state.
	StartNewDocument(documentKey core.Key) error

	StartKey(k core.Key) (core.Key, error)
	StopKey(k core.Key) (core.Key, error)
	KeyRange(k core.Key) (core.Range, error)

	// Clone returns an independent filter sharing immutable configuration
	// and owning fresh mutable state.
	Clone() Filter
}

// Seeker is implemented by filters able to suggest a forward seek.
type Seeker interface {
	// SeekRange returns the range to seek to from current, bounded by end,
	// or nil when the scan should keep stepping.
	SeekRange(current core.Key, end *core.Key, endInclusive bool) (*core.Range, error)
	// MaxNextCount is the number of consecutive steps after which a seek
	// should be requested, or -1 when seeking is disabled.
	MaxNextCount() int
}

// Transformer is implemented by filters that substitute a marker key for a
// key they decline to keep.
type Transformer interface {
	Transform(k core.Key) (*core.Key, error)
}

// DocumentScoper is implemented by filters whose scan range names the document
// under evaluation, rather than the first document of the range.
type DocumentScoper interface {
	// ScopedDocument returns the start key of the document that r was built
	// for, or false when r does not identify one.
	ScopedDocument(r core.Range) (core.Key, bool, error)
}

// AsSeeker returns the filter's seek capability, if it has one.
func AsSeeker(f Filter) (Seeker, bool) {
	s, ok := f.(Seeker)
	return s, ok
}

// AsDocumentScoper returns the filter's document scoping capability, if it has one.
func AsDocumentScoper(f Filter) (DocumentScoper, bool) {
	d, ok := f.(DocumentScoper)
	return d, ok
}

// AsTransformer returns the filter's transform capability, if it has one.
func AsTransformer(f Filter) (Transformer, bool) {
	t, ok := f.(Transformer)
	return t, ok
}

// seekTo builds [start, end) unless start already lies at or beyond end, in
// which case an empty range positioned at end is returned.
func seekTo(start core.Key, startInclusive bool, end *core.Key, endInclusive bool) *core.Range {
	if end != nil && start.Compare(*end) >= 0 {
		return emptyRangeAt(*end)
	}
	r := core.NewRange(&start, startInclusive, end, endInclusive)
	return &r
}

func emptyRangeAt(end core.Key) *core.Range {
	next := end.FollowingKey(core.PartialRowColFamColQualColVisTime)
	r := core.NewRange(&end, false, &next, false)
	return &r
}

// rollover seeks past every remaining key of the current column family.
func rollover(current core.Key, end *core.Key, endInclusive bool) *core.Range {
	return seekTo(current.FollowingKey(core.PartialRowColFam), true, end, endInclusive)
}

// fieldStartKey is the first key of field within the current document.
func fieldStartKey(current core.Key, field string) core.Key {
	return core.NewKeyBytes(current.Row, current.ColumnFamily, []byte(field+"\x00"))
}

// pastFieldKey sorts after every key of the raw field in the current document.
// Grouped variants and fields sharing the prefix sort later and are not skipped.
func pastFieldKey(current core.Key, rawField string) core.Key {
	return core.NewKeyBytes(current.Row, current.ColumnFamily, []byte(rawField+"\x01"))
}

// intersectRanges narrows a by b: the later start and the earlier end win,
// and on a tie an exclusive bound wins.
func intersectRanges(a, b core.Range) core.Range {
	out := a
	switch {
	case b.Start == nil:
	case a.Start == nil:
		out.Start, out.StartInclusive = b.Start, b.StartInclusive
	default:
		c := a.Start.Compare(*b.Start)
		if c < 0 {
			out.Start, out.StartInclusive = b.Start, b.StartInclusive
		} else if c == 0 {
			out.StartInclusive = a.StartInclusive && b.StartInclusive
		}
	}
	switch {
	case b.End == nil:
	case a.End == nil:
		out.End, out.EndInclusive = b.End, b.EndInclusive
	default:
		c := a.End.Compare(*b.End)
		if c > 0 {
			out.End, out.EndInclusive = b.End, b.EndInclusive
		} else if c == 0 {
			out.EndInclusive = a.EndInclusive && b.EndInclusive
		}
	}
	return out
}
