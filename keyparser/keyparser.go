// Package keyparser splits the column family and qualifier of a document key
// into the datatype, UID, field and value they encode. Three shapes exist:
//
//	event           cf = datatype\0uid            cq = FIELD\0value
//	field index     cf = fi\0FIELD                cq = value\0datatype\0uid
//	term frequency  cf = tf                       cq = datatype\0uid\0value\0FIELD
package keyparser

import (
	"bytes"

	"github.com/INLOpen/docseek/core"
)

const (
	// FIELD_INDEX_PREFIX starts the column family of every field index key.
	FIELD_INDEX_PREFIX = "fi\x00"
	// TERM_FREQUENCY_FAMILY is the column family of every term frequency key.
	TERM_FREQUENCY_FAMILY = "tf"
)

// Shape identifies the layout of a key's family and qualifier.
type Shape int

const (
	ShapeEvent Shape = iota
	ShapeFieldIndex
	ShapeTermFrequency
)

func (s Shape) String() string {
	switch s {
	case ShapeEvent:
		return "event"
	case ShapeFieldIndex:
		return "field index"
	case ShapeTermFrequency:
		return "term frequency"
	default:
		return "unknown"
	}
}

// ShapeOf classifies a key by its column family.
func ShapeOf(k core.Key) Shape {
	switch {
	case bytes.HasPrefix(k.ColumnFamily, []byte(FIELD_INDEX_PREFIX)):
		return ShapeFieldIndex
	case string(k.ColumnFamily) == TERM_FREQUENCY_FAMILY:
		return ShapeTermFrequency
	default:
		return ShapeEvent
	}
}

// ParsedKey holds the components of a key. Field has its grouping context
// stripped; RawField is the name exactly as stored.
type ParsedKey struct {
	Shape    Shape
	Datatype string
	UID      string
	Field    string
	RawField string
	Value    string
}

// DocumentFamily returns the event column family, datatype\0uid, of the
// document the key belongs to.
func (p ParsedKey) DocumentFamily() string {
	return p.Datatype + "\x00" + p.UID
}

// KeyParser parses one key shape.
type KeyParser interface {
	Parse(k core.Key) (ParsedKey, error)
}

// EventKeyParser parses event keys. A key with an empty qualifier names the
// document itself and parses with an empty field.
type EventKeyParser struct{}

func (EventKeyParser) Parse(k core.Key) (ParsedKey, error) {
	dt, uid, err := splitEventFamily(k)
	if err != nil {
		return ParsedKey{}, err
	}
	return parseEventQualifier(ParsedKey{Shape: ShapeEvent, Datatype: dt, UID: uid}, k)
}

func parseEventQualifier(pk ParsedKey, k core.Key) (ParsedKey, error) {
	if len(k.ColumnQualifier) == 0 {
		return pk, nil
	}
	idx := bytes.IndexByte(k.ColumnQualifier, core.NULL_BYTE)
	if idx < 0 {
		return ParsedKey{}, malformed(ShapeEvent, "column qualifier", k)
	}
	pk.RawField = string(k.ColumnQualifier[:idx])
	pk.Field = core.BaseFieldName(pk.RawField)
	pk.Value = string(k.ColumnQualifier[idx+1:])
	return pk, nil
}

func splitEventFamily(k core.Key) (string, string, error) {
	idx := bytes.IndexByte(k.ColumnFamily, core.NULL_BYTE)
	if idx < 0 {
		return "", "", malformed(ShapeEvent, "column family", k)
	}
	return string(k.ColumnFamily[:idx]), string(k.ColumnFamily[idx+1:]), nil
}

// FieldIndexKeyParser parses field index keys.
type FieldIndexKeyParser struct{}

func (FieldIndexKeyParser) Parse(k core.Key) (ParsedKey, error) {
	if !bytes.HasPrefix(k.ColumnFamily, []byte(FIELD_INDEX_PREFIX)) || len(k.ColumnFamily) == len(FIELD_INDEX_PREFIX) {
		return ParsedKey{}, malformed(ShapeFieldIndex, "column family", k)
	}
	cq := k.ColumnQualifier
	uidIdx := bytes.LastIndexByte(cq, core.NULL_BYTE)
	if uidIdx < 0 {
		return ParsedKey{}, malformed(ShapeFieldIndex, "column qualifier", k)
	}
	dtIdx := bytes.LastIndexByte(cq[:uidIdx], core.NULL_BYTE)
	if dtIdx < 0 {
		return ParsedKey{}, malformed(ShapeFieldIndex, "column qualifier", k)
	}
	raw := string(k.ColumnFamily[len(FIELD_INDEX_PREFIX):])
	return ParsedKey{
		Shape:    ShapeFieldIndex,
		Datatype: string(cq[dtIdx+1 : uidIdx]),
		UID:      string(cq[uidIdx+1:]),
		Field:    core.BaseFieldName(raw),
		RawField: raw,
		Value:    string(cq[:dtIdx]),
	}, nil
}

// TermFrequencyKeyParser parses term frequency keys.
type TermFrequencyKeyParser struct{}

func (TermFrequencyKeyParser) Parse(k core.Key) (ParsedKey, error) {
	if string(k.ColumnFamily) != TERM_FREQUENCY_FAMILY {
		return ParsedKey{}, malformed(ShapeTermFrequency, "column family", k)
	}
	dtEnd, uidEnd, fieldStart, ok := termFrequencyBounds(k.ColumnQualifier)
	if !ok {
		return ParsedKey{}, malformed(ShapeTermFrequency, "column qualifier", k)
	}
	cq := k.ColumnQualifier
	raw := string(cq[fieldStart:])
	return ParsedKey{
		Shape:    ShapeTermFrequency,
		Datatype: string(cq[:dtEnd]),
		UID:      string(cq[dtEnd+1 : uidEnd]),
		Field:    core.BaseFieldName(raw),
		RawField: raw,
		Value:    string(cq[uidEnd+1 : fieldStart-1]),
	}, nil
}

// termFrequencyBounds locates the datatype and UID separators and the start
// of the trailing field name. The value may itself contain NULL_BYTEs.
func termFrequencyBounds(cq []byte) (dtEnd, uidEnd, fieldStart int, ok bool) {
	dtEnd = bytes.IndexByte(cq, core.NULL_BYTE)
	if dtEnd < 0 {
		return 0, 0, 0, false
	}
	next := bytes.IndexByte(cq[dtEnd+1:], core.NULL_BYTE)
	if next < 0 {
		return 0, 0, 0, false
	}
	uidEnd = dtEnd + 1 + next
	last := bytes.LastIndexByte(cq, core.NULL_BYTE)
	if last <= uidEnd {
		return 0, 0, 0, false
	}
	return dtEnd, uidEnd, last + 1, true
}

// Parse dispatches to the parser for the key's shape.
func Parse(k core.Key) (ParsedKey, error) {
	switch ShapeOf(k) {
	case ShapeFieldIndex:
		return FieldIndexKeyParser{}.Parse(k)
	case ShapeTermFrequency:
		return TermFrequencyKeyParser{}.Parse(k)
	default:
		return EventKeyParser{}.Parse(k)
	}
}

// ParseDocument extracts only the datatype and UID, which is all the range
// providers need.
func ParseDocument(k core.Key) (datatype, uid string, err error) {
	switch ShapeOf(k) {
	case ShapeEvent:
		return splitEventFamily(k)
	default:
		pk, err := Parse(k)
		if err != nil {
			return "", "", err
		}
		return pk.Datatype, pk.UID, nil
	}
}

// IsRootPointer reports whether the key belongs to a document without a
// descendant extension. It depends only on the key bytes and the UID format.
func IsRootPointer(k core.Key, format core.UIDFormat) (bool, error) {
	var uid []byte
	switch ShapeOf(k) {
	case ShapeFieldIndex:
		idx := bytes.LastIndexByte(k.ColumnQualifier, core.NULL_BYTE)
		if idx < 0 {
			return false, malformed(ShapeFieldIndex, "column qualifier", k)
		}
		uid = k.ColumnQualifier[idx+1:]
	case ShapeTermFrequency:
		dtEnd, uidEnd, _, ok := termFrequencyBounds(k.ColumnQualifier)
		if !ok {
			return false, malformed(ShapeTermFrequency, "column qualifier", k)
		}
		uid = k.ColumnQualifier[dtEnd+1 : uidEnd]
	default:
		idx := bytes.IndexByte(k.ColumnFamily, core.NULL_BYTE)
		if idx < 0 {
			return false, malformed(ShapeEvent, "column family", k)
		}
		uid = k.ColumnFamily[idx+1:]
	}
	return format.IsRoot(string(uid)), nil
}

func malformed(shape Shape, part string, k core.Key) error {
	return &core.MalformedKeyError{
		Shape:   shape.String(),
		Part:    part,
		Key:     k.String(),
		Message: "missing NULL_BYTE separator",
	}
}

// FieldIndexFamily builds the column family of the field index for field.
func FieldIndexFamily(field string) string {
	return FIELD_INDEX_PREFIX + field
}
