package core

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

const (
	// NULL_BYTE separates the components packed into a column family or qualifier.
	NULL_BYTE = 0x00
	// MAX_BYTE sorts after every byte that can appear in a field name.
	MAX_BYTE = 0xFF
)

// PartialKey names a prefix of the key components, from the row down to the delete flag.
type PartialKey int

const (
	PartialRow PartialKey = iota
	PartialRowColFam
	PartialRowColFamColQual
	PartialRowColFamColQualColVis
	PartialRowColFamColQualColVisTime
	PartialRowColFamColQualColVisTimeDel
)

func (p PartialKey) String() string {
	switch p {
	case PartialRow:
		return "ROW"
	case PartialRowColFam:
		return "ROW_COLFAM"
	case PartialRowColFamColQual:
		return "ROW_COLFAM_COLQUAL"
	case PartialRowColFamColQualColVis:
		return "ROW_COLFAM_COLQUAL_COLVIS"
	case PartialRowColFamColQualColVisTime:
		return "ROW_COLFAM_COLQUAL_COLVIS_TIME"
	case PartialRowColFamColQualColVisTimeDel:
		return "ROW_COLFAM_COLQUAL_COLVIS_TIME_DEL"
	default:
		return "UNKNOWN"
	}
}

// Key is a composite sorted key. Row, family, qualifier and visibility sort
// ascending, timestamps sort descending and a deleted entry sorts before a
// live entry with the same coordinates.
type Key struct {
	Row             []byte
	ColumnFamily    []byte
	ColumnQualifier []byte
	Visibility      []byte
	Timestamp       int64
	Deleted         bool
}

// NewKey builds a key at the latest possible timestamp.
func NewKey(row, family, qualifier string) Key {
	return Key{
		Row:             cloneBytes([]byte(row)),
		ColumnFamily:    cloneBytes([]byte(family)),
		ColumnQualifier: cloneBytes([]byte(qualifier)),
		Visibility:      []byte{},
		Timestamp:       math.MaxInt64,
	}
}

// NewKeyBytes is NewKey for callers already holding byte slices. The slices are copied.
func NewKeyBytes(row, family, qualifier []byte) Key {
	return Key{
		Row:             cloneBytes(row),
		ColumnFamily:    cloneBytes(family),
		ColumnQualifier: cloneBytes(qualifier),
		Visibility:      []byte{},
		Timestamp:       math.MaxInt64,
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func followingArray(b []byte) []byte {
	out := make([]byte, len(b)+1)
	copy(out, b)
	out[len(b)] = NULL_BYTE
	return out
}

// Clone returns a deep copy of the key.
func (k Key) Clone() Key {
	return Key{
		Row:             cloneBytes(k.Row),
		ColumnFamily:    cloneBytes(k.ColumnFamily),
		ColumnQualifier: cloneBytes(k.ColumnQualifier),
		Visibility:      cloneBytes(k.Visibility),
		Timestamp:       k.Timestamp,
		Deleted:         k.Deleted,
	}
}

// FollowingKey returns the smallest key that sorts after every key sharing
// this key's components up to the given granularity.
func (k Key) FollowingKey(part PartialKey) Key {
	switch part {
	case PartialRow:
		return Key{Row: followingArray(k.Row), ColumnFamily: []byte{}, ColumnQualifier: []byte{}, Visibility: []byte{}, Timestamp: math.MaxInt64}
	case PartialRowColFam:
		return Key{Row: cloneBytes(k.Row), ColumnFamily: followingArray(k.ColumnFamily), ColumnQualifier: []byte{}, Visibility: []byte{}, Timestamp: math.MaxInt64}
	case PartialRowColFamColQual:
		return Key{Row: cloneBytes(k.Row), ColumnFamily: cloneBytes(k.ColumnFamily), ColumnQualifier: followingArray(k.ColumnQualifier), Visibility: []byte{}, Timestamp: math.MaxInt64}
	case PartialRowColFamColQualColVis:
		return Key{Row: cloneBytes(k.Row), ColumnFamily: cloneBytes(k.ColumnFamily), ColumnQualifier: cloneBytes(k.ColumnQualifier), Visibility: followingArray(k.Visibility), Timestamp: math.MaxInt64}
	case PartialRowColFamColQualColVisTimeDel:
		if k.Deleted {
			out := k.Clone()
			out.Deleted = false
			return out
		}
		fallthrough
	default:
		if k.Timestamp == math.MinInt64 {
			return Key{Row: cloneBytes(k.Row), ColumnFamily: cloneBytes(k.ColumnFamily), ColumnQualifier: cloneBytes(k.ColumnQualifier), Visibility: followingArray(k.Visibility), Timestamp: math.MaxInt64}
		}
		out := k.Clone()
		out.Timestamp = k.Timestamp - 1
		out.Deleted = false
		return out
	}
}

// Compare orders two keys over every component.
func (k Key) Compare(other Key) int {
	return k.ComparePartial(other, PartialRowColFamColQualColVisTimeDel)
}

// ComparePartial orders two keys over the components up to part.
func (k Key) ComparePartial(other Key, part PartialKey) int {
	if c := bytes.Compare(k.Row, other.Row); c != 0 || part == PartialRow {
		return c
	}
	if c := bytes.Compare(k.ColumnFamily, other.ColumnFamily); c != 0 || part == PartialRowColFam {
		return c
	}
	if c := bytes.Compare(k.ColumnQualifier, other.ColumnQualifier); c != 0 || part == PartialRowColFamColQual {
		return c
	}
	if c := bytes.Compare(k.Visibility, other.Visibility); c != 0 || part == PartialRowColFamColQualColVis {
		return c
	}
	switch {
	case k.Timestamp > other.Timestamp:
		return -1
	case k.Timestamp < other.Timestamp:
		return 1
	}
	if part == PartialRowColFamColQualColVisTime || k.Deleted == other.Deleted {
		return 0
	}
	if k.Deleted {
		return -1
	}
	return 1
}

// Equal reports whether every component matches.
func (k Key) Equal(other Key) bool {
	return k.Compare(other) == 0
}

// EqualPartial reports whether the components up to part match.
func (k Key) EqualPartial(other Key, part PartialKey) bool {
	return k.ComparePartial(other, part) == 0
}

func (k Key) String() string {
	var sb strings.Builder
	sb.WriteString(printable(k.Row))
	sb.WriteByte(' ')
	sb.WriteString(printable(k.ColumnFamily))
	sb.WriteByte(':')
	sb.WriteString(printable(k.ColumnQualifier))
	sb.WriteString(" [")
	sb.WriteString(printable(k.Visibility))
	sb.WriteString("] ")
	if k.Timestamp == math.MaxInt64 {
		sb.WriteString("latest")
	} else {
		sb.WriteString(strconv.FormatInt(k.Timestamp, 10))
	}
	if k.Deleted {
		sb.WriteString(" deleted")
	}
	return sb.String()
}

func printable(b []byte) string {
	var sb strings.Builder
	const hex = "0123456789abcdef"
	for _, c := range b {
		if c >= 0x20 && c < 0x7f {
			sb.WriteByte(c)
			continue
		}
		sb.WriteString(`\x`)
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}
	return sb.String()
}
