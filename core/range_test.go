package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRange_Contains(t *testing.T) {
	start := NewKey("r", "b", "")
	end := NewKey("r", "d", "")

	testCases := []struct {
		name           string
		startInclusive bool
		endInclusive   bool
		key            Key
		want           bool
	}{
		{"start inclusive", true, false, start, true},
		{"start exclusive", false, false, start, false},
		{"end exclusive", true, false, end, false},
		{"end inclusive", true, true, end, true},
		{"inside", true, false, NewKey("r", "c", "x"), true},
		{"before", true, false, NewKey("r", "a", "x"), false},
		{"after", true, true, NewKey("r", "e", ""), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRange(&start, tc.startInclusive, &end, tc.endInclusive)
			assert.Equal(t, tc.want, r.Contains(tc.key))
		})
	}
}

func TestRange_Unbounded(t *testing.T) {
	r := Range{}
	assert.True(t, r.Contains(NewKey("anything", "", "")))
	assert.False(t, r.IsEmpty())
}

func TestRange_IsEmpty(t *testing.T) {
	a := NewKey("r", "a", "")
	b := NewKey("r", "b", "")
	assert.False(t, NewRange(&a, true, &b, false).IsEmpty())
	assert.True(t, NewRange(&b, true, &a, false).IsEmpty())
	assert.True(t, NewRange(&a, false, &a, true).IsEmpty())
	assert.False(t, NewRange(&a, true, &a, true).IsEmpty())
}

func TestRange_EqualAndCopy(t *testing.T) {
	a := NewKey("r", "a", "")
	b := NewKey("r", "b", "")
	r1 := NewRange(&a, true, &b, false)
	a.Row[0] = 'x'
	r2 := NewRange(&Key{Row: []byte("r"), ColumnFamily: []byte("a"), ColumnQualifier: []byte{}, Visibility: []byte{}, Timestamp: b.Timestamp}, true, &b, false)
	assert.True(t, r1.Equal(r2))
	assert.False(t, r1.Equal(NewRange(r1.Start, false, r1.End, false)))
	assert.Contains(t, r1.String(), "[r a:")
}
