package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUIDFormat_RootAndDepth(t *testing.T) {
	f := DefaultUIDFormat
	testCases := []struct {
		uid   string
		root  string
		depth int
	}{
		{"a1.b2.c3", "a1.b2.c3", 0},
		{"a1.b2.c3.1", "a1.b2.c3", 1},
		{"a1.b2.c3.1.22", "a1.b2.c3", 2},
		{"short", "short", 0},
	}
	for _, tc := range testCases {
		t.Run(tc.uid, func(t *testing.T) {
			assert.Equal(t, tc.root, f.Root(tc.uid))
			assert.Equal(t, tc.depth, f.Depth(tc.uid))
			assert.Equal(t, tc.depth == 0, f.IsRoot(tc.uid))
		})
	}
}

func TestUIDFormat_SingleSegmentRoot(t *testing.T) {
	f := UIDFormat{RootSegments: 1}
	assert.Equal(t, "parent", f.Root("parent.child.grandchild"))
	assert.Equal(t, 2, f.Depth("parent.child.grandchild"))
}

func TestUIDFormat_IsDescendant(t *testing.T) {
	f := DefaultUIDFormat
	assert.True(t, f.IsDescendant("a.b.c.1", "a.b.c"))
	assert.False(t, f.IsDescendant("a.b.c1", "a.b.c"))
	assert.False(t, f.IsDescendant("a.b.c", "a.b.c"))
}
