package core

import "strings"

// UID_SEPARATOR joins the segments of a document UID.
const UID_SEPARATOR = "."

// UIDFormat describes how a document UID splits into a root and its descendants.
// RootSegments is the number of dot separated parts that together form segment 0;
// every further part is one level of descent. Hash UIDs such as "a1.b2.c3" use 3.
type UIDFormat struct {
	RootSegments int
}

// DefaultUIDFormat matches three-part hash UIDs.
var DefaultUIDFormat = UIDFormat{RootSegments: 3}

func (f UIDFormat) rootParts() int {
	if f.RootSegments < 1 {
		return 1
	}
	return f.RootSegments
}

// Root returns segment 0 of uid.
func (f UIDFormat) Root(uid string) string {
	idx := -1
	for i := 0; i < f.rootParts(); i++ {
		next := strings.Index(uid[idx+1:], UID_SEPARATOR)
		if next < 0 {
			return uid
		}
		idx += next + 1
	}
	return uid[:idx]
}

// Depth counts the levels of descent below the root. A root UID has depth 0.
func (f UIDFormat) Depth(uid string) int {
	d := strings.Count(uid, UID_SEPARATOR) - (f.rootParts() - 1)
	if d < 0 {
		return 0
	}
	return d
}

// IsRoot reports whether uid has no descendant extension.
func (f UIDFormat) IsRoot(uid string) bool {
	return f.Depth(uid) == 0
}

// IsDescendant reports whether uid extends ancestor by at least one segment.
func (f UIDFormat) IsDescendant(uid, ancestor string) bool {
	return len(uid) > len(ancestor) && strings.HasPrefix(uid, ancestor) && uid[len(ancestor):len(ancestor)+1] == UID_SEPARATOR
}
