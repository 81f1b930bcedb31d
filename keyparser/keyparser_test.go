package keyparser

import (
	"context"
	"testing"

	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/docseek/hooks"
	"github.com/INLOpen/docseek/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeOf(t *testing.T) {
	assert.Equal(t, ShapeEvent, ShapeOf(testutil.EventKey("r", "dt", "a.b.c", "F", "v")))
	assert.Equal(t, ShapeFieldIndex, ShapeOf(testutil.FieldIndexKey("r", "F", "v", "dt", "a.b.c")))
	assert.Equal(t, ShapeTermFrequency, ShapeOf(testutil.TermFrequencyKey("r", "dt", "a.b.c", "v", "F")))
	assert.Equal(t, ShapeEvent, ShapeOf(core.NewKey("r", "tfx\x00u", "F\x00v")), "only the exact tf family is term frequency")
}

func TestParse(t *testing.T) {
	testCases := []struct {
		name string
		key  core.Key
		want ParsedKey
	}{
		{
			name: "event",
			key:  testutil.EventKey("r", "dt", "a.b.c.1", "NAME.0", "bob"),
			want: ParsedKey{Shape: ShapeEvent, Datatype: "dt", UID: "a.b.c.1", Field: "NAME", RawField: "NAME.0", Value: "bob"},
		},
		{
			name: "event value with separators",
			key:  testutil.EventKey("r", "dt", "a.b.c", "TEXT", "x\x00y"),
			want: ParsedKey{Shape: ShapeEvent, Datatype: "dt", UID: "a.b.c", Field: "TEXT", RawField: "TEXT", Value: "x\x00y"},
		},
		{
			name: "event document marker",
			key:  testutil.DocumentKey("r", "dt", "a.b.c"),
			want: ParsedKey{Shape: ShapeEvent, Datatype: "dt", UID: "a.b.c"},
		},
		{
			name: "field index",
			key:  testutil.FieldIndexKey("r", "NAME.PARENT.1", "bob", "dt", "a.b.c.2"),
			want: ParsedKey{Shape: ShapeFieldIndex, Datatype: "dt", UID: "a.b.c.2", Field: "NAME", RawField: "NAME.PARENT.1", Value: "bob"},
		},
		{
			name: "field index value with separators",
			key:  testutil.FieldIndexKey("r", "NAME", "b\x00ob", "dt", "a.b.c"),
			want: ParsedKey{Shape: ShapeFieldIndex, Datatype: "dt", UID: "a.b.c", Field: "NAME", RawField: "NAME", Value: "b\x00ob"},
		},
		{
			name: "term frequency",
			key:  testutil.TermFrequencyKey("r", "dt", "a.b.c.1", "quick\x00fox", "BODY.3"),
			want: ParsedKey{Shape: ShapeTermFrequency, Datatype: "dt", UID: "a.b.c.1", Field: "BODY", RawField: "BODY.3", Value: "quick\x00fox"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.key)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	testCases := []struct {
		name string
		key  core.Key
	}{
		{"event family", core.NewKey("r", "dtuid", "F\x00v")},
		{"event qualifier", core.NewKey("r", "dt\x00uid", "Fv")},
		{"field index qualifier without datatype", core.NewKey("r", "fi\x00F", "v\x00uid")},
		{"field index qualifier without separators", core.NewKey("r", "fi\x00F", "v")},
		{"field index without field", core.NewKey("r", "fi\x00", "v\x00dt\x00uid")},
		{"term frequency missing field", core.NewKey("r", "tf", "dt\x00uid\x00v")},
		{"term frequency missing uid", core.NewKey("r", "tf", "dt")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.key)
			require.Error(t, err)
			assert.True(t, core.IsMalformedKeyError(err))
		})
	}
}

func TestParseDocument(t *testing.T) {
	for _, k := range []core.Key{
		testutil.EventKey("r", "dt", "a.b.c", "F", "v"),
		testutil.FieldIndexKey("r", "F", "v", "dt", "a.b.c"),
		testutil.TermFrequencyKey("r", "dt", "a.b.c", "v", "F"),
	} {
		dt, uid, err := ParseDocument(k)
		require.NoError(t, err)
		assert.Equal(t, "dt", dt)
		assert.Equal(t, "a.b.c", uid)
	}
}

func TestIsRootPointer(t *testing.T) {
	f := core.DefaultUIDFormat
	testCases := []struct {
		name string
		key  core.Key
		want bool
	}{
		{"event root", testutil.EventKey("r", "dt", "a.b.c", "F", "v"), true},
		{"event child", testutil.EventKey("r", "dt", "a.b.c.1", "F", "v"), false},
		{"event grandchild", testutil.EventKey("r", "dt", "a.b.c.1.2", "F", "v"), false},
		{"field index root", testutil.FieldIndexKey("r", "F", "v.with.dots", "dt", "a.b.c"), true},
		{"field index child", testutil.FieldIndexKey("r", "F", "v", "dt", "a.b.c.4"), false},
		{"term frequency root", testutil.TermFrequencyKey("r", "dt", "a.b.c", "v.x.y.z", "F.1"), true},
		{"term frequency child", testutil.TermFrequencyKey("r", "dt", "a.b.c.1", "v", "F"), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := IsRootPointer(tc.key, f)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsRootPointer_Pure(t *testing.T) {
	f := core.DefaultUIDFormat
	root := testutil.EventKey("r", "dt", "a.b.c", "F", "v")
	child := testutil.FieldIndexKey("r", "F", "v", "dt", "a.b.c.1")
	for i := 0; i < 3; i++ {
		gotChild, err := IsRootPointer(child, f)
		require.NoError(t, err)
		gotRoot, err := IsRootPointer(root, f)
		require.NoError(t, err)
		assert.False(t, gotChild)
		assert.True(t, gotRoot)
	}
}

func TestIsRootPointer_Malformed(t *testing.T) {
	_, err := IsRootPointer(core.NewKey("r", "nofamilysep", ""), core.DefaultUIDFormat)
	assert.True(t, core.IsMalformedKeyError(err))
}

func TestCachingParser(t *testing.T) {
	p := NewCachingParser(8)
	k1 := testutil.EventKey("r", "dt", "a.b.c", "A", "1")
	k2 := testutil.EventKey("r", "dt", "a.b.c", "B", "2")

	got1, err := p.Parse(k1)
	require.NoError(t, err)
	got2, err := p.Parse(k2)
	require.NoError(t, err)
	assert.Equal(t, "A", got1.Field)
	assert.Equal(t, "B", got2.Field)
	assert.Equal(t, "a.b.c", got2.UID)

	fi, err := p.Parse(testutil.FieldIndexKey("r", "A", "1", "dt", "a.b.c"))
	require.NoError(t, err)
	assert.Equal(t, ShapeFieldIndex, fi.Shape)

	_, err = p.Parse(core.NewKey("r", "dt\x00a.b.c", "broken"))
	assert.True(t, core.IsMalformedKeyError(err))
}

func TestObservedCachingParser(t *testing.T) {
	hm := hooks.NewHookManager(nil)
	counts := make(map[hooks.EventType]int)
	var evicted []string
	listener := hooks.ListenerFunc{Fn: func(_ context.Context, ev hooks.HookEvent) error {
		counts[ev.Type()]++
		p := ev.Payload().(hooks.CachePayload)
		assert.Equal(t, FamilyCacheName, p.Cache)
		if ev.Type() == hooks.EventOnCacheEviction {
			evicted = append(evicted, p.Key)
		}
		return nil
	}}
	hm.Register(hooks.EventOnCacheHit, listener)
	hm.Register(hooks.EventOnCacheMiss, listener)
	hm.Register(hooks.EventOnCacheEviction, listener)

	p := NewObservedCachingParser(1, hm)
	_, err := p.Parse(testutil.EventKey("r", "dt", "a.b.c", "A", "1"))
	require.NoError(t, err)
	_, err = p.Parse(testutil.EventKey("r", "dt", "a.b.c", "B", "1"))
	require.NoError(t, err)
	_, err = p.Parse(testutil.EventKey("r", "dt", "d.e.f", "A", "1"))
	require.NoError(t, err)

	assert.Equal(t, 2, counts[hooks.EventOnCacheMiss])
	assert.Equal(t, 1, counts[hooks.EventOnCacheHit])
	assert.Equal(t, []string{"dt\x00a.b.c"}, evicted)
	assert.Equal(t, 1, p.Len())

	p.Reset()
	assert.Zero(t, p.Len())
	assert.Equal(t, []string{"dt\x00a.b.c", "dt\x00d.e.f"}, evicted)
}

func TestParsedKey_DocumentFamily(t *testing.T) {
	pk, err := Parse(testutil.TermFrequencyKey("r", "dt", "a.b.c", "v", "F"))
	require.NoError(t, err)
	assert.Equal(t, "dt\x00a.b.c", pk.DocumentFamily())
	assert.Equal(t, "fi\x00F", FieldIndexFamily("F"))
}
