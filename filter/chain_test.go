package filter

import (
	"errors"
	"testing"

	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/docseek/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockFilter is a Filter that can also seek and transform.
type mockFilter struct {
	mock.Mock
}

func (m *mockFilter) Apply(e core.Entry) (bool, error) {
	args := m.Called(e)
	return args.Bool(0), args.Error(1)
}

func (m *mockFilter) Peek(e core.Entry) (bool, error) {
	args := m.Called(e)
	return args.Bool(0), args.Error(1)
}

func (m *mockFilter) Keep(k core.Key) (bool, error) {
	args := m.Called(k)
	return args.Bool(0), args.Error(1)
}

func (m *mockFilter) StartNewDocument(k core.Key) error {
	return m.Called(k).Error(0)
}

func (m *mockFilter) StartKey(k core.Key) (core.Key, error) {
	args := m.Called(k)
	return args.Get(0).(core.Key), args.Error(1)
}

func (m *mockFilter) StopKey(k core.Key) (core.Key, error) {
	args := m.Called(k)
	return args.Get(0).(core.Key), args.Error(1)
}

func (m *mockFilter) KeyRange(k core.Key) (core.Range, error) {
	args := m.Called(k)
	return args.Get(0).(core.Range), args.Error(1)
}

func (m *mockFilter) SeekRange(current core.Key, end *core.Key, endInclusive bool) (*core.Range, error) {
	args := m.Called(current, end, endInclusive)
	return args.Get(0).(*core.Range), args.Error(1)
}

func (m *mockFilter) MaxNextCount() int {
	return m.Called().Int(0)
}

func (m *mockFilter) Transform(k core.Key) (*core.Key, error) {
	args := m.Called(k)
	return args.Get(0).(*core.Key), args.Error(1)
}

func (m *mockFilter) Clone() Filter { return m }

func TestChain_ApplyShortCircuits(t *testing.T) {
	e := entry(rootKey("A", "1"))
	first, second := new(mockFilter), new(mockFilter)
	first.On("Apply", e).Return(false, nil).Once()

	ok, err := NewChain(first, second).Apply(e)
	require.NoError(t, err)
	assert.False(t, ok)
	first.AssertExpectations(t)
	second.AssertNotCalled(t, "Apply", mock.Anything)
}

func TestChain_KeepRequiresEveryMember(t *testing.T) {
	k := rootKey("A", "1")
	first, second := new(mockFilter), new(mockFilter)
	first.On("Keep", k).Return(true, nil)
	second.On("Keep", k).Return(true, nil).Once()

	c := NewChain(first, second)
	ok, err := c.Keep(k)
	require.NoError(t, err)
	assert.True(t, ok)

	second.On("Keep", k).Return(false, nil).Once()
	ok, err = c.Keep(k)
	require.NoError(t, err)
	assert.False(t, ok)
	second.AssertExpectations(t)
}

func TestChain_PeekStopsOnError(t *testing.T) {
	e := entry(rootKey("A", "1"))
	boom := errors.New("boom")
	first, second := new(mockFilter), new(mockFilter)
	first.On("Peek", e).Return(false, boom)

	_, err := NewChain(first, second).Peek(e)
	assert.ErrorIs(t, err, boom)
	second.AssertNotCalled(t, "Peek", mock.Anything)
}

func TestChain_StartNewDocumentReachesEveryMember(t *testing.T) {
	doc := testutil.DocumentKey("row", "dt", rootUID)
	first, second := new(mockFilter), new(mockFilter)
	first.On("StartNewDocument", doc).Return(nil)
	second.On("StartNewDocument", doc).Return(nil)

	c := NewChain(first)
	c.AddFilter(second)
	require.NoError(t, c.StartNewDocument(doc))
	assert.Equal(t, 2, c.Len())
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestChain_DocumentBoundsNarrowToTightestMember(t *testing.T) {
	tld := newTLD(t, nil, nil)
	c := NewChain(tld, NewExpressionFilter(nil, nil))
	k := childKey(childUID, "A", "1")

	start, err := c.StartKey(k)
	require.NoError(t, err)
	testutil.RequireKeyEqual(t, testutil.DocumentKey("row", "dt", childUID), start)

	stop, err := c.StopKey(k)
	require.NoError(t, err)
	testutil.RequireKeyEqual(t, core.NewKey("row", "dt\x00"+childUID+"\x00", ""), stop)

	r, err := c.KeyRange(k)
	require.NoError(t, err)
	testutil.RequireRangeEqual(t, core.NewRange(&start, true, &stop, false), &r)
	assert.False(t, r.Contains(rootKey("A", "1")))
}

func TestChain_EmptyChainHasNoRange(t *testing.T) {
	c := NewChain()
	_, err := c.StartKey(rootKey("A", "1"))
	assert.True(t, core.IsConfigurationConflictError(err))
	_, err = c.KeyRange(rootKey("A", "1"))
	assert.True(t, core.IsConfigurationConflictError(err))
}

func TestChain_MaxNextCount(t *testing.T) {
	disabled, five, three := new(mockFilter), new(mockFilter), new(mockFilter)
	disabled.On("MaxNextCount").Return(-1)
	five.On("MaxNextCount").Return(5)
	three.On("MaxNextCount").Return(3)

	assert.Equal(t, 3, NewChain(disabled, five, three, NewExpressionFilter(nil, nil)).MaxNextCount())
	assert.Equal(t, 5, NewChain(five, disabled).MaxNextCount())
	assert.Equal(t, -1, NewChain(disabled, NewExpressionFilter(nil, nil)).MaxNextCount())
	assert.Equal(t, -1, NewChain().MaxNextCount())
}

func TestChain_SeekRangeIntersectsSuggestions(t *testing.T) {
	current := rootKey("A", "1")
	k1, k2, k5, k9 := rootKey("B", "1"), rootKey("C", "1"), rootKey("E", "1"), rootKey("Z", "1")
	r1 := core.NewRange(&k1, true, &k5, false)
	r2 := core.NewRange(&k2, false, &k9, true)

	first, second, silent := new(mockFilter), new(mockFilter), new(mockFilter)
	first.On("SeekRange", current, (*core.Key)(nil), false).Return(&r1, nil)
	silent.On("SeekRange", current, (*core.Key)(nil), false).Return((*core.Range)(nil), nil)
	second.On("SeekRange", current, (*core.Key)(nil), false).Return(&r2, nil)

	got, err := NewChain(first, silent, NewExpressionFilter(nil, nil), second).SeekRange(current, nil, false)
	require.NoError(t, err)
	testutil.RequireRangeEqual(t, core.NewRange(&k2, false, &k5, false), got)

	none, err := NewChain(silent).SeekRange(current, nil, false)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestChain_SeekRangeTieKeepsExclusiveBound(t *testing.T) {
	current := rootKey("A", "1")
	start, end := rootKey("B", "1"), rootKey("C", "1")
	inclusive := core.NewRange(&start, true, &end, true)
	exclusive := core.NewRange(&start, false, &end, false)

	first, second := new(mockFilter), new(mockFilter)
	first.On("SeekRange", current, (*core.Key)(nil), false).Return(&inclusive, nil)
	second.On("SeekRange", current, (*core.Key)(nil), false).Return(&exclusive, nil)

	got, err := NewChain(first, second).SeekRange(current, nil, false)
	require.NoError(t, err)
	testutil.RequireRangeEqual(t, exclusive, got)
}

func TestChain_TransformAsksOnlyDecliningMembers(t *testing.T) {
	k := rootKey("A", "1")
	marker := rootKey("LIMITED", "A")
	keeper, decliner := new(mockFilter), new(mockFilter)
	keeper.On("Keep", k).Return(true, nil)
	decliner.On("Keep", k).Return(false, nil)
	decliner.On("Transform", k).Return(&marker, nil)

	got, err := NewChain(keeper, decliner).Transform(k)
	require.NoError(t, err)
	require.NotNil(t, got)
	testutil.RequireKeyEqual(t, marker, *got)
	keeper.AssertNotCalled(t, "Transform", mock.Anything)
}

func TestChain_TransformWithoutSubstitute(t *testing.T) {
	k := rootKey("A", "1")
	parent := NewParentFilter(nil, nil)
	got, err := NewChain(parent).Transform(k)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestChain_TransformFromTLDLimit(t *testing.T) {
	tld := newTLD(t, nil, func(o *TLDOptions) {
		o.FieldLimits = map[string]int{"F": 1}
		o.LimitField = "LIMITED"
	})
	c := NewChain(tld, NewExpressionFilter(nil, nil))
	require.NoError(t, c.StartNewDocument(testutil.DocumentKey("row", "dt", rootUID)))

	_, err := c.Apply(entry(rootKey("F", "1")))
	require.NoError(t, err)
	_, err = c.Apply(entry(rootKey("F", "2")))
	require.NoError(t, err)

	got, err := c.Transform(rootKey("F", "2"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "LIMITED\x00F", string(got.ColumnQualifier))
}

func TestChain_CloneClonesMembers(t *testing.T) {
	tld := newTLD(t, nil, func(o *TLDOptions) { o.FieldLimits = map[string]int{"F": 1} })
	c := NewChain(tld)
	ok, err := c.Apply(entry(rootKey("F", "1")))
	require.NoError(t, err)
	assert.True(t, ok)

	clone := c.Clone()
	ok, err = clone.Apply(entry(rootKey("F", "2")))
	require.NoError(t, err)
	assert.True(t, ok, "clone starts with no field hits")

	ok, err = c.Apply(entry(rootKey("F", "2")))
	require.NoError(t, err)
	assert.False(t, ok)
}
