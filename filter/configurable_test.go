package filter

import (
	"testing"

	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/docseek/internal/testutil"
	"github.com/INLOpen/docseek/rangeprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurable_SelectsFilter(t *testing.T) {
	expr := NewExpressionFilter(Predicates{"A": NewMatchPredicate("x")}, nil)
	fields := newFieldFilter(t, 0, "B")

	withExpression, err := NewConfigurable(true, expr, fields)
	require.NoError(t, err)
	assert.True(t, withExpression.UsesExpression())
	assert.True(t, mustApply(t, withExpression, rootKey("A", "x")))
	assert.False(t, mustApply(t, withExpression, rootKey("B", "x")))
	assert.True(t, mustKeep(t, withExpression, rootKey("B", "x")))

	withFields, err := NewConfigurable(false, expr, fields)
	require.NoError(t, err)
	assert.False(t, withFields.UsesExpression())
	assert.False(t, mustApply(t, withFields, rootKey("A", "x")))
	assert.True(t, mustApply(t, withFields, rootKey("B", "x")))
	assert.False(t, mustKeep(t, withFields, rootKey("A", "x")))
}

func TestConfigurable_MissingSelection(t *testing.T) {
	_, err := NewConfigurable(true, nil, newFieldFilter(t, 0, "B"))
	assert.True(t, core.IsConfigurationConflictError(err))
	_, err = NewConfigurable(false, NewExpressionFilter(nil, nil), nil)
	assert.True(t, core.IsConfigurationConflictError(err))
}

func TestConfigurable_NeverSeeksOrTransforms(t *testing.T) {
	c, err := NewConfigurable(false, nil, newFieldFilter(t, 0, "A"))
	require.NoError(t, err)
	k := rootKey("B", "1")
	assert.False(t, mustApply(t, c, k))

	r, err := c.SeekRange(k, nil, false)
	require.NoError(t, err)
	assert.Nil(t, r, "the wrapped field filter would have seeked")
	assert.Equal(t, -1, c.MaxNextCount())

	marker, err := c.Transform(k)
	require.NoError(t, err)
	assert.Nil(t, marker)
}

func TestConfigurable_DocumentRange(t *testing.T) {
	c, err := NewConfigurable(true, NewExpressionFilter(nil, rangeprovider.NewTLD(core.DefaultUIDFormat)), nil)
	require.NoError(t, err)

	k := childKey(childUID, "A", "1")
	start, err := c.StartKey(k)
	require.NoError(t, err)
	testutil.RequireKeyEqual(t, testutil.DocumentKey("row", "dt", childUID), start)

	r, err := c.KeyRange(k)
	require.NoError(t, err)
	assert.True(t, r.Contains(k))
	assert.False(t, r.Contains(rootKey("A", "1")), "ranges ignore the wrapped filter's provider")
	assert.False(t, r.Contains(childKey(grandchildUID, "A", "1")))
}

func TestConfigurable_StartNewDocumentDelegates(t *testing.T) {
	pred := NewMatchPredicate()
	c, err := NewConfigurable(true, NewExpressionFilter(Predicates{"A": pred}, nil), nil)
	require.NoError(t, err)
	assert.True(t, mustApply(t, c, rootKey("A", "1")))
	assert.Equal(t, 1, pred.Matched())

	require.NoError(t, c.StartNewDocument(testutil.DocumentKey("row", "dt", rootUID)))
	assert.Zero(t, pred.Matched())

	clone := c.Clone().(*Configurable)
	assert.True(t, clone.UsesExpression())
	assert.True(t, mustApply(t, clone, rootKey("A", "1")))
	assert.Zero(t, pred.Matched())
}
