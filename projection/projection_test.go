package projection

import (
	"testing"

	"github.com/INLOpen/docseek/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjection_Includes(t *testing.T) {
	p := NewIncludes(core.NewFieldSet("NAME", "AGE"))
	assert.Equal(t, Includes, p.Mode())
	assert.True(t, p.Apply("NAME"))
	assert.True(t, p.Apply("NAME.0"))
	assert.True(t, p.Apply("AGE.PARENT.3"))
	assert.False(t, p.Apply("ADDRESS"))
}

func TestProjection_IncludesUniversal(t *testing.T) {
	p := NewIncludes(UniversalSet)
	assert.True(t, p.Apply("ANYTHING"))
	assert.True(t, p.Apply(""))
}

func TestProjection_IncludesNilMatchesNothing(t *testing.T) {
	p := NewIncludes(nil)
	assert.False(t, p.Apply("NAME"))
}

type growingSet map[string]struct{}

func (g growingSet) Contains(field string) bool {
	_, ok := g[field]
	return ok
}

func TestProjection_IncludesSharesReference(t *testing.T) {
	shared := growingSet{"NAME": {}}
	p := NewIncludes(shared)
	assert.False(t, p.Apply("AGE"))
	shared["AGE"] = struct{}{}
	assert.True(t, p.Apply("AGE"))
}

func TestProjection_ExcludesCopies(t *testing.T) {
	fields := []string{"SSN"}
	p := NewExcludes(fields)
	fields[0] = "NAME"

	assert.Equal(t, Excludes, p.Mode())
	assert.False(t, p.Apply("SSN"))
	assert.False(t, p.Apply("SSN.1"))
	assert.True(t, p.Apply("NAME"))
}

func TestNew(t *testing.T) {
	_, err := New([]string{"A"}, []string{"B"})
	require.Error(t, err)
	assert.True(t, core.IsConfigurationConflictError(err))

	p, err := New(nil, nil)
	require.NoError(t, err)
	assert.True(t, p.Apply("A"))

	p, err = New([]string{"A"}, nil)
	require.NoError(t, err)
	assert.False(t, p.Apply("B"))

	p, err = New(nil, []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, "EXCLUDES", p.Mode().String())
	assert.True(t, p.Apply("B"))
}
