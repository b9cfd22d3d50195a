package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TimeOrdered(t *testing.T) {
	a := New()
	b := New()
	assert.Equal(t, 7, int(a.Version()))
	assert.True(t, a.String() < b.String())
}

func TestParseOptional(t *testing.T) {
	v, err := ParseOptional("")
	require.NoError(t, err)
	assert.Nil(t, v)

	src := New()
	v, err = ParseOptional(src.String())
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, src, *v)

	_, err = ParseOptional("not-a-uuid")
	assert.Error(t, err)
}

func TestEqual(t *testing.T) {
	a := New()
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(&a, nil))
	assert.True(t, Equal(Ptr(a), Ptr(a)))
}
