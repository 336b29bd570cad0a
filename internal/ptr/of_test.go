package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "foo", *Of("foo"))
	assert.Equal(t, 42, *Of(42))
}

func TestDeref(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, Deref(nil, 2))
	assert.Equal(t, 0, Deref(Of(0), 2))
	assert.Equal(t, "x", Deref(Of("x"), "y"))
}
