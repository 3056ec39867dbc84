package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistrySequentialIndices(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, 0, r.Register("spectrometer"))
	assert.Equal(t, 1, r.Register("writer"))
	assert.Equal(t, 2, r.Register("monitor"))

	assert.Equal(t, 3, r.Count())
	assert.Equal(t, []string{"spectrometer", "writer", "monitor"}, r.IDs())
}

func TestRegistryIdempotent(t *testing.T) {
	r := NewRegistry()

	first := r.Register("writer")
	again := r.Register("writer")

	assert.Equal(t, first, again)
	assert.Equal(t, 1, r.Count())
}

func TestRegistryIndexLookup(t *testing.T) {
	r := NewRegistry()
	r.Register("a")
	r.Register("b")

	idx, ok := r.Index("b")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = r.Index("missing")
	assert.False(t, ok)
}

func TestRegistryOrderIndependentOfCallPattern(t *testing.T) {
	r := NewRegistry()

	// Re-registrations interleaved with new identities must not disturb
	// first-registration order.
	r.Register("x")
	r.Register("y")
	r.Register("x")
	r.Register("z")
	r.Register("y")

	assert.Equal(t, []string{"x", "y", "z"}, r.IDs())
	for i, id := range r.IDs() {
		idx, ok := r.Index(id)
		assert.True(t, ok)
		assert.Equal(t, i, idx)
	}
}
