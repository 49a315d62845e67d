package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniform_StaysInRange(t *testing.T) {
	u := NewUniform(42, Range{Min: 1, Max: 3}, Range{Min: 1, Max: 5})

	seenCount := make(map[int]bool)
	seenDuration := make(map[int]bool)

	for range 10_000 {
		c := u.Count()
		require.GreaterOrEqual(t, c, 1)
		require.LessOrEqual(t, c, 3)
		seenCount[c] = true

		d := u.Duration()
		require.GreaterOrEqual(t, d, 1)
		require.LessOrEqual(t, d, 5)
		seenDuration[d] = true
	}

	assert.Len(t, seenCount, 3)
	assert.Len(t, seenDuration, 5)
}

func TestUniform_SameSeedSameStream(t *testing.T) {
	a := NewUniform(7, Range{Min: 1, Max: 3}, Range{Min: 1, Max: 5})
	b := NewUniform(7, Range{Min: 1, Max: 3}, Range{Min: 1, Max: 5})

	for range 100 {
		assert.Equal(t, a.Count(), b.Count())
		assert.Equal(t, a.Duration(), b.Duration())
	}
}

func TestUniform_DegenerateRange(t *testing.T) {
	u := NewUniform(1, Range{Min: 2, Max: 2}, Range{Min: 0, Max: 0})

	assert.Equal(t, 2, u.Count())
	assert.Equal(t, 0, u.Duration())
}

func TestRange_Validate(t *testing.T) {
	require.NoError(t, Range{Min: 1, Max: 1}.Validate())
	require.Error(t, Range{Min: 3, Max: 1}.Validate())
	require.Error(t, Range{Min: -1, Max: 1}.Validate())
}

func TestScript(t *testing.T) {
	s := NewScript(2, 1)

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 2, s.Duration())
	assert.Equal(t, 1, s.Duration())
	assert.Panics(t, func() { s.Duration() })
}
