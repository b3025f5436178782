package dice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	for _, f := range []string{"1d4", "1d4+1", "2d6 - 3", "d8", "5", "1D20+2d4-1"} {
		_, err := Parse(f)
		assert.NoError(t, err, f)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, f := range []string{"", "   ", "1d", "abc", "1d4+", "0d6", "2d0", "+3"} {
		_, err := Parse(f)
		assert.Error(t, err, f)
	}
}

func TestParse_DieBounds(t *testing.T) {
	for _, f := range []string{"100d6", "1d1000", "100d1000+3"} {
		assert.NoError(t, Validate(f), f)
	}
	for _, f := range []string{"101d6", "1d1001", "200000000d6", "1d4+2d99999"} {
		assert.ErrorIs(t, Validate(f), ErrInvalidDie, f)
	}
}

func TestFormula_IsConstant(t *testing.T) {
	f, err := Parse("3+2")
	require.NoError(t, err)
	assert.True(t, f.IsConstant())

	f, err = Parse("1d4+1")
	require.NoError(t, err)
	assert.False(t, f.IsConstant())
}

func TestRoller_Constant(t *testing.T) {
	r := Roller{RNG: NewRNG(1)}
	got, err := r.Evaluate("3+2-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got)
	assert.Equal(t, int64(0), r.RNG.Position(), "constants must not draw from the RNG")
}

func TestRoller_Range(t *testing.T) {
	r := Roller{RNG: NewRNG(99)}
	for i := 0; i < 200; i++ {
		got, err := r.Evaluate("1d4+1")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, 2)
		assert.LessOrEqual(t, got, 5)
	}
}

func TestRoller_ClampsNegativeToZero(t *testing.T) {
	r := Roller{RNG: NewRNG(3)}
	got, err := r.Evaluate("1d4-10")
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestRoller_Deterministic(t *testing.T) {
	a := Roller{RNG: NewRNG(42)}
	b := Roller{RNG: NewRNG(42)}
	for i := 0; i < 20; i++ {
		x, err := a.Evaluate("2d6+1")
		require.NoError(t, err)
		y, err := b.Evaluate("2d6+1")
		require.NoError(t, err)
		require.Equal(t, x, y)
	}
}

func TestFixed(t *testing.T) {
	f := Fixed{Values: map[string]int{"1d4": 3}, Default: 1}
	got, err := f.Evaluate("1d4")
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	got, err = f.Evaluate("2d6")
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	_, err = f.Evaluate("bogus")
	assert.Error(t, err)
}
