package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformSampleStaysInRange(t *testing.T) {
	s := NewSampler(1)
	o := Options{Kind: Uniform, Min: 1.0, Max: 10.0, Decimals: 2}
	for i := 0; i < 1000; i++ {
		v, err := s.Sample(Uniform, o)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 1.0)
		assert.LessOrEqual(t, v, 10.0)
		// Two decimal places: scaling by 100 must give an integer.
		assert.InDelta(t, math.Round(v*100), v*100, 1e-9)
	}
}

func TestLogUniformSampleStaysInRange(t *testing.T) {
	s := NewSampler(2)
	o := Options{Kind: LogUniform, Min: 0.5, Max: 100, Decimals: 3}
	for i := 0; i < 1000; i++ {
		v, err := s.Sample(LogUniform, o)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0.5)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestLogUniformZeroBoundIsDegenerate(t *testing.T) {
	s := NewSampler(3)
	_, err := s.Sample(LogUniform, Options{Min: 0, Max: 10, Decimals: 1})
	assert.ErrorIs(t, err, ErrDegenerateRange)

	_, err = s.Sample(LogUniform, Options{Min: 1, Max: 0, Decimals: 1})
	assert.ErrorIs(t, err, ErrDegenerateRange)
}

func TestNormalSampleStrictlyInside(t *testing.T) {
	s := NewSampler(4)
	o := Options{Min: 1, Max: 10, Decimals: 2}
	for i := 0; i < 500; i++ {
		v, err := s.Sample(Normal, o)
		require.NoError(t, err)
		assert.Greater(t, v, 1.0)
		assert.Less(t, v, 10.0)
	}
}

func TestTriangularSampleStrictlyInside(t *testing.T) {
	s := NewSampler(5)
	o := Options{Min: 1, Max: 10, Decimals: 2}
	for i := 0; i < 500; i++ {
		v, err := s.Sample(Triangular, o)
		require.NoError(t, err)
		assert.Greater(t, v, 1.0)
		assert.Less(t, v, 10.0)
	}
}

func TestRoundedSampleCannotLandOnBound(t *testing.T) {
	s := NewSampler(7)
	// Zero decimals over (1, 2): every draw rounds to 1 or 2, neither of
	// which is strictly inside, so the rejection loop must give up rather
	// than return a bound.
	o := Options{Min: 1, Max: 2, Decimals: 0}
	_, err := s.Sample(Triangular, o)
	assert.ErrorIs(t, err, ErrDegenerateRange)

	_, err = s.Sample(Normal, o)
	assert.ErrorIs(t, err, ErrDegenerateRange)
}

func TestDegenerateIntervalGivesUp(t *testing.T) {
	s := NewSampler(6)
	// min == max: nothing can fall strictly inside, so the capped
	// rejection loop must bail out instead of spinning forever.
	_, err := s.Sample(Normal, Options{Min: 5, Max: 5, Decimals: 1})
	assert.ErrorIs(t, err, ErrDegenerateRange)

	_, err = s.Sample(Triangular, Options{Min: 5, Max: 5, Decimals: 1})
	assert.ErrorIs(t, err, ErrDegenerateRange)
}

func TestSamplerIsDeterministicForSeed(t *testing.T) {
	o := Options{Min: 1, Max: 10, Decimals: 4}
	a := NewSampler(42)
	b := NewSampler(42)
	for _, kind := range Kinds {
		for i := 0; i < 20; i++ {
			va, erra := a.Sample(kind, o)
			vb, errb := b.Sample(kind, o)
			require.NoError(t, erra)
			require.NoError(t, errb)
			assert.Equal(t, va, vb)
		}
	}
}
