package sn3218

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCurveIdentity(t *testing.T) {
	c := GenerateCurve(1.0)
	for i := range c {
		if int(c[i]) != i {
			t.Fatalf("curve[%d] = %d, want identity", i, c[i])
		}
	}
}

func TestGenerateCurveShape(t *testing.T) {
	for _, exp := range []float64{0.5, 1.2, DefaultGamma, 1.6, 6.8} {
		c := GenerateCurve(exp)
		assert.EqualValues(t, 0, c[0], "exponent %g", exp)
		assert.EqualValues(t, 255, c[255], "exponent %g", exp)
		for i := 1; i < len(c); i++ {
			if c[i] < c[i-1] {
				t.Fatalf("exponent %g: curve decreases at %d (%d -> %d)", exp, i, c[i-1], c[i])
			}
		}
	}
}

func TestGenerateCurveCompressesLows(t *testing.T) {
	c := GenerateCurve(DefaultGamma)
	assert.Less(t, c[64], uint8(64))
	assert.Less(t, c[128], uint8(128))
}

func TestCurveFromSlice(t *testing.T) {
	values := make([]uint8, 256)
	values[10] = 42
	c, err := CurveFromSlice(values)
	require.NoError(t, err)
	assert.EqualValues(t, 42, c[10])

	_, err = CurveFromSlice(values[:255])
	assert.ErrorIs(t, err, ErrCurveLength)
}

func TestOverrideDecoupling(t *testing.T) {
	g := NewGammaTable(DefaultGamma)
	flat := Curve{}
	for i := range flat {
		flat[i] = 7
	}
	require.NoError(t, g.SetChannelCurve(5, flat))

	// Regenerate respects the override.
	g.Regenerate(2.2)
	shared := GenerateCurve(2.2)
	c5, err := g.ChannelCurve(5)
	require.NoError(t, err)
	assert.Equal(t, flat, c5)
	for ch := 0; ch < NumChannels; ch++ {
		if ch == 5 {
			continue
		}
		c, err := g.ChannelCurve(ch)
		require.NoError(t, err)
		assert.Equal(t, shared, c, "channel %d", ch)
	}

	// ResetShared discards it.
	g.ResetShared(2.0)
	shared = GenerateCurve(2.0)
	c5, err = g.ChannelCurve(5)
	require.NoError(t, err)
	assert.Equal(t, shared, c5)
}

func TestCorrect(t *testing.T) {
	g := NewGammaTable(1.0)
	v, err := g.Correct(0, 200)
	require.NoError(t, err)
	assert.EqualValues(t, 200, v)

	flat := Curve{}
	require.NoError(t, g.SetChannelCurve(17, flat))
	v, err = g.Correct(17, 200)
	require.NoError(t, err)
	assert.EqualValues(t, 0, v)

	_, err = g.Correct(18, 0)
	assert.ErrorIs(t, err, ErrBadChannel)
	_, err = g.Correct(-1, 0)
	assert.ErrorIs(t, err, ErrBadChannel)
	assert.ErrorIs(t, g.SetChannelCurve(18, flat), ErrBadChannel)
}
