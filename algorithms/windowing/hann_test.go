package windowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func TestPeriodicHannCoefficients(t *testing.T) {
	h := NewPeriodicHann(4)
	assert.Equal(t, 4, h.GetSize())

	buf := ones(4)
	require.NoError(t, h.ApplyInPlace(buf))
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.5}, buf, 1e-12)
}

func TestPeriodicHannSize8(t *testing.T) {
	buf := ones(8)
	require.NoError(t, NewPeriodicHann(8).ApplyInPlace(buf))

	// periodic: zero only at the start, peak at N/2, symmetric around it
	assert.InDelta(t, 0, buf[0], 1e-12)
	assert.InDelta(t, 1, buf[4], 1e-12)
	assert.InDelta(t, buf[1], buf[7], 1e-12)
	assert.InDelta(t, buf[3], buf[5], 1e-12)
	assert.Greater(t, buf[7], 0.0)
}

func TestHannApplyInPlace(t *testing.T) {
	h := NewPeriodicHann(4)

	buf := []float64{2, 2, 2, 2}
	require.NoError(t, h.ApplyInPlace(buf))
	assert.InDeltaSlice(t, []float64{0, 1, 2, 1}, buf, 1e-12)
	assert.Error(t, h.ApplyInPlace([]float64{1, 2}))
}

func TestHannNegativeSize(t *testing.T) {
	h := NewPeriodicHann(-3)
	assert.Equal(t, 0, h.GetSize())
	assert.NoError(t, h.ApplyInPlace(nil))
}
