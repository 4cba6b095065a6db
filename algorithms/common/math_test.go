package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRMS(t *testing.T) {
	assert.Equal(t, 0.0, RMS(nil))
	assert.InDelta(t, 1.0, RMS([]float64{1, -1, 1, -1}), 1e-12)
	assert.InDelta(t, math.Sqrt(12.5), RMS([]float64{3, 4}), 1e-12)
}

func TestTopKIndices(t *testing.T) {
	data := []float64{0.1, 5, 3, 9, 3, 0}
	assert.Equal(t, []int{3, 1, 2}, TopKIndices(data, 3))
	assert.Equal(t, []int{3}, TopKIndices(data, 1))
	assert.Equal(t, []int{3, 1, 2, 4, 0, 5}, TopKIndices(data, 10))
	assert.Empty(t, TopKIndices(data, 0))
	assert.Empty(t, TopKIndices(nil, 3))

	// input untouched
	assert.Equal(t, []float64{0.1, 5, 3, 9, 3, 0}, data)
}

func TestTopKIndicesTiesFavorLowerIndex(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, TopKIndices(make([]float64, 257), 3))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(3, -1, 1))
	assert.Equal(t, -1.0, Clamp(-3, -1, 1))
	assert.Equal(t, 0.5, Clamp(0.5, -1, 1))
}

func TestBlockFramer(t *testing.T) {
	_, err := NewBlockFramer(0)
	assert.Error(t, err)

	bf, err := NewBlockFramer(4)
	assert.NoError(t, err)

	assert.Empty(t, bf.AddSamples([]float64{1, 2, 3}))

	blocks := bf.AddSamples([]float64{4, 5, 6, 7, 8, 9, 10})
	assert.Equal(t, [][]float64{{1, 2, 3, 4}, {5, 6, 7, 8}}, blocks)

	assert.Equal(t, []float64{9, 10, 0, 0}, bf.Flush())
	assert.Nil(t, bf.Flush())
}

func TestBlockFramerBlocksAreIndependent(t *testing.T) {
	bf, _ := NewBlockFramer(2)
	first := bf.AddSamples([]float64{1, 2})
	bf.AddSamples([]float64{3, 4})
	assert.Equal(t, []float64{1, 2}, first[0])
}

func TestResample(t *testing.T) {
	signal := []float64{0, 1, 2, 3, 4, 5, 6, 7}

	assert.Equal(t, signal, Resample(signal, 16000, 16000))
	assert.Equal(t, []float64{0, 2, 4, 6}, Resample(signal, 16000, 8000))

	up := Resample([]float64{0, 2, 4}, 8000, 16000)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 4}, up)

	assert.Empty(t, Resample(nil, 8000, 16000))
	assert.Empty(t, Resample(signal, 0, 16000))
}

func TestPeakNormalize(t *testing.T) {
	in := []float64{0.1, -0.5, 0.25}
	out := PeakNormalize(in, 1.0)
	assert.InDeltaSlice(t, []float64{0.2, -1.0, 0.5}, out, 1e-12)
	assert.Equal(t, []float64{0.1, -0.5, 0.25}, in)

	assert.Equal(t, []float64{0, 0}, PeakNormalize([]float64{0, 0}, 1.0))
	assert.Equal(t, 0.5, Peak(in))
}

func TestLevelDBFS(t *testing.T) {
	assert.InDelta(t, 0.0, LevelDBFS(1.0), 1e-12)
	assert.InDelta(t, -6.0206, LevelDBFS(0.5), 1e-3)
	assert.Equal(t, -120.0, LevelDBFS(0))
}
