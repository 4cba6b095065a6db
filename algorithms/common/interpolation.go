package common

// linearInterpolate samples data at a fractional index, holding the edge
// values outside the valid range.
func linearInterpolate(data []float64, index float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	if index <= 0 {
		return data[0]
	}
	if index >= float64(len(data)-1) {
		return data[len(data)-1]
	}

	i := int(index)
	frac := index - float64(i)

	return data[i] + frac*(data[i+1]-data[i])
}

// Resample converts signal from originalRate to targetRate by linear
// interpolation. Equal rates return a copy.
//
// No anti-aliasing filter is applied, so content above the target Nyquist
// frequency folds back when downsampling.
func Resample(signal []float64, originalRate, targetRate int) []float64 {
	if len(signal) == 0 || originalRate <= 0 || targetRate <= 0 {
		return []float64{}
	}
	if originalRate == targetRate {
		out := make([]float64, len(signal))
		copy(out, signal)
		return out
	}

	ratio := float64(originalRate) / float64(targetRate)
	newLength := int(float64(len(signal)) / ratio)
	if newLength <= 0 {
		return []float64{}
	}

	resampled := make([]float64, newLength)
	for i := range resampled {
		resampled[i] = linearInterpolate(signal, float64(i)*ratio)
	}

	return resampled
}
