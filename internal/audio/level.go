package audio

import "math"

// Peak returns the absolute peak of a PCM16 mono buffer normalized to [0,1].
func Peak(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}

	sampleCount := len(pcm) / 2
	var maxSample float64
	for i := 0; i < sampleCount; i++ {
		s := int16(pcm[2*i]) | int16(pcm[2*i+1])<<8
		v := math.Abs(float64(s))
		if v > maxSample {
			maxSample = v
		}
	}
	return maxSample / 32768.0
}

// PeakDBFS converts a normalized peak to decibels relative to full scale.
// Silence maps to -Inf.
func PeakDBFS(peak float64) float64 {
	if peak <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(peak)
}
