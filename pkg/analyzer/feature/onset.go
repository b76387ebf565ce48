package feature

import "math"

// logGain compresses magnitudes before the flux difference so quiet onsets
// are not drowned out by loud sustained content.
const logGain = 100.0

// OnsetEnvelope computes a spectral-flux onset strength curve from a
// time-major magnitude spectrogram: the half-wave-rectified frame-to-frame
// increase of the log-compressed magnitude, averaged over bins. One value
// per frame, all values non-negative, env[0] is zero.
func OnsetEnvelope(spec [][]float64) []float64 {
	if len(spec) == 0 {
		return nil
	}

	env := make([]float64, len(spec))
	prev := make([]float64, len(spec[0]))
	cur := make([]float64, len(spec[0]))

	for b, m := range spec[0] {
		prev[b] = math.Log1p(logGain * m)
	}
	for i := 1; i < len(spec); i++ {
		var flux float64
		for b, m := range spec[i] {
			cur[b] = math.Log1p(logGain * m)
			if d := cur[b] - prev[b]; d > 0 {
				flux += d
			}
		}
		env[i] = flux / float64(len(cur))
		prev, cur = cur, prev
	}
	return env
}

// LocalMaxima returns the indices of strict local maxima (both neighbors
// smaller); endpoints never qualify.
func LocalMaxima(x []float64) []int {
	var peaks []int
	for i := 1; i < len(x)-1; i++ {
		if x[i] > x[i-1] && x[i] > x[i+1] {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// onsetPickWindow is the moving-mean span (frames) for the adaptive
// threshold, and onsetDelta the fraction of the envelope peak a local
// maximum must exceed the mean by.
const (
	onsetPickWindow = 8
	onsetDelta      = 0.1
)

// DetectOnsets picks onset timestamps (seconds) from the envelope: local
// maxima that rise above a moving mean by a fraction of the global peak.
// A silent envelope yields no onsets.
func DetectOnsets(env []float64, sampleRate, hopSize int) []float64 {
	if len(env) == 0 {
		return nil
	}

	var max float64
	for _, v := range env {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		return nil
	}

	var onsets []float64
	for _, i := range LocalMaxima(env) {
		lo := i - onsetPickWindow
		if lo < 0 {
			lo = 0
		}
		hi := i + onsetPickWindow
		if hi > len(env) {
			hi = len(env)
		}
		var mean float64
		for _, v := range env[lo:hi] {
			mean += v
		}
		mean /= float64(hi - lo)

		if env[i] >= mean+onsetDelta*max {
			onsets = append(onsets, float64(i)*float64(hopSize)/float64(sampleRate))
		}
	}
	return onsets
}
