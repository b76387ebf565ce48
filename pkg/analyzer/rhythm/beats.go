package rhythm

import "math"

// beatTightness penalizes deviation from the estimated beat period in the
// dynamic program; larger values force more even spacing.
const beatTightness = 100.0

// TrackBeats places beat timestamps (seconds) over the onset envelope with
// dynamic programming: each beat trades local onset strength against the
// squared log deviation of its spacing from the global tempo period. The
// result is strictly increasing. A zero tempo or empty envelope yields no
// beats.
func TrackBeats(env []float64, sampleRate, hopSize int, bpm float64) []float64 {
	if bpm <= 0 || len(env) == 0 {
		return nil
	}
	frameRate := float64(sampleRate) / float64(hopSize)
	period := 60.0 / bpm * frameRate
	if period < 1 {
		return nil
	}

	local := smoothEnvelope(env, period)

	n := len(local)
	cumScore := make([]float64, n)
	backlink := make([]int, n)

	windowLo := int(math.Round(period / 2))
	windowHi := int(math.Round(period * 2))

	for i := 0; i < n; i++ {
		backlink[i] = -1
		cumScore[i] = local[i]

		best := math.Inf(-1)
		bestIdx := -1
		for p := i - windowHi; p <= i-windowLo; p++ {
			if p < 0 {
				continue
			}
			gap := float64(i - p)
			dev := math.Log(gap / period)
			s := cumScore[p] - beatTightness*dev*dev
			if s > best {
				best, bestIdx = s, p
			}
		}
		if bestIdx >= 0 {
			cumScore[i] = local[i] + best
			backlink[i] = bestIdx
		}
	}

	// Start backtracking from the best-scoring frame near the end so the
	// last beat is not forced onto trailing silence.
	tail := n - windowHi
	if tail < 0 {
		tail = 0
	}
	end := tail
	for i := tail; i < n; i++ {
		if cumScore[i] > cumScore[end] {
			end = i
		}
	}

	var frames []int
	for i := end; i >= 0; i = backlink[i] {
		frames = append(frames, i)
		if backlink[i] < 0 {
			break
		}
	}

	beats := make([]float64, 0, len(frames))
	for i := len(frames) - 1; i >= 0; i-- {
		beats = append(beats, float64(frames[i])*float64(hopSize)/float64(sampleRate))
	}
	return beats
}

// smoothEnvelope spreads the envelope with a gaussian whose width scales
// with the beat period, so single-frame onsets still attract beats placed a
// frame or two off.
func smoothEnvelope(env []float64, period float64) []float64 {
	std := period / 32
	if std < 1 {
		std = 1
	}
	half := int(std * 3)
	if half < 1 {
		half = 1
	}
	kernel := make([]float64, 2*half+1)
	var sum float64
	for i := range kernel {
		x := float64(i - half)
		kernel[i] = math.Exp(-0.5 * (x / std) * (x / std))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	out := make([]float64, len(env))
	for i := range env {
		var v float64
		for k, w := range kernel {
			j := i + k - half
			if j >= 0 && j < len(env) {
				v += env[j] * w
			}
		}
		out[i] = v
	}
	return out
}
