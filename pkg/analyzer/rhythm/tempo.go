package rhythm

import (
	"math"

	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/feature"
)

// DegenerateEps is the envelope peak below which the signal is treated as
// silent: tempo 0, no beats. Chosen well under the flux of any audible
// onset at the configured log compression.
const DegenerateEps = 1e-6

// tempoPriorCenter is the log-normal tempo prior center in BPM and
// tempoPriorStd its standard deviation in octaves.
const (
	tempoPriorCenter = 120.0
	tempoPriorStd    = 1.0
)

// EstimateTempo derives a global tempo in BPM from an onset envelope by
// autocorrelation over the beat-period lag range, weighted by a log-normal
// prior around 120 BPM. The winning lag is refined by parabolic
// interpolation so the estimate is not quantized to whole frames.
// A degenerate (near-silent) envelope returns 0.
func EstimateTempo(env []float64, sampleRate, hopSize int) float64 {
	if len(env) == 0 {
		return 0
	}
	var max float64
	for _, v := range env {
		if v > max {
			max = v
		}
	}
	if max < DegenerateEps {
		return 0
	}

	frameRate := float64(sampleRate) / float64(hopSize)
	minLag := int(frameRate * 60.0 / feature.MaxBPM)
	maxLag := int(frameRate*60.0/feature.MinBPM) + 1
	if minLag < 1 {
		minLag = 1
	}
	if maxLag > len(env)-1 {
		maxLag = len(env) - 1
	}
	if maxLag <= minLag {
		return 0
	}

	score := make([]float64, maxLag+2)
	bestLag, bestScore := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var ac float64
		for i := 0; i+lag < len(env); i++ {
			ac += env[i] * env[i+lag]
		}
		ac /= float64(len(env) - lag)

		bpm := 60.0 * frameRate / float64(lag)
		oct := math.Log2(bpm/tempoPriorCenter) / tempoPriorStd
		score[lag] = ac * math.Exp(-0.5*oct*oct)

		if score[lag] > bestScore {
			bestLag, bestScore = lag, score[lag]
		}
	}
	if bestLag == 0 || bestScore <= 0 {
		return 0
	}

	lag := float64(bestLag)
	if bestLag > minLag && bestLag < maxLag {
		s0, s1, s2 := score[bestLag-1], score[bestLag], score[bestLag+1]
		denom := s0 - 2*s1 + s2
		if denom < 0 {
			lag += 0.5 * (s0 - s2) / denom
		}
	}

	return 60.0 * frameRate / lag
}
