package feature

import (
	"math"
	"sort"
)

const hpssKernel = 17 // median filter length, odd

// HPSS decomposes a time-major magnitude spectrogram into harmonic and
// percussive components. Sustained (harmonic) content survives a median
// filter along time; transient (percussive) content survives one along
// frequency. Soft Wiener-style masks split the original magnitudes so the
// two components sum back to the input.
func HPSS(spec [][]float64) (harm, perc [][]float64) {
	if len(spec) == 0 {
		return nil, nil
	}
	numFrames := len(spec)
	numBins := len(spec[0])

	harmRef := make([][]float64, numFrames)
	percRef := make([][]float64, numFrames)
	for t := range spec {
		harmRef[t] = make([]float64, numBins)
		percRef[t] = make([]float64, numBins)
	}

	half := hpssKernel / 2
	buf := make([]float64, 0, hpssKernel)

	// Median across time for each bin.
	for b := 0; b < numBins; b++ {
		for t := 0; t < numFrames; t++ {
			buf = buf[:0]
			for k := t - half; k <= t+half; k++ {
				if k >= 0 && k < numFrames {
					buf = append(buf, spec[k][b])
				}
			}
			harmRef[t][b] = median(buf)
		}
	}
	// Median across frequency for each frame.
	for t := 0; t < numFrames; t++ {
		for b := 0; b < numBins; b++ {
			buf = buf[:0]
			for k := b - half; k <= b+half; k++ {
				if k >= 0 && k < numBins {
					buf = append(buf, spec[t][k])
				}
			}
			percRef[t][b] = median(buf)
		}
	}

	harm = make([][]float64, numFrames)
	perc = make([][]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		harm[t] = make([]float64, numBins)
		perc[t] = make([]float64, numBins)
		for b := 0; b < numBins; b++ {
			h2 := harmRef[t][b] * harmRef[t][b]
			p2 := percRef[t][b] * percRef[t][b]
			total := h2 + p2
			if total <= 0 {
				continue
			}
			harm[t][b] = spec[t][b] * h2 / total
			perc[t][b] = spec[t][b] * p2 / total
		}
	}
	return harm, perc
}

// ComponentEnvelope reduces a component spectrogram to a per-frame RMS
// magnitude curve for plotting.
func ComponentEnvelope(spec [][]float64) []float64 {
	env := make([]float64, len(spec))
	for t, frame := range spec {
		var sum float64
		for _, m := range frame {
			sum += m * m
		}
		if len(frame) > 0 {
			env[t] = math.Sqrt(sum / float64(len(frame)))
		}
	}
	return env
}

func median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	tmp := make([]float64, len(x))
	copy(tmp, x)
	sort.Float64s(tmp)
	mid := len(tmp) / 2
	if len(tmp)%2 == 1 {
		return tmp[mid]
	}
	return 0.5 * (tmp[mid-1] + tmp[mid])
}
