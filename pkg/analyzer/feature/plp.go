package feature

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Tempo search range shared by the PLP and the tempo estimator.
const (
	MinBPM = 60.0
	MaxBPM = 240.0
)

const plpWindow = 384 // frames per local tempogram window

// PLP computes a predominant-local-pulse curve from an onset envelope: a
// short-time Fourier tempogram over the envelope, keeping only the dominant
// periodicity in the tempo range per window, then resynthesizing the kept
// component with overlap-add. The result is half-wave rectified and
// normalized to a unit peak; same length as the input envelope.
func PLP(env []float64, sampleRate, hopSize int) []float64 {
	if len(env) == 0 {
		return nil
	}

	winLen := plpWindow
	if winLen > len(env) {
		winLen = len(env)
	}
	if winLen < 4 {
		out := make([]float64, len(env))
		return out
	}
	step := winLen / 4

	frameRate := float64(sampleRate) / float64(hopSize)
	// Envelope-domain bin k corresponds to k*frameRate/winLen cycles/second.
	minBin := int(MinBPM / 60.0 * float64(winLen) / frameRate)
	maxBin := int(MaxBPM/60.0*float64(winLen)/frameRate) + 1
	if minBin < 1 {
		minBin = 1
	}
	if maxBin > winLen/2 {
		maxBin = winLen / 2
	}

	ft := fourier.NewFFT(winLen)
	win := window.Hann(winLen)
	seg := make([]float64, winLen)
	coeffs := make([]complex128, winLen/2+1)
	kept := make([]complex128, winLen/2+1)

	out := make([]float64, len(env)+winLen)
	norm := make([]float64, len(env)+winLen)

	for start := 0; start < len(env); start += step {
		for i := 0; i < winLen; i++ {
			if start+i < len(env) {
				seg[i] = env[start+i] * win[i]
			} else {
				seg[i] = 0
			}
		}
		ft.Coefficients(coeffs, seg)

		best, bestMag := -1, 0.0
		for k := minBin; k <= maxBin && k < len(coeffs); k++ {
			if m := cmplx.Abs(coeffs[k]); m > bestMag {
				best, bestMag = k, m
			}
		}
		if best < 0 || bestMag == 0 {
			continue
		}

		for i := range kept {
			kept[i] = 0
		}
		// Unit magnitude keeps the pulse height independent of local energy.
		kept[best] = coeffs[best] / complex(bestMag, 0)

		pulse := ft.Sequence(nil, kept)
		for i := 0; i < winLen; i++ {
			out[start+i] += pulse[i] / float64(winLen) * win[i]
			norm[start+i] += win[i]
		}
	}

	plp := make([]float64, len(env))
	var max float64
	for i := range plp {
		v := out[i]
		if norm[i] > 0 {
			v /= norm[i]
		}
		if v < 0 {
			v = 0
		}
		plp[i] = v
		if v > max {
			max = v
		}
	}
	if max > 0 {
		for i := range plp {
			plp[i] /= max
		}
	}
	return plp
}
