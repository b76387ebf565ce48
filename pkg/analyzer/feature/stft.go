package feature

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Analysis frame tunables. Beat-level features share these; RMS has its own
// pair so loudness resolution stays independent of beat resolution.
const (
	FrameSize = 2048
	HopSize   = 512
)

// STFT computes a time-major magnitude spectrogram: spec[frame][bin] with
// FrameSize/2 positive-frequency bins. Signals shorter than one frame yield
// an empty spectrogram.
func STFT(samples []float64, frameSize, hopSize int) [][]float64 {
	if frameSize <= 0 {
		frameSize = FrameSize
	}
	if hopSize <= 0 {
		hopSize = HopSize
	}
	if len(samples) < frameSize {
		return nil
	}

	win := window.Hann(frameSize)
	frame := make([]float64, frameSize)

	var spec [][]float64
	for start := 0; start+frameSize <= len(samples); start += hopSize {
		for i := 0; i < frameSize; i++ {
			frame[i] = samples[start+i] * win[i]
		}
		spectrum := fft.FFTReal(frame)
		mag := make([]float64, frameSize/2)
		for i := range mag {
			mag[i] = cmplx.Abs(spectrum[i])
		}
		spec = append(spec, mag)
	}
	return spec
}

// FrameTimes returns the timestamp in seconds of each analysis frame.
func FrameTimes(numFrames, sampleRate, hopSize int) []float64 {
	times := make([]float64, numFrames)
	for i := range times {
		times[i] = float64(i) * float64(hopSize) / float64(sampleRate)
	}
	return times
}
