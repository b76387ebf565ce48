package feature

import "math"

// Loudness frame tunables, independent of the beat-analysis hop.
const (
	RMSFrameSize = 2048
	RMSHopSize   = 512
)

// RMS computes short-time root-mean-square energy per frame. The frame count
// depends only on the signal length and the frame/hop configuration. A
// signal shorter than one frame produces a single frame over what is there;
// only an empty signal yields an empty result.
func RMS(samples []float64, frameSize, hopSize int) []float64 {
	if frameSize <= 0 {
		frameSize = RMSFrameSize
	}
	if hopSize <= 0 {
		hopSize = RMSHopSize
	}
	if len(samples) == 0 {
		return nil
	}
	if len(samples) < frameSize {
		frameSize = len(samples)
	}

	numFrames := (len(samples)-frameSize)/hopSize + 1
	out := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		var sum float64
		for _, s := range samples[start : start+frameSize] {
			sum += s * s
		}
		out[i] = math.Sqrt(sum / float64(frameSize))
	}
	return out
}
