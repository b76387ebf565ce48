package rhythm

import (
	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/audio"
	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/feature"
)

// Detector is the optional bar-tracking capability. It is resolved once at
// service construction and injected; when absent, downbeats are simply an
// empty sequence and the rest of the pipeline is unaffected.
type Detector interface {
	Name() string
	Downbeats(w *audio.Waveform, beats []float64) ([]float64, error)
}

// DefaultBeatsPerBar matches the 4/4 assumption of the bar tracker.
const DefaultBeatsPerBar = 4

// lowBandHz bounds the spectral-flux band used to score bar phases; bar
// starts in most recorded music carry kick/bass energy.
const lowBandHz = 200.0

// BarTracker finds downbeats by scoring the four possible bar phases of the
// beat grid against low-frequency onset energy and keeping the strongest.
type BarTracker struct {
	beatsPerBar int
	frameSize   int
	hopSize     int
}

func NewBarTracker(beatsPerBar int) *BarTracker {
	if beatsPerBar <= 0 {
		beatsPerBar = DefaultBeatsPerBar
	}
	return &BarTracker{
		beatsPerBar: beatsPerBar,
		frameSize:   feature.FrameSize,
		hopSize:     feature.HopSize,
	}
}

func (b *BarTracker) Name() string { return "bar-phase tracker" }

// Downbeats returns the subsequence of beats starting the best-scoring bar
// phase, stepping one bar at a time. Fewer beats than one bar means no bars
// to track.
func (b *BarTracker) Downbeats(w *audio.Waveform, beats []float64) ([]float64, error) {
	if w == nil || len(beats) < b.beatsPerBar {
		return nil, nil
	}

	spec := feature.STFT(w.Samples, b.frameSize, b.hopSize)
	flux := lowBandFlux(spec, w.SampleRate, b.frameSize)
	if len(flux) == 0 {
		return nil, nil
	}

	strength := make([]float64, len(beats))
	frameRate := float64(w.SampleRate) / float64(b.hopSize)
	// Flux rises at the frame where a transient enters the analysis window,
	// up to frameSize/hopSize frames before the nominal beat frame.
	lookback := b.frameSize / b.hopSize
	for i, t := range beats {
		f := int(t * frameRate)
		for k := f - lookback; k <= f+1; k++ {
			if k >= 0 && k < len(flux) && flux[k] > strength[i] {
				strength[i] = flux[k]
			}
		}
	}

	bestPhase, bestScore := 0, -1.0
	for phase := 0; phase < b.beatsPerBar; phase++ {
		var score float64
		for i := phase; i < len(beats); i += b.beatsPerBar {
			score += strength[i]
		}
		if score > bestScore {
			bestPhase, bestScore = phase, score
		}
	}

	duration := w.Duration()
	var downbeats []float64
	for i := bestPhase; i < len(beats); i += b.beatsPerBar {
		if beats[i] <= duration {
			downbeats = append(downbeats, beats[i])
		}
	}
	return downbeats, nil
}

// lowBandFlux is the onset envelope restricted to bins below lowBandHz.
func lowBandFlux(spec [][]float64, sampleRate, frameSize int) []float64 {
	if len(spec) == 0 {
		return nil
	}
	cutoff := int(lowBandHz * float64(frameSize) / float64(sampleRate))
	if cutoff < 1 {
		cutoff = 1
	}
	if cutoff > len(spec[0]) {
		cutoff = len(spec[0])
	}

	low := make([][]float64, len(spec))
	for t := range spec {
		low[t] = spec[t][:cutoff]
	}
	return feature.OnsetEnvelope(low)
}
