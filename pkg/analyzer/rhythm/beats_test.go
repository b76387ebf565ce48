package rhythm

import (
	"sort"
	"testing"
)

func TestTrackBeatsClickTrack(t *testing.T) {
	sampleRate, hopSize := 22050, 512
	frameRate := float64(sampleRate) / float64(hopSize)

	period := 0.5 * frameRate // 120 BPM
	env := clickEnvelope(30, period)

	tempo := EstimateTempo(env, sampleRate, hopSize)
	beats := TrackBeats(env, sampleRate, hopSize, tempo)

	if len(beats) < 20 {
		t.Fatalf("Expected at least 20 beats over 30 clicks, got %d", len(beats))
	}
	if !sort.Float64sAreSorted(beats) {
		t.Fatal("Beat times must be increasing")
	}
	for i := 1; i < len(beats); i++ {
		if beats[i] <= beats[i-1] {
			t.Fatalf("Beat times must be strictly increasing: %f then %f", beats[i-1], beats[i])
		}
	}

	// Median spacing should be close to the click period
	gaps := make([]float64, 0, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		gaps = append(gaps, beats[i]-beats[i-1])
	}
	sort.Float64s(gaps)
	medianGap := gaps[len(gaps)/2]
	if medianGap < 0.45 || medianGap > 0.55 {
		t.Errorf("Expected ~0.5 s beat spacing, got median %.3f s", medianGap)
	}
}

func TestTrackBeatsZeroTempo(t *testing.T) {
	env := clickEnvelope(10, 21.5)
	if beats := TrackBeats(env, 22050, 512, 0); beats != nil {
		t.Errorf("Expected no beats for zero tempo, got %v", beats)
	}
}

func TestTrackBeatsEmptyEnvelope(t *testing.T) {
	if beats := TrackBeats(nil, 22050, 512, 120); beats != nil {
		t.Errorf("Expected no beats for empty envelope, got %v", beats)
	}
}
