package rhythm

import (
	"math"
	"testing"

	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/audio"
)

// Helper to synthesize a 4/4 click track: a loud low tone on every bar
// start, a quiet high tick on the other beats.
func makeBarWave(sampleRate int, beats []float64, beatsPerBar int) *audio.Waveform {
	last := beats[len(beats)-1]
	samples := make([]float64, int((last+1.0)*float64(sampleRate)))

	addTone := func(at, freq, amp float64, length int) {
		start := int(at * float64(sampleRate))
		for i := 0; i < length && start+i < len(samples); i++ {
			samples[start+i] += amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		}
	}

	for i, t := range beats {
		if i%beatsPerBar == 0 {
			addTone(t, 80, 1.0, 1024)
		} else {
			addTone(t, 2000, 0.5, 256)
		}
	}
	return &audio.Waveform{Samples: samples, SampleRate: sampleRate}
}

func TestBarTrackerFindsBarStarts(t *testing.T) {
	beats := make([]float64, 16)
	for i := range beats {
		beats[i] = 0.5 * float64(i)
	}
	wave := makeBarWave(22050, beats, 4)

	tracker := NewBarTracker(4)
	downbeats, err := tracker.Downbeats(wave, beats)
	if err != nil {
		t.Fatalf("Downbeats failed: %v", err)
	}

	if len(downbeats) != 4 {
		t.Fatalf("Expected 4 downbeats for 16 beats in 4/4, got %d (%v)", len(downbeats), downbeats)
	}
	want := []float64{0, 2, 4, 6}
	for i, d := range downbeats {
		if math.Abs(d-want[i]) > 1e-9 {
			t.Errorf("Downbeat %d: expected %.1f s, got %.3f s", i, want[i], d)
		}
	}
}

func TestBarTrackerSubsetOfBeats(t *testing.T) {
	beats := make([]float64, 16)
	for i := range beats {
		beats[i] = 0.5 * float64(i)
	}
	wave := makeBarWave(22050, beats, 4)

	downbeats, err := NewBarTracker(4).Downbeats(wave, beats)
	if err != nil {
		t.Fatalf("Downbeats failed: %v", err)
	}

	beatSet := make(map[float64]bool, len(beats))
	for _, b := range beats {
		beatSet[b] = true
	}
	for _, d := range downbeats {
		if !beatSet[d] {
			t.Errorf("Downbeat %.3f is not one of the supplied beats", d)
		}
		if d > wave.Duration() {
			t.Errorf("Downbeat %.3f exceeds waveform duration %.3f", d, wave.Duration())
		}
	}
}

func TestBarTrackerFewBeats(t *testing.T) {
	wave := &audio.Waveform{Samples: make([]float64, 22050), SampleRate: 22050}
	downbeats, err := NewBarTracker(4).Downbeats(wave, []float64{0.5, 1.0})
	if err != nil {
		t.Fatalf("Downbeats failed: %v", err)
	}
	if downbeats != nil {
		t.Errorf("Expected no downbeats with fewer beats than one bar, got %v", downbeats)
	}
}

func TestBarTrackerNilWaveform(t *testing.T) {
	downbeats, err := NewBarTracker(4).Downbeats(nil, []float64{0, 0.5, 1, 1.5})
	if err != nil {
		t.Fatalf("Downbeats failed: %v", err)
	}
	if downbeats != nil {
		t.Errorf("Expected no downbeats for nil waveform, got %v", downbeats)
	}
}

func TestNewBarTrackerDefaults(t *testing.T) {
	tracker := NewBarTracker(0)
	if tracker.beatsPerBar != DefaultBeatsPerBar {
		t.Errorf("Expected default %d beats per bar, got %d", DefaultBeatsPerBar, tracker.beatsPerBar)
	}
}
