package feature

import (
	"math"
	"testing"
)

// Helper spectrogram: a sustained tone at one bin plus one broadband burst
func toneAndBurstSpec(numFrames, numBins, toneBin, burstFrame int) [][]float64 {
	spec := make([][]float64, numFrames)
	for t := range spec {
		spec[t] = make([]float64, numBins)
		spec[t][toneBin] += 1.0
		if t == burstFrame {
			for b := range spec[t] {
				spec[t][b] += 1.0
			}
		}
	}
	return spec
}

func TestHPSSSeparation(t *testing.T) {
	spec := toneAndBurstSpec(64, 32, 8, 32)
	harm, perc := HPSS(spec)

	if len(harm) != len(spec) || len(perc) != len(spec) {
		t.Fatalf("Expected %d frames in both components, got %d and %d", len(spec), len(harm), len(perc))
	}

	// The sustained tone should land in the harmonic component
	if harm[10][8] <= perc[10][8] {
		t.Errorf("Tone bin: expected harmonic %f > percussive %f", harm[10][8], perc[10][8])
	}

	// The burst should land in the percussive component away from the tone
	if perc[32][3] <= harm[32][3] {
		t.Errorf("Burst frame: expected percussive %f > harmonic %f", perc[32][3], harm[32][3])
	}
}

func TestHPSSMasksSumToInput(t *testing.T) {
	spec := toneAndBurstSpec(64, 32, 8, 32)
	harm, perc := HPSS(spec)

	for ti := range spec {
		for b := range spec[ti] {
			sum := harm[ti][b] + perc[ti][b]
			if math.Abs(sum-spec[ti][b]) > 1e-9 {
				t.Fatalf("Frame %d bin %d: components sum to %f, input is %f", ti, b, sum, spec[ti][b])
			}
		}
	}
}

func TestHPSSEmpty(t *testing.T) {
	harm, perc := HPSS(nil)
	if harm != nil || perc != nil {
		t.Errorf("Expected nil components for empty spectrogram")
	}
}

func TestComponentEnvelope(t *testing.T) {
	spec := [][]float64{
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{2, 0, 0, 0},
	}
	env := ComponentEnvelope(spec)
	if len(env) != 3 {
		t.Fatalf("Expected 3 values, got %d", len(env))
	}
	if env[0] != 0 {
		t.Errorf("Expected 0 for silent frame, got %f", env[0])
	}
	if math.Abs(env[1]-1) > 1e-12 {
		t.Errorf("Expected 1 for unit frame, got %f", env[1])
	}
	if math.Abs(env[2]-1) > 1e-12 {
		t.Errorf("Expected 1 (sqrt(4/4)) for single-bin frame, got %f", env[2])
	}
}

func TestMedian(t *testing.T) {
	cases := []struct {
		in   []float64
		want float64
	}{
		{nil, 0},
		{[]float64{3}, 3},
		{[]float64{3, 1, 2}, 2},
		{[]float64{4, 1, 3, 2}, 2.5},
	}
	for _, c := range cases {
		if got := median(c.in); got != c.want {
			t.Errorf("median(%v) = %f, want %f", c.in, got, c.want)
		}
	}
}
