package feature

import "testing"

func TestPLPPeriodicEnvelope(t *testing.T) {
	sampleRate, hopSize := 22050, 512
	// ~123 BPM pulse: one impulse every 21 frames
	env := make([]float64, 512)
	for i := 0; i < len(env); i += 21 {
		env[i] = 1.0
	}

	plp := PLP(env, sampleRate, hopSize)
	if len(plp) != len(env) {
		t.Fatalf("Expected %d values, got %d", len(env), len(plp))
	}

	var max float64
	for i, v := range plp {
		if v < 0 || v > 1 {
			t.Fatalf("Frame %d: PLP value %f out of [0, 1]", i, v)
		}
		if v > max {
			max = v
		}
	}
	if max < 0.999 {
		t.Errorf("Expected unit-normalized peak, got max %f", max)
	}

	// Pulse peaks should recur roughly once per input period
	peaks := LocalMaxima(plp)
	if len(peaks) < 15 || len(peaks) > 35 {
		t.Errorf("Expected 15-35 pulse peaks for a %d-frame periodic envelope, got %d", len(env), len(peaks))
	}
}

func TestPLPEmpty(t *testing.T) {
	if plp := PLP(nil, 22050, 512); plp != nil {
		t.Errorf("Expected nil PLP for empty envelope, got %v", plp)
	}
}

func TestPLPShortEnvelope(t *testing.T) {
	env := []float64{1, 0, 1}
	plp := PLP(env, 22050, 512)
	if len(plp) != len(env) {
		t.Fatalf("Expected %d values, got %d", len(env), len(plp))
	}
	for i, v := range plp {
		if v != 0 {
			t.Errorf("Frame %d: expected zero PLP for sub-window envelope, got %f", i, v)
		}
	}
}

func TestPLPSilence(t *testing.T) {
	plp := PLP(make([]float64, 512), 22050, 512)
	if len(plp) != 512 {
		t.Fatalf("Expected 512 values, got %d", len(plp))
	}
	for i, v := range plp {
		if v != 0 {
			t.Errorf("Frame %d: expected zero PLP for silence, got %f", i, v)
		}
	}
}
