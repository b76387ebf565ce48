package feature

import (
	"math"
	"testing"
)

func TestRMSConstantSignal(t *testing.T) {
	samples := make([]float64, 4096)
	for i := range samples {
		samples[i] = 0.5
	}

	rms := RMS(samples, RMSFrameSize, RMSHopSize)
	wantFrames := (len(samples)-RMSFrameSize)/RMSHopSize + 1
	if len(rms) != wantFrames {
		t.Fatalf("Expected %d frames, got %d", wantFrames, len(rms))
	}
	for i, v := range rms {
		if math.Abs(v-0.5) > 1e-12 {
			t.Errorf("Frame %d: expected RMS 0.5, got %f", i, v)
		}
	}
}

func TestRMSSine(t *testing.T) {
	rms := RMS(makeSine(440, 22050, 1.0), RMSFrameSize, RMSHopSize)
	if len(rms) == 0 {
		t.Fatal("Expected non-empty RMS")
	}
	want := 1.0 / math.Sqrt2
	for i, v := range rms {
		if math.Abs(v-want) > 0.02 {
			t.Errorf("Frame %d: expected RMS near %.3f for a unit sine, got %f", i, want, v)
		}
	}
}

func TestRMSShortSignal(t *testing.T) {
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = 1.0
	}
	rms := RMS(samples, RMSFrameSize, RMSHopSize)
	if len(rms) != 1 {
		t.Fatalf("Expected a single frame for a sub-frame signal, got %d", len(rms))
	}
	if math.Abs(rms[0]-1.0) > 1e-12 {
		t.Errorf("Expected RMS 1.0, got %f", rms[0])
	}
}

func TestRMSEmpty(t *testing.T) {
	if rms := RMS(nil, RMSFrameSize, RMSHopSize); rms != nil {
		t.Errorf("Expected nil RMS for empty signal, got %v", rms)
	}
}
