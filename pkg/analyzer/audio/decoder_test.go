package audio

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Helper to write a PCM WAV test file with a sine tone on every channel
func writeTestWAV(t *testing.T, path string, sampleRate, channels int, freq, amp, seconds float64) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test WAV: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	frames := int(float64(sampleRate) * seconds)
	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(amp * 32000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		for c := 0; c < channels; c++ {
			data[i*channels+c] = v
		}
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to write WAV data: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to close WAV encoder: %v", err)
	}
}

func TestDecodeFileWAV(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "tone.wav")
	writeTestWAV(t, path, 22050, 1, 440, 0.8, 1.0)

	wave, err := DecodeFile(context.Background(), path, tmpDir, 22050)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}

	if wave.SampleRate != 22050 {
		t.Errorf("Expected sample rate 22050, got %d", wave.SampleRate)
	}
	if math.Abs(wave.Duration()-1.0) > 0.01 {
		t.Errorf("Expected ~1 s duration, got %.3f", wave.Duration())
	}

	var peak float64
	for _, s := range wave.Samples {
		if math.Abs(s) > 1.0 {
			t.Fatalf("Sample %f outside [-1, 1]", s)
		}
		if math.Abs(s) > peak {
			peak = math.Abs(s)
		}
	}
	if peak < 0.7 || peak > 0.9 {
		t.Errorf("Expected peak near 0.8, got %.3f", peak)
	}
}

func TestDecodeFileStereoDownmix(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "stereo.wav")
	writeTestWAV(t, path, 22050, 2, 440, 0.5, 0.5)

	wave, err := DecodeFile(context.Background(), path, tmpDir, 22050)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}

	// Identical channels average back to the original signal
	var peak float64
	for _, s := range wave.Samples {
		if math.Abs(s) > peak {
			peak = math.Abs(s)
		}
	}
	if peak < 0.4 || peak > 0.6 {
		t.Errorf("Expected downmixed peak near 0.5, got %.3f", peak)
	}
	if math.Abs(wave.Duration()-0.5) > 0.01 {
		t.Errorf("Expected ~0.5 s duration, got %.3f", wave.Duration())
	}
}

func TestDecodeFileResample(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "hirate.wav")
	writeTestWAV(t, path, 44100, 1, 440, 0.8, 1.0)

	wave, err := DecodeFile(context.Background(), path, tmpDir, 22050)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}

	if wave.SampleRate != 22050 {
		t.Errorf("Expected sample rate 22050 after resample, got %d", wave.SampleRate)
	}
	if math.Abs(wave.Duration()-1.0) > 0.01 {
		t.Errorf("Expected ~1 s duration after resample, got %.3f", wave.Duration())
	}
}

func TestDecodeBufferRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "tone.wav")
	writeTestWAV(t, path, 22050, 1, 440, 0.8, 0.5)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read WAV: %v", err)
	}

	wave, err := DecodeBuffer(context.Background(), data, "tone.wav", tmpDir, 22050)
	if err != nil {
		t.Fatalf("DecodeBuffer failed: %v", err)
	}
	if math.Abs(wave.Duration()-0.5) > 0.01 {
		t.Errorf("Expected ~0.5 s duration, got %.3f", wave.Duration())
	}
}

func TestDecodeBufferEmpty(t *testing.T) {
	_, err := DecodeBuffer(context.Background(), nil, "empty.wav", t.TempDir(), 22050)
	if err == nil {
		t.Fatal("Expected error for empty input")
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("Expected DecodeError, got %T", err)
	}
}

func TestDecodeFileGarbage(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "garbage.bin")
	if err := os.WriteFile(path, []byte("this is not audio data at all"), 0o644); err != nil {
		t.Fatalf("Failed to write garbage file: %v", err)
	}

	_, err := DecodeFile(context.Background(), path, tmpDir, 22050)
	if err == nil {
		t.Fatal("Expected error for non-audio input")
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("Expected DecodeError, got %T", err)
	}
}

func TestResample(t *testing.T) {
	in := make([]float64, 1000)
	for i := range in {
		in[i] = float64(i)
	}

	out := resample(in, 1000, 500)
	if len(out) != 500 {
		t.Fatalf("Expected 500 samples, got %d", len(out))
	}
	// Halving the rate doubles the step through the input
	if math.Abs(out[100]-200) > 1e-9 {
		t.Errorf("Expected out[100] == 200, got %f", out[100])
	}

	same := resample(in, 1000, 1000)
	if len(same) != len(in) {
		t.Errorf("Same-rate resample must be a no-op, got %d samples", len(same))
	}
}

func TestWaveformDuration(t *testing.T) {
	var nilWave *Waveform
	if d := nilWave.Duration(); d != 0 {
		t.Errorf("Expected 0 duration for nil waveform, got %f", d)
	}

	wave := &Waveform{Samples: make([]float64, 11025), SampleRate: 22050}
	if d := wave.Duration(); math.Abs(d-0.5) > 1e-9 {
		t.Errorf("Expected 0.5 s, got %f", d)
	}
}
