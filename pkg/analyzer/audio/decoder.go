package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/go-audio/wav"
	"github.com/sevkunovoleksandr/librosa-api/pkg/utils"
)

// DefaultSampleRate is the analysis rate every decode is resampled to.
const DefaultSampleRate = 22050

var riffMagic = []byte("RIFF")

// Waveform is a mono, normalized signal at a fixed sample rate.
// It is created once per analysis and never mutated afterwards.
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the signal length in seconds.
func (w *Waveform) Duration() float64 {
	if w == nil || w.SampleRate == 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// DecodeError marks input that could not be turned into a waveform.
// It is the only fatal pipeline error a caller should map to a 4xx.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeBuffer buffers the upload to a temp file (container sniffing needs a
// seekable file) and decodes it. The temp file is removed on every exit path.
func DecodeBuffer(ctx context.Context, data []byte, name, tempDir string, sampleRate int) (*Waveform, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Reason: "empty input"}
	}
	if err := utils.MakeDir(tempDir); err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	base := filepath.Base(name)
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	tmpPath := filepath.Join(tempDir, fmt.Sprintf("decode_%d_%s", time.Now().UnixNano(), base))
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("buffering upload: %w", err)
	}
	defer os.Remove(tmpPath)

	return DecodeFile(ctx, tmpPath, tempDir, sampleRate)
}

// DecodeFile decodes any supported container into a mono waveform at
// sampleRate. PCM WAV input is read directly; everything else goes through
// an ffmpeg transcode to mono 16-bit WAV first.
func DecodeFile(ctx context.Context, path, tempDir string, sampleRate int) (*Waveform, error) {
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}

	head := make([]byte, 4)
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Reason: "opening input", Err: err}
	}
	n, _ := f.Read(head)
	f.Close()
	if n == 0 {
		return nil, &DecodeError{Reason: "empty input"}
	}

	if bytes.Equal(head[:n], riffMagic) {
		wf, err := readWAV(path, sampleRate)
		if err == nil {
			return wf, nil
		}
		// Non-PCM or otherwise odd WAV: fall through to ffmpeg.
	}

	wavPath, err := convertToMonoWAV(ctx, path, tempDir, sampleRate)
	if err != nil {
		return nil, &DecodeError{Reason: "unsupported container", Err: err}
	}
	defer os.Remove(wavPath)

	return readWAV(wavPath, sampleRate)
}

// readWAV reads a PCM WAV file, downmixes to mono, normalizes to [-1, 1]
// and resamples to targetRate.
func readWAV(path string, targetRate int) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Reason: "opening wav", Err: err}
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, &DecodeError{Reason: "not a valid WAV file"}
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, &DecodeError{Reason: "reading PCM data", Err: err}
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, &DecodeError{Reason: "decoded zero samples"}
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	bitDepth := int(dec.BitDepth)
	if buf.SourceBitDepth != 0 {
		bitDepth = buf.SourceBitDepth
	}
	scale := 1.0 / float64(int(1)<<(uint(bitDepth)-1))

	frames := len(buf.Data) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) * scale
		}
		mono[i] = sum / float64(channels)
	}

	srcRate := buf.Format.SampleRate
	if srcRate == 0 {
		srcRate = int(dec.SampleRate)
	}
	mono = resample(mono, srcRate, targetRate)
	if len(mono) == 0 {
		return nil, &DecodeError{Reason: "decoded zero samples"}
	}

	return &Waveform{Samples: mono, SampleRate: targetRate}, nil
}

// resample performs linear-interpolation resampling. It is only exercised for
// WAV fast-path input; ffmpeg output is already at the target rate.
func resample(in []float64, from, to int) []float64 {
	if from == to || from <= 0 || to <= 0 || len(in) == 0 {
		return in
	}
	n := int(float64(len(in)) * float64(to) / float64(from))
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	step := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}

// convertToMonoWAV shells out to ffmpeg to produce a mono 16-bit PCM WAV at
// the requested rate. The .tmp file is cleaned up on failure.
func convertToMonoWAV(ctx context.Context, inputPath, outputDir string, sampleRate int) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	outputPath := filepath.Join(outputDir, fmt.Sprintf("conv_%d.wav", time.Now().UnixNano()))
	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}
