package audio

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// Metadata holds the container tags the report passes through untouched.
// Missing tags stay as empty strings, never as errors.
type Metadata struct {
	Filename    string
	Title       string
	Artist      string
	Genre       string
	DurationSec float64
	SampleRate  int
	Channels    int
	Format      string
}

type ffprobeOutput struct {
	Format struct {
		Filename string            `json:"filename"`
		Duration string            `json:"duration"`
		Format   string            `json:"format_name"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType  string            `json:"codec_type"`
	SampleRate string            `json:"sample_rate"`
	Channels   int               `json:"channels"`
	Tags       map[string]string `json:"tags"`
}

func (p *ffprobeOutput) firstAudioStream() *ffprobeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "audio" {
			return &p.Streams[i]
		}
	}
	return nil
}

func pickTag(tags map[string]string, names ...string) string {
	for _, name := range names {
		if v, ok := tags[name]; ok && v != "" {
			return v
		}
	}
	return ""
}

// ReadMetadata extracts title/artist/genre via ffprobe. Any failure returns
// an empty Metadata rather than an error; the caller logs and continues.
func ReadMetadata(ctx context.Context, path string) (*Metadata, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(
		ctx,
		"ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, err
	}

	audioStream := probe.firstAudioStream()
	if audioStream == nil {
		return nil, errors.New("no audio stream found")
	}

	duration, _ := strconv.ParseFloat(probe.Format.Duration, 64)
	sampleRate, _ := strconv.Atoi(audioStream.SampleRate)

	meta := &Metadata{
		Filename:    filepath.Base(path),
		DurationSec: duration,
		SampleRate:  sampleRate,
		Channels:    audioStream.Channels,
		Format:      probe.Format.Format,
	}

	if probe.Format.Tags != nil {
		meta.Title = pickTag(probe.Format.Tags, "title", "TITLE", "TIT2")
		meta.Artist = pickTag(probe.Format.Tags, "artist", "ARTIST", "TPE1")
		meta.Genre = pickTag(probe.Format.Tags, "genre", "GENRE", "TCON")
	}
	if audioStream.Tags != nil {
		if meta.Title == "" {
			meta.Title = pickTag(audioStream.Tags, "title", "TITLE")
		}
		if meta.Artist == "" {
			meta.Artist = pickTag(audioStream.Tags, "artist", "ARTIST")
		}
		if meta.Genre == "" {
			meta.Genre = pickTag(audioStream.Tags, "genre", "GENRE")
		}
	}

	return meta, nil
}
