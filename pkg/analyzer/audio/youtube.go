package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sevkunovoleksandr/librosa-api/pkg/utils"
)

// YTMetadata contains metadata extracted from a YouTube video.
type YTMetadata struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Track    string  `json:"track"`
	Uploader string  `json:"uploader"`
	Channel  string  `json:"channel"`
	Duration float64 `json:"duration"`
	Genre    string  `json:"genre"`
}

func pickArtist(meta YTMetadata) string {
	if strings.TrimSpace(meta.Artist) != "" {
		return meta.Artist
	}
	if strings.TrimSpace(meta.Channel) != "" {
		return meta.Channel
	}
	if strings.TrimSpace(meta.Uploader) != "" {
		return meta.Uploader
	}
	return "Unknown Artist"
}

// DownloadYouTubeAudio fetches the best audio stream for a video via yt-dlp
// along with its metadata. The returned file is whatever container yt-dlp
// produced; the decoder handles the conversion.
func DownloadYouTubeAudio(ctx context.Context, youtubeURL, outputDir string) (string, *YTMetadata, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 3*time.Minute)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	metaCmd := exec.CommandContext(
		ctx,
		"yt-dlp",
		"-J",
		"--no-warnings",
		"--no-playlist",
		youtubeURL,
	)

	var stdout, stderr bytes.Buffer
	metaCmd.Stdout = &stdout
	metaCmd.Stderr = &stderr

	if err := metaCmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		return "", nil, fmt.Errorf("yt-dlp metadata extraction failed: %v\nstderr: %s", err, stderr.String())
	}

	var ytMeta YTMetadata
	if err := json.Unmarshal(stdout.Bytes(), &ytMeta); err != nil {
		return "", nil, fmt.Errorf("failed to parse yt-dlp JSON: %w", err)
	}

	if strings.TrimSpace(ytMeta.ID) == "" {
		return "", nil, fmt.Errorf("missing video ID in yt-dlp output")
	}
	if strings.TrimSpace(ytMeta.Title) == "" {
		return "", nil, fmt.Errorf("missing title in yt-dlp output")
	}
	if ytMeta.Artist == "" {
		ytMeta.Artist = pickArtist(ytMeta)
	}

	outputTemplate := filepath.Join(outputDir, fmt.Sprintf("%s.%%(ext)s", ytMeta.ID))

	downloadCmd := exec.CommandContext(
		ctx,
		"yt-dlp",
		"-f", "ba",
		"--no-warnings",
		"--no-playlist",
		"-o", outputTemplate,
		youtubeURL,
	)

	var dlStderr bytes.Buffer
	downloadCmd.Stderr = &dlStderr

	if err := downloadCmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		return "", nil, fmt.Errorf("yt-dlp download failed: %v\nstderr: %s", err, dlStderr.String())
	}

	audioExtensions := []string{".m4a", ".webm", ".opus", ".mp3", ".aac", ".ogg"}
	for _, ext := range audioExtensions {
		candidate := filepath.Join(outputDir, ytMeta.ID+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, &ytMeta, nil
		}
	}

	return "", nil, fmt.Errorf("downloaded audio file not found for video %s (checked extensions: %v)", ytMeta.ID, audioExtensions)
}
