package main

import (
	"fmt"

	"github.com/sevkunovoleksandr/librosa-api/pkg/utils"
)

// MaxUploadBytes caps the audio payload accepted by the analyze endpoints.
const MaxUploadBytes = 20 << 20

// AnalyzeYouTubeRequest is the request body for POST /api/analyze/youtube
type AnalyzeYouTubeRequest struct {
	// YouTubeURL is the full YouTube video URL (required)
	YouTubeURL string `json:"youtube_url" binding:"required"`

	// SongLabel is optional - if not provided, will be extracted from YouTube metadata
	SongLabel string `json:"song_label,omitempty"`

	// Artist is optional - if not provided, will be extracted from YouTube metadata
	Artist string `json:"artist,omitempty"`
}

// Validate checks if the request is valid
func (r *AnalyzeYouTubeRequest) Validate() error {
	if r.YouTubeURL == "" {
		return fmt.Errorf("youtube_url is required")
	}
	if !utils.IsYouTubeURL(r.YouTubeURL) {
		return fmt.Errorf("youtube_url does not look like a YouTube link")
	}
	return nil
}

// AnalysisDTO represents an archived analysis in API responses
type AnalysisDTO struct {
	ID            string  `json:"id"`
	SongLabel     string  `json:"song_label"`
	Artist        string  `json:"artist,omitempty"`
	Genre         string  `json:"genre,omitempty"`
	Tempo         float64 `json:"tempo"`
	DurationSec   float64 `json:"duration_sec"`
	BeatCount     int     `json:"beat_count"`
	OnsetCount    int     `json:"onset_count"`
	DownbeatCount int     `json:"downbeat_count"`
	CreatedAt     string  `json:"created_at"`
}

// ListAnalysesResponse is the response for GET /api/analyses
type ListAnalysesResponse struct {
	Analyses []AnalysisDTO `json:"analyses"`
	Count    int           `json:"count"`
}

// DeleteAnalysisResponse is the response for DELETE /api/analyses/{id}
type DeleteAnalysisResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MetricsResponse provides server health and database metrics
type MetricsResponse struct {
	Status           string `json:"status"`
	DatabasePath     string `json:"database_path"`
	AnalysisCount    int64  `json:"analysis_count"`
	SampleRate       int    `json:"sample_rate"`
	DownbeatsEnabled bool   `json:"downbeats_enabled"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
