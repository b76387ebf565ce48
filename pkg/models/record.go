package models

import "time"

// AnalysisRecord is the archived summary of one completed analysis.
// The pipeline itself is stateless; only this summary row outlives a request.
type AnalysisRecord struct {
	ID            string    `json:"id"`
	SongLabel     string    `json:"song_label"`
	Artist        string    `json:"artist"`
	Genre         string    `json:"genre"`
	Tempo         float64   `json:"tempo"`
	DurationSec   float64   `json:"duration_sec"`
	BeatCount     int       `json:"beat_count"`
	OnsetCount    int       `json:"onset_count"`
	DownbeatCount int       `json:"downbeat_count"`
	CreatedAt     time.Time `json:"created_at"`
}
