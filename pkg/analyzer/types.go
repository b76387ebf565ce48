package analyzer

import (
	"fmt"

	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/timeline"
)

// Report is the terminal aggregate of one analysis run. It is assembled
// once per request and immutable afterwards. Speed and Length mirror Tempo
// and Duration for client compatibility.
type Report struct {
	Tempo       float64          `json:"tempo"`
	BeatTimes   []float64        `json:"beat_times"`
	OnsetTimes  []float64        `json:"onset_times"`
	RMS         []float64        `json:"rms"`
	Duration    float64          `json:"duration"`
	Downbeats   []float64        `json:"downbeats"`
	ImageBase64 string           `json:"image_base64"`
	Speed       float64          `json:"speed"`
	Length      float64          `json:"length"`
	Events      []timeline.Event `json:"events"`
	SongLabel   string           `json:"song_label"`
	Artist      string           `json:"artist"`
	Genre       string           `json:"genre"`
}

// InternalError wraps an unexpected failure inside a numeric stage. The
// input is deterministic, so the request fails hard instead of retrying.
type InternalError struct {
	Stage string
	Err   error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("analysis stage %s failed: %v", e.Stage, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
