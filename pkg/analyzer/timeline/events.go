package timeline

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Label is the closed set of event categories. The declaration order is the
// tie-break priority for events sharing a timestamp: measures sort before
// beats, beats before onsets.
type Label int

const (
	LabelMeasure Label = iota
	LabelBeat
	LabelOnset
)

func (l Label) String() string {
	switch l {
	case LabelMeasure:
		return "measure"
	case LabelBeat:
		return "beat"
	case LabelOnset:
		return "onset"
	default:
		return "unknown"
	}
}

// Color returns the fixed display color for a label. The mapping never
// changes between reports so the same category always renders the same.
func (l Label) Color() string {
	switch l {
	case LabelMeasure:
		return "#2E7D32"
	case LabelBeat:
		return "#C62828"
	case LabelOnset:
		return "#1565C0"
	default:
		return "#9E9E9E"
	}
}

func (l Label) idPrefix() string {
	switch l {
	case LabelMeasure:
		return "M"
	case LabelBeat:
		return "B"
	case LabelOnset:
		return "O"
	default:
		return "X"
	}
}

func (l Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "measure":
		*l = LabelMeasure
	case "beat":
		*l = LabelBeat
	case "onset":
		*l = LabelOnset
	default:
		return fmt.Errorf("unknown event label %q", s)
	}
	return nil
}

// Event is one timeline entry. Index increments globally across the sorted
// list; ID increments per label ("M1", "B1", "O1", ...).
type Event struct {
	Index     int     `json:"index"`
	ID        string  `json:"id"`
	Label     Label   `json:"label"`
	Timestamp float64 `json:"timestamp"`
	Color     string  `json:"color"`
	Value     int     `json:"value"`
}

// Build merges downbeat, beat and onset timestamps (seconds, each possibly
// empty) into one deterministic event sequence. Every source timestamp
// produces its own event; coinciding timestamps across categories are not
// deduplicated. Timestamps are rounded to milliseconds, then the list is
// stably sorted by (timestamp, label priority).
func Build(onsets, beats, downbeats []float64) []Event {
	events := make([]Event, 0, len(onsets)+len(beats)+len(downbeats))
	add := func(label Label, times []float64) {
		for _, t := range times {
			events = append(events, Event{
				Label:     label,
				Timestamp: roundMs(t),
				Color:     label.Color(),
				Value:     1,
			})
		}
	}
	add(LabelMeasure, downbeats)
	add(LabelBeat, beats)
	add(LabelOnset, onsets)

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].Label < events[j].Label
	})

	perLabel := make(map[Label]int, 3)
	for i := range events {
		perLabel[events[i].Label]++
		events[i].Index = i + 1
		events[i].ID = fmt.Sprintf("%s%d", events[i].Label.idPrefix(), perLabel[events[i].Label])
	}
	return events
}

func roundMs(t float64) float64 {
	return math.Round(t*1000) / 1000
}
