package timeline

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestBuildOrderingAndIDs(t *testing.T) {
	onsets := []float64{0.5004, 1.0}
	beats := []float64{0.5, 1.0}
	downbeats := []float64{1.0}

	events := Build(onsets, beats, downbeats)
	if len(events) != 5 {
		t.Fatalf("Expected 5 events, got %d", len(events))
	}

	// t=0.5: beat sorts before the coinciding (rounded) onset.
	// t=1.0: measure, then beat, then onset.
	wantLabels := []Label{LabelBeat, LabelOnset, LabelMeasure, LabelBeat, LabelOnset}
	wantIDs := []string{"B1", "O1", "M1", "B2", "O2"}
	wantTimes := []float64{0.5, 0.5, 1.0, 1.0, 1.0}

	for i, e := range events {
		if e.Index != i+1 {
			t.Errorf("Event %d: expected index %d, got %d", i, i+1, e.Index)
		}
		if e.Label != wantLabels[i] {
			t.Errorf("Event %d: expected label %s, got %s", i, wantLabels[i], e.Label)
		}
		if e.ID != wantIDs[i] {
			t.Errorf("Event %d: expected ID %s, got %s", i, wantIDs[i], e.ID)
		}
		if e.Timestamp != wantTimes[i] {
			t.Errorf("Event %d: expected timestamp %.3f, got %.3f", i, wantTimes[i], e.Timestamp)
		}
		if e.Color != e.Label.Color() {
			t.Errorf("Event %d: expected color %s, got %s", i, e.Label.Color(), e.Color)
		}
		if e.Value != 1 {
			t.Errorf("Event %d: expected value 1, got %d", i, e.Value)
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	onsets := []float64{0.1, 0.2, 0.30001}
	beats := []float64{0.2, 0.4}
	downbeats := []float64{0.2}

	a := Build(onsets, beats, downbeats)
	b := Build(onsets, beats, downbeats)
	if !reflect.DeepEqual(a, b) {
		t.Error("Build must be deterministic for identical inputs")
	}
}

func TestBuildEmptyInputs(t *testing.T) {
	events := Build(nil, nil, nil)
	if events == nil {
		t.Fatal("Expected empty slice, not nil")
	}
	if len(events) != 0 {
		t.Errorf("Expected no events, got %d", len(events))
	}
}

func TestBuildWithoutDownbeats(t *testing.T) {
	events := Build([]float64{0.25}, []float64{0.5}, nil)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	for _, e := range events {
		if e.Label == LabelMeasure {
			t.Errorf("No downbeats supplied, but got measure event %s", e.ID)
		}
	}
}

func TestLabelColorsFixed(t *testing.T) {
	cases := map[Label]string{
		LabelMeasure: "#2E7D32",
		LabelBeat:    "#C62828",
		LabelOnset:   "#1565C0",
	}
	for label, want := range cases {
		if got := label.Color(); got != want {
			t.Errorf("Label %s: expected color %s, got %s", label, want, got)
		}
	}
}

func TestLabelJSONRoundTrip(t *testing.T) {
	for _, label := range []Label{LabelMeasure, LabelBeat, LabelOnset} {
		data, err := json.Marshal(label)
		if err != nil {
			t.Fatalf("Marshal %s failed: %v", label, err)
		}
		var got Label
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal %s failed: %v", data, err)
		}
		if got != label {
			t.Errorf("Round trip changed %s to %s", label, got)
		}
	}

	var bad Label
	if err := json.Unmarshal([]byte(`"chorus"`), &bad); err == nil {
		t.Error("Expected error for unknown label string")
	}
}

func TestEventJSONFields(t *testing.T) {
	events := Build(nil, []float64{1.5}, nil)
	data, err := json.Marshal(events[0])
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"index", "id", "label", "timestamp", "color", "value"} {
		if _, ok := m[key]; !ok {
			t.Errorf("Expected JSON key %q in %s", key, data)
		}
	}
	if m["label"] != "beat" {
		t.Errorf("Expected label \"beat\", got %v", m["label"])
	}
	if m["id"] != "B1" {
		t.Errorf("Expected id \"B1\", got %v", m["id"])
	}
}
