package events

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/banshee-data/contact.report/internal/touch/pipeline"
)

func TestNewFrameEventScalesToPanel(t *testing.T) {
	contacts := []pipeline.Contact{
		{X: 0, Y: 0, W: 1, H: 1},
		{X: 32, Y: 32, W: 2, H: 4},
		{X: 63, Y: 63, W: 1, H: 1},
	}
	event := NewFrameEvent("foil-01", 42, contacts)

	if event.SensorID != "foil-01" || event.Tick != 42 {
		t.Fatalf("event header = %s/%d", event.SensorID, event.Tick)
	}

	want := []ContactReport{
		{X: 0, Y: 0, W: 30, H: 16, CellX: 0, CellY: 0, CellW: 1, CellH: 1},
		{X: 960, Y: 540, W: 60, H: 67, CellX: 32, CellY: 32, CellW: 2, CellH: 4},
		{X: 1890, Y: 1063, W: 30, H: 16, CellX: 63, CellY: 63, CellW: 1, CellH: 1},
	}
	if diff := cmp.Diff(want, event.Contacts); diff != "" {
		t.Fatalf("contacts mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyFrameEventMarshalsAsReleaseMarker(t *testing.T) {
	// A contact-free frame is the release signal; its contact list must
	// serialize as an empty array, never null.
	event := NewFrameEvent("foil-01", 9, nil)
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(payload), `"contacts":[]`) {
		t.Fatalf("payload %s does not carry an empty contacts array", payload)
	}
}

func TestFrameEventJSONShape(t *testing.T) {
	event := NewFrameEvent("foil-01", 7, []pipeline.Contact{{X: 10, Y: 10, W: 3, H: 3}})
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded FrameEvent
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(event, &decoded, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
