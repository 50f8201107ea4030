// Package events publishes per-frame contact reports to downstream
// consumers. The MQTT emitter is the production path; the log emitter
// serves bench runs without a broker.
package events

import (
	"time"

	"github.com/banshee-data/contact.report/internal/touch/grid"
	"github.com/banshee-data/contact.report/internal/touch/pipeline"
)

// Panel resolution the foil overlays. Grid coordinates are scaled to this
// range so consumers never see the 64x64 cell space.
const (
	PanelWidth  = 1920
	PanelHeight = 1080
)

// ContactReport is one contact in panel coordinates.
type ContactReport struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`

	// Cell coordinates on the raw grid, for diagnostics.
	CellX int `json:"cell_x"`
	CellY int `json:"cell_y"`
	CellW int `json:"cell_w"`
	CellH int `json:"cell_h"`
}

// FrameEvent is the per-frame payload: all contacts seen on one tick,
// published once per steady tick. An empty contact list is meaningful —
// it is the frame-sync marker that tells consumers every contact lifted.
type FrameEvent struct {
	SensorID  string          `json:"sensor_id"`
	Tick      uint64          `json:"tick"`
	Timestamp time.Time       `json:"timestamp"`
	Contacts  []ContactReport `json:"contacts"`
}

// Emitter publishes frame events.
type Emitter interface {
	Emit(event *FrameEvent) error
	Close() error
}

// scale maps a cell coordinate to panel space.
func scale(cell, panel, dim int) int {
	return cell * panel / dim
}

// NewFrameEvent converts a frame's contacts into panel coordinates.
func NewFrameEvent(sensorID string, tick uint64, contacts []pipeline.Contact) *FrameEvent {
	reports := make([]ContactReport, len(contacts))
	for i, c := range contacts {
		reports[i] = ContactReport{
			X:     scale(c.X, PanelWidth, grid.Dim),
			Y:     scale(c.Y, PanelHeight, grid.Dim),
			W:     scale(c.W, PanelWidth, grid.Dim),
			H:     scale(c.H, PanelHeight, grid.Dim),
			CellX: c.X,
			CellY: c.Y,
			CellW: c.W,
			CellH: c.H,
		}
	}
	return &FrameEvent{
		SensorID:  sensorID,
		Tick:      tick,
		Timestamp: time.Now().UTC(),
		Contacts:  reports,
	}
}
