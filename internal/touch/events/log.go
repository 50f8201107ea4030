package events

import "github.com/banshee-data/contact.report/internal/monitoring"

// LogEmitter writes frame events to the monitoring log. Used on bench
// runs where no broker is available.
type LogEmitter struct{}

func (LogEmitter) Emit(event *FrameEvent) error {
	monitoring.Logf("[events] sensor=%s tick=%d contacts=%d", event.SensorID, event.Tick, len(event.Contacts))
	for _, c := range event.Contacts {
		monitoring.Logf("[events]   contact panel=(%d,%d %dx%d) cell=(%d,%d %dx%d)",
			c.X, c.Y, c.W, c.H, c.CellX, c.CellY, c.CellW, c.CellH)
	}
	return nil
}

func (LogEmitter) Close() error { return nil }
