// Package transport delivers raw foil frames to the extraction pipeline.
//
// The USB-attached foil is the production source; a replayable mock backs
// tests and offline analysis. Sources hand over whole frames only: a short
// or failed read surfaces as an error and the caller skips that tick, so
// partial frames never reach calibration.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/contact.report/internal/touch/grid"
)

// ErrClosed is returned by ReadFrame after a source has been closed or its
// capture is exhausted.
var ErrClosed = errors.New("frame source closed")

// FrameSource yields raw frames, one full frame per call.
type FrameSource interface {
	// ReadFrame fills buf with the next raw frame. buf must be exactly
	// grid.FrameSize bytes; a delivery failure returns an error and leaves
	// buf contents undefined.
	ReadFrame(ctx context.Context, buf []byte) error
	Close() error
}

// checkFrameBuf validates the caller-owned frame buffer once per read.
func checkFrameBuf(buf []byte) error {
	if len(buf) != grid.FrameSize {
		return fmt.Errorf("frame buffer is %d bytes, want %d", len(buf), grid.FrameSize)
	}
	return nil
}
