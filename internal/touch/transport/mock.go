package transport

import (
	"context"
	"fmt"
	"os"

	"github.com/banshee-data/contact.report/internal/touch/grid"
)

// MockSource replays a fixed sequence of frames. It backs tests and
// offline reprocessing of captured foil sessions.
type MockSource struct {
	frames [][]byte
	next   int
	loop   bool
	closed bool
}

// NewMockSource builds a source over the given frames. Each frame must be
// a full raw frame. With loop set the sequence repeats forever; otherwise
// ReadFrame returns ErrClosed once the sequence is exhausted.
func NewMockSource(frames [][]byte, loop bool) (*MockSource, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("mock source needs at least one frame")
	}
	for i, f := range frames {
		if len(f) != grid.FrameSize {
			return nil, fmt.Errorf("frame %d is %d bytes, want %d", i, len(f), grid.FrameSize)
		}
	}
	return &MockSource{frames: frames, loop: loop}, nil
}

// OpenCapture loads a raw capture file of concatenated frames into a
// replaying source. The file length must be a whole number of frames.
func OpenCapture(path string, loop bool) (*MockSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}
	if len(data) == 0 || len(data)%grid.FrameSize != 0 {
		return nil, fmt.Errorf("capture %s is %d bytes, not a whole number of %d-byte frames",
			path, len(data), grid.FrameSize)
	}
	frames := make([][]byte, 0, len(data)/grid.FrameSize)
	for off := 0; off < len(data); off += grid.FrameSize {
		frames = append(frames, data[off:off+grid.FrameSize])
	}
	return NewMockSource(frames, loop)
}

// ReadFrame copies the next frame in sequence into buf.
func (s *MockSource) ReadFrame(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return ErrClosed
	}
	if err := checkFrameBuf(buf); err != nil {
		return err
	}
	if s.next >= len(s.frames) {
		if !s.loop {
			return ErrClosed
		}
		s.next = 0
	}
	copy(buf, s.frames[s.next])
	s.next++
	return nil
}

// Remaining reports how many frames are left before a non-looping source
// is exhausted.
func (s *MockSource) Remaining() int {
	if s.loop {
		return len(s.frames)
	}
	return len(s.frames) - s.next
}

// Close stops the source; subsequent reads return ErrClosed.
func (s *MockSource) Close() error {
	s.closed = true
	return nil
}
