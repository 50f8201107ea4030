// Package grid maps the flat raw sample buffer delivered by the foil to
// 64x64 logical cell coordinates.
//
// A raw frame is 4160 unsigned 8-bit samples: the first 64 are an opaque
// header, the 64x64 signal matrix starts at offset 64. Index is the single
// addressing transform used by every stage of the pipeline; indices wrap
// modulo the frame size, which is an invariant of the addressing scheme
// rather than an error path.
package grid

// Geometry of the touch foil's raw frame.
const (
	// Dim is the logical sensor grid dimension per axis.
	Dim = 64
	// Header is the opaque sample prefix skipped at the start of each frame.
	Header = 64
	// FrameSize is the total raw frame length: header plus the signal matrix.
	FrameSize = Header + Dim*Dim
)

// Index maps a logical cell coordinate to its position in the raw frame
// buffer:
//
//	idx = col + row*Dim + Header + Dim*lineOffset, wrapped into [0, FrameSize)
//
// lineOffset is the foil's fixed line skew (0 for the GreenTouch panel).
// The function is total: any integer row/col pair, including negative
// values produced by window shifts near the grid origin, wraps to a valid
// buffer position.
func Index(row, col, lineOffset int) int {
	idx := (col + row*Dim + Header + Dim*lineOffset) % FrameSize
	if idx < 0 {
		idx += FrameSize
	}
	return idx
}
