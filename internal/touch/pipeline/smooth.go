package pipeline

import "github.com/banshee-data/contact.report/internal/touch/grid"

// smooth aggregates each cell's 3x3 score window and blends the result
// with the prior frame's smoothed buffer.
//
// The window for source cell (row, col) spans offsets {-2,-1,0} on both
// axes, skipping neighbors whose row or column lands at or below zero:
// there is no wraparound or clamping, so cells near the origin edge are
// under-smoothed relative to interior cells. The sum lands one row and one
// column back from the source cell, which makes the stored value at
// (row, col) the sum of the 3x3 window centered on it; that alignment must
// hold exactly for contact coordinates to come out right.
func (p *Pipeline) smooth() {
	off := p.params.LineOffset

	clear(p.adjacent)
	for row := 0; row < grid.Dim; row++ {
		for col := 0; col < grid.Dim; col++ {
			var sum uint16
			for dr := -2; dr <= 0; dr++ {
				for dc := -2; dc <= 0; dc++ {
					r, c := row+dr, col+dc
					if r <= 0 || c <= 0 {
						continue
					}
					sum += p.score[grid.Index(r, c, off)]
				}
			}
			p.adjacent[grid.Index(row-1, col-1, off)] = sum
		}
	}

	// One-pole temporal blend with coefficient 1/2 against the previous
	// frame's snapshot, then capture the snapshot for the next tick. The
	// snapshot is taken exactly once per frame so every cell blends against
	// a clean prior-frame value.
	for i := range p.adjacent {
		p.adjacent[i] = (p.adjacent[i] + p.prevAdjacent[i]) / 2
	}
	copy(p.prevAdjacent, p.adjacent)
}
