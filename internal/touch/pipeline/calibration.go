package pipeline

import (
	"github.com/banshee-data/contact.report/internal/monitoring"
	"github.com/banshee-data/contact.report/internal/touch/grid"
)

// accumulatorWarnLevel is the accumulator value past which a saturation
// report is emitted. The documented windows keep 255 terms of 255 within
// uint16 range (65025) but with no margin, so any sighting near the top
// means the window or input magnitude changed without re-deriving the
// bound.
const accumulatorWarnLevel = 65000

// accumulateBaseline adds one frame of raw samples into the baseline
// accumulator. The first frame of the cycle assigns rather than adds,
// which is what lets recalibration skip an explicit buffer clear.
func (p *Pipeline) accumulateBaseline(frame []byte, f int) {
	off := p.params.LineOffset
	for row := 0; row < grid.Dim; row++ {
		for col := 0; col < grid.Dim; col++ {
			idx := grid.Index(row, col, off)
			v := uint16(frame[idx])
			if f == 0 {
				p.baseline[idx] = v
			} else {
				p.baseline[idx] += v
			}
			if p.baseline[idx] > accumulatorWarnLevel && !p.baselineSatWarned {
				p.baselineSatWarned = true
				monitoring.Logf("[pipeline] baseline accumulator near saturation: cell=(%d,%d) value=%d frame=%d",
					row, col, p.baseline[idx], f)
			}
		}
	}
}

// finalizeBaseline converts the accumulator into the per-cell average.
func (p *Pipeline) finalizeBaseline() {
	off := p.params.LineOffset
	w := uint16(p.params.AverageWindow)
	for row := 0; row < grid.Dim; row++ {
		for col := 0; col < grid.Dim; col++ {
			idx := grid.Index(row, col, off)
			p.baseline[idx] /= w
		}
	}
	monitoring.Logf("[pipeline] baseline average settled over %d frames", p.params.AverageWindow)
}

// accumulateSigma adds one frame of absolute deviations from the settled
// baseline into the noise-scale accumulator. Accumulation starts the frame
// after the baseline finalizes.
func (p *Pipeline) accumulateSigma(frame []byte, f int) {
	off := p.params.LineOffset
	first := f == p.params.AverageWindow+1
	for row := 0; row < grid.Dim; row++ {
		for col := 0; col < grid.Dim; col++ {
			idx := grid.Index(row, col, off)
			d := absDiff(uint16(frame[idx]), p.baseline[idx])
			if first {
				p.sigma[idx] = d
			} else {
				p.sigma[idx] += d
			}
			if p.sigma[idx] > accumulatorWarnLevel && !p.sigmaSatWarned {
				p.sigmaSatWarned = true
				monitoring.Logf("[pipeline] sigma accumulator near saturation: cell=(%d,%d) value=%d frame=%d",
					row, col, p.sigma[idx], f)
			}
		}
	}
}

// finalizeSigma converts the accumulator into the per-cell noise scale,
// floored at 1 so steady-state score division is always defined.
func (p *Pipeline) finalizeSigma() {
	off := p.params.LineOffset
	w := uint16(p.params.SigmaWindow)
	for row := 0; row < grid.Dim; row++ {
		for col := 0; col < grid.Dim; col++ {
			idx := grid.Index(row, col, off)
			p.sigma[idx] /= w
			if p.sigma[idx] < 1 {
				p.sigma[idx] = 1
			}
		}
	}
	monitoring.Logf("[pipeline] noise scale settled over %d frames; steady extraction begins",
		p.params.SigmaWindow)
}

// normalize computes the per-cell deviation score for a steady frame:
// |raw - baseline| / noiseScale with integer division, making each cell's
// activation independent of its individual noise floor.
func (p *Pipeline) normalize(frame []byte) {
	off := p.params.LineOffset
	for row := 0; row < grid.Dim; row++ {
		for col := 0; col < grid.Dim; col++ {
			idx := grid.Index(row, col, off)
			p.score[idx] = absDiff(uint16(frame[idx]), p.baseline[idx]) / p.sigma[idx]
		}
	}
}

func absDiff(a, b uint16) uint16 {
	if a < b {
		return b - a
	}
	return a - b
}
