package pipeline

import (
	"fmt"

	"github.com/banshee-data/contact.report/internal/monitoring"
	"github.com/banshee-data/contact.report/internal/touch/grid"
)

// Stage is the calibration stage derived from the frame counter.
type Stage int

const (
	// StageAveraging accumulates the per-cell baseline average.
	StageAveraging Stage = iota
	// StageSigmaEstimation accumulates the per-cell noise scale.
	StageSigmaEstimation
	// StageSteady runs normalization, smoothing and contact extraction.
	StageSteady
)

func (s Stage) String() string {
	switch s {
	case StageAveraging:
		return "averaging"
	case StageSigmaEstimation:
		return "sigma-estimation"
	case StageSteady:
		return "steady"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Pipeline holds all per-sensor calibration and extraction state. One
// instance per foil; all buffers are owned exclusively by the instance and
// mutated only inside Tick. Multiple independent instances may coexist.
type Pipeline struct {
	params Params

	// frameIndex is the monotonic per-cycle frame counter. The calibration
	// stage is always derived from it, never stored alongside it.
	frameIndex int

	// Per-cell state, addressed through grid.Index so the buffers share the
	// raw frame's layout. baseline and sigma double as accumulators during
	// their calibration windows and hold finalized values afterwards.
	baseline     []uint16
	sigma        []uint16
	score        []uint16
	adjacent     []uint16
	prevAdjacent []uint16

	// contacts is a fixed-capacity arena reused every steady frame.
	contacts []Contact

	// One saturation report per accumulator per calibration cycle.
	baselineSatWarned bool
	sigmaSatWarned    bool
}

// New creates a pipeline with the given tuning. The working set is
// allocated once here; Tick performs no allocation.
func New(params Params) (*Pipeline, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline params: %w", err)
	}
	return &Pipeline{
		params:       params,
		baseline:     make([]uint16, grid.FrameSize),
		sigma:        make([]uint16, grid.FrameSize),
		score:        make([]uint16, grid.FrameSize),
		adjacent:     make([]uint16, grid.FrameSize),
		prevAdjacent: make([]uint16, grid.FrameSize),
		contacts:     make([]Contact, 0, params.MaxContacts),
	}, nil
}

// Params returns the pipeline tuning.
func (p *Pipeline) Params() Params { return p.params }

// FrameIndex returns the current calibration-cycle frame counter.
func (p *Pipeline) FrameIndex() int { return p.frameIndex }

// Stage derives the calibration stage from the frame counter alone. The
// tick at exactly AverageWindow+SigmaWindow still accumulates and finalizes
// the noise scale, so it belongs to sigma estimation; steady extraction
// starts strictly after it. Snapshot relies on this boundary: a frame
// counter inside the sigma window means the sigma buffer holds a raw
// accumulator, not a finalized scale.
func (p *Pipeline) Stage() Stage {
	switch a, s := p.params.AverageWindow, p.params.SigmaWindow; {
	case p.frameIndex < a:
		return StageAveraging
	case p.frameIndex <= a+s:
		return StageSigmaEstimation
	default:
		return StageSteady
	}
}

// Tick processes one raw frame and returns the frame's contact list. The
// returned slice aliases the pipeline's contact arena and is valid until
// the next Tick.
//
// A nil slice means the tick did calibration work only; steady ticks
// always return a non-nil slice, empty when no cell is triggered, so the
// caller can publish contact-free frames as release markers. The
// only error condition is a malformed frame length; the caller's transport
// layer is responsible for turning delivery failures into skipped ticks
// before reaching here.
func (p *Pipeline) Tick(frame []byte) ([]Contact, error) {
	if len(frame) != grid.FrameSize {
		return nil, fmt.Errorf("raw frame is %d samples, want %d", len(frame), grid.FrameSize)
	}

	a, s := p.params.AverageWindow, p.params.SigmaWindow
	var out []Contact

	switch f := p.frameIndex; {
	case f < a:
		p.accumulateBaseline(frame, f)
	case f == a:
		p.finalizeBaseline()
	case f < a+s:
		p.accumulateSigma(frame, f)
	case f == a+s:
		// The finalize frame still contributes a deviation term, so the
		// noise scale is an average over exactly SigmaWindow frames.
		p.accumulateSigma(frame, f)
		p.finalizeSigma()
	default:
		p.normalize(frame)
		p.smooth()
		p.extract()
		out = p.contacts
	}

	p.frameIndex++
	if p.frameIndex > p.params.RecalibrationPeriod {
		p.recalibrate()
	}
	return out, nil
}

// recalibrate restarts the calibration cycle to track slow sensor drift.
// Transient buffers are cleared; the baseline and sigma accumulators are
// overwritten by direct assignment on their first frames, and the derived
// stage makes the stale values unreachable until then.
func (p *Pipeline) recalibrate() {
	p.frameIndex = 0
	clear(p.score)
	clear(p.adjacent)
	clear(p.prevAdjacent)
	p.contacts = p.contacts[:0]
	p.baselineSatWarned = false
	p.sigmaSatWarned = false
	monitoring.Logf("[pipeline] recalibration started (drift guard, period %d frames)",
		p.params.RecalibrationPeriod)
}

// Snapshot returns copies of the finalized per-cell baseline and noise
// scale, or ok=false while calibration is still in progress.
func (p *Pipeline) Snapshot() (baseline, sigma []uint16, ok bool) {
	if p.Stage() != StageSteady {
		return nil, nil, false
	}
	baseline = make([]uint16, grid.FrameSize)
	sigma = make([]uint16, grid.FrameSize)
	copy(baseline, p.baseline)
	copy(sigma, p.sigma)
	return baseline, sigma, true
}

// Restore installs a previously captured calibration and enters steady
// extraction immediately, skipping the warmup windows. The frame counter
// restarts at the steady boundary so the periodic recalibration guard
// still applies on its usual schedule.
func (p *Pipeline) Restore(baseline, sigma []uint16) error {
	if len(baseline) != grid.FrameSize || len(sigma) != grid.FrameSize {
		return fmt.Errorf("calibration grids are %d/%d cells, want %d",
			len(baseline), len(sigma), grid.FrameSize)
	}
	for row := 0; row < grid.Dim; row++ {
		for col := 0; col < grid.Dim; col++ {
			if sigma[grid.Index(row, col, p.params.LineOffset)] == 0 {
				return fmt.Errorf("noise scale floor violated at cell (%d,%d)", row, col)
			}
		}
	}
	copy(p.baseline, baseline)
	copy(p.sigma, sigma)
	clear(p.score)
	clear(p.adjacent)
	clear(p.prevAdjacent)
	p.contacts = p.contacts[:0]
	p.frameIndex = p.params.AverageWindow + p.params.SigmaWindow + 1
	monitoring.Logf("[pipeline] calibration restored; steady extraction resumed")
	return nil
}
