package pipeline

import (
	"fmt"
	"math"
)

// Defaults matching the GreenTouch MT panel.
const (
	// DefaultAverageWindow is the number of frames accumulated into the
	// per-cell baseline average.
	DefaultAverageWindow = 255
	// DefaultSigmaWindow is the number of frames accumulated into the
	// per-cell noise scale.
	DefaultSigmaWindow = 255
	// DefaultRecalibrationPeriod is the frame count after which calibration
	// restarts to track slow sensor drift (~70 s at the 10 ms tick).
	DefaultRecalibrationPeriod = 7000
	// DefaultThreshold is the smoothed-score level above which a cell is
	// considered triggered.
	DefaultThreshold = 275
	// DefaultMaxContacts is the contact arena capacity per frame.
	DefaultMaxContacts = 10
	// DefaultLineOffset is the foil's line skew in whole rows.
	DefaultLineOffset = 0
)

// Params are the pipeline tunables, fixed for the lifetime of a Pipeline.
type Params struct {
	AverageWindow       int    // frames accumulated into the baseline
	SigmaWindow         int    // frames accumulated into the noise scale
	RecalibrationPeriod int    // frames between calibration restarts
	Threshold           uint16 // trigger level on the smoothed score
	MaxContacts         int    // contact arena capacity
	LineOffset          int    // line skew applied by the index transform
}

// DefaultParams returns the tuning shipped with the GreenTouch panel.
func DefaultParams() Params {
	return Params{
		AverageWindow:       DefaultAverageWindow,
		SigmaWindow:         DefaultSigmaWindow,
		RecalibrationPeriod: DefaultRecalibrationPeriod,
		Threshold:           DefaultThreshold,
		MaxContacts:         DefaultMaxContacts,
		LineOffset:          DefaultLineOffset,
	}
}

// maxSample is the largest raw sample value; accumulators hold up to
// window terms of this magnitude in 16 bits.
const maxSample = math.MaxUint8

// Validate checks window sizes against the 16-bit accumulator bound and
// rejects degenerate capacities. The accumulator bound is window*255,
// which must stay within uint16 range; the documented windows of 255
// frames sit just inside it with no margin.
func (p Params) Validate() error {
	if p.AverageWindow <= 0 || p.SigmaWindow <= 0 {
		return fmt.Errorf("calibration windows must be positive, got average=%d sigma=%d",
			p.AverageWindow, p.SigmaWindow)
	}
	if p.AverageWindow*maxSample > math.MaxUint16 {
		return fmt.Errorf("average window %d overflows the 16-bit accumulator (max %d)",
			p.AverageWindow, math.MaxUint16/maxSample)
	}
	if p.SigmaWindow*maxSample > math.MaxUint16 {
		return fmt.Errorf("sigma window %d overflows the 16-bit accumulator (max %d)",
			p.SigmaWindow, math.MaxUint16/maxSample)
	}
	if p.RecalibrationPeriod <= p.AverageWindow+p.SigmaWindow {
		return fmt.Errorf("recalibration period %d must exceed the calibration windows (%d)",
			p.RecalibrationPeriod, p.AverageWindow+p.SigmaWindow)
	}
	if p.MaxContacts <= 0 {
		return fmt.Errorf("max contacts must be positive, got %d", p.MaxContacts)
	}
	if p.Threshold == 0 {
		return fmt.Errorf("threshold must be positive")
	}
	// LineOffset has no range restriction: the index transform wraps.
	return nil
}
