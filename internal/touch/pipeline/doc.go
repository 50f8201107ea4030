// Package pipeline owns the per-tick calibration and contact-extraction
// core for the touch foil.
//
// Responsibilities: the frame-counted calibration state machine (baseline
// averaging, noise-scale estimation, periodic recalibration), per-cell
// score normalization, spatial/temporal smoothing, and fixed-capacity
// contact clustering. One Tick processes one raw frame to completion with
// integer-only arithmetic and a fixed working set.
//
// The package is fully synchronous and single-threaded: the caller
// guarantees serialized, non-overlapping Tick invocations. Transport and
// event reporting live in sibling packages and interact with the core only
// through the raw-frame input and the contact-list output.
package pipeline
