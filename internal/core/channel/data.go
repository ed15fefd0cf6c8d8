// Package channel implements the per-channel accumulator at the core of the
// DR measurement window: a running sum of squares plus a dual-peak tracker.
package channel

import (
	"fmt"
	"math"
	"unsafe"
)

// Data is the per-channel accumulator for a single measurement window.
//
// The field order is load-bearing: rms accumulator, primary peak, secondary
// peak, each a float64, gives a 24-byte, 8-byte-aligned struct matching the
// foobar2000 DR Meter's own in-memory layout. Do not reorder or add fields
// without re-checking Sizeof/Alignof.
type Data struct {
	RMSAccumulator float64
	PeakPrimary    float64
	PeakSecondary  float64
}

// Feed folds one sample into the accumulator: squares it into the RMS sum
// and runs it through the dual-peak tracker.
func (d *Data) Feed(sample float32) {
	s := float64(sample)

	d.RMSAccumulator += s * s

	abs := math.Abs(s)

	switch {
	case abs > d.PeakPrimary:
		d.PeakSecondary = d.PeakPrimary
		d.PeakPrimary = abs
	case abs > d.PeakSecondary:
		d.PeakSecondary = abs
	}
}

// RMS returns the root-mean-square of the sampleCount samples fed so far.
// Returns 0 for an empty window.
func (d *Data) RMS(sampleCount int) float64 {
	if sampleCount <= 0 {
		return 0
	}

	meanSquare := d.RMSAccumulator / float64(sampleCount)
	if meanSquare <= 0 {
		return 0
	}

	return math.Sqrt(meanSquare)
}

// EffectivePeak applies foobar2000's anti-clip heuristic: prefer the
// secondary peak when it is nonzero, falling back to the primary peak
// otherwise. A single isolated full-scale sample (e.g. an inter-sample
// overshoot or a stray clipped sample) does not dominate the reported peak.
func (d *Data) EffectivePeak() float64 {
	if d.PeakSecondary > 0 {
		return d.PeakSecondary
	}

	return d.PeakPrimary
}

// Reset zeroes the accumulator for reuse across windows.
func (d *Data) Reset() {
	d.RMSAccumulator = 0
	d.PeakPrimary = 0
	d.PeakSecondary = 0
}

func (d Data) String() string {
	return fmt.Sprintf("Data{rms_acc: %.6f, peak1: %.6f, peak2: %.6f}", d.RMSAccumulator, d.PeakPrimary, d.PeakSecondary)
}

// VerifyLayout reports whether Data still matches the 24-byte, 8-byte-aligned
// layout the DR formula depends on for SIMD interop. It is exercised by a
// unit test rather than a build-time assertion, since Go has no const-eval
// equivalent of Rust's size_of assertion array trick.
func VerifyLayout() (size, align uintptr, ok bool) {
	var d Data

	size = unsafe.Sizeof(d)
	align = unsafe.Alignof(d)

	return size, align, size == 24 && align == 8
}
