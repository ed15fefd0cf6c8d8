// Package window implements the DR formula: given a channel's sequence of
// completed 3-second window observations, compute the official dynamic
// range value for that channel.
//
// The shape of this file (accumulate per-block observations, reduce at
// stream end) follows the block/finalize structure of the loudness
// analyzer's own DR estimate, but the algorithm itself does not: that
// analyzer takes a single coarser peak and an arithmetic mean of the loudest
// 20% of blocks, then clamps the score to a 1-20 display range. The DR Meter
// algorithm implemented here keeps a true dual-peak across windows, takes
// the RMS of the top 20% rather than their arithmetic mean, and never
// clamps the result.
package window

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Sample is one completed window's observation for a single channel.
type Sample struct {
	RMS  float64
	Peak float64
}

// Aggregator accumulates window samples for one channel and reduces them to
// a DR result on Finalize. It holds no sample-level state; it only ever
// sees the per-window (rms, peak) pairs the engine hands it at each
// boundary.
type Aggregator struct {
	samples []Sample
}

// Add records one completed window's observation.
func (a *Aggregator) Add(s Sample) {
	a.samples = append(a.samples, s)
}

// Len reports the number of completed windows recorded so far.
func (a *Aggregator) Len() int {
	return len(a.samples)
}

// Result is the reduction of a channel's window history.
type Result struct {
	// DRValue is the raw (unrounded) DR in dB. +Inf when the loudest
	// windows measured zero RMS (silence).
	DRValue float64
	// Peak is the reported_peak linear value used in the DR ratio.
	Peak float64
	// RMSTop20 is the rms_top20 linear value used in the DR ratio.
	RMSTop20 float64
	// PeakSource records which dual-peak-across-windows candidate became
	// Peak: 0 primary (largest), 1 secondary (runner-up, the common case),
	// 2 fallback (silence, no windows had a nonzero peak). The C ABI
	// surfaces this verbatim per channel.
	PeakSource int
}

// Finalize reduces the recorded windows to a DR result following the DR
// Meter algorithm:
//
//  1. K = max(1, ceil(0.2 * N)) loudest windows by RMS.
//  2. rms_top20 = sqrt(mean of squares of those K RMS values).
//  3. reported_peak = second-largest window peak if nonzero, else the
//     largest (the same prefer-runner-up policy channel.Data applies
//     within a window, applied here across windows).
//  4. DR = 20 * log10(reported_peak / rms_top20); +Inf if rms_top20 is 0.
//
// Finalize panics if called with no recorded windows; callers (the engine)
// must never invoke it on a channel that produced zero windows.
func (a *Aggregator) Finalize() Result {
	n := len(a.samples)
	if n == 0 {
		panic("window: Finalize called with no recorded windows")
	}

	rmsValues := make([]float64, n)
	for i, s := range a.samples {
		rmsValues[i] = s.RMS
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(rmsValues)))

	k := int(math.Ceil(0.2 * float64(n)))
	if k < 1 {
		k = 1
	}

	squares := make([]float64, k)
	for i := range k {
		squares[i] = rmsValues[i] * rmsValues[i]
	}

	rmsTop20 := math.Sqrt(stat.Mean(squares, nil))

	peakOverall, peakSecondOverall := dualPeakAcrossWindows(a.samples)

	reportedPeak := peakSecondOverall
	peakSource := 1

	if reportedPeak == 0 {
		reportedPeak = peakOverall
		peakSource = 0

		if reportedPeak == 0 {
			peakSource = 2
		}
	}

	dr := math.Inf(1)
	if rmsTop20 > 0 {
		dr = 20 * math.Log10(reportedPeak/rmsTop20)
	}

	return Result{
		DRValue:    dr,
		Peak:       reportedPeak,
		RMSTop20:   rmsTop20,
		PeakSource: peakSource,
	}
}

// dualPeakAcrossWindows applies the same "largest, then runner-up" dual
// peak policy channel.Data uses within a window, but across the set of
// per-window peaks.
func dualPeakAcrossWindows(samples []Sample) (largest, second float64) {
	for _, s := range samples {
		switch {
		case s.Peak > largest:
			second = largest
			largest = s.Peak
		case s.Peak > second:
			second = s.Peak
		}
	}

	return largest, second
}

// DisplayDR applies the half-up rounding rule: floor(dr + 0.5). It is not a
// rounding of the already-computed DRValue into an integer type system's
// "round half to even"; it is the specific formula the DR Meter displays.
// +Inf input (silence) yields the math.MaxInt32 sentinel so callers can
// render the appropriate silence label.
func DisplayDR(dr float64) int {
	if math.IsInf(dr, 1) {
		return math.MaxInt32
	}

	return int(math.Floor(dr + 0.5))
}
