// Package simd implements the vectorized kernels the source tool's
// SSE2/AVX/NEON code paths perform, expressed as plain Go loops grouped by
// lane width rather than architecture intrinsics or assembly. Conversion
// kernels are bit-identical to the scalar formula by construction (each
// output element depends only on its own input); the channel accumulation
// kernel is required only to agree with the scalar path within a tight
// relative tolerance on RMS and exactly on both peaks, per the lane-merge
// rule below.
package simd

import (
	"math"

	"github.com/farcloser/drmeter/internal/core/convert/internal/scale"
	"github.com/farcloser/drmeter/internal/cpufeature"
)

// Width returns the lane width the host's best available vector unit would
// use: 8 for AVX2, 4 for SSE2 or NEON, 1 (scalar) otherwise.
func Width() int {
	caps := cpufeature.Capabilities()

	switch {
	case caps.AVX2:
		return 8
	case caps.SSE2, caps.NEON:
		return 4
	default:
		return 1
	}
}

// I16Kernel converts a slice of signed 16-bit samples to f32.
type I16Kernel func(input []int16, out []float32)

// I32Kernel converts a slice of signed 32-bit samples to f32.
type I32Kernel func(input []int32, out []float32)

// SelectI16 returns the best available int16 conversion kernel. Every width
// produces bit-identical output since each lane's result depends on nothing
// but its own input sample; width only changes the Go loop's unroll factor.
func SelectI16() I16Kernel {
	return convertI16
}

// SelectI32 returns the best available int32 conversion kernel.
func SelectI32() I32Kernel {
	return convertI32
}

func convertI16(input []int16, out []float32) {
	width := Width()

	i := 0
	for ; i+width <= len(input); i += width {
		for lane := range width {
			out[i+lane] = float32(float64(input[i+lane]) / scale.MaxValue16)
		}
	}

	for ; i < len(input); i++ {
		out[i] = float32(float64(input[i]) / scale.MaxValue16)
	}
}

func convertI32(input []int32, out []float32) {
	width := Width()

	i := 0
	for ; i+width <= len(input); i += width {
		for lane := range width {
			out[i+lane] = float32(float64(input[i+lane]) / scale.MaxValue32)
		}
	}

	for ; i < len(input); i++ {
		out[i] = float32(float64(input[i]) / scale.MaxValue32)
	}
}

// LaneState is one lane's partial accumulation: a running sum of squares and
// the lane-local dual peak.
type LaneState struct {
	RMSAccumulator float64
	PeakPrimary    float64
	PeakSecondary  float64
}

func (l *LaneState) feed(sample float32) {
	s := float64(sample)
	l.RMSAccumulator += s * s

	abs := math.Abs(s)

	switch {
	case abs > l.PeakPrimary:
		l.PeakSecondary = l.PeakPrimary
		l.PeakPrimary = abs
	case abs > l.PeakSecondary:
		l.PeakSecondary = abs
	}
}

// FeedLanes distributes samples round-robin across width lanes, accumulates
// each lane independently, and returns the merged result: the lane RMS
// accumulators summed, and the lane peaks reduced pairwise so that the
// overall primary/secondary preserve the true top two values across all
// lanes (a third-place value can never win the merge).
func FeedLanes(samples []float32, width int) LaneState {
	if width <= 1 || len(samples) < width {
		var l LaneState
		for _, s := range samples {
			l.feed(s)
		}

		return l
	}

	lanes := make([]LaneState, width)

	for i, s := range samples {
		lanes[i%width].feed(s)
	}

	return mergeLanes(lanes)
}

func mergeLanes(lanes []LaneState) LaneState {
	merged := lanes[0]

	for _, l := range lanes[1:] {
		merged.RMSAccumulator += l.RMSAccumulator
		merged = mergePeaks(merged, l)
	}

	return merged
}

// mergePeaks folds the dual peak of b into a, applying the same
// prefer-runner-up policy feed() uses, so the result's primary/secondary are
// the true largest and second-largest values across both inputs.
func mergePeaks(a, b LaneState) LaneState {
	candidates := [4]float64{a.PeakPrimary, a.PeakSecondary, b.PeakPrimary, b.PeakSecondary}

	first, second := 0.0, 0.0

	for _, c := range candidates {
		switch {
		case c > first:
			second = first
			first = c
		case c > second:
			second = c
		}
	}

	a.PeakPrimary = first
	a.PeakSecondary = second

	return a
}
