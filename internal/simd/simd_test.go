package simd

import (
	"math"
	"testing"
)

func TestConvertI16MatchesScalarFormula(t *testing.T) {
	input := []int16{0, 1, -1, 32767, -32768, 16384}
	out := make([]float32, len(input))

	convertI16(input, out)

	for i, v := range input {
		want := float32(float64(v) / 32768.0)
		if out[i] != want {
			t.Fatalf("index %d: got %v, want %v", i, out[i], want)
		}
	}
}

func TestConvertI32MatchesScalarFormula(t *testing.T) {
	input := []int32{0, 1, -1, math.MaxInt32, math.MinInt32}
	out := make([]float32, len(input))

	convertI32(input, out)

	for i, v := range input {
		want := float32(float64(v) / 2147483648.0)
		if out[i] != want {
			t.Fatalf("index %d: got %v, want %v", i, out[i], want)
		}
	}
}

func TestFeedLanesAgreesWithSerialFeed(t *testing.T) {
	samples := make([]float32, 1000)
	for i := range samples {
		samples[i] = float32(math.Sin(float64(i)) * 0.7)
	}

	var serial LaneState
	for _, s := range samples {
		serial.feed(s)
	}

	for _, width := range []int{1, 4, 8} {
		parallel := FeedLanes(samples, width)

		if math.Abs(parallel.RMSAccumulator-serial.RMSAccumulator) > 1e-9 {
			t.Fatalf("width %d: RMS accumulator mismatch: %v vs %v", width, parallel.RMSAccumulator, serial.RMSAccumulator)
		}

		if parallel.PeakPrimary != serial.PeakPrimary {
			t.Fatalf("width %d: primary peak mismatch: %v vs %v", width, parallel.PeakPrimary, serial.PeakPrimary)
		}

		if parallel.PeakSecondary != serial.PeakSecondary {
			t.Fatalf("width %d: secondary peak mismatch: %v vs %v", width, parallel.PeakSecondary, serial.PeakSecondary)
		}
	}
}

func TestFeedLanesPreservesTopTwoAcrossLanes(t *testing.T) {
	// Two distinct large values landing in different lanes must still
	// surface as the overall primary/secondary after merge.
	samples := make([]float32, 16)
	samples[0] = 0.9
	samples[5] = 0.95

	result := FeedLanes(samples, 4)

	if result.PeakPrimary != float64(float32(0.95)) {
		t.Fatalf("expected primary 0.95, got %v", result.PeakPrimary)
	}

	if result.PeakSecondary != float64(float32(0.9)) {
		t.Fatalf("expected secondary 0.9, got %v", result.PeakSecondary)
	}
}

func TestWidthReflectsCapabilities(t *testing.T) {
	w := Width()
	if w != 1 && w != 4 && w != 8 {
		t.Fatalf("unexpected width %d", w)
	}
}
