package drmeter

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/drmeter/internal/core/engine"
)

// ChannelResult is one channel's final DR measurement.
type ChannelResult struct {
	Channel int
	// DR is the displayed integer dynamic range: floor(DRPrecise + 0.5).
	// math.MaxInt32 is the silence sentinel (+Inf DR); callers render it
	// as "-1.#J" or their own equivalent, the same convention foobar2000
	// itself documents as implementation-defined.
	DR int
	// DRPrecise is the unrounded DR in dB, named to preserve the
	// "official" vs "precise" DR duplicate fields the source format
	// keeps side by side rather than collapsing into one number.
	DRPrecise float64
	Peak      float64
	RMS       float64
	// PeakSource is 0 (primary), 1 (secondary), or 2 (fallback/silence).
	PeakSource int
}

// Silent reports whether this channel measured as total silence (DR = +Inf).
func (c ChannelResult) Silent() bool {
	return math.IsInf(c.DRPrecise, 1)
}

// Result is the outcome of analyzing one stream.
type Result struct {
	PerChannel []ChannelResult

	// OfficialDR is the arithmetic mean of the per-channel displayed DR
	// values, rounded the same way a single channel's DR is: foobar2000
	// reports one headline DR number per file alongside the per-channel
	// breakdown.
	OfficialDR int

	// PartialAnalysis is true when one or more input packets were skipped
	// due to a recoverable decode error.
	PartialAnalysis bool
	SkippedPackets  int

	SampleRate uint32
	BitDepth   BitDepth
}

func resultFromEngine(results []engine.DrResult, sampleRate uint32, bitDepth BitDepth) Result {
	perChannel := make([]ChannelResult, len(results))
	displayValues := make([]float64, 0, len(results))

	for i, r := range results {
		perChannel[i] = ChannelResult{
			Channel:    int(r.Channel),
			DR:         r.DRDisplay,
			DRPrecise:  r.DRValue,
			Peak:       r.Peak,
			RMS:        r.RMS,
			PeakSource: r.PeakSource,
		}

		if !math.IsInf(r.DRValue, 1) {
			displayValues = append(displayValues, float64(r.DRDisplay))
		}
	}

	official := math.MaxInt32
	if len(displayValues) > 0 {
		official = int(math.Floor(stat.Mean(displayValues, nil) + 0.5))
	}

	return Result{
		PerChannel: perChannel,
		OfficialDR: official,
		SampleRate: sampleRate,
		BitDepth:   bitDepth,
	}
}
