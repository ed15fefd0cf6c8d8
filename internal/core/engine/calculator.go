// Package engine implements DrCalculator, the component that slices an
// interleaved f32 stream into fixed-duration windows, feeds each channel's
// accumulator, and drives the window aggregator to produce a final
// per-channel DR result.
package engine

import (
	"fmt"
	"math"

	"github.com/farcloser/drmeter/internal/core/channel"
	"github.com/farcloser/drmeter/internal/core/window"
)

// DrResult is the final per-channel outcome of a measurement run.
type DrResult struct {
	Channel   uint32
	DRValue   float64 // raw, unrounded DR in dB; +Inf for silence
	DRDisplay int     // floor(DRValue + 0.5); math.MaxInt32 sentinel for +Inf
	Peak      float64
	RMS       float64
	// PeakSource is 0 (primary), 1 (secondary), or 2 (fallback/silence); see
	// window.Result.PeakSource.
	PeakSource int
}

// Calculator is DrCalculator: the coordinator that owns one channel.Data per
// channel and one window.Aggregator per channel, and slices the interleaved
// stream into fixed windows as chunks arrive.
//
// A Calculator is not safe for concurrent use; OrderedParallelDecoder exists
// precisely so that concurrent decoding can still feed a single Calculator
// from one goroutine, in strict sequence order.
type Calculator struct {
	channels      int
	sumDoubling   bool
	windowSamples int

	accumulators []channel.Data
	aggregators  []window.Aggregator

	samplesInWindow int
}

// New constructs a Calculator. windowSeconds should normally be 3.0; it is
// exposed for testing shorter windows without waiting on real-time audio.
func New(channels int, sumDoubling bool, sampleRate uint32, windowSeconds float64) (*Calculator, error) {
	if channels != 1 && channels != 2 {
		return nil, ErrUnsupportedChannelCount
	}

	windowSamples := int(math.Round(float64(sampleRate) * windowSeconds))
	if windowSamples < 1 {
		windowSamples = 1
	}

	return &Calculator{
		channels:      channels,
		sumDoubling:   sumDoubling,
		windowSamples: windowSamples,
		accumulators:  make([]channel.Data, channels),
		aggregators:   make([]window.Aggregator, channels),
	}, nil
}

// ProcessDecoderChunk is the streaming entry point. samples is an
// interleaved f32 buffer; its length must be a multiple of the channel
// count. Any chunk size is accepted, including chunks that span multiple
// window boundaries or less than one window.
func (c *Calculator) ProcessDecoderChunk(samples []float32) error {
	if len(samples)%c.channels != 0 {
		return ErrChannelMismatch
	}

	frames := len(samples) / c.channels

	for f := range frames {
		base := f * c.channels
		for ch := range c.channels {
			c.accumulators[ch].Feed(samples[base+ch])
		}

		c.samplesInWindow++

		if c.samplesInWindow == c.windowSamples {
			c.commitWindow(c.windowSamples)
			c.samplesInWindow = 0
		}
	}

	return nil
}

// commitWindow records the current accumulator state as a completed window
// observation for every channel, then resets the accumulators.
func (c *Calculator) commitWindow(sampleCount int) {
	for ch := range c.channels {
		rms := c.accumulators[ch].RMS(sampleCount)
		if c.sumDoubling {
			rms *= 2
		}

		c.aggregators[ch].Add(window.Sample{
			RMS:  rms,
			Peak: c.accumulators[ch].EffectivePeak(),
		})

		c.accumulators[ch].Reset()
	}
}

// Finalize flushes any in-progress window that holds at least half a
// window's worth of samples, then reduces every channel's aggregator to a
// DrResult ordered by channel index.
//
// The half-window rule is the DR Meter's own: a residual window shorter
// than windowSamples/2 is too short to be representative and is discarded
// rather than biasing the top-20% selection with an outlier-short block.
func (c *Calculator) Finalize() []DrResult {
	if c.samplesInWindow >= c.windowSamples/2 {
		c.commitWindow(c.samplesInWindow)
	}

	c.samplesInWindow = 0

	results := make([]DrResult, c.channels)
	for ch := range c.channels {
		if c.aggregators[ch].Len() == 0 {
			results[ch] = DrResult{Channel: uint32(ch), DRValue: math.Inf(1), DRDisplay: math.MaxInt32, PeakSource: 2}

			continue
		}

		reduced := c.aggregators[ch].Finalize()
		results[ch] = DrResult{
			Channel:    uint32(ch),
			DRValue:    reduced.DRValue,
			DRDisplay:  window.DisplayDR(reduced.DRValue),
			Peak:       reduced.Peak,
			RMS:        reduced.RMSTop20,
			PeakSource: reduced.PeakSource,
		}
	}

	return results
}

// CalculateFromSamples is the convenience wrapper: ProcessDecoderChunk once,
// then Finalize. It fails on empty input.
func CalculateFromSamples(channels int, sumDoubling bool, sampleRate uint32, windowSeconds float64, samples []float32) ([]DrResult, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyInput
	}

	calc, err := New(channels, sumDoubling, sampleRate, windowSeconds)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	if err := calc.ProcessDecoderChunk(samples); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	return calc.Finalize(), nil
}
