// Package drmeter implements the foobar2000-compatible Dynamic Range Meter
// algorithm: a streaming, multi-channel analyzer that reports each
// channel's dynamic range, peak and loudest-20%-RMS from raw PCM or an
// already-decoded interleaved f32 stream.
package drmeter

import "github.com/farcloser/drmeter/internal/core/convert"

// BitDepth re-exports the core converter's bit depth enum so callers never
// need to import an internal package directly.
type BitDepth = convert.BitDepth

const (
	BitDepth16 = convert.BitDepth16
	BitDepth24 = convert.BitDepth24
	BitDepth32 = convert.BitDepth32
)

// PCMFormat describes the raw stream AnalyzeRaw consumes.
type PCMFormat = convert.PCMFormat

// Options configures a DR measurement run.
type Options struct {
	// Channels must be 1 (mono) or 2 (stereo); multi-channel streams need
	// an upstream downmix or LFE-exclusion step before reaching this
	// package.
	Channels int

	// WindowSeconds is the measurement window duration; foobar2000 uses
	// 3.0 and implementers should not deviate without a specific reason.
	WindowSeconds float64

	// SumDoubling applies the +6.02 dB RMS offset some foobar2000 builds
	// use for stereo material. Off by default; must be requested
	// explicitly, never inferred from format or source.
	SumDoubling bool

	// DecodeWorkers bounds how many goroutines AnalyzeRaw uses to decode
	// raw PCM chunks concurrently; decoded chunks are still fed into the
	// engine strictly in stream order. 0 or 1 decodes sequentially on the
	// calling goroutine.
	DecodeWorkers int
}

// DefaultOptions returns the foobar2000-standard configuration for the
// given channel count: a 3-second window, sum doubling disabled.
func DefaultOptions(channels int) Options {
	return Options{
		Channels:      channels,
		WindowSeconds: 3.0,
		SumDoubling:   false,
	}
}
