// Package ffi holds the plugin C ABI's logic in plain Go, independent of
// cgo: session bookkeeping, the fixed-shape analysis result, and the
// one-shot report formatter. cmd/drmeter-plugin is the package main that
// imports this package, defines the C struct layout, and carries the
// //export comments — the idiomatic split between library logic
// (unit-testable without a C toolchain) and the buildable c-shared
// entrypoint. None of the example pack ships cgo, so there is no teacher
// file this is adapted from directly; documented in DESIGN.md as the one
// stdlib/toolchain-intrinsic exception to the "ground everything in the
// pack" rule.
package ffi

import (
	"fmt"
	"math"
	"runtime/cgo"
	"sync"

	"github.com/farcloser/drmeter/internal/core/engine"
)

// MaxReportedChannels bounds the per-channel arrays in AnalysisResult,
// matching the C ABI's fixed-size-8 channel arrays.
const MaxReportedChannels = 8

// Session wraps a Calculator with the mutex the C ABI's single-writer
// contract requires: the host plugin only ever calls one function per
// handle at a time, but a mutex costs nothing and removes that assumption
// as a source of undefined behavior if the host ever violates it.
type Session struct {
	mu           sync.Mutex
	calc         *engine.Calculator
	sampleRate   uint32
	channels     uint32
	totalSamples uint32
}

// NewSession constructs a Session, or returns (nil, false) on invalid
// parameters — channels outside {1, 2}.
func NewSession(channels, sampleRate uint32, sumDoubling bool) (*Session, bool) {
	calc, err := engine.New(int(channels), sumDoubling, sampleRate, 3.0)
	if err != nil {
		return nil, false
	}

	return &Session{calc: calc, sampleRate: sampleRate, channels: channels}, true
}

// Channels reports the channel count the session was constructed with.
func (s *Session) Channels() uint32 {
	return s.channels
}

// Feed processes one chunk of interleaved samples. Returns false on a
// channel-count mismatch.
func (s *Session) Feed(samples []float32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.calc.ProcessDecoderChunk(samples); err != nil {
		return false
	}

	if s.channels > 0 {
		s.totalSamples += uint32(len(samples)) / s.channels
	}

	return true
}

// Finalize reduces the session to an AnalysisResult.
func (s *Session) Finalize() AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	return buildResult(s.calc.Finalize(), s.sampleRate, s.channels, s.totalSamples)
}

// handles holds no entries: Register, Lookup and Release keep sessions in
// runtime/cgo.Handle's own table, addressed by the opaque uintptr the C ABI
// hands back to callers. runtime/cgo.Handle guarantees nonzero values, so 0
// doubles as the "invalid handle" / construction failure sentinel the C ABI
// documents.
var handles sync.Map //nolint:gochecknoglobals // process-wide session registry, mirrors a C ABI's opaque handle table

// Register stores sess and returns its opaque handle.
func Register(sess *Session) uintptr {
	h := cgo.NewHandle(sess)

	return uintptr(h)
}

// Lookup resolves a handle back to its Session. ok is false for a zero or
// unknown handle.
func Lookup(handle uintptr) (sess *Session, ok bool) {
	if handle == 0 {
		return nil, false
	}

	defer func() {
		if r := recover(); r != nil {
			sess, ok = nil, false
		}
	}()

	value := cgo.Handle(handle).Value()
	sess, ok = value.(*Session)

	return sess, ok
}

// Release deletes a handle. Safe to call on an already-released or
// invalid handle.
func Release(handle uintptr) {
	if handle == 0 {
		return
	}

	defer func() { recover() }() //nolint:errcheck // deleting an invalid handle panics; treat as a no-op

	cgo.Handle(handle).Delete()
}

// AnalysisResult mirrors the C ABI's DrAnalysisResult field-for-field, in
// plain Go types, so cmd/drmeter-plugin's cgo layer only has to copy
// fields across rather than re-derive any of this arithmetic.
type AnalysisResult struct {
	OfficialDR      float64
	PreciseDR       float64
	PeakDB          float64
	RMSDB           float64
	SampleRate      uint32
	Channels        uint32
	BitDepth        uint32
	DurationSeconds float64
	TotalSamples    uint32

	ChannelPeakDB     [MaxReportedChannels]float64
	ChannelRMSDB      [MaxReportedChannels]float64
	ChannelDRDB       [MaxReportedChannels]float64
	ChannelRMSTop20   [MaxReportedChannels]float64
	ChannelPeakSource [MaxReportedChannels]int32
}

// buildResult is the plain-Go equivalent of the C ABI's fillResult step:
// "overall" scalar fields are the arithmetic mean over channels present;
// unused channel slots beyond len(results) (and beyond
// MaxReportedChannels) are left zeroed. bits_per_sample is hard-coded to
// 32 regardless of input, the documented session-mode quirk. OfficialDR
// and PreciseDR are both the mean of the raw per-channel DRValue — the
// Rust reference sets precise_dr_value = official_dr_value, both derived
// from the same dr_value sum, and dr_db_per_channel holds the raw value
// rather than the rounded display DR; this mirrors that exactly rather
// than inventing a split the reference does not make.
func buildResult(results []engine.DrResult, sampleRate, channels, totalSamples uint32) AnalysisResult {
	var out AnalysisResult

	var sumDR, sumPeakDB, sumRMSDB float64

	n := len(results)
	if n > MaxReportedChannels {
		n = MaxReportedChannels
	}

	for i := 0; i < n; i++ {
		r := results[i]

		peakDB := linearToDB(r.Peak)
		rmsDB := linearToDB(r.RMS)
		rawDR := displayDRAsFloat(r)

		out.ChannelPeakDB[i] = peakDB
		out.ChannelRMSDB[i] = rmsDB
		out.ChannelDRDB[i] = rawDR
		out.ChannelRMSTop20[i] = r.RMS
		out.ChannelPeakSource[i] = int32(r.PeakSource) //nolint:gosec // r.PeakSource is always 0, 1, or 2

		sumDR += rawDR
		sumPeakDB += peakDB
		sumRMSDB += rmsDB
	}

	if n > 0 {
		out.OfficialDR = sumDR / float64(n)
		out.PreciseDR = out.OfficialDR
		out.PeakDB = sumPeakDB / float64(n)
		out.RMSDB = sumRMSDB / float64(n)
	}

	out.SampleRate = sampleRate
	out.Channels = channels
	out.BitDepth = 32
	out.TotalSamples = totalSamples

	if sampleRate > 0 {
		out.DurationSeconds = float64(totalSamples) / float64(sampleRate)
	}

	return out
}

// displayDRAsFloat renders a channel's raw DR value for the per-channel
// array and the "overall" mean, substituting 0 for the +Inf silence
// sentinel so a mean across mixed silent and non-silent channels stays a
// well-defined number rather than +Inf.
func displayDRAsFloat(r engine.DrResult) float64 {
	if math.IsInf(r.DRValue, 1) {
		return 0
	}

	return r.DRValue
}

func linearToDB(linear float64) float64 {
	if linear <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// One-shot mode return codes, named for the C ABI's documented contract
// rather than a Go error taxonomy.
const (
	CodeOK                  = 0
	CodeBadArgs             = -1
	CodeConstructionFailure = -2
	CodeCalculationFailure  = -3
	CodeUnsupportedChannels = -5
)

// FormatOneShot runs the one-shot calculation (construct, feed once,
// finalize) and renders a human-readable report string, along with the
// C ABI return code the caller should surface. It performs no I/O and no
// cgo of its own; cmd/drmeter-plugin copies the returned string into the
// caller's fixed buffer with truncation and null-termination.
func FormatOneShot(samples []float32, channels, sampleRate uint32) (string, int32) {
	if len(samples) == 0 {
		return "", CodeBadArgs
	}

	if channels != 1 && channels != 2 {
		return "", CodeUnsupportedChannels
	}

	results, err := engine.CalculateFromSamples(int(channels), false, sampleRate, 3.0, samples)
	if err != nil {
		return "", CodeConstructionFailure
	}

	if len(results) == 0 {
		return "", CodeCalculationFailure
	}

	return formatReport(results), CodeOK
}

func formatReport(results []engine.DrResult) string {
	report := ""

	for _, r := range results {
		dr := "-1.#J"
		if !math.IsInf(r.DRValue, 1) {
			dr = fmt.Sprintf("%d", r.DRDisplay)
		}

		report += fmt.Sprintf("Channel %d: DR%s, peak %.2f dB, rms %.2f dB\n",
			r.Channel, dr, linearToDB(r.Peak), linearToDB(r.RMS))
	}

	return report
}
