// Command drmeter-plugin is the cgo c-shared build target for the plugin
// C ABI: `go build -buildmode=c-shared -o drmeter.so ./cmd/drmeter-plugin`.
// It carries the //export comments and the fixed C struct layout; all
// actual logic lives in internal/ffi, in plain Go, so it stays
// unit-testable without a C toolchain.
package main

/*
#include <stdint.h>

typedef struct {
	double   official_dr;
	double   precise_dr;
	double   peak_db;
	double   rms_db;
	uint32_t channel;
	uint32_t sample_rate;
	uint32_t channels;
	uint32_t bit_depth;
	double   duration_seconds;
	char     file_name[256];
	char     codec[32];
	double   channel_peak_db[8];
	double   channel_rms_db[8];
	double   channel_dr_db[8];
	double   channel_rms_top20[8];
	int32_t  channel_peak_source[8];
	uint32_t total_samples;
} DrAnalysisResult;
*/
import "C"

import (
	"unsafe"

	"github.com/farcloser/drmeter/internal/ffi"
)

func main() {}

//export dr_session_new
func dr_session_new(channels C.uint32_t, sampleRate C.uint32_t, enableSumDoubling C.int32_t) C.uintptr_t {
	sess, ok := ffi.NewSession(uint32(channels), uint32(sampleRate), enableSumDoubling != 0)
	if !ok {
		return 0
	}

	return C.uintptr_t(ffi.Register(sess))
}

//export dr_session_feed_interleaved
func dr_session_feed_interleaved(handle C.uintptr_t, samples *C.float, frameCount C.uint32_t) C.int32_t {
	sess, ok := ffi.Lookup(uintptr(handle))
	if !ok || samples == nil || frameCount == 0 {
		return -1
	}

	length := int(frameCount) * int(sess.Channels())
	buf := unsafe.Slice((*float32)(unsafe.Pointer(samples)), length)

	if !sess.Feed(buf) {
		return -1
	}

	return 0
}

//export dr_session_finalize
func dr_session_finalize(handle C.uintptr_t, out *C.DrAnalysisResult) C.int32_t {
	sess, ok := ffi.Lookup(uintptr(handle))
	if !ok || out == nil {
		return -1
	}

	result := sess.Finalize()
	copyResult(out, &result)

	return 0
}

//export dr_session_free
func dr_session_free(handle C.uintptr_t) {
	ffi.Release(uintptr(handle))
}

//export rust_format_dr_analysis
func rust_format_dr_analysis(
	samples *C.float,
	sampleCount C.uint32_t,
	channels C.uint32_t,
	sampleRate C.uint32_t,
	bitsPerSample C.uint32_t,
	outBuf *C.char,
	bufSize C.uint32_t,
) C.int32_t {
	_ = bitsPerSample

	if samples == nil || sampleCount == 0 || outBuf == nil || bufSize == 0 {
		return ffi.CodeBadArgs
	}

	buf := unsafe.Slice((*float32)(unsafe.Pointer(samples)), int(sampleCount))

	report, code := ffi.FormatOneShot(buf, uint32(channels), uint32(sampleRate))
	if code != ffi.CodeOK {
		return C.int32_t(code)
	}

	writeTruncatedCString(outBuf, bufSize, report)

	return ffi.CodeOK
}

func copyResult(out *C.DrAnalysisResult, r *ffi.AnalysisResult) {
	*out = C.DrAnalysisResult{}

	out.official_dr = C.double(r.OfficialDR)
	out.precise_dr = C.double(r.PreciseDR)
	out.peak_db = C.double(r.PeakDB)
	out.rms_db = C.double(r.RMSDB)
	out.sample_rate = C.uint32_t(r.SampleRate)
	out.channels = C.uint32_t(r.Channels)
	out.bit_depth = C.uint32_t(r.BitDepth)
	out.duration_seconds = C.double(r.DurationSeconds)
	out.total_samples = C.uint32_t(r.TotalSamples)

	for i := 0; i < ffi.MaxReportedChannels; i++ {
		out.channel_peak_db[i] = C.double(r.ChannelPeakDB[i])
		out.channel_rms_db[i] = C.double(r.ChannelRMSDB[i])
		out.channel_dr_db[i] = C.double(r.ChannelDRDB[i])
		out.channel_rms_top20[i] = C.double(r.ChannelRMSTop20[i])
		out.channel_peak_source[i] = C.int32_t(r.ChannelPeakSource[i])
	}
}

// writeTruncatedCString copies s into buf (capacity size), truncating if
// necessary, and always null-terminates within bounds.
func writeTruncatedCString(buf *C.char, size C.uint32_t, s string) {
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(size))

	n := copy(dst, s)
	if n >= int(size) {
		n = int(size) - 1
	}

	dst[n] = 0
}
