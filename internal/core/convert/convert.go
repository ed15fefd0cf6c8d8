// Package convert normalizes interleaved codec-native PCM samples to f32 in
// the interval [-1, 1], preserving channel interleaving.
package convert

import (
	"encoding/binary"
	"fmt"

	"github.com/farcloser/drmeter/internal/core/convert/internal/scale"
	"github.com/farcloser/drmeter/internal/core/drerr"
	"github.com/farcloser/drmeter/internal/cpufeature"
	"github.com/farcloser/drmeter/internal/simd"
)

// BitDepth identifies the source sample width. Only the integer widths
// foobar2000's own meter accepts are supported for conversion; 8-bit and
// 64-bit float sources fail with ErrUnsupportedBitDepth, matching the
// original tool.
type BitDepth uint

const (
	BitDepth16 BitDepth = 16
	BitDepth24 BitDepth = 24
	BitDepth32 BitDepth = 32
)

// Scale factors per bit depth, matching foobar2000's own normalization.
const (
	MaxValue16 = scale.MaxValue16
	MaxValue24 = scale.MaxValue24
	MaxValue32 = scale.MaxValue32
)

// PCMFormat describes the interleaved stream a SampleConverter or decoder
// front-end operates on.
type PCMFormat struct {
	SampleRate uint32
	BitDepth   BitDepth
	Channels   uint16
}

// ErrUnsupportedBitDepth is returned for float64 and 8-bit sources, which the
// source tool also refuses to convert.
var ErrUnsupportedBitDepth = fmt.Errorf("%w: unsupported bit depth", drerr.ErrFormatError)

// I16 converts signed 16-bit samples to f32, dividing by 32768.
func I16(input []int16, out []float32) []float32 {
	out = ensureLen(out, len(input))

	kernel := simd.SelectI16()
	kernel(input, out)

	return out
}

// I24 converts little-endian packed 24-bit words (3 bytes per sample,
// sign-extended) to f32, dividing by 8388608.
func I24(input []byte, out []float32) ([]float32, error) {
	if len(input)%3 != 0 {
		return nil, fmt.Errorf("%w: 24-bit input length %d not a multiple of 3", drerr.ErrInvalidInput, len(input))
	}

	count := len(input) / 3
	out = ensureLen(out, count)

	for i := range count {
		base := i * 3
		raw := int32(input[base]) | int32(input[base+1])<<8 | int32(input[base+2])<<16

		if raw&0x800000 != 0 {
			raw |= ^0xFFFFFF
		}

		out[i] = float32(float64(raw) / MaxValue24)
	}

	return out, nil
}

// I32 converts signed 32-bit samples to f32, dividing by 2147483648.
func I32(input []int32, out []float32) []float32 {
	out = ensureLen(out, len(input))

	kernel := simd.SelectI32()
	kernel(input, out)

	return out
}

// F32 copies a float32 buffer unchanged; it is a pass-through so callers can
// treat all supported source formats uniformly.
func F32(input []float32, out []float32) []float32 {
	out = ensureLen(out, len(input))
	copy(out, input)

	return out
}

// F64 and U8 sources are not supported; both fail with ErrUnsupportedBitDepth.
func F64(_ []float64, _ []float32) ([]float32, error) {
	return nil, ErrUnsupportedBitDepth
}

func U8(_ []uint8, _ []float32) ([]float32, error) {
	return nil, ErrUnsupportedBitDepth
}

// DecodeInterleavedBytes decodes a raw little-endian byte buffer at the given
// bit depth into an interleaved f32 buffer. It is the entry point used by
// callers handling raw container bytes (e.g. the CLI's analyze subcommand)
// rather than already-typed sample slices.
func DecodeInterleavedBytes(raw []byte, depth BitDepth, out []float32) ([]float32, error) {
	switch depth {
	case BitDepth16:
		if len(raw)%2 != 0 {
			return nil, fmt.Errorf("%w: 16-bit input length %d not a multiple of 2", drerr.ErrInvalidInput, len(raw))
		}

		samples := make([]int16, len(raw)/2)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
		}

		return I16(samples, out), nil
	case BitDepth24:
		return I24(raw, out)
	case BitDepth32:
		if len(raw)%4 != 0 {
			return nil, fmt.Errorf("%w: 32-bit input length %d not a multiple of 4", drerr.ErrInvalidInput, len(raw))
		}

		samples := make([]int32, len(raw)/4)
		for i := range samples {
			samples[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
		}

		return I32(samples, out), nil
	default:
		return nil, ErrUnsupportedBitDepth
	}
}

func ensureLen(out []float32, n int) []float32 {
	if cap(out) >= n {
		return out[:n]
	}

	return make([]float32, n)
}

// init pins the SIMD capability probe at process startup, mirroring the
// source's lazy, read-only-after-init feature detection.
var _ = cpufeature.Capabilities()
