// Package testutils provides test infrastructure for drmeter integration tests.
package testutils

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"runtime"

	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/agar/pkg/agar"
)

// Setup creates a test case configured to run the drmeter binary.
func Setup() *test.Case {
	_, thisFile, _, _ := runtime.Caller(0) //nolint:dogsled // runtime.Caller returns 4 values, only file is needed
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	binaryPath := filepath.Join(projectRoot, "bin", "drmeter")

	return agar.Setup(binaryPath)
}

// WriteWAV16 encodes mono or interleaved multi-channel 16-bit PCM samples
// (each in [-1, 1]) into a minimal canonical WAV container. It exists
// because none of the example pack's dependencies target WAV encoding;
// the format is simple enough that the standard library carries it.
func WriteWAV16(sampleRate uint32, channels uint16, samples []float32) []byte {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		pcm[i] = int16(math.Round(float64(s) * 32767))
	}

	dataSize := len(pcm) * 2
	byteRate := sampleRate * uint32(channels) * 2
	blockAlign := channels * 2

	var buf bytes.Buffer

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize)) //nolint:gosec // fixture size is bounded
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, channels)
	_ = binary.Write(&buf, binary.LittleEndian, sampleRate)
	_ = binary.Write(&buf, binary.LittleEndian, byteRate)
	_ = binary.Write(&buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataSize)) //nolint:gosec // fixture size is bounded
	_ = binary.Write(&buf, binary.LittleEndian, pcm)

	return buf.Bytes()
}

// Silence returns n interleaved frames of digital silence across channels.
func Silence(channels int, frames int) []float32 {
	return make([]float32, channels*frames)
}

// PureTone generates n frames of a sine wave at the given frequency and
// peak amplitude, replicated identically across every channel.
func PureTone(sampleRate uint32, channels int, frames int, freqHz, amplitude float64) []float32 {
	out := make([]float32, frames*channels)

	for i := 0; i < frames; i++ {
		v := float32(amplitude * math.Sin(2*math.Pi*freqHz*float64(i)/float64(sampleRate)))
		for c := 0; c < channels; c++ {
			out[i*channels+c] = v
		}
	}

	return out
}

// DualPeakSequence returns mono samples containing exactly two distinct
// non-zero peak magnitudes at the given positions, used to exercise the
// dual-peak tracking (primary/secondary) behavior directly.
func DualPeakSequence(frames int, largePos, smallPos int, largeAmp, smallAmp float64) []float32 {
	out := make([]float32, frames)
	out[largePos] = float32(largeAmp)
	out[smallPos] = float32(smallAmp)

	return out
}

// MixedLoudnessWindows builds mono samples made of loudWindows loud
// windowSeconds-long segments followed by quietWindows quiet ones, used to
// exercise top-20%-loudest window selection deterministically.
func MixedLoudnessWindows(sampleRate uint32, windowSeconds float64, loudWindows, quietWindows int, loudAmp, quietAmp float64) []float32 {
	windowFrames := int(math.Round(float64(sampleRate) * windowSeconds))
	out := make([]float32, 0, windowFrames*(loudWindows+quietWindows))

	for i := 0; i < loudWindows; i++ {
		out = append(out, PureTone(sampleRate, 1, windowFrames, 440, loudAmp)...)
	}

	for i := 0; i < quietWindows; i++ {
		out = append(out, PureTone(sampleRate, 1, windowFrames, 440, quietAmp)...)
	}

	return out
}
