package drmeter_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	drmeter "github.com/farcloser/drmeter"
)

func TestAnalyzeSamplesPureTone(t *testing.T) {
	const sampleRate = 44100

	samples := make([]float32, sampleRate*10)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/sampleRate))
	}

	result, err := drmeter.AnalyzeSamples(sampleRate, drmeter.DefaultOptions(1), samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PerChannel[0].DR != 3 {
		t.Fatalf("expected displayed DR 3, got %d", result.PerChannel[0].DR)
	}
}

func TestAnalyzeRawI16(t *testing.T) {
	const sampleRate = 1000

	var buf bytes.Buffer

	for i := range 5000 {
		v := int16(0.5 * 32767 * math.Sin(2*math.Pi*100*float64(i)/sampleRate))

		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	raw := buf.Bytes()

	factory := func() (io.Reader, error) {
		return bytes.NewReader(raw), nil
	}

	format := drmeter.PCMFormat{SampleRate: sampleRate, BitDepth: drmeter.BitDepth16, Channels: 1}

	result, err := drmeter.AnalyzeRaw(factory, format, drmeter.DefaultOptions(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PartialAnalysis {
		t.Fatalf("expected clean analysis, got %d skipped packets", result.SkippedPackets)
	}

	if len(result.PerChannel) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(result.PerChannel))
	}
}

func TestAnalyzeRawParallelMatchesSequential(t *testing.T) {
	const sampleRate = 1000

	var buf bytes.Buffer

	for i := range 200000 {
		v := int16(0.5 * 32767 * math.Sin(2*math.Pi*100*float64(i)/sampleRate))

		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	raw := buf.Bytes()
	format := drmeter.PCMFormat{SampleRate: sampleRate, BitDepth: drmeter.BitDepth16, Channels: 1}

	sequentialOpts := drmeter.DefaultOptions(1)

	sequential, err := drmeter.AnalyzeRaw(func() (io.Reader, error) { return bytes.NewReader(raw), nil }, format, sequentialOpts)
	if err != nil {
		t.Fatalf("unexpected sequential error: %v", err)
	}

	parallelOpts := drmeter.DefaultOptions(1)
	parallelOpts.DecodeWorkers = 4

	parallel, err := drmeter.AnalyzeRaw(func() (io.Reader, error) { return bytes.NewReader(raw), nil }, format, parallelOpts)
	if err != nil {
		t.Fatalf("unexpected parallel error: %v", err)
	}

	if parallel.PerChannel[0].DR != sequential.PerChannel[0].DR {
		t.Fatalf("expected matching DR, sequential=%d parallel=%d", sequential.PerChannel[0].DR, parallel.PerChannel[0].DR)
	}

	if parallel.PerChannel[0].Peak != sequential.PerChannel[0].Peak {
		t.Fatalf("expected matching peak, sequential=%v parallel=%v", sequential.PerChannel[0].Peak, parallel.PerChannel[0].Peak)
	}

	if parallel.PartialAnalysis || sequential.PartialAnalysis {
		t.Fatal("expected a clean, exactly-aligned buffer to report no skipped packets")
	}
}

func TestAnalyzeRawReportsPartialAnalysisOnTruncatedTail(t *testing.T) {
	const sampleRate = 1000

	var buf bytes.Buffer

	for i := range 5000 {
		v := int16(0.5 * 32767 * math.Sin(2*math.Pi*100*float64(i)/sampleRate))

		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Append a dangling byte: one short of a whole 16-bit sample, simulating
	// a file truncated mid-frame.
	raw := append(buf.Bytes(), 0x7f)

	factory := func() (io.Reader, error) {
		return bytes.NewReader(raw), nil
	}

	format := drmeter.PCMFormat{SampleRate: sampleRate, BitDepth: drmeter.BitDepth16, Channels: 1}

	result, err := drmeter.AnalyzeRaw(factory, format, drmeter.DefaultOptions(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.PartialAnalysis {
		t.Fatal("expected a truncated trailing frame to mark the result as partial")
	}

	if result.SkippedPackets != 1 {
		t.Fatalf("expected exactly 1 skipped packet, got %d", result.SkippedPackets)
	}

	if len(result.PerChannel) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(result.PerChannel))
	}
}
