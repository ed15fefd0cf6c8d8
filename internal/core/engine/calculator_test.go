package engine_test

import (
	"errors"
	"math"
	"testing"

	"github.com/farcloser/drmeter/internal/core/engine"
)

func TestRejectsUnsupportedChannelCount(t *testing.T) {
	_, err := engine.New(3, false, 44100, 3.0)
	if !errors.Is(err, engine.ErrUnsupportedChannelCount) {
		t.Fatalf("expected ErrUnsupportedChannelCount, got %v", err)
	}
}

func TestCalculateFromSamplesRejectsEmpty(t *testing.T) {
	_, err := engine.CalculateFromSamples(2, false, 44100, 3.0, nil)
	if !errors.Is(err, engine.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestSilence(t *testing.T) {
	samples := make([]float32, 44100*10*2)

	results, err := engine.CalculateFromSamples(2, false, 44100, 3.0, samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, r := range results {
		if r.Peak != 0 || r.RMS != 0 {
			t.Fatalf("expected silent channel to have zero peak/rms, got %+v", r)
		}

		if !math.IsInf(r.DRValue, 1) {
			t.Fatalf("expected +Inf DR for silence, got %v", r.DRValue)
		}
	}
}

func TestPureToneMono(t *testing.T) {
	const sampleRate = 44100

	samples := make([]float32, sampleRate*10)

	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/sampleRate))
	}

	results, err := engine.CalculateFromSamples(1, false, sampleRate, 3.0, samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 channel result, got %d", len(results))
	}

	if results[0].DRDisplay != 3 {
		t.Fatalf("expected displayed DR 3, got %d", results[0].DRDisplay)
	}
}

func TestHalfWindowRuleDiscardsShortResidual(t *testing.T) {
	const sampleRate = 100

	calc, err := engine.New(1, false, sampleRate, 1.0) // windowSamples = 100
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Feed exactly one full window, then fewer than windowSamples/2 more.
	full := make([]float32, 100)
	for i := range full {
		full[i] = 0.5
	}

	if err := calc.ProcessDecoderChunk(full); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	residual := make([]float32, 10)
	for i := range residual {
		residual[i] = 0.9
	}

	if err := calc.ProcessDecoderChunk(residual); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := calc.Finalize()
	if results[0].Peak != 0.5 {
		t.Fatalf("expected short residual window to be discarded, got peak %v", results[0].Peak)
	}
}

func TestHalfWindowRuleKeepsLongResidual(t *testing.T) {
	const sampleRate = 100

	calc, err := engine.New(1, false, sampleRate, 1.0) // windowSamples = 100
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	residual := make([]float32, 60)
	for i := range residual {
		residual[i] = 0.9
	}

	if err := calc.ProcessDecoderChunk(residual); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := calc.Finalize()
	if results[0].Peak != float64(float32(0.9)) {
		t.Fatalf("expected residual >= half window to be kept, got peak %v", results[0].Peak)
	}
}

func TestSumDoubling(t *testing.T) {
	const sampleRate = 100

	samplesPlain := make([]float32, 300)
	samplesDoubled := make([]float32, 300)

	for i := range samplesPlain {
		samplesPlain[i] = 0.5
		samplesDoubled[i] = 0.5
	}

	plain, err := engine.CalculateFromSamples(1, false, sampleRate, 1.0, samplesPlain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doubled, err := engine.CalculateFromSamples(1, true, sampleRate, 1.0, samplesDoubled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := doubled[0].RMS - 2*plain[0].RMS; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected sum_doubling to double rms_top20, plain=%v doubled=%v", plain[0].RMS, doubled[0].RMS)
	}
}

func TestPeakSourceSilentChannelIsFallback(t *testing.T) {
	samples := make([]float32, 44100*10)

	results, err := engine.CalculateFromSamples(1, false, 44100, 3.0, samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if results[0].PeakSource != 2 {
		t.Fatalf("expected fallback peak source 2 for silence, got %d", results[0].PeakSource)
	}
}

func TestPeakSourcePrefersSecondaryAcrossWindows(t *testing.T) {
	const sampleRate = 100

	calc, err := engine.New(1, false, sampleRate, 1.0) // windowSamples = 100
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Three windows: two share the same moderate peak, one spikes once.
	// dualPeakAcrossWindows should prefer the runner-up window peak.
	moderate := make([]float32, 100)
	for i := range moderate {
		moderate[i] = 0.4
	}

	spike := make([]float32, 100)
	for i := range spike {
		spike[i] = 0.4
	}
	spike[0] = 0.95

	for _, window := range [][]float32{moderate, spike, moderate} {
		if err := calc.ProcessDecoderChunk(window); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	results := calc.Finalize()
	if results[0].PeakSource != 1 {
		t.Fatalf("expected secondary peak source 1, got %d", results[0].PeakSource)
	}
}

func TestChannelMismatch(t *testing.T) {
	calc, err := engine.New(2, false, 44100, 3.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = calc.ProcessDecoderChunk([]float32{0.1, 0.2, 0.3})
	if !errors.Is(err, engine.ErrChannelMismatch) {
		t.Fatalf("expected ErrChannelMismatch, got %v", err)
	}
}
