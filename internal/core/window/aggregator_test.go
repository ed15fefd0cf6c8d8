package window_test

import (
	"math"
	"testing"

	"github.com/farcloser/drmeter/internal/core/window"
)

func TestPureTone(t *testing.T) {
	var a window.Aggregator

	rms := 0.5 / math.Sqrt2
	for range 10 {
		a.Add(window.Sample{RMS: rms, Peak: 0.5})
	}

	result := a.Finalize()

	if diff := result.DRValue - 3.01; diff > 0.01 || diff < -0.01 {
		t.Fatalf("expected DR ~3.01dB, got %v", result.DRValue)
	}

	if window.DisplayDR(result.DRValue) != 3 {
		t.Fatalf("expected displayed DR 3, got %d", window.DisplayDR(result.DRValue))
	}
}

func TestTop20Percent(t *testing.T) {
	var a window.Aggregator

	values := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.9, 0.9}
	for _, v := range values {
		a.Add(window.Sample{RMS: v, Peak: 1.0})
	}

	result := a.Finalize()

	if diff := result.RMSTop20 - 0.9; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected rms_top20 0.9, got %v", result.RMSTop20)
	}

	if diff := result.DRValue - 0.915; diff > 0.01 || diff < -0.01 {
		t.Fatalf("expected DR ~0.915dB, got %v", result.DRValue)
	}

	if window.DisplayDR(result.DRValue) != 1 {
		t.Fatalf("expected displayed DR 1, got %d", window.DisplayDR(result.DRValue))
	}
}

func TestSilenceIsInfinite(t *testing.T) {
	var a window.Aggregator

	a.Add(window.Sample{RMS: 0, Peak: 0})

	result := a.Finalize()
	if !math.IsInf(result.DRValue, 1) {
		t.Fatalf("expected +Inf DR for silence, got %v", result.DRValue)
	}
}

func TestDualPeakAcrossWindows(t *testing.T) {
	var a window.Aggregator

	a.Add(window.Sample{RMS: 0.1, Peak: 0.9})
	a.Add(window.Sample{RMS: 0.1, Peak: 1.0})
	a.Add(window.Sample{RMS: 0.1, Peak: 0.2})

	result := a.Finalize()
	if result.Peak != 0.9 {
		t.Fatalf("expected reported peak to prefer runner-up 0.9, got %v", result.Peak)
	}
}
