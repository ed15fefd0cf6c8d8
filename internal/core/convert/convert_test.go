package convert_test

import (
	"errors"
	"testing"

	"github.com/farcloser/drmeter/internal/core/convert"
	"github.com/farcloser/drmeter/internal/core/drerr"
)

func TestI16(t *testing.T) {
	out := convert.I16([]int16{0, 16384, -32768, 32767}, nil)

	want := []float32{0, 0.5, -1.0, float32(32767.0 / 32768.0)}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("index %d: got %v want %v", i, out[i], want[i])
		}
	}
}

func TestI24SignExtendsFullScaleNegative(t *testing.T) {
	// -1.0 full scale as little-endian 24-bit: 0x800000
	raw := []byte{0x00, 0x00, 0x80}

	out, err := convert.I24(raw, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out[0] != -1.0 {
		t.Fatalf("expected -1.0, got %v", out[0])
	}
}

func TestI24RejectsMisalignedInput(t *testing.T) {
	_, err := convert.I24([]byte{0x00, 0x00}, nil)
	if !errors.Is(err, drerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestF64Unsupported(t *testing.T) {
	_, err := convert.F64(nil, nil)
	if !errors.Is(err, drerr.ErrFormatError) {
		t.Fatalf("expected ErrFormatError, got %v", err)
	}
}

func TestF32Passthrough(t *testing.T) {
	in := []float32{0.1, -0.2, 0.9}

	out := convert.F32(in, nil)
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("index %d: got %v want %v", i, out[i], in[i])
		}
	}
}
