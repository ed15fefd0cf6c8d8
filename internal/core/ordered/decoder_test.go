package ordered_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/farcloser/drmeter/internal/core/ordered"
)

func TestDecoderPreservesOrderDespiteJitter(t *testing.T) {
	items := make([]int, 200)
	for i := range items {
		items[i] = i
	}

	rng := rand.New(rand.NewSource(2))

	decode := func(_ context.Context, item int) (int, error) {
		time.Sleep(time.Duration(rng.Intn(500)) * time.Microsecond)

		return item * item, nil
	}

	decoder := ordered.NewDecoder[int, int](8, 16)
	out := decoder.Run(context.Background(), items, decode)

	for expectedSeq := range items {
		tagged, ok := out.RecvOrdered()
		if !ok {
			t.Fatalf("channel closed early at seq %d", expectedSeq)
		}

		if tagged.Err != nil {
			t.Fatalf("unexpected decode error: %v", tagged.Err)
		}

		if tagged.Value != expectedSeq*expectedSeq {
			t.Fatalf("seq %d: expected %d, got %d", expectedSeq, expectedSeq*expectedSeq, tagged.Value)
		}
	}

	if _, ok := out.RecvOrdered(); ok {
		t.Fatalf("expected channel exhausted after all items consumed")
	}
}

func TestDecoderCarriesPerItemErrors(t *testing.T) {
	items := []int{0, 1, 2, 3}

	decode := func(_ context.Context, item int) (int, error) {
		if item == 2 {
			return 0, errDecodeFailure
		}

		return item, nil
	}

	decoder := ordered.NewDecoder[int, int](2, 4)
	out := decoder.Run(context.Background(), items, decode)

	for seq := range items {
		tagged, ok := out.RecvOrdered()
		if !ok {
			t.Fatalf("channel closed early at seq %d", seq)
		}

		if seq == 2 {
			if tagged.Err == nil {
				t.Fatalf("expected decode error at seq 2")
			}

			continue
		}

		if tagged.Err != nil {
			t.Fatalf("unexpected error at seq %d: %v", seq, tagged.Err)
		}
	}
}

var errDecodeFailure = errDecodeFailureType{}

type errDecodeFailureType struct{}

func (errDecodeFailureType) Error() string { return "decode failure" }
