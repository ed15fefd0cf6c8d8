package ordered

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// WorkerState is a decode worker's lifecycle stage.
type WorkerState int32

const (
	StateDecoding WorkerState = iota
	StateFlushing
	StateCompleted
)

// DecodeFunc decodes one input item (a container/codec packet) into a
// decoded payload, or fails.
type DecodeFunc[In, Out any] func(ctx context.Context, item In) (Out, error)

// Decoder runs DecodeFunc over a slice of input items on a bounded worker
// pool, delivering results to a SequencedChannel in strict input order
// regardless of the order workers finish in.
//
// The worker-pool shape (bounded concurrency, pre-known item count, results
// reassembled by index) follows the batch report runner's pattern; the
// reassembly mechanism itself (reorder buffer keyed by sequence number,
// with mandatory removal on consumption) is SequencedChannel, not a queue
// of futures, since the DR engine consumes results one at a time as a
// blocking stream rather than waiting on the whole batch.
type Decoder[In, Out any] struct {
	workers    int
	queueDepth int

	states []atomic.Int32
}

// NewDecoder creates a Decoder with the given worker pool size and
// sequenced-channel queue depth.
func NewDecoder[In, Out any](workers, queueDepth int) *Decoder[In, Out] {
	if workers < 1 {
		workers = 1
	}

	if queueDepth < 1 {
		queueDepth = workers
	}

	return &Decoder[In, Out]{workers: workers, queueDepth: queueDepth}
}

// State reports the lifecycle stage of worker index i. Valid after Run has
// been called; i must be less than the item count Run was given.
func (d *Decoder[In, Out]) State(i int) WorkerState {
	if i >= len(d.states) {
		return StateCompleted
	}

	return WorkerState(d.states[i].Load())
}

// Run decodes every item in items, each on the worker pool, and returns a
// SequencedChannel that the caller drains via RecvOrdered/TryRecvOrdered to
// get results in input order. Run returns immediately: items are dispatched
// from a background goroutine, so callers start draining the channel right
// away rather than waiting for dispatch to finish.
//
// A decode error for one item is delivered as a (zero Out, err) pair at its
// sequence position rather than aborting the whole run, leaving the caller
// free to treat it as a fatal error or a recoverable per-packet warning.
func (d *Decoder[In, Out]) Run(ctx context.Context, items []In, fn DecodeFunc[In, Out]) *SequencedChannel[Tagged[Out]] {
	d.states = make([]atomic.Int32, len(items))

	out := NewSequencedChannel[Tagged[Out]](d.queueDepth)
	sender := out.NewSender()

	sem := semaphore.NewWeighted(int64(d.workers))

	var inFlight sync.WaitGroup

	go func() {
		defer func() {
			inFlight.Wait()
			sender.Close()
		}()

		for i, item := range items {
			if err := sem.Acquire(ctx, 1); err != nil {
				// Context cancelled: send a tagged error for every
				// remaining item so the consumer's sequence stays
				// contiguous instead of stalling forever.
				for j := i; j < len(items); j++ {
					d.states[j].Store(int32(StateCompleted))
					sender.Send(uint64(j), Tagged[Out]{Err: fmt.Errorf("ordered: %w", ctx.Err())})
				}

				return
			}

			inFlight.Add(1)

			d.states[i].Store(int32(StateDecoding))

			go func(seq int, item In) {
				defer inFlight.Done()
				defer sem.Release(1)

				value, err := fn(ctx, item)

				d.states[seq].Store(int32(StateFlushing))
				sender.Send(uint64(seq), Tagged[Out]{Value: value, Err: err})
				d.states[seq].Store(int32(StateCompleted))
			}(i, item)
		}
	}()

	return out
}

// Tagged carries a decode result or the error that replaced it, so a single
// failed packet can be represented inline in the sequenced stream without
// losing its position.
type Tagged[T any] struct {
	Value T
	Err   error
}
