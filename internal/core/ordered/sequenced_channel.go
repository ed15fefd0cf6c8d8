// Package ordered lets decode work run on a worker pool while the DR engine
// still receives decoded packets in strict source order, via a sequenced
// channel: a many-producer/single-consumer queue fronted by a reorder
// buffer keyed on sequence number.
package ordered

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrDisconnected is returned by TryRecvOrdered once every sender has closed
// and the reorder buffer has been drained.
var ErrDisconnected = errors.New("ordered: channel disconnected")

// ErrEmpty is returned by TryRecvOrdered when the next sequence number has
// not arrived yet but the channel is still open.
var ErrEmpty = errors.New("ordered: no packet ready")

type packet[T any] struct {
	seq     uint64
	payload T
}

// SequencedChannel reassembles packets produced out of order by N
// concurrent senders into the strict 0-based sequence the DR engine
// requires. Senders call Send with their packet's sequence number; exactly
// one receiver calls RecvOrdered or TryRecvOrdered to drain packets in
// order.
type SequencedChannel[T any] struct {
	queue chan packet[T]

	mu           sync.Mutex
	nextExpected uint64
	reorderBuf   map[uint64]T

	senders atomic.Int64
}

// NewSequencedChannel creates a channel with the given bounded queue depth.
// The queue is bounded deliberately: a sender that outruns the consumer
// blocks on Send, which caps the reorder buffer's memory at roughly
// queueDepth * average packet size rather than growing unbounded.
func NewSequencedChannel[T any](queueDepth int) *SequencedChannel[T] {
	return &SequencedChannel[T]{
		queue:      make(chan packet[T], queueDepth),
		reorderBuf: make(map[uint64]T),
	}
}

// NewSender registers one more producer against this channel. Callers must
// call Done (via the returned Sender's Close) once that producer has sent
// its last packet, so the channel can detect disconnection.
func (c *SequencedChannel[T]) NewSender() *Sender[T] {
	c.senders.Add(1)

	return &Sender[T]{channel: c}
}

// Sender is one producer's handle on a SequencedChannel.
type Sender[T any] struct {
	channel *SequencedChannel[T]
	closed  bool
}

// Send enqueues a packet at the given sequence number. It blocks while the
// underlying queue is full. Send on a Sender that has already Closed panics,
// since that indicates a logic error in the caller, not a runtime failure.
func (s *Sender[T]) Send(seq uint64, payload T) {
	if s.closed {
		panic("ordered: Send called on a closed Sender")
	}

	s.channel.queue <- packet[T]{seq: seq, payload: payload}
}

// Close marks this producer done. When the last Sender registered via
// NewSender closes, the channel's underlying queue is closed before Close
// returns; once the reorder buffer is exhausted, RecvOrdered then returns
// false and TryRecvOrdered returns ErrDisconnected.
func (s *Sender[T]) Close() {
	if s.closed {
		return
	}

	s.closed = true

	if s.channel.senders.Add(-1) == 0 {
		close(s.channel.queue)
	}
}

// RecvOrdered blocks until the next expected sequence number is available,
// then returns it and advances the cursor. It returns false once the
// channel has disconnected and no further packets remain.
func (c *SequencedChannel[T]) RecvOrdered() (T, bool) {
	for {
		if v, ok := c.takeExpected(); ok {
			return v, true
		}

		p, open := <-c.queue
		if !open {
			// One last check: a packet satisfying next_expected may have
			// arrived on the queue and been buffered just before close.
			if v, ok := c.takeExpected(); ok {
				return v, true
			}

			var zero T

			return zero, false
		}

		c.store(p)
	}
}

// TryRecvOrdered is the non-blocking variant: it never waits on the queue.
// It returns ErrEmpty if the next expected sequence number has not arrived,
// or ErrDisconnected if every sender has closed and the reorder buffer
// holds nothing more.
func (c *SequencedChannel[T]) TryRecvOrdered() (T, error) {
	if v, ok := c.takeExpected(); ok {
		return v, nil
	}

	for {
		select {
		case p, open := <-c.queue:
			if !open {
				var zero T

				return zero, ErrDisconnected
			}

			c.store(p)

			if v, ok := c.takeExpected(); ok {
				return v, nil
			}
		default:
			var zero T

			return zero, ErrEmpty
		}
	}
}

// takeExpected checks whether the reorder buffer already holds
// next_expected; if so it removes the entry (mandatory: leaving it behind
// is a memory leak) and advances the cursor.
func (c *SequencedChannel[T]) takeExpected() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.reorderBuf[c.nextExpected]
	if !ok {
		var zero T

		return zero, false
	}

	delete(c.reorderBuf, c.nextExpected)
	c.nextExpected++

	return v, true
}

func (c *SequencedChannel[T]) store(p packet[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reorderBuf[p.seq] = p.payload
}

// ReorderBufferLen reports the current number of entries held in the
// reorder buffer. Exercised by tests verifying that consumed entries are
// actually removed rather than leaked.
func (c *SequencedChannel[T]) ReorderBufferLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.reorderBuf)
}
