package drmeter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/farcloser/drmeter/internal/core/convert"
	"github.com/farcloser/drmeter/internal/core/drerr"
	"github.com/farcloser/drmeter/internal/core/engine"
	"github.com/farcloser/drmeter/internal/core/ordered"
)

// ReaderFactory produces a fresh reader over the same underlying audio each
// time it is called, so a caller can re-read a file for a second pass
// without re-parsing CLI arguments or re-opening by hand. A single-pass
// Calculator only ever calls it once; it exists at this layer because the
// CLI surface building on top of drmeter needs it (stdin must be buffered,
// files may be re-opened).
type ReaderFactory func() (io.Reader, error)

// Calculator is the streaming facade over the DR core: construct once per
// stream, feed decoded interleaved f32 chunks of any size via Feed, then
// call Finalize once at stream end.
//
// A Calculator is not safe for concurrent use.
type Calculator struct {
	engine     *engine.Calculator
	sampleRate uint32
	bitDepth   BitDepth
}

// NewCalculator constructs a Calculator for the given sample rate, bit
// depth (recorded for reporting only; the calculator itself operates on
// already-normalized f32 samples) and options.
func NewCalculator(sampleRate uint32, bitDepth BitDepth, opts Options) (*Calculator, error) {
	windowSeconds := opts.WindowSeconds
	if windowSeconds <= 0 {
		windowSeconds = 3.0
	}

	eng, err := engine.New(opts.Channels, opts.SumDoubling, sampleRate, windowSeconds)
	if err != nil {
		return nil, fmt.Errorf("drmeter: %w", err)
	}

	return &Calculator{engine: eng, sampleRate: sampleRate, bitDepth: bitDepth}, nil
}

// Feed streams one chunk of interleaved f32 samples into the measurement.
// Any chunk size is accepted.
func (c *Calculator) Feed(samples []float32) error {
	if err := c.engine.ProcessDecoderChunk(samples); err != nil {
		return fmt.Errorf("drmeter: %w", err)
	}

	return nil
}

// Finalize flushes any in-progress window (subject to the half-window
// rule) and returns the per-channel result.
func (c *Calculator) Finalize() Result {
	return resultFromEngine(c.engine.Finalize(), c.sampleRate, c.bitDepth)
}

// AnalyzeSamples is the convenience, single-call entry point: feed the
// entire interleaved f32 buffer, then finalize. It fails on empty input.
func AnalyzeSamples(sampleRate uint32, opts Options, samples []float32) (Result, error) {
	results, err := engine.CalculateFromSamples(opts.Channels, opts.SumDoubling, sampleRate, nonZero(opts.WindowSeconds), samples)
	if err != nil {
		return Result{}, fmt.Errorf("drmeter: %w", err)
	}

	return resultFromEngine(results, sampleRate, 0), nil
}

func nonZero(windowSeconds float64) float64 {
	if windowSeconds <= 0 {
		return 3.0
	}

	return windowSeconds
}

// rawReadChunkFrames mirrors the buffered decode-loop size the original
// per-check analyzers used: read this many interleaved frames per pass
// rather than the whole stream, bounding peak memory on very long files.
const rawReadChunkFrames = 4096

// AnalyzeRaw reads raw interleaved PCM bytes at the given format from the
// reader produced by factory, decodes it through convert, and streams it
// into a Calculator. A stream that ends mid-frame does not abort the run:
// the dangling bytes are dropped, counted as one skipped packet, and the
// final Result is marked PartialAnalysis; a decode error aborts the run.
// When opts.DecodeWorkers is greater than 1, chunks are
// decoded concurrently on a bounded worker pool and reassembled in stream
// order before being fed to the engine, which is never touched from more
// than one goroutine at a time.
func AnalyzeRaw(factory ReaderFactory, format PCMFormat, opts Options) (Result, error) {
	reader, err := factory()
	if err != nil {
		return Result{}, fmt.Errorf("drmeter: %w", err)
	}

	opts.Channels = int(format.Channels)

	calc, err := NewCalculator(format.SampleRate, format.BitDepth, opts)
	if err != nil {
		return Result{}, err
	}

	bytesPerSample := int(format.BitDepth) / 8
	frameSize := bytesPerSample * opts.Channels

	var skipped int

	if opts.DecodeWorkers > 1 {
		skipped, err = analyzeRawParallel(reader, format, frameSize, calc, opts.DecodeWorkers)
	} else {
		skipped, err = analyzeRawSequential(reader, format, frameSize, calc)
	}

	if err != nil {
		return Result{}, err
	}

	result := calc.Finalize()
	result.SkippedPackets = skipped
	result.PartialAnalysis = skipped > 0

	return result, nil
}

// analyzeRawSequential reads and decodes one chunk at a time on the calling
// goroutine, feeding each into calc as soon as it is decoded.
func analyzeRawSequential(reader io.Reader, format PCMFormat, frameSize int, calc *Calculator) (int, error) {
	buf := make([]byte, frameSize*rawReadChunkFrames)

	var (
		skipped int
		out     []float32
	)

	for {
		n, readErr := io.ReadFull(reader, buf)
		atEOF := errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF)

		if n > 0 {
			// io.ReadFull only ever returns n < len(buf) at the stream's
			// actual end. A remainder that does not fill a whole frame
			// means the stream ended mid-frame: a truncated/corrupt tail.
			// It is dropped and counted as a decode warning rather than
			// silently lost with no accounting.
			usable := n - (n % frameSize)
			if usable < n {
				skipped++
			}

			if usable > 0 {
				decoded, convErr := convert.DecodeInterleavedBytes(buf[:usable], format.BitDepth, out)
				if convErr != nil {
					return 0, fmt.Errorf("drmeter: %w", convErr)
				}

				out = decoded

				if feedErr := calc.Feed(out); feedErr != nil {
					return 0, feedErr
				}
			}
		}

		if readErr != nil {
			if atEOF {
				break
			}

			return 0, fmt.Errorf("drmeter: %w: %w", drerr.ErrIO, readErr)
		}
	}

	return skipped, nil
}

// analyzeRawParallel reads whole chunks up front (the decode step, not the
// read step, is the one worth parallelizing: convert's per-bit-depth loops
// are pure functions of their input bytes), decodes them concurrently on an
// ordered.Decoder worker pool, and drains the resulting SequencedChannel in
// strict stream order, feeding calc from the single draining goroutine.
func analyzeRawParallel(reader io.Reader, format PCMFormat, frameSize int, calc *Calculator, workers int) (int, error) {
	bufSize := frameSize * rawReadChunkFrames

	var (
		chunks  [][]byte
		skipped int
	)

	for {
		buf := make([]byte, bufSize)

		n, readErr := io.ReadFull(reader, buf)
		atEOF := errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF)

		if n > 0 {
			usable := n - (n % frameSize)
			if usable < n {
				skipped++
			}

			if usable > 0 {
				chunks = append(chunks, buf[:usable])
			}
		}

		if readErr != nil {
			if atEOF {
				break
			}

			return 0, fmt.Errorf("drmeter: %w: %w", drerr.ErrIO, readErr)
		}
	}

	decodeFn := func(_ context.Context, chunk []byte) ([]float32, error) {
		return convert.DecodeInterleavedBytes(chunk, format.BitDepth, nil)
	}

	decoder := ordered.NewDecoder[[]byte, []float32](workers, workers*2)
	seq := decoder.Run(context.Background(), chunks, decodeFn)

	for {
		tagged, ok := seq.RecvOrdered()
		if !ok {
			break
		}

		if tagged.Err != nil {
			return 0, fmt.Errorf("drmeter: %w", tagged.Err)
		}

		if feedErr := calc.Feed(tagged.Value); feedErr != nil {
			return 0, feedErr
		}
	}

	return skipped, nil
}
