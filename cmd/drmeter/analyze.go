//nolint:staticcheck,wrapcheck // too dumb
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	drmeter "github.com/farcloser/drmeter"
	"github.com/farcloser/drmeter/internal/report"
)

var errInvalidArgCount = errors.New("expected exactly one argument: file path or \"-\" for stdin")

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Measure dynamic range from raw interleaved PCM",
		ArgsUsage: "<file | ->",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "sample-rate",
				Aliases:  []string{"s"},
				Usage:    "Sample rate in Hz (e.g., 44100, 48000, 96000)",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "bit-depth",
				Aliases: []string{"b"},
				Usage:   "Bit depth (16, 24, or 32)",
				Value:   16,
			},
			&cli.IntFlag{
				Name:    "channels",
				Aliases: []string{"c"},
				Usage:   "Number of channels (1 = mono, 2 = stereo)",
				Value:   2,
			},
			&cli.BoolFlag{
				Name:  "sum-doubling",
				Usage: "Apply the +6.02dB RMS offset some foobar2000 builds use for stereo",
			},
			&cli.FloatFlag{
				Name:  "window-seconds",
				Usage: "Measurement window duration in seconds",
				Value: 3.0,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: console, json, markdown",
				Value:   "console",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
			}

			pcmFormat, err := parsePCMFormat(cmd)
			if err != nil {
				return err
			}

			opts := drmeter.DefaultOptions(int(pcmFormat.Channels))
			opts.SumDoubling = cmd.Bool("sum-doubling")
			opts.WindowSeconds = cmd.Float("window-seconds")

			inputPath := cmd.Args().First()

			factory, cleanup, err := readerFactory(inputPath)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := drmeter.AnalyzeRaw(factory, pcmFormat, opts)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			return report.Print(inputPath, result, cmd.String("format"))
		},
	}
}

func parsePCMFormat(cmd *cli.Command) (drmeter.PCMFormat, error) {
	sampleRate := cmd.Int("sample-rate")
	rawBitDepth := cmd.Int("bit-depth")
	channels := cmd.Int("channels")

	bitDepth, err := toBitDepth(rawBitDepth)
	if err != nil {
		return drmeter.PCMFormat{}, fmt.Errorf("--bit-depth: %w", err)
	}

	return drmeter.PCMFormat{
		//nolint:gosec // CLI validates sample-rate/channels are positive before this point
		SampleRate: uint32(sampleRate),
		BitDepth:   bitDepth,
		Channels:   uint16(channels), //nolint:gosec // validated positive value
	}, nil
}

var errInvalidBitDepth = errors.New("must be 16, 24, or 32")

func toBitDepth(v int) (drmeter.BitDepth, error) {
	switch v {
	case 16:
		return drmeter.BitDepth16, nil
	case 24:
		return drmeter.BitDepth24, nil
	case 32:
		return drmeter.BitDepth32, nil
	default:
		return 0, errInvalidBitDepth
	}
}

// readerFactory returns a factory that produces fresh readers for the
// single-pass analysis AnalyzeRaw performs. For files, it re-opens the
// file. For stdin, it buffers the entire input so a second invocation
// (e.g. a future multi-pass check) would still be possible.
func readerFactory(source string) (drmeter.ReaderFactory, func(), error) {
	if source == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, func() {}, fmt.Errorf("reading stdin: %w", err)
		}

		factory := func() (io.Reader, error) {
			return bytes.NewReader(data), nil
		}

		return factory, func() {}, nil
	}

	if _, err := os.Stat(source); err != nil {
		return nil, func() {}, fmt.Errorf("cannot access %s: %w", source, err)
	}

	factory := func() (io.Reader, error) {
		return os.Open(source) //nolint:gosec // CLI tool opens user-specified audio files
	}

	return factory, func() {}, nil
}
