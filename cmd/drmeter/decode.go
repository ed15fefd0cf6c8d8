//nolint:wrapcheck
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	drmeter "github.com/farcloser/drmeter"
	"github.com/farcloser/drmeter/internal/integration/ffmpeg"
	"github.com/farcloser/drmeter/internal/integration/ffprobe"
	"github.com/farcloser/drmeter/internal/report"
)

var errDecodeArgs = errors.New("expected exactly one argument: file path")

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode an audio file via ffprobe/ffmpeg and measure dynamic range",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "stream",
				Usage: "Audio stream index (0-based)",
				Value: 0,
			},
			&cli.BoolFlag{
				Name:  "sum-doubling",
				Usage: "Apply the +6.02dB RMS offset some foobar2000 builds use for stereo",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: console, json, markdown",
				Value:   "console",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errDecodeArgs, cmd.NArg())
			}

			filePath := cmd.Args().First()
			streamIndex := cmd.Int("stream")

			probeResult, err := ffprobe.Probe(ctx, filePath)
			if err != nil {
				return fmt.Errorf("probing file: %w", err)
			}

			stream, err := findAudioStream(probeResult, streamIndex)
			if err != nil {
				return err
			}

			pcmFormat, err := buildPCMFormat(stream)
			if err != nil {
				return err
			}

			file, openErr := os.Open(filePath) //nolint:gosec // CLI tool opens user-specified audio files
			if openErr != nil {
				return fmt.Errorf("opening file: %w", openErr)
			}
			defer file.Close()

			var pcmBuf bytes.Buffer

			if err = ffmpeg.ExtractStream(ctx, file, &pcmBuf, streamIndex, &pcmFormat); err != nil {
				return fmt.Errorf("extracting PCM: %w", err)
			}

			pcmData := pcmBuf.Bytes()
			factory := func() (io.Reader, error) {
				return bytes.NewReader(pcmData), nil
			}

			opts := drmeter.DefaultOptions(int(pcmFormat.Channels))
			opts.SumDoubling = cmd.Bool("sum-doubling")

			result, err := drmeter.AnalyzeRaw(factory, pcmFormat, opts)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			return report.Print(filePath, result, cmd.String("format"))
		},
	}
}

func findAudioStream(result *ffprobe.Result, streamIndex int) (*ffprobe.Stream, error) {
	audioCount := 0

	for i := range result.Streams {
		if result.Streams[i].CodecType == "audio" {
			if audioCount == streamIndex {
				return &result.Streams[i], nil
			}

			audioCount++
		}
	}

	return nil, fmt.Errorf("audio stream index %d not found (file has %d audio streams)", streamIndex, audioCount)
}

// buildPCMFormat extracts PCM at 32-bit regardless of source bit depth,
// matching the extraction quirk the C ABI also documents: bits_per_sample
// is hard-coded to 32 on the decode path since ffmpeg's PCM extraction
// always upsamples to the codec's internal working width.
func buildPCMFormat(stream *ffprobe.Stream) (drmeter.PCMFormat, error) {
	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return drmeter.PCMFormat{}, fmt.Errorf("invalid sample rate from probe: %q", stream.SampleRate)
	}

	if stream.Channels <= 0 {
		return drmeter.PCMFormat{}, fmt.Errorf("invalid channel count from probe: %d", stream.Channels)
	}

	return drmeter.PCMFormat{
		//nolint:gosec // validated positive value
		SampleRate: uint32(sampleRate),
		BitDepth:   drmeter.BitDepth32,
		Channels:   uint16(stream.Channels), //nolint:gosec // validated positive value
	}, nil
}
