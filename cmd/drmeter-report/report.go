//nolint:wrapcheck
package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"

	drmeter "github.com/farcloser/drmeter"
	"github.com/farcloser/drmeter/internal/integration/ffmpeg"
	"github.com/farcloser/drmeter/internal/integration/ffprobe"
)

const outputFile = "drmeter-report.jsonl"

var (
	errNotDirectory      = errors.New("not a directory")
	errNoAudioFiles      = errors.New("no .flac or .m4a files found")
	errNoAudioStream     = errors.New("no audio streams found")
	errInvalidSampleRate = errors.New("invalid sample rate")
	errInvalidChannels   = errors.New("invalid channel count")
)

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Scan a music collection and write a dynamic range JSONL report",
		ArgsUsage: "<folder>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "redact-path",
				Usage: "Strip file paths from the report",
			},
			&cli.BoolFlag{
				Name:  "sum-doubling",
				Usage: "Apply the +6.02dB RMS offset some foobar2000 builds use for stereo",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent workers",
				Value:   runtime.NumCPU(),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("expected exactly one argument: folder path")
			}

			folder := cmd.Args().First()
			redact := cmd.Bool("redact-path")
			sumDoubling := cmd.Bool("sum-doubling")
			workers := max(cmd.Int("workers"), 1)

			return runReport(ctx, folder, redact, sumDoubling, workers)
		},
	}
}

func runReport(ctx context.Context, folder string, redact, sumDoubling bool, workers int) error {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%q: %w", folder, errNotDirectory)
	}

	files, err := collectAudioFiles(folder)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("%q: %w", folder, errNoAudioFiles)
	}

	fmt.Fprintf(os.Stderr, "Found %d files to analyze (%d workers)\n", len(files), workers)

	startTime := time.Now()
	results := make([]Record, len(files))

	var progress atomic.Int64

	sem := make(chan struct{}, workers)

	var waitGroup sync.WaitGroup

	for idx, filePath := range files {
		waitGroup.Add(1)

		go func(idx int, filePath string) {
			defer waitGroup.Done()

			sem <- struct{}{}

			defer func() { <-sem }()

			results[idx] = processFile(ctx, filePath, sumDoubling)

			done := progress.Add(1)
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, len(files), filePath)
		}(idx, filePath)
	}

	waitGroup.Wait()

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	failed := 0

	var totalProbe, totalDecode, totalAnalyze time.Duration

	for idx := range results {
		record := &results[idx]

		if record.Error != "" {
			failed++
		}

		if record.Timing != nil {
			totalProbe += millisToDuration(record.Timing.ProbeMs)
			totalDecode += millisToDuration(record.Timing.DecodeMs)
			totalAnalyze += millisToDuration(record.Timing.AnalyzeMs)
		}

		if redact {
			record.File = ""
			record.Probe = redactProbe(record.Probe)
		}

		if err := enc.Encode(record); err != nil {
			fmt.Fprintf(os.Stderr, "writing record for %s: %v\n", files[idx], err)
		}
	}

	out.Close()

	if err := compressFile(outputFile); err != nil {
		fmt.Fprintf(os.Stderr, "compressing report: %v\n", err)
	}

	elapsed := time.Since(startTime)
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60

	fmt.Fprintf(os.Stderr, "\nDone: %d files in %dm %ds (%d failed)\n", len(files), minutes, seconds, failed)
	fmt.Fprintf(os.Stderr, "Report written to %s (and %s.gz)\n", outputFile, outputFile)

	analyzed := len(files) - failed
	fmt.Fprintf(os.Stderr, "\n--- Timing ---\n")
	fmt.Fprintf(os.Stderr, "  Wall clock:  %s\n", elapsed.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  ffprobe:     %s (cumulative)\n", totalProbe.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  ffmpeg:      %s (cumulative)\n", totalDecode.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  analysis:    %s (cumulative)\n", totalAnalyze.Truncate(time.Millisecond))

	if analyzed > 0 {
		fmt.Fprintf(os.Stderr, "  avg/file:    %s (probe: %s, decode: %s, analyze: %s)\n",
			(totalProbe+totalDecode+totalAnalyze)/time.Duration(analyzed),
			totalProbe/time.Duration(analyzed),
			totalDecode/time.Duration(analyzed),
			totalAnalyze/time.Duration(analyzed),
		)
	}

	fmt.Fprintln(os.Stderr)

	return runDigest(outputFile)
}

func processFile(ctx context.Context, filePath string, sumDoubling bool) Record {
	fileStart := time.Now()
	timing := &RecordTiming{}

	probeStart := time.Now()

	probeResult, err := ffprobe.Probe(ctx, filePath)

	timing.ProbeMs = durationMs(time.Since(probeStart))

	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("probe failed: %v", err), Timing: timing}
	}

	stream, err := findAudioStream(probeResult)
	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("no audio stream: %v", err), Timing: timing}
	}

	pcmFormat, err := buildPCMFormat(stream)
	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("format error: %v", err), Timing: timing}
	}

	decodeStart := time.Now()

	file, err := os.Open(filePath) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("open failed: %v", err), Timing: timing}
	}
	defer file.Close()

	var pcmBuf bytes.Buffer

	if err = ffmpeg.ExtractStream(ctx, file, &pcmBuf, 0, &pcmFormat); err != nil {
		timing.DecodeMs = durationMs(time.Since(decodeStart))

		return Record{File: filePath, Error: fmt.Sprintf("extraction failed: %v", err), Timing: timing}
	}

	timing.DecodeMs = durationMs(time.Since(decodeStart))

	pcmData := pcmBuf.Bytes()
	factory := func() (io.Reader, error) {
		return bytes.NewReader(pcmData), nil
	}

	analyzeStart := time.Now()

	opts := drmeter.DefaultOptions(int(pcmFormat.Channels))
	opts.SumDoubling = sumDoubling

	result, err := drmeter.AnalyzeRaw(factory, pcmFormat, opts)

	timing.AnalyzeMs = durationMs(time.Since(analyzeStart))
	timing.TotalMs = durationMs(time.Since(fileStart))

	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("analysis failed: %v", err), Timing: timing}
	}

	record := Record{
		File:       filePath,
		Channels:   channelRecords(result),
		OfficialDR: drLabelForReport(result.OfficialDR),
		Timing:     timing,
	}

	probeJSON, err := json.Marshal(probeResult)
	if err == nil {
		record.Probe = probeJSON
	}

	return record
}

func channelRecords(result drmeter.Result) []ChannelRecord {
	records := make([]ChannelRecord, len(result.PerChannel))
	for i, ch := range result.PerChannel {
		records[i] = ChannelRecord{
			Channel: ch.Channel,
			DR:      drLabelForReport(ch.DR),
			PeakDB:  linearToDBReport(ch.Peak),
			RMSDB:   linearToDBReport(ch.RMS),
		}
	}

	return records
}

func drLabelForReport(dr int) string {
	if dr == math.MaxInt32 {
		return "-1.#J"
	}

	return strconv.Itoa(dr)
}

func linearToDBReport(linear float64) float64 {
	if linear <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func millisToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func findAudioStream(result *ffprobe.Result) (*ffprobe.Stream, error) {
	for i := range result.Streams {
		if result.Streams[i].CodecType == "audio" {
			return &result.Streams[i], nil
		}
	}

	return nil, errNoAudioStream
}

func buildPCMFormat(stream *ffprobe.Stream) (drmeter.PCMFormat, error) {
	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return drmeter.PCMFormat{}, fmt.Errorf("%q: %w", stream.SampleRate, errInvalidSampleRate)
	}

	if stream.Channels <= 0 {
		return drmeter.PCMFormat{}, fmt.Errorf("%d: %w", stream.Channels, errInvalidChannels)
	}

	return drmeter.PCMFormat{
		//nolint:gosec // validated positive value
		SampleRate: uint32(sampleRate),
		BitDepth:   drmeter.BitDepth32,
		Channels:   uint16(stream.Channels), //nolint:gosec // validated positive value
	}, nil
}

func collectAudioFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".flac" || ext == ".m4a" {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)

	return files, nil
}

func compressFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // reading our own output file
	if err != nil {
		return err
	}

	gzFile, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer gzFile.Close()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err := gzWriter.Write(data); err != nil {
		return err
	}

	return gzWriter.Close()
}

func redactProbe(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}

	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return raw
	}

	if format, ok := probe["format"].(map[string]any); ok {
		delete(format, "filename")
	}

	redacted, err := json.Marshal(probe)
	if err != nil {
		return raw
	}

	return redacted
}
