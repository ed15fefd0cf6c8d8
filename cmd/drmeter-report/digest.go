package main

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
)

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Summarize a JSONL dynamic range report",
		ArgsUsage: "<report.jsonl[.gz]>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("expected exactly one argument: report path")
			}

			return runDigest(cmd.Args().First())
		},
	}
}

func runDigest(path string) error {
	records, err := readRecords(path)
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "report is empty")

		return nil
	}

	printDigest(records)

	return nil
}

func readRecords(path string) ([]digestRecord, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := io.Reader(file)

	if strings.HasSuffix(path, ".gz") {
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return nil, err
		}
		defer gzReader.Close()

		reader = gzReader
	}

	var records []digestRecord

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record digestRecord
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}

		records = append(records, record)
	}

	return records, scanner.Err()
}

func printDigest(records []digestRecord) {
	total := len(records)
	failed := 0

	drHistogram := map[int]int{}
	var drValues []float64
	var peakValues []float64

	for _, record := range records {
		if record.Error != "" {
			failed++

			continue
		}

		if dr, ok := parseDRLabel(record.OfficialDR); ok {
			drHistogram[dr]++
			drValues = append(drValues, float64(dr))
		}

		for _, ch := range record.Channels {
			if peak, ok := parseFiniteFloat(ch.PeakDB); ok {
				peakValues = append(peakValues, peak)
			}
		}
	}

	analyzed := total - failed

	fmt.Printf("Files:     %d total, %d analyzed, %d failed\n", total, analyzed, failed)

	if len(drValues) > 0 {
		fmt.Printf("\nOfficial DR distribution (%d files with a finite DR):\n", len(drValues))
		printHistogram(drHistogram)
		fmt.Printf("  mean:   %.1f\n", mean(drValues))
		fmt.Printf("  median: %.1f\n", median(drValues))
	}

	if len(peakValues) > 0 {
		fmt.Printf("\nPeak level (dBFS) across all channels:\n")
		fmt.Printf("  mean:   %.1f\n", mean(peakValues))
		fmt.Printf("  max:    %.1f\n", maxOf(peakValues))
		fmt.Printf("  min:    %.1f\n", minOf(peakValues))
	}

	if failed > 0 {
		fmt.Printf("\nFailures:\n")

		shown := 0

		for _, record := range records {
			if record.Error == "" {
				continue
			}

			fmt.Printf("  %s: %s\n", record.File, record.Error)

			shown++
			if shown >= 20 {
				fmt.Printf("  ... and %d more\n", failed-shown)

				break
			}
		}
	}
}

func parseDRLabel(label string) (int, bool) {
	if label == "" || label == "-1.#J" {
		return 0, false
	}

	v, err := strconv.Atoi(label)
	if err != nil {
		return 0, false
	}

	return v, true
}

func parseFiniteFloat(v float64) (float64, bool) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}

	return v, true
}

func printHistogram(histogram map[int]int) {
	keys := make([]int, 0, len(histogram))
	for k := range histogram {
		keys = append(keys, k)
	}

	sort.Ints(keys)

	for _, k := range keys {
		fmt.Printf("  DR%-3d %s (%d)\n", k, strings.Repeat("#", min(histogram[k], 60)), histogram[k])
	}
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}

	return sorted[mid]
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}

	return m
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}

	return m
}
