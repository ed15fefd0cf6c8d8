// Package report formats a drmeter.Result for display, following the
// foobar2000 DR Meter's own per-file, per-channel table and its sentinel
// for infinite (silent) dynamic range.
package report

import (
	"fmt"
	"math"
	"os"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/drmeter"
)

// infiniteDRSentinel is foobar2000's own printable stand-in for a +Inf DR
// value (total silence): the source tool renders this exact string rather
// than "Inf" or "NaN".
const infiniteDRSentinel = "-1.#J"

// Print writes result for filePath using formatName ("console", "json", or
// "markdown" — whatever primordium/format.GetFormatter supports).
func Print(filePath string, result drmeter.Result, formatName string) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	data := &format.Data{
		Object: filePath,
		Meta:   buildMeta(result),
	}

	if err := formatter.PrintAll([]*format.Data{data}, os.Stdout); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	return nil
}

func buildMeta(result drmeter.Result) map[string]any {
	meta := map[string]any{
		"official_dr": drLabel(result.OfficialDR),
		"sample_rate": result.SampleRate,
	}

	if result.PartialAnalysis {
		meta["summary"] = fmt.Sprintf("partial analysis (%d packets skipped)", result.SkippedPackets)
	}

	channels := make([]any, len(result.PerChannel))
	for i, ch := range result.PerChannel {
		channels[i] = fmt.Sprintf(
			"Ch%d\tDR%s\t%.2f dB peak\t%.2f dB rms",
			ch.Channel,
			drLabel(ch.DR),
			linearToDB(ch.Peak),
			linearToDB(ch.RMS),
		)
	}

	meta["channels"] = channels

	return meta
}

// drLabel renders the displayed DR, substituting the silence sentinel for
// the math.MaxInt32 convention DrResult uses for +Inf.
func drLabel(dr int) string {
	if dr == math.MaxInt32 {
		return infiniteDRSentinel
	}

	return fmt.Sprintf("%d", dr)
}

// linearToDB converts a linear amplitude to dBFS; a zero (silent) or
// negative input yields -Inf.
func linearToDB(linear float64) float64 {
	if linear <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// BatchLine renders one channel's result as a single tab-separated line for
// batch/report output, matching the original tool's
// "{file}_Ch{ch}\tDR{dr}\t{peak_db}\t{rms_db}\t{rate}Hz\t{channels}\t{duration}s"
// format so existing downstream tooling built against that layout keeps
// working.
func BatchLine(file string, ch drmeter.ChannelResult, sampleRate uint32, channels int, duration float64) string {
	return fmt.Sprintf(
		"%s_Ch%d\tDR%s\t%.2f\t%.2f\t%dHz\t%d\t%.1fs\n",
		file, ch.Channel, drLabel(ch.DR), linearToDB(ch.Peak), linearToDB(ch.RMS), sampleRate, channels, duration,
	)
}
