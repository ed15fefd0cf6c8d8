//nolint:tagliatelle
package main

import "encoding/json"

// Record is a single line in the JSONL report file.
type Record struct {
	File       string          `json:"file,omitempty"`
	Channels   []ChannelRecord `json:"channels,omitempty"`
	OfficialDR string          `json:"official_dr,omitempty"`
	Probe      json.RawMessage `json:"probe,omitempty"`
	Error      string          `json:"error,omitempty"`
	Timing     *RecordTiming   `json:"timing,omitempty"`
}

// ChannelRecord is one channel's measurement in a Record.
type ChannelRecord struct {
	Channel int     `json:"channel"`
	DR      string  `json:"dr"`
	PeakDB  float64 `json:"peak_db"`
	RMSDB   float64 `json:"rms_db"`
}

// RecordTiming captures per-file processing durations in milliseconds.
type RecordTiming struct {
	ProbeMs   float64 `json:"probe_ms"`
	DecodeMs  float64 `json:"decode_ms"`
	AnalyzeMs float64 `json:"analyze_ms"`
	TotalMs   float64 `json:"total_ms"`
}

// digestRecord holds the typed fields needed by the digest command.
type digestRecord struct {
	File       string          `json:"file,omitempty"`
	Channels   []ChannelRecord `json:"channels,omitempty"`
	OfficialDR string          `json:"official_dr,omitempty"`
	Error      string          `json:"error,omitempty"`
}
