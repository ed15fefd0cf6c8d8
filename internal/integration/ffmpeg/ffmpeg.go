// Package ffmpeg shells out to ffmpeg to extract a raw PCM stream from a
// container for the DR core to consume. It never transcodes for loudness;
// it only demuxes and reformats bit depth, the same way the probe front-end
// only inspects metadata.
package ffmpeg

import "time"

const (
	name = "ffmpeg"
	// Slow hard-drives spinning up or network retrieved resources may
	// cause timeouts if too aggressive, matching ffprobe's own budget.
	timeout = 60 * time.Second
)
