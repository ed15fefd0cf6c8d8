package engine

import (
	"fmt"

	"github.com/farcloser/drmeter/internal/core/drerr"
)

// ErrUnsupportedChannelCount is returned by New when channels is not 1 or 2.
// Multi-channel (>= 3) streams need an upstream channel reducer (LFE
// exclusion, downmix) that is out of scope for the DR core itself.
var ErrUnsupportedChannelCount = fmt.Errorf("%w: only mono or stereo supported", drerr.ErrInvalidInput)

// ErrEmptyInput is returned by CalculateFromSamples when given zero samples.
var ErrEmptyInput = fmt.Errorf("%w: no samples provided", drerr.ErrInvalidInput)

// ErrChannelMismatch is returned when a sample buffer's length is not a
// multiple of the channel count.
var ErrChannelMismatch = fmt.Errorf("%w: sample count not a multiple of channel count", drerr.ErrInvalidInput)
