package ffmpeg

import (
	"strconv"

	"github.com/farcloser/drmeter/internal/core/convert"
)

func bitDepthToSpec(bitDepth convert.BitDepth) string {
	// BitDepth 32 = s32le, 24 = s24le, 16 = s16le
	//nolint:gosec // bitDepth is bounded to {16,24,32} by convert.BitDepth's own constructors
	return "s" + strconv.Itoa(int(bitDepth)) + "le"
}

func bitDepthToCodec(bitDepth convert.BitDepth) string {
	switch bitDepth {
	case convert.BitDepth16:
		return "pcm_s16le"
	case convert.BitDepth24:
		return "pcm_s24le"
	default:
		return "pcm_s32le"
	}
}
