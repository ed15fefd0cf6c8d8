// Package scale holds the integer-to-float normalization constants shared by
// convert and simd, kept separate so simd does not import convert.
package scale

const (
	MaxValue16 = 32768.0
	MaxValue24 = 8388608.0
	MaxValue32 = 2147483648.0
)
