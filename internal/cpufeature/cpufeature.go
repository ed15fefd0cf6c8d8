// Package cpufeature probes the host's vector instruction support once, at
// first use, and exposes the result read-only thereafter. It mirrors the
// source tool's lazy, process-wide SIMD capability detection.
package cpufeature

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// Caps describes which vector kernel widths the host can execute. At most
// one of AVX2, SSE2, NEON is meaningful on a given architecture; Scalar is
// always true as the universal fallback.
type Caps struct {
	AVX2   bool
	SSE2   bool
	NEON   bool
	Scalar bool
}

var (
	once   sync.Once
	caps   Caps
)

// Capabilities returns the process-wide capability set, probing the host on
// first call and memoizing the result.
func Capabilities() Caps {
	once.Do(func() {
		caps = Caps{
			AVX2:   cpu.X86.HasAVX2,
			SSE2:   cpu.X86.HasSSE2,
			NEON:   cpu.ARM64.HasASIMD,
			Scalar: true,
		}
	})

	return caps
}
