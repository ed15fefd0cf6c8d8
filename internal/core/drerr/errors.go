// Package drerr defines the error taxonomy shared across the DR measurement
// core. It exists as its own leaf package (rather than living in engine)
// so that convert, engine and the root drmeter package can all produce or
// recognize these sentinels without convert importing engine.
//
// primordium/fault's own sentinel set (ErrMissingRequirements, ErrTimeout,
// ErrCommandFailure, ErrInvalidJSON, ErrReadFailure) covers external-process
// and I/O failures and is used as-is by internal/integration; it has no
// member for "malformed sample input" or "unsupported bit depth", so the
// core defines its own here rather than force-fitting an unrelated sentinel.
package drerr

import "errors"

var (
	// ErrInvalidInput covers malformed or out-of-contract arguments: a
	// sample buffer whose length is not a multiple of the channel count,
	// an unsupported channel count, or zero samples where at least one is
	// required.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFormatError covers source formats the converter cannot represent,
	// such as 8-bit or float64 PCM.
	ErrFormatError = errors.New("unsupported format")

	// ErrIO covers failures reading the underlying stream.
	ErrIO = errors.New("i/o failure")

	// ErrDecodeWarning is non-fatal: it marks a single packet as skipped
	// without aborting the analysis. Callers accumulate a count of these
	// and annotate the final result as partial.
	ErrDecodeWarning = errors.New("decode warning")
)
