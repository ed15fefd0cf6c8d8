// Package version holds build-time metadata injected via -ldflags, mirroring
// how the CLI binaries report themselves to --version.
package version

// These are overridden at build time via:
//
//	-ldflags "-X github.com/farcloser/drmeter/version.version=v1.2.3 \
//	          -X github.com/farcloser/drmeter/version.commit=abcdef"
var (
	version = "dev"
	commit  = "unknown"
)

// Name returns the project name shown in CLI banners.
func Name() string {
	return "drmeter"
}

// Version returns the build version string.
func Version() string {
	return version
}

// Commit returns the build's VCS commit hash.
func Commit() string {
	return commit
}
