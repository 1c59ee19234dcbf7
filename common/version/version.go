// Package version provides build-time version information.
package version

import "fmt"

// Name is the program name reported by the CLI and the status endpoint.
const Name = "goomy"

var (
	// Version is the semantic version (set via ldflags).
	Version = "v0.0.0-dev"

	// GitCommit is the git commit hash (set via ldflags).
	GitCommit = "unknown"

	// BuildTime is the build timestamp (set via ldflags).
	BuildTime = "unknown"
)

// Info returns a one-line description of the build.
func Info() string {
	return fmt.Sprintf("%s %s (%s) built at %s", Name, Version, GitCommit, BuildTime)
}
