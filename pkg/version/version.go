// Package version reports build information.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is injected at build time via -ldflags.
	Version = "dev"
	// BuildTime is injected at build time via -ldflags.
	BuildTime = "unknown"
	// GitCommit is injected at build time via -ldflags.
	GitCommit = "unknown"
)

const appName = "counterbot"

// Info is the build information served by the docs endpoint.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// GetVersion returns the short semantic version.
func GetVersion() string {
	return Version
}

// GetFullVersion returns a user-facing build string.
func GetFullVersion() string {
	if Version == "dev" {
		return fmt.Sprintf("%s/%s (commit: %s, built: %s)", appName, Version, GitCommit, BuildTime)
	}
	return fmt.Sprintf("%s/%s", appName, Version)
}

// GetInfo returns the build information.
func GetInfo() Info {
	return Info{
		Name:      appName,
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}
