// Package version provides build information for the nescore emulator.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// String returns a human-readable version line.
func String() string {
	commit := GitCommit
	if commit == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					commit = setting.Value
					break
				}
			}
		}
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("nescore %s (%s) %s %s/%s",
		Version, commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
