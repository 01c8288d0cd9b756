// Package version provides centralized version information for typeidx.
package version

import "runtime/debug"

// These variables can be overridden at build time using ldflags:
// go build -ldflags "-X typeidx/internal/version.Version=1.0.0 -X typeidx/internal/version.Commit=abc123"
var (
	// Version is the semantic version of typeidx
	Version = "0.4.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns a formatted version string
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// fromBuildInfo fills Commit and BuildDate from the VCS stamps the go tool
// embeds, when ldflags did not set them.
func fromBuildInfo(info *debug.BuildInfo) {
	if info == nil {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "unknown" && s.Value != "" {
				Commit = s.Value
			}
		case "vcs.time":
			if BuildDate == "unknown" && s.Value != "" {
				BuildDate = s.Value
			}
		}
	}
}

func init() {
	info, _ := debug.ReadBuildInfo()
	fromBuildInfo(info)
}

// Full returns complete version information
func Full() string {
	return "typeidx version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
