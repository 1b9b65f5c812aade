package config

// Set at release time via -ldflags -X, e.g.
// -X .../internal/config.version=$(git describe --tags). The defaults
// identify a local, untagged build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo returns the build metadata stamped into the binary. The
// result is attached to Config.Build and logged once at startup.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}
