// Package versions reports the build version of the gbfs command.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const (
	unknownStr = "unknown"
)

// Version information set by build using -ldflags
var (
	// Version is the current version of the gbfs client
	Version = "dev"
	// Commit is the git commit hash of the build
	//nolint:goconst // This is a placeholder for the commit hash
	Commit = unknownStr
	// BuildDate is the date when the binary was built
	//nolint:goconst // This is a placeholder for the build date
	BuildDate = unknownStr
)

// SupportedGBFSVersions lists the discovery document layouts the resolver reads
var SupportedGBFSVersions = []string{"1.0", "1.1", "2.0", "2.1", "2.2", "2.3"}

// VersionInfo represents the version information
type VersionInfo struct {
	Version      string   `json:"version"`
	Commit       string   `json:"commit"`
	BuildDate    string   `json:"build_date"`
	GoVersion    string   `json:"go_version"`
	Platform     string   `json:"platform"`
	GBFSVersions []string `json:"gbfs_versions"`
}

// GetVersionInfo returns the version information
func GetVersionInfo() VersionInfo {
	return getVersionInfoWithValues(Version, Commit, BuildDate)
}

// UserAgent returns the User-Agent sent by the gbfs command, e.g. "gbfs-client/v0.3.1"
func UserAgent() string {
	return "gbfs-client/" + GetVersionInfo().Version
}

// getVersionInfoWithValues returns version info with provided values (for testing)
func getVersionInfoWithValues(version, commit, buildDate string) VersionInfo {
	ver := version
	commitVal := commit
	buildDateVal := buildDate

	if strings.HasPrefix(ver, "dev") {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs.revision":
					if commitVal == unknownStr {
						commitVal = setting.Value
					}
				case "vcs.time":
					if buildDateVal == unknownStr {
						buildDateVal = setting.Value
					}
				}
			}
		}
	}

	if buildDateVal != unknownStr {
		if t, err := time.Parse(time.RFC3339, buildDateVal); err == nil {
			buildDateVal = t.UTC().Format("2006-01-02 15:04:05 MST")
		}
	}

	// Development builds are named after the first 8 characters of the commit.
	if ver == "dev" {
		ver = fmt.Sprintf("build-%.*s", 8, commitVal)
	}

	return VersionInfo{
		Version:      ver,
		Commit:       commitVal,
		BuildDate:    buildDateVal,
		GoVersion:    runtime.Version(),
		Platform:     fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		GBFSVersions: SupportedGBFSVersions,
	}
}
