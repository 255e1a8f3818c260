// Package version reports the build version of SimpleHome.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// ProductName is the product token name used in the SSDP SERVER header
const ProductName = "SimpleHome"

// Set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/simplehome/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/simplehome/internal/version.Commit=abc123"
//
// Otherwise populated from VCS build info, falling back to "dev".
var (
	Version = ""
	Commit  = ""
)

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo()
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo reads the module version and VCS settings embedded by the go tool
func fromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	var revision, vcsTime string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		case "vcs.time":
			vcsTime = setting.Value
		}
	}

	if Commit == "" && revision != "" {
		Commit = revision[:min(7, len(revision))]
		if dirty {
			Commit += "-dirty"
		}
	}
	if Version == "" && vcsTime != "" {
		if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}
}

// Full returns the version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Product returns the product token advertised by the device, e.g. "SimpleHome/1.2.3"
func Product() string {
	return ProductName + "/" + strings.TrimPrefix(Version, "v")
}
