/*
Coupons Compose
Copyright 2024 The Coupons Authors
*/
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version string = "0.0.0"
)

// BuildInfo is the version metadata stamped into the binary by the go toolchain.
type BuildInfo struct {
	Version  string
	Time     string
	Revision string
	Dirty    bool
}

// ReadBuildInfo collects the version from the module build info, falling back to Version when built from source
// without module metadata.
func ReadBuildInfo() BuildInfo {
	out := BuildInfo{Version: Version, Time: "local", Revision: "unknown"}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		out.Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.time":
			out.Time = setting.Value
		case "vcs.revision":
			out.Revision = setting.Value
		case "vcs.modified":
			out.Dirty = setting.Value == "true"
		}
	}
	return out
}

func (b BuildInfo) String() string {
	suffix := ""
	if b.Dirty {
		suffix = "-dirty"
	}
	return fmt.Sprintf("%s (build: %s, sha: %s%s)", b.Version, b.Time, b.Revision, suffix)
}

// BuildVersionString is shorthand for ReadBuildInfo().String().
func BuildVersionString() string {
	return ReadBuildInfo().String()
}
