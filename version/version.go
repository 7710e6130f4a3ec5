// Package version reports imgkit's build information. Version is set at
// link time; the commit and dirty flag come from the embedded VCS stamp.
//
//	go build -ldflags "-X github.com/kbukum/imgkit/version.Version=1.4.0" ./cmd/imgkit
package version

import (
	"runtime/debug"
	"strings"
)

// Version is overwritten with -ldflags at release builds.
var Version = "dev"

// Info is the build description printed by --version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
	GoVersion string `json:"go_version"`
}

// Get reads the build settings of the running binary.
func Get() Info {
	return fromBuildInfo(Version, readBuildInfo())
}

var readBuildInfo = func() *debug.BuildInfo {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return bi
}

func fromBuildInfo(v string, bi *debug.BuildInfo) Info {
	info := Info{Version: v}
	if bi == nil {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
			if len(info.Commit) > 7 {
				info.Commit = info.Commit[:7]
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// String renders v1.2.3-abc1234[-dirty].
func (i Info) String() string {
	parts := []string{i.Version}
	if i.Commit != "" {
		parts = append(parts, i.Commit)
	}
	if i.Dirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "-")
}
