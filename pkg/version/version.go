// Package version reports the build identity of the uimarkup binary.
package version

import (
	"runtime/debug"
	"sync"
)

// Version and GitHash are set at link time:
//
//	-ldflags "-X github.com/Sumatoshi-tech/uimarkup/pkg/version.Version=v1.2.0"
var (
	Version = "dev"
	GitHash = "<unknown>"
)

// Info is the build identity.
type Info struct {
	Version   string `json:"version"   yaml:"version"`
	GitHash   string `json:"git_hash"  yaml:"git_hash"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

var buildInfo = sync.OnceValue(func() *debug.BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}

	return info
})

// Get returns the build identity. Values left at their defaults are filled
// from the module build info when available.
func Get() Info {
	info := Info{Version: Version, GitHash: GitHash}

	bi := buildInfo()
	if bi == nil {
		return info
	}

	info.GoVersion = bi.GoVersion

	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}

	if info.GitHash == "<unknown>" {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				info.GitHash = s.Value
			}
		}
	}

	return info
}
