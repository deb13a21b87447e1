// Package version exposes the build identity of the voicenote binary.
//
// Release builds set the variables below with
//
//	-ldflags "-X github.com/kbukum/voicenote/version.Version=v1.2.0 -X github.com/kbukum/voicenote/version.GitBranch=main"
//
// Unset commit and build time fall back to the VCS stamp embedded by the Go
// toolchain.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Set through -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
	GoVersion = ""
)

const shortCommitLen = 7

// Info is the build identity reported by /info and the startup summary.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	GitBranch string    `json:"git_branch"`
	BuildTime string    `json:"build_time"`
	GoVersion string    `json:"go_version"`
	BuildDate time.Time `json:"build_date"`
	IsRelease bool      `json:"is_release"`
	IsDirty   bool      `json:"is_dirty"`
}

// GetVersionInfo merges the linker variables with the embedded VCS stamp.
func GetVersionInfo() *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		IsRelease: Version != "dev" && !strings.Contains(Version, "dirty"),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.merge(bi)
	}
	if t, err := time.Parse(time.RFC3339, info.BuildTime); err == nil {
		info.BuildDate = t
	} else {
		info.BuildDate = time.Now().UTC()
		info.BuildTime = info.BuildDate.Format(time.RFC3339)
	}
	return info
}

// merge fills fields the linker left empty from the toolchain stamp.
func (i *Info) merge(bi *debug.BuildInfo) {
	if i.GoVersion == "" {
		i.GoVersion = bi.GoVersion
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == "" {
				i.GitCommit = s.Value
			}
		case "vcs.modified":
			i.IsDirty = s.Value == "true"
		case "vcs.time":
			if i.BuildTime == "" {
				i.BuildTime = s.Value
			}
		}
	}
	if len(i.GitCommit) > shortCommitLen {
		i.GitCommit = i.GitCommit[:shortCommitLen]
	}
}

// GetShortVersion returns version-commit[-dirty], or just the version when
// no commit is known.
func GetShortVersion() string {
	info := GetVersionInfo()
	if info.GitCommit == "" {
		return info.Version
	}
	s := info.Version + "-" + info.GitCommit
	if info.IsDirty {
		s += "-dirty"
	}
	return s
}

// GetFullVersion adds the branch (unless main) and build date to the short
// form. Printed by --version.
func GetFullVersion() string {
	info := GetVersionInfo()
	parts := []string{info.Version}
	if info.GitCommit != "" {
		parts = append(parts, info.GitCommit)
	}
	if info.GitBranch != "" && info.GitBranch != "main" && info.GitBranch != "master" {
		parts = append(parts, info.GitBranch)
	}
	if info.IsDirty {
		parts = append(parts, "dirty")
	}
	return fmt.Sprintf("%s (built %s, %s)", strings.Join(parts, "-"),
		info.BuildDate.UTC().Format("2006-01-02T15:04:05Z"), info.GoVersion)
}

// UserAgent identifies the service on outbound requests.
func UserAgent(service string) string {
	return service + "/" + GetShortVersion()
}
