package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func setVars(t *testing.T, version, commit, branch, buildTime, goVersion string) {
	t.Helper()
	ov, oc, ob, obt, ogv := Version, GitCommit, GitBranch, BuildTime, GoVersion
	t.Cleanup(func() { Version, GitCommit, GitBranch, BuildTime, GoVersion = ov, oc, ob, obt, ogv })
	Version, GitCommit, GitBranch, BuildTime, GoVersion = version, commit, branch, buildTime, goVersion
}

func TestGetVersionInfo(t *testing.T) {
	tests := []struct {
		name        string
		version     string
		buildTime   string
		wantRelease bool
		wantYear    int
	}{
		{"dev build", "dev", "", false, 0},
		{"release", "1.4.0", "2024-01-15T10:30:00Z", true, 2024},
		{"dirty release", "1.4.0-dirty", "2024-01-15T10:30:00Z", false, 2024},
		{"unparsable build time", "1.4.0", "yesterday", true, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setVars(t, tc.version, "abc1234", "main", tc.buildTime, "go1.26.0")
			info := GetVersionInfo()
			if info.Version != tc.version || info.GoVersion != "go1.26.0" || info.GitCommit != "abc1234" {
				t.Errorf("unexpected info %+v", info)
			}
			if info.IsRelease != tc.wantRelease {
				t.Errorf("IsRelease = %v, want %v", info.IsRelease, tc.wantRelease)
			}
			if info.BuildDate.IsZero() {
				t.Fatal("BuildDate should always be set")
			}
			if tc.wantYear != 0 && info.BuildDate.Year() != tc.wantYear {
				t.Errorf("BuildDate = %s", info.BuildDate)
			}
		})
	}
}

func TestMergeBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2025-03-01T12:00:00Z"},
		},
	}

	info := &Info{}
	info.merge(bi)
	if info.GitCommit != "0123456" || !info.IsDirty || info.BuildTime != "2025-03-01T12:00:00Z" || info.GoVersion != "go1.26.0" {
		t.Errorf("unexpected merge result %+v", info)
	}

	linked := &Info{GitCommit: "feedbee", BuildTime: "2024-01-01T00:00:00Z", GoVersion: "go1.25"}
	linked.merge(bi)
	if linked.GitCommit != "feedbee" || linked.BuildTime != "2024-01-01T00:00:00Z" || linked.GoVersion != "go1.25" {
		t.Errorf("linker values must win, got %+v", linked)
	}
}

func TestGetShortVersion(t *testing.T) {
	setVars(t, "1.4.0", "abc1234", "", "2024-01-01T00:00:00Z", "go1.26.0")
	if sv := GetShortVersion(); !strings.HasPrefix(sv, "1.4.0-abc1234") {
		t.Errorf("GetShortVersion() = %q", sv)
	}
	if ua := UserAgent("voicenote"); !strings.HasPrefix(ua, "voicenote/1.4.0-abc1234") {
		t.Errorf("UserAgent() = %q", ua)
	}
}

func TestGetFullVersion(t *testing.T) {
	tests := []struct {
		branch  string
		want    []string
		exclude string
	}{
		{"main", []string{"1.4.0-abc1234", "built 2024-01-15T10:30:00Z", "go1.26.0"}, "main"},
		{"feature/diarize", []string{"1.4.0-abc1234", "feature/diarize"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.branch, func(t *testing.T) {
			setVars(t, "1.4.0", "abc1234", tc.branch, "2024-01-15T10:30:00Z", "go1.26.0")
			fv := GetFullVersion()
			for _, w := range tc.want {
				if !strings.Contains(fv, w) {
					t.Errorf("GetFullVersion() = %q, missing %q", fv, w)
				}
			}
			if tc.exclude != "" && strings.Contains(fv, tc.exclude) {
				t.Errorf("GetFullVersion() = %q, should not contain %q", fv, tc.exclude)
			}
		})
	}
}
