package version

import (
	"runtime"
	"runtime/debug"
	"time"
)

// GITVERSION is injected by the build: -ldflags "-X .../pkg/version.GITVERSION=v1.2.3"
var GITVERSION = "v0.0.0-dev"

// BuildVersionInfo describes the running binary.
type BuildVersionInfo struct {
	GitVersion string    `json:"GitVersion"`
	GitCommit  string    `json:"GitCommit"`
	BuildDate  time.Time `json:"BuildDate"`
	GOOS       string    `json:"GOOS"`
	GOARCH     string    `json:"GOARCH"`
	GoVersion  string    `json:"GoVersion"`
}

// Get returns the version of the running binary, filling commit and build
// date from the embedded VCS settings when available.
func Get() *BuildVersionInfo {
	info := &BuildVersionInfo{
		GitVersion: GITVERSION,
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		GoVersion:  runtime.Version(),
	}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.GitCommit = setting.Value
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
				info.BuildDate = t
			}
		}
	}
	return info
}

// TracerName is the instrumentation name used for spans and meters.
func TracerName() string {
	return "github.com/bacalhau-project/eventcollector"
}
