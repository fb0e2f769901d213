package version

import (
	"fmt"
	"runtime"
)

const (
	// Name is the application name shown in banners and status output.
	Name = "TynCan"
	// Subtitle expands the acronym.
	Subtitle = "Turn Your Node into a Castable Audio Network"
)

var (
	// Version is the application version, set via ldflags during build.
	Version = "dev"
	// GitCommit is the git commit hash, set via ldflags during build.
	GitCommit = "unknown"
	// BuildDate is the build timestamp, set via ldflags during build.
	BuildDate = "unknown"
)

// Info contains version and build metadata.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns version and build information.
func Get() Info {
	return Info{
		Name:      Name,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns "<name> <version>".
func String() string {
	return Name + " " + Version
}

// Long returns a multi-line description used by the version command.
func Long() string {
	info := Get()
	return fmt.Sprintf("%s %s\n%s\ncommit: %s\nbuilt:  %s\ngo:     %s %s\n",
		info.Name, info.Version, Subtitle, info.GitCommit, info.BuildDate, info.GoVersion, info.Platform)
}
