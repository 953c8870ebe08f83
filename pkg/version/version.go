// Package version provides version metadata for the application.
package version

import (
	"fmt"
	"runtime"
	"time"
)

// These variables are typically injected at build time using -ldflags
var (
	// Version holds the current version of netspectre.
	Version = "dev"
	// Commit holds the current version commit of netspectre.
	Commit = "none"
	// BuildDate holds the build date of netspectre.
	BuildDate = "unknown"
	// StartDate holds the start time of the process.
	StartDate = time.Now()
)

// Struct returns version information in a structured format.
type Struct struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("NetSpectre engine %s (commit: %s, date: %s)", Version, Commit, BuildDate)
}

// Get returns version information as a Struct.
func Get() Struct {
	return Struct{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Uptime returns how long the process has been running.
func Uptime() time.Duration {
	return time.Since(StartDate)
}
