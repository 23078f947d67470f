// Package buildinfo carries values stamped in at link time:
//
//	go build -ldflags "-X github.com/m3rciful/quizbot/core/buildinfo.Version=v0.3.0 \
//	  -X github.com/m3rciful/quizbot/core/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/m3rciful/quizbot/core/buildinfo.Date=$(date -u +%FT%TZ)"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "local"
	// Date is RFC3339, empty for local builds.
	Date = ""
)

// String renders the build for version output and the startup log.
func String() string {
	date := Date
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, date)
}
