// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/docset/internal/version.Version=v1.2.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String is the one-line form printed by --version.
func String() string {
	return fmt.Sprintf("docset %s (commit %s, built %s)", Version, Commit, Date)
}
