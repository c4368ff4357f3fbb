package version

import "fmt"

// Build variables injected via ldflags:
// -X 'github.com/unfurl-sh/unfurl/pkg/version.Version=v1.0.0'
// -X 'github.com/unfurl-sh/unfurl/pkg/version.CommitHash=abc123'
var (
	Version    = "dev"
	CommitHash = "unknown"
)

// Get returns a printable version string.
func Get() string {
	if CommitHash == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, CommitHash)
}
