// Package version carries build metadata, set at link time via
// -ldflags "-X github.com/Sumatoshi-tech/dagshift/pkg/version.Version=...".
package version

// Build metadata, overridden at link time.
//
//nolint:gochecknoglobals // ldflags targets
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
